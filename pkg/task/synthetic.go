package task

import (
	"math"
	"math/rand"

	"github.com/innovatec/aforo/pkg/dataset"
)

// Coefficients of the synthetic attendance relation:
// attendance = SyntheticViewCoef·viewCount + SyntheticVisitorCoef·uniqueVisitors + noise.
const (
	SyntheticViewCoef    = 0.3
	SyntheticVisitorCoef = 1.5
)

// Synthetic generates the deterministic fallback dataset for a task. The
// same seed always yields the same table, so training can proceed in
// development and test environments with no real analytics data. This is a
// documented degradation path, not an error.
func Synthetic(t Task, seed int64) dataset.Table {
	rng := rand.New(rand.NewSource(seed))

	switch t.Name {
	case Mobility.Name:
		return syntheticMobility(t, rng)
	case Saturation.Name:
		return syntheticSaturation(t, rng)
	default:
		return syntheticAttendance(t, rng)
	}
}

func syntheticAttendance(t Task, rng *rand.Rand) dataset.Table {
	tbl := dataset.Table{Columns: t.Features, Target: t.Target}

	for i := 0; i < t.SyntheticSize; i++ {
		viewCount := float64(randRange(rng, 10, 500))
		uniqueVisitors := float64(randRange(rng, 5, 200))

		attendance := SyntheticViewCoef*viewCount + SyntheticVisitorCoef*uniqueVisitors + rng.NormFloat64()*10
		attendance = math.Max(0, math.Trunc(attendance))

		tbl.Rows = append(tbl.Rows, dataset.Row{
			"viewCount":       viewCount,
			"uniqueVisitors":  uniqueVisitors,
			"dayOfWeek":       float64(randRange(rng, 0, 7)),
			"hour":            float64(randRange(rng, 8, 20)),
			"category_count":  float64(randRange(rng, 1, 5)),
			"popularityScore": rng.Float64() * 100,
			t.Target:          attendance,
		})
	}

	return tbl
}

func syntheticMobility(t Task, rng *rand.Rand) dataset.Table {
	tbl := dataset.Table{Columns: t.Features, Target: t.Target}

	for i := 0; i < t.SyntheticSize; i++ {
		uniqueVisitors := float64(randRange(rng, 10, 200))
		eventsCount := float64(randRange(rng, 0, 5))

		demand := uniqueVisitors*(1+eventsCount*DemandEventFactor) + rng.NormFloat64()*15
		demand = math.Max(0, math.Trunc(demand))

		tbl.Rows = append(tbl.Rows, dataset.Row{
			"viewCount":           float64(randRange(rng, 20, 500)),
			"uniqueVisitors":      uniqueVisitors,
			"dayOfWeek":           float64(randRange(rng, 0, 7)),
			"hour":                float64(randRange(rng, 8, 20)),
			"peakHour":            float64(randRange(rng, 8, 18)),
			"eventsCount":         eventsCount,
			"averageViewDuration": 10 + rng.Float64()*290,
			t.Target:              demand,
		})
	}

	return tbl
}

func syntheticSaturation(t Task, rng *rand.Rand) dataset.Table {
	tbl := dataset.Table{Columns: t.Features, Target: t.Target}

	for i := 0; i < t.SyntheticSize; i++ {
		viewCount := float64(randRange(rng, 10, 500))
		uniqueVisitors := float64(randRange(rng, 5, 200))
		entityType := float64(randRange(rng, 0, 2))
		popularity := rng.Float64() * 600

		var level int
		if entityType == EntityEvent {
			level = EventSaturationLevel(viewCount, uniqueVisitors, popularity)
		} else {
			level = BuildingSaturationLevel(viewCount, uniqueVisitors)
		}

		tbl.Rows = append(tbl.Rows, dataset.Row{
			"viewCount":           viewCount,
			"uniqueVisitors":      uniqueVisitors,
			"dayOfWeek":           float64(randRange(rng, 0, 7)),
			"hour":                float64(randRange(rng, 8, 20)),
			"peakVisits":          float64(randRange(rng, 0, 100)),
			"averageViewDuration": 10 + rng.Float64()*290,
			"type":                entityType,
			"popularityScore":     popularity,
			t.Target:              float64(level),
		})
	}

	return tbl
}

// randRange returns a uniform integer in [low, high).
func randRange(rng *rand.Rand, low, high int) int {
	return low + rng.Intn(high-low)
}
