// Package task defines the three prediction tasks served by the platform:
// event attendance, building mobility demand, and saturation level.
//
// Each task fixes a feature schema, a target, and a model output type. The
// composite scores and banding thresholds used when deriving training
// targets are deliberate policy, kept as named constants so they can be
// inspected and tested rather than buried in extraction code.
package task

import "fmt"

// Kind is the output type of a task's model.
type Kind int

const (
	// Regression tasks predict a continuous value clamped to a
	// non-negative integer at serving time.
	Regression Kind = iota

	// Classification tasks predict one of a fixed set of class values.
	Classification
)

// Entity type values for the saturation task's "type" feature.
const (
	EntityBuilding = 0
	EntityEvent    = 1
)

// Mobility demand score weights and bands. The demand score is
// DemandViewWeight·viewCount + DemandVisitorWeight·uniqueVisitors +
// DemandEventWeight·eventsCount, banded into Baja/Media/Alta.
const (
	DemandViewWeight    = 0.4
	DemandVisitorWeight = 0.3
	DemandEventWeight   = 10.0

	DemandMediaThreshold = 50.0
	DemandAltaThreshold  = 100.0
)

// DemandEventFactor scales the mobility regression target: demand =
// uniqueVisitors · (1 + DemandEventFactor·eventsCount).
const DemandEventFactor = 0.5

// Saturation composite score weights and level thresholds. The score is
// SaturationViewWeight·viewCount + SaturationVisitorWeight·uniqueVisitors +
// SaturationPeakWeight·peakVisits, thresholded into levels 0-3.
const (
	SaturationViewWeight    = 0.3
	SaturationVisitorWeight = 0.2
	SaturationPeakWeight    = 0.5

	SaturationBajaThreshold  = 50.0
	SaturationMediaThreshold = 100.0
	SaturationAltaThreshold  = 150.0
)

// Per-counter saturation thresholds used when labeling building analytics
// rows for training.
const (
	BuildingAltaVisitors  = 150.0
	BuildingAltaViews     = 300.0
	BuildingMediaVisitors = 100.0
	BuildingMediaViews    = 200.0
	BuildingBajaVisitors  = 50.0
	BuildingBajaViews     = 100.0
)

// Per-counter saturation thresholds for event analytics rows. Events reach
// each level at lower visitor counts than buildings but also weigh their
// popularity score.
const (
	EventAltaVisitors   = 100.0
	EventAltaViews      = 200.0
	EventAltaPopularity = 500.0

	EventMediaVisitors   = 60.0
	EventMediaViews      = 120.0
	EventMediaPopularity = 300.0

	EventBajaVisitors   = 30.0
	EventBajaViews      = 60.0
	EventBajaPopularity = 150.0
)

// Task describes one prediction domain.
type Task struct {
	// Name identifies the task in artifact file names and URL paths.
	Name string

	// Kind selects the model families used for the task.
	Kind Kind

	// Features lists the feature fields in the canonical training order.
	Features []string

	// Target is the name of the training target column.
	Target string

	// SyntheticSize is the row count of the deterministic synthetic
	// dataset substituted when too little real data is available.
	SyntheticSize int

	// Defaults supplies payload defaults for features that default to a
	// value other than zero.
	Defaults map[string]float64
}

var (
	// Attendance predicts expected attendance for an event.
	Attendance = Task{
		Name:          "attendance",
		Kind:          Regression,
		Features:      []string{"viewCount", "uniqueVisitors", "dayOfWeek", "hour", "category_count", "popularityScore"},
		Target:        "attendance",
		SyntheticSize: 100,
		Defaults:      map[string]float64{"category_count": 1},
	}

	// Mobility predicts inter-building mobility demand.
	Mobility = Task{
		Name:          "mobility",
		Kind:          Regression,
		Features:      []string{"viewCount", "uniqueVisitors", "dayOfWeek", "hour", "peakHour", "eventsCount", "averageViewDuration"},
		Target:        "mobilityDemand",
		SyntheticSize: 200,
	}

	// Saturation predicts the saturation level (0-3) of a building or event.
	Saturation = Task{
		Name:          "saturation",
		Kind:          Classification,
		Features:      []string{"viewCount", "uniqueVisitors", "dayOfWeek", "hour", "peakVisits", "averageViewDuration", "type", "popularityScore"},
		Target:        "saturationLevel",
		SyntheticSize: 300,
	}
)

// All returns the tasks in their canonical order.
func All() []Task {
	return []Task{Attendance, Mobility, Saturation}
}

// ByName looks a task up by its name.
func ByName(name string) (Task, bool) {
	for _, t := range All() {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

// saturationLabels maps a saturation level to its human label.
var saturationLabels = map[int]string{
	0: "Normal",
	1: "Baja",
	2: "Media",
	3: "Alta",
}

// SaturationLabel returns the human label for a saturation level. Levels
// outside 0-3 fall back to "Normal".
func SaturationLabel(level int) string {
	if label, ok := saturationLabels[level]; ok {
		return label
	}
	return "Normal"
}

// ClassLabel formats a class value for model metadata, e.g. "Media (2)".
func (t Task) ClassLabel(value float64) string {
	level := int(value)
	if t.Name == Saturation.Name {
		return fmt.Sprintf("%s (%d)", SaturationLabel(level), level)
	}
	return fmt.Sprintf("%d", level)
}

// DemandScore computes the mobility demand score from raw counters.
func DemandScore(viewCount, uniqueVisitors, eventsCount float64) float64 {
	return DemandViewWeight*viewCount + DemandVisitorWeight*uniqueVisitors + DemandEventWeight*eventsCount
}

// DemandLabel bands a demand score into Baja/Media/Alta.
func DemandLabel(score float64) string {
	switch {
	case score > DemandAltaThreshold:
		return "Alta"
	case score > DemandMediaThreshold:
		return "Media"
	default:
		return "Baja"
	}
}

// SaturationScore computes the composite saturation score from raw counters.
func SaturationScore(viewCount, uniqueVisitors, peakVisits float64) float64 {
	return SaturationViewWeight*viewCount + SaturationVisitorWeight*uniqueVisitors + SaturationPeakWeight*peakVisits
}

// SaturationLevelFromScore thresholds a composite score into a level 0-3.
func SaturationLevelFromScore(score float64) int {
	switch {
	case score > SaturationAltaThreshold:
		return 3
	case score > SaturationMediaThreshold:
		return 2
	case score > SaturationBajaThreshold:
		return 1
	default:
		return 0
	}
}

// BuildingSaturationLevel labels a building analytics row by its counters.
func BuildingSaturationLevel(viewCount, uniqueVisitors float64) int {
	switch {
	case uniqueVisitors > BuildingAltaVisitors || viewCount > BuildingAltaViews:
		return 3
	case uniqueVisitors > BuildingMediaVisitors || viewCount > BuildingMediaViews:
		return 2
	case uniqueVisitors > BuildingBajaVisitors || viewCount > BuildingBajaViews:
		return 1
	default:
		return 0
	}
}

// EventSaturationLevel labels an event analytics row by its counters.
func EventSaturationLevel(viewCount, uniqueVisitors, popularityScore float64) int {
	switch {
	case uniqueVisitors > EventAltaVisitors || viewCount > EventAltaViews || popularityScore > EventAltaPopularity:
		return 3
	case uniqueVisitors > EventMediaVisitors || viewCount > EventMediaViews || popularityScore > EventMediaPopularity:
		return 2
	case uniqueVisitors > EventBajaVisitors || viewCount > EventBajaViews || popularityScore > EventBajaPopularity:
		return 1
	default:
		return 0
	}
}
