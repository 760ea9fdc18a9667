package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/innovatec/aforo/pkg/dataset"
	"github.com/innovatec/aforo/pkg/task"
)

// Defaults used when a document carries no usable timestamp or histogram.
const (
	defaultDayOfWeek = 0
	defaultHour      = 12
	defaultPeakHour  = 12
)

// Extractor builds training tables from the analytics database.
type Extractor struct {
	db       *mongo.Database
	logger   *slog.Logger
	lookback time.Duration

	// buildings optionally restricts extraction to a known building
	// universe. Nil means no filtering.
	buildings map[string]bool

	now func() time.Time
}

// NewExtractor creates an extractor over db with the given lookback window.
// buildings may be nil.
func NewExtractor(db *mongo.Database, logger *slog.Logger, lookbackDays int, buildings map[string]bool) *Extractor {
	return &Extractor{
		db:        db,
		logger:    logger,
		lookback:  time.Duration(lookbackDays) * 24 * time.Hour,
		buildings: buildings,
		now:       time.Now,
	}
}

func (e *Extractor) since() time.Time {
	return e.now().Add(-e.lookback)
}

func (e *Extractor) knownBuilding(id string) bool {
	if e.buildings == nil {
		return true
	}
	return e.buildings[id]
}

// Attendance builds the event attendance training table. The target falls
// back through actualAttendance, attendancePrediction and uniqueVisitors, in
// that order.
func (e *Extractor) Attendance(ctx context.Context) (dataset.Table, error) {
	docs, err := e.eventAnalytics(ctx)
	if err != nil {
		return dataset.Table{}, err
	}

	t := dataset.Table{
		Columns: task.Attendance.Features,
		Target:  task.Attendance.Target,
	}
	for _, doc := range docs {
		day, hour := dayHour(doc.Date)
		t.Rows = append(t.Rows, dataset.Row{
			"viewCount":       doc.ViewCount,
			"uniqueVisitors":  doc.UniqueVisitors,
			"dayOfWeek":       day,
			"hour":            hour,
			"category_count":  categoryCount(doc.Category),
			"popularityScore": doc.PopularityScore,
			t.Target:          attendanceTarget(doc),
		})
	}

	e.logger.Info("extracted attendance table", "rows", len(t.Rows))
	return t, nil
}

// Mobility builds the building mobility demand table. The demand target is
// uniqueVisitors scaled up by the number of events hosted that day.
func (e *Extractor) Mobility(ctx context.Context) (dataset.Table, error) {
	docs, err := e.buildingAnalytics(ctx)
	if err != nil {
		return dataset.Table{}, err
	}

	events, err := e.eventCounts(ctx)
	if err != nil {
		return dataset.Table{}, err
	}

	t := dataset.Table{
		Columns: task.Mobility.Features,
		Target:  task.Mobility.Target,
	}
	for _, doc := range docs {
		day, hour := dayHour(doc.Date)
		eventsCount := events[dayKey(doc.BuildingID, doc.Date)]

		t.Rows = append(t.Rows, dataset.Row{
			"viewCount":           doc.ViewCount,
			"uniqueVisitors":      doc.UniqueVisitors,
			"dayOfWeek":           day,
			"hour":                hour,
			"peakHour":            PeakHourOf(doc.PeakHours),
			"eventsCount":         eventsCount,
			"averageViewDuration": doc.AverageViewDuration,
			t.Target:              doc.UniqueVisitors * (1 + task.DemandEventFactor*eventsCount),
		})
	}

	e.logger.Info("extracted mobility table", "rows", len(t.Rows))
	return t, nil
}

// Saturation builds the saturation classification table from both building
// and event analytics, labeled by the per-counter threshold policy.
func (e *Extractor) Saturation(ctx context.Context) (dataset.Table, error) {
	buildingDocs, err := e.buildingAnalytics(ctx)
	if err != nil {
		return dataset.Table{}, err
	}
	eventDocs, err := e.eventAnalytics(ctx)
	if err != nil {
		return dataset.Table{}, err
	}

	t := dataset.Table{
		Columns: task.Saturation.Features,
		Target:  task.Saturation.Target,
	}

	for _, doc := range buildingDocs {
		day, hour := dayHour(doc.Date)
		t.Rows = append(t.Rows, dataset.Row{
			"viewCount":           doc.ViewCount,
			"uniqueVisitors":      doc.UniqueVisitors,
			"dayOfWeek":           day,
			"hour":                hour,
			"peakVisits":          peakVisits(doc.PeakHours),
			"averageViewDuration": doc.AverageViewDuration,
			"type":                task.EntityBuilding,
			"popularityScore":     0,
			t.Target:              float64(task.BuildingSaturationLevel(doc.ViewCount, doc.UniqueVisitors)),
		})
	}

	for _, doc := range eventDocs {
		day, hour := dayHour(doc.Date)
		t.Rows = append(t.Rows, dataset.Row{
			"viewCount":           doc.ViewCount,
			"uniqueVisitors":      doc.UniqueVisitors,
			"dayOfWeek":           day,
			"hour":                hour,
			"peakVisits":          0,
			"averageViewDuration": 0,
			"type":                task.EntityEvent,
			"popularityScore":     doc.PopularityScore,
			t.Target:              float64(task.EventSaturationLevel(doc.ViewCount, doc.UniqueVisitors, doc.PopularityScore)),
		})
	}

	e.logger.Info("extracted saturation table",
		"rows", len(t.Rows),
		"building_rows", len(buildingDocs),
		"event_rows", len(eventDocs))
	return t, nil
}

func (e *Extractor) eventAnalytics(ctx context.Context) ([]EventAnalytics, error) {
	cur, err := e.db.Collection(collEventAnalytics).Find(ctx, e.windowFilter())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collEventAnalytics, err)
	}

	var docs []EventAnalytics
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collEventAnalytics, err)
	}

	kept := docs[:0]
	for _, doc := range docs {
		if doc.BuildingID == "" || e.knownBuilding(doc.BuildingID) {
			kept = append(kept, doc)
		}
	}
	return kept, nil
}

func (e *Extractor) buildingAnalytics(ctx context.Context) ([]BuildingAnalytics, error) {
	cur, err := e.db.Collection(collBuildingAnalytics).Find(ctx, e.windowFilter())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collBuildingAnalytics, err)
	}

	var docs []BuildingAnalytics
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collBuildingAnalytics, err)
	}

	kept := docs[:0]
	for _, doc := range docs {
		if e.knownBuilding(doc.BuildingID) {
			kept = append(kept, doc)
		}
	}
	return kept, nil
}

// eventCounts counts scheduled events per building per calendar day inside
// the lookback window.
func (e *Extractor) eventCounts(ctx context.Context) (map[string]float64, error) {
	filter := bson.M{"date_time": bson.M{"$gte": e.since()}}
	cur, err := e.db.Collection(collEvents).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collEvents, err)
	}

	var docs []Event
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collEvents, err)
	}

	counts := make(map[string]float64)
	for _, doc := range docs {
		for _, id := range doc.BuildingAssigned {
			counts[dayKey(id, doc.DateTime)]++
		}
	}
	return counts, nil
}

func (e *Extractor) windowFilter() bson.M {
	return bson.M{"date": bson.M{"$gte": e.since()}}
}

func dayKey(buildingID string, t time.Time) string {
	return buildingID + "|" + t.UTC().Format("2006-01-02")
}

// ISOWeekday maps a time to the ISO weekday index with Monday as 0.
func ISOWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// dayHour derives the dayOfWeek and hour features from a document timestamp.
// Documents without a timestamp get the fixed defaults.
func dayHour(t time.Time) (day, hour float64) {
	if t.IsZero() {
		return defaultDayOfWeek, defaultHour
	}
	return float64(ISOWeekday(t)), float64(t.Hour())
}

// PeakHourOf returns the hour with the highest visit count, first maximum
// winning ties, or the default when the histogram is empty.
func PeakHourOf(peaks []PeakHour) float64 {
	if len(peaks) == 0 {
		return defaultPeakHour
	}
	best := peaks[0]
	for _, p := range peaks[1:] {
		if p.Count > best.Count {
			best = p
		}
	}
	return float64(best.Hour)
}

func peakVisits(peaks []PeakHour) float64 {
	max := 0.0
	for _, p := range peaks {
		if p.Count > max {
			max = p.Count
		}
	}
	return max
}

func categoryCount(categories []string) float64 {
	if len(categories) == 0 {
		return 1
	}
	return float64(len(categories))
}

func attendanceTarget(doc EventAnalytics) float64 {
	if doc.ActualAttendance != nil {
		return *doc.ActualAttendance
	}
	if doc.AttendancePrediction != nil {
		return *doc.AttendancePrediction
	}
	return doc.UniqueVisitors
}
