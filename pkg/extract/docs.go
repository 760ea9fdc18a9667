package extract

import "time"

// Collection names in the analytics database.
const (
	collEventAnalytics    = "event_analytics"
	collBuildingAnalytics = "building_analytics"
	collEvents            = "events"
)

// PeakHour is one entry of a building's hourly visit histogram.
type PeakHour struct {
	Hour  int     `bson:"hour"`
	Count float64 `bson:"count"`
}

// BuildingAnalytics is one daily building usage document.
type BuildingAnalytics struct {
	BuildingID          string     `bson:"buildingId"`
	ViewCount           float64    `bson:"viewCount"`
	UniqueVisitors      float64    `bson:"uniqueVisitors"`
	AverageViewDuration float64    `bson:"averageViewDuration"`
	PeakHours           []PeakHour `bson:"peakHours"`
	Date                time.Time  `bson:"date"`
}

// EventAnalytics is one event usage document. The attendance fields are
// pointers because historical documents predate them.
type EventAnalytics struct {
	EventID              string    `bson:"eventId"`
	BuildingID           string    `bson:"buildingId"`
	ViewCount            float64   `bson:"viewCount"`
	UniqueVisitors       float64   `bson:"uniqueVisitors"`
	Category             []string  `bson:"category"`
	AttendancePrediction *float64  `bson:"attendancePrediction"`
	ActualAttendance     *float64  `bson:"actualAttendance"`
	PopularityScore      float64   `bson:"popularityScore"`
	Date                 time.Time `bson:"date"`
}

// Event is a scheduled event document, used only to count events per
// building per day.
type Event struct {
	BuildingAssigned []string  `bson:"building_assigned"`
	DateTime         time.Time `bson:"date_time"`
}
