package extract

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestISOWeekday(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), 0},  // Monday
		{time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), 2},  // Wednesday
		{time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC), 5},  // Saturday
		{time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC), 6},  // Sunday
	}
	for _, tt := range tests {
		if got := ISOWeekday(tt.date); got != tt.want {
			t.Errorf("ISOWeekday(%s) = %d, want %d", tt.date.Weekday(), got, tt.want)
		}
	}
}

func TestDayHour_Defaults(t *testing.T) {
	day, hour := dayHour(time.Time{})
	if day != 0 || hour != 12 {
		t.Errorf("dayHour(zero) = %v, %v; want 0, 12", day, hour)
	}

	day, hour = dayHour(time.Date(2026, 3, 6, 15, 30, 0, 0, time.UTC)) // Friday
	if day != 4 || hour != 15 {
		t.Errorf("dayHour(Friday 15:30) = %v, %v; want 4, 15", day, hour)
	}
}

func TestPeakHourOf(t *testing.T) {
	tests := []struct {
		name  string
		peaks []PeakHour
		want  float64
	}{
		{"empty histogram", nil, 12},
		{"single entry", []PeakHour{{Hour: 9, Count: 5}}, 9},
		{
			"max wins",
			[]PeakHour{{Hour: 9, Count: 5}, {Hour: 14, Count: 20}, {Hour: 17, Count: 3}},
			14,
		},
		{
			"first max wins ties",
			[]PeakHour{{Hour: 10, Count: 8}, {Hour: 16, Count: 8}},
			10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeakHourOf(tt.peaks); got != tt.want {
				t.Errorf("PeakHourOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttendanceTarget_FallbackChain(t *testing.T) {
	actual, predicted := 120.0, 90.0

	tests := []struct {
		name string
		doc  EventAnalytics
		want float64
	}{
		{"actual wins", EventAnalytics{ActualAttendance: &actual, AttendancePrediction: &predicted, UniqueVisitors: 40}, 120},
		{"prediction next", EventAnalytics{AttendancePrediction: &predicted, UniqueVisitors: 40}, 90},
		{"visitors last", EventAnalytics{UniqueVisitors: 40}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attendanceTarget(tt.doc); got != tt.want {
				t.Errorf("attendanceTarget() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryCount(t *testing.T) {
	if got := categoryCount(nil); got != 1 {
		t.Errorf("categoryCount(nil) = %v, want 1", got)
	}
	if got := categoryCount([]string{"cultura", "deporte"}); got != 2 {
		t.Errorf("categoryCount(2 items) = %v, want 2", got)
	}
}

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"properties": {"id": "B-01", "tipo": "EDIFICIO"}},
    {"properties": {"id": "P-07", "tipo": "PARKING"}},
    {"properties": {"id": "B-02", "tipo": "EDIFICIO"}},
    {"properties": {"tipo": "EDIFICIO"}}
  ]
}`

func TestLoadBuildingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.geojson")
	if err := os.WriteFile(path, []byte(testGeoJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := LoadBuildingIDs(path)
	if err != nil {
		t.Fatalf("LoadBuildingIDs() error = %v", err)
	}

	if len(ids) != 2 || !ids["B-01"] || !ids["B-02"] {
		t.Errorf("ids = %v, want {B-01, B-02}", ids)
	}
	if ids["P-07"] {
		t.Error("non-building feature included")
	}
}

func TestLoadBuildingIDs_Missing(t *testing.T) {
	if _, err := LoadBuildingIDs(filepath.Join(t.TempDir(), "absent.geojson")); err == nil {
		t.Error("LoadBuildingIDs() on missing file: want error, got nil")
	}
}

func TestLoadBuildingIDs_NoBuildings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.geojson")
	if err := os.WriteFile(path, []byte(`{"features": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBuildingIDs(path); err == nil {
		t.Error("LoadBuildingIDs() with no EDIFICIO features: want error, got nil")
	}
}
