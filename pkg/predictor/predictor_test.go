package predictor

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/innovatec/aforo/pkg/artifact"
	"github.com/innovatec/aforo/pkg/models"
	"github.com/innovatec/aforo/pkg/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock pins the predictor to Wednesday 2026-03-04 10:00 UTC.
var fixedClock = func() time.Time {
	return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
}

func newTestPredictor(t *testing.T, save func(dir string)) *Predictor {
	t.Helper()
	dir := t.TempDir()
	if save != nil {
		save(dir)
	}
	reg := artifact.NewRegistry(dir, discardLogger())
	reg.Reload()

	p := New(reg, discardLogger())
	p.now = fixedClock
	return p
}

// saveAttendanceLinear persists a linear attendance model whose prediction
// is readable off the coefficients: 1·viewCount + 10·dayOfWeek + 100·hour.
func saveAttendanceLinear(t *testing.T, dir string) {
	t.Helper()
	m := &models.LinearModel{
		FeatureNames: task.Attendance.Features,
		Coefficients: []float64{1, 0, 10, 100, 0, 0},
	}
	meta := artifact.Metadata{
		ModelType: "LinearRegression",
		Features:  task.Attendance.Features,
	}
	if err := artifact.Save(dir, task.Attendance.Name, m, meta); err != nil {
		t.Fatal(err)
	}
}

func TestPredict_ModelUnavailable(t *testing.T) {
	p := newTestPredictor(t, nil)

	_, err := p.Predict(task.Attendance, Payload{})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("Predict() error = %v, want ErrModelUnavailable", err)
	}
}

func TestPredict_ExplicitFieldsWin(t *testing.T) {
	p := newTestPredictor(t, func(dir string) { saveAttendanceLinear(t, dir) })

	var payload Payload
	body := `{"viewCount": 5, "dayOfWeek": 6, "hour": 9, "date_time": "2026-03-02T15:00:00Z"}`
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatal(err)
	}

	res, err := p.Predict(task.Attendance, payload)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	// Explicit dayOfWeek=6 and hour=9 override the Monday 15:00 timestamp.
	want := 5 + 10*6 + 100*9
	if res.Value != want {
		t.Errorf("Value = %d, want %d", res.Value, want)
	}
	if res.ModelType != "LinearRegression" {
		t.Errorf("ModelType = %q", res.ModelType)
	}
	if res.Confidence != DefaultConfidence {
		t.Errorf("Confidence = %v, want %v", res.Confidence, DefaultConfidence)
	}
}

func TestPredict_TimestampDerivation(t *testing.T) {
	p := newTestPredictor(t, func(dir string) { saveAttendanceLinear(t, dir) })

	tests := []struct {
		name     string
		dateTime string
		wantDay  float64
		wantHour float64
	}{
		{"rfc3339", "2026-03-02T15:00:00Z", 0, 15},
		{"no zone", "2026-03-07T18:30:00", 5, 18},
		{"unparseable falls back to clock", "next tuesday", 2, 12},
		{"absent falls back to clock", "", 2, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Predict(task.Attendance, Payload{DateTime: tt.dateTime})
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			want := int(10*tt.wantDay + 100*tt.wantHour)
			if res.Value != want {
				t.Errorf("Value = %d, want %d (day %v, hour %v)", res.Value, want, tt.wantDay, tt.wantHour)
			}
		})
	}
}

func TestPredict_FeatureOrderFollowsMetadata(t *testing.T) {
	// Metadata stores features in an order different from the payload's
	// natural one; the vector must follow the metadata.
	p := newTestPredictor(t, func(dir string) {
		m := &models.LinearModel{
			FeatureNames: []string{"uniqueVisitors", "viewCount"},
			Coefficients: []float64{1000, 1},
		}
		meta := artifact.Metadata{
			ModelType: "LinearRegression",
			Features:  []string{"uniqueVisitors", "viewCount"},
		}
		if err := artifact.Save(dir, task.Attendance.Name, m, meta); err != nil {
			t.Fatal(err)
		}
	})

	payload := Payload{Fields: map[string]float64{"viewCount": 7, "uniqueVisitors": 3}}
	res, err := p.Predict(task.Attendance, payload)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if res.Value != 3007 {
		t.Errorf("Value = %d, want 3007", res.Value)
	}
}

func TestPredict_NegativeClampedToZero(t *testing.T) {
	p := newTestPredictor(t, func(dir string) {
		m := &models.LinearModel{
			Intercept:    -500,
			Coefficients: make([]float64, len(task.Attendance.Features)),
		}
		meta := artifact.Metadata{ModelType: "LinearRegression", Features: task.Attendance.Features}
		if err := artifact.Save(dir, task.Attendance.Name, m, meta); err != nil {
			t.Fatal(err)
		}
	})

	res, err := p.Predict(task.Attendance, Payload{})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if res.Value != 0 {
		t.Errorf("Value = %d, want 0", res.Value)
	}
}

// saveSaturationClassifier fits a logistic classifier separating level 0
// from level 3 on the viewCount feature alone.
func saveSaturationClassifier(t *testing.T, dir string, classes []string) {
	t.Helper()

	var X [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		X = append(X, []float64{float64(i)}, []float64{float64(400 + i)})
		y = append(y, 0, 3)
	}

	m, err := models.FitLogistic(X, y)
	if err != nil {
		t.Fatal(err)
	}
	meta := artifact.Metadata{
		ModelType: "LogisticRegression",
		Features:  []string{"viewCount"},
		Classes:   classes,
	}
	if err := artifact.Save(dir, task.Saturation.Name, m, meta); err != nil {
		t.Fatal(err)
	}
}

func TestPredict_ClassificationLabelAndConfidence(t *testing.T) {
	p := newTestPredictor(t, func(dir string) {
		saveSaturationClassifier(t, dir, []string{"Normal (0)", "Alta (3)"})
	})

	res, err := p.Predict(task.Saturation, Payload{Fields: map[string]float64{"viewCount": 410}})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if res.Value != 3 {
		t.Errorf("Value = %d, want 3", res.Value)
	}
	if res.Label != "Alta" {
		t.Errorf("Label = %q, want Alta", res.Label)
	}
	if res.Confidence <= 0.5 || res.Confidence > 1 {
		t.Errorf("Confidence = %v, want probability above 0.5", res.Confidence)
	}
}

func TestPredict_UnknownClass(t *testing.T) {
	p := newTestPredictor(t, func(dir string) {
		// Metadata lists only one class, so decoding the other must fail.
		saveSaturationClassifier(t, dir, []string{"Normal (0)"})
	})

	_, err := p.Predict(task.Saturation, Payload{Fields: map[string]float64{"viewCount": 410}})
	if !errors.Is(err, models.ErrUnknownClass) {
		t.Fatalf("Predict() error = %v, want ErrUnknownClass", err)
	}
}

func TestPayload_UnmarshalIgnoresNonNumeric(t *testing.T) {
	var payload Payload
	body := `{"viewCount": 10, "note": "ignored", "date_time": "2026-03-02T15:00:00Z", "nested": {"a": 1}}`
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if v, ok := payload.Get("viewCount"); !ok || v != 10 {
		t.Errorf("viewCount = %v, %v", v, ok)
	}
	if payload.DateTime != "2026-03-02T15:00:00Z" {
		t.Errorf("DateTime = %q", payload.DateTime)
	}
	if payload.Has("note") || payload.Has("nested") {
		t.Error("non-numeric fields leaked into Fields")
	}
}
