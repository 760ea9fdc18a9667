package artifact

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/innovatec/aforo/pkg/models"
	"github.com/innovatec/aforo/pkg/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	dir := t.TempDir()

	m := &models.LinearModel{
		FeatureNames: []string{"viewCount", "uniqueVisitors"},
		Intercept:    1.5,
		Coefficients: []float64{0.3, 1.5},
	}
	meta := Metadata{
		ModelType: "LinearRegression",
		TrainedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Features:  []string{"viewCount", "uniqueVisitors"},
		Samples:   80,
		Metrics:   map[string]float64{"mae": 2.5, "r2": 0.91},
	}

	if err := Save(dir, "attendance", m, meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, gotMeta, err := Load(dir, "attendance")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	lm, ok := loaded.(*models.LinearModel)
	if !ok {
		t.Fatalf("loaded model type = %T, want *models.LinearModel", loaded)
	}
	if lm.Intercept != m.Intercept {
		t.Errorf("Intercept = %v, want %v", lm.Intercept, m.Intercept)
	}

	pred, err := loaded.Predict([]float64{10, 20})
	if err != nil {
		t.Fatalf("Predict() after load error = %v", err)
	}
	want := 1.5 + 0.3*10 + 1.5*20
	if pred != want {
		t.Errorf("Predict() = %v, want %v", pred, want)
	}

	if gotMeta.ModelType != meta.ModelType {
		t.Errorf("ModelType = %q, want %q", gotMeta.ModelType, meta.ModelType)
	}
	if !gotMeta.TrainedAt.Equal(meta.TrainedAt) {
		t.Errorf("TrainedAt = %v, want %v", gotMeta.TrainedAt, meta.TrainedAt)
	}
	if gotMeta.Metrics["r2"] != 0.91 {
		t.Errorf("Metrics[r2] = %v, want 0.91", gotMeta.Metrics["r2"])
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, _, err := Load(t.TempDir(), "attendance")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_ReloadAndGet(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir, discardLogger())

	statuses := reg.Reload()
	for _, tk := range task.All() {
		if statuses[tk.Name].Loaded {
			t.Errorf("task %s loaded from empty dir", tk.Name)
		}
	}
	if reg.Loaded() != 0 {
		t.Fatalf("Loaded() = %d, want 0", reg.Loaded())
	}

	m := &models.LinearModel{Coefficients: []float64{2}, Intercept: 1}
	meta := Metadata{ModelType: "LinearRegression", Samples: 10}
	if err := Save(dir, task.Attendance.Name, m, meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	statuses = reg.Reload()
	st := statuses[task.Attendance.Name]
	if !st.Loaded || st.ModelType != "LinearRegression" {
		t.Fatalf("attendance status = %+v, want loaded LinearRegression", st)
	}
	if reg.Loaded() != 1 {
		t.Errorf("Loaded() = %d, want 1", reg.Loaded())
	}

	got, gotMeta, ok := reg.Get(task.Attendance.Name)
	if !ok {
		t.Fatal("Get() not ok after reload")
	}
	if gotMeta.Samples != 10 {
		t.Errorf("Samples = %d, want 10", gotMeta.Samples)
	}
	if pred, _ := got.Predict([]float64{3}); pred != 7 {
		t.Errorf("Predict(3) = %v, want 7", pred)
	}

	if _, _, ok := reg.Get(task.Mobility.Name); ok {
		t.Error("Get() returned a model for a task never trained")
	}
}

func TestRegistry_CorruptArtifactKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir, discardLogger())

	m := &models.LinearModel{Coefficients: []float64{1}}
	if err := Save(dir, task.Attendance.Name, m, Metadata{ModelType: "LinearRegression"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reg.Reload()

	if err := os.WriteFile(ModelPath(dir, task.Attendance.Name), []byte("not gob"), 0o644); err != nil {
		t.Fatalf("corrupt write error = %v", err)
	}

	statuses := reg.Reload()
	st := statuses[task.Attendance.Name]
	if !st.Loaded {
		t.Error("corrupt reload cleared previously loaded model")
	}
	if st.Error == "" {
		t.Error("corrupt reload reported no error")
	}

	if _, _, ok := reg.Get(task.Attendance.Name); !ok {
		t.Error("Get() lost model after failed reload")
	}
}

func TestRegistry_MissingArtifactClearsSlot(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(dir, discardLogger())

	m := &models.LinearModel{Coefficients: []float64{1}}
	if err := Save(dir, task.Saturation.Name, m, Metadata{ModelType: "LinearRegression"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	reg.Reload()

	if err := os.Remove(ModelPath(dir, task.Saturation.Name)); err != nil {
		t.Fatalf("remove error = %v", err)
	}

	reg.Reload()
	if _, _, ok := reg.Get(task.Saturation.Name); ok {
		t.Error("Get() returned model after artifact removal")
	}
	if reg.Loaded() != 0 {
		t.Errorf("Loaded() = %d, want 0", reg.Loaded())
	}
}
