package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/innovatec/aforo/cmd/mlserver/metrics"
	"github.com/innovatec/aforo/pkg/artifact"
	"github.com/innovatec/aforo/pkg/models"
	"github.com/innovatec/aforo/pkg/predictor"
	"github.com/innovatec/aforo/pkg/task"
)

// Prometheus collectors register globally, so the test metrics are created
// once for the package.
var testMetrics = metrics.New()

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMux(t *testing.T, save func(dir string)) *http.ServeMux {
	t.Helper()
	dir := t.TempDir()
	if save != nil {
		save(dir)
	}

	logger := discardLogger()
	registry := artifact.NewRegistry(dir, logger)
	registry.Reload()
	pred := predictor.New(registry, logger)

	return SetupRoutes(registry, pred, testMetrics, logger)
}

func saveAttendanceModel(t *testing.T, dir string) {
	t.Helper()
	m := &models.LinearModel{
		FeatureNames: task.Attendance.Features,
		Intercept:    5,
		Coefficients: []float64{1, 2, 0, 0, 0, 0},
	}
	meta := artifact.Metadata{
		ModelType: "LinearRegression",
		Features:  task.Attendance.Features,
		Samples:   100,
	}
	if err := artifact.Save(dir, task.Attendance.Name, m, meta); err != nil {
		t.Fatal(err)
	}
}

func doRequest(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	mux := newTestMux(t, saveAttendanceModelFunc(t))

	rec := doRequest(mux, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status       string          `json:"status"`
		ModelsLoaded map[string]bool `json:"models_loaded"`
		Timestamp    string          `json:"timestamp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if !resp.ModelsLoaded["attendance"] {
		t.Error("models_loaded[attendance] = false, want true")
	}
	if resp.ModelsLoaded["mobility"] {
		t.Error("models_loaded[mobility] = true for untrained task")
	}
	if resp.Timestamp == "" {
		t.Error("timestamp missing")
	}
}

func saveAttendanceModelFunc(t *testing.T) func(dir string) {
	return func(dir string) { saveAttendanceModel(t, dir) }
}

func TestPredict_OK(t *testing.T) {
	mux := newTestMux(t, saveAttendanceModelFunc(t))

	rec := doRequest(mux, http.MethodPost, "/predict/attendance",
		`{"viewCount": 10, "uniqueVisitors": 20}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Prediction   int      `json:"prediction"`
		Confidence   float64  `json:"confidence"`
		ModelType    string   `json:"model_type"`
		FeaturesUsed []string `json:"features_used"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// 5 + 1·10 + 2·20, remaining coefficients zero.
	if resp.Prediction != 55 {
		t.Errorf("prediction = %d, want 55", resp.Prediction)
	}
	if resp.Confidence != predictor.DefaultConfidence {
		t.Errorf("confidence = %v, want %v", resp.Confidence, predictor.DefaultConfidence)
	}
	if resp.ModelType != "LinearRegression" {
		t.Errorf("model_type = %q", resp.ModelType)
	}
	if len(resp.FeaturesUsed) != len(task.Attendance.Features) {
		t.Errorf("features_used = %v", resp.FeaturesUsed)
	}
}

func TestPredict_ModelUnavailable(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := doRequest(mux, http.MethodPost, "/predict/attendance", `{}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.Error, "attendance") {
		t.Errorf("error = %q, want task name in message", resp.Error)
	}
}

func TestPredict_UnknownTask(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := doRequest(mux, http.MethodPost, "/predict/churn", `{}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPredict_MalformedJSON(t *testing.T) {
	mux := newTestMux(t, saveAttendanceModelFunc(t))

	rec := doRequest(mux, http.MethodPost, "/predict/attendance", `{"viewCount": `)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestModelInfo(t *testing.T) {
	mux := newTestMux(t, saveAttendanceModelFunc(t))

	rec := doRequest(mux, http.MethodGet, "/model/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]*artifact.Metadata
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, tk := range task.All() {
		if _, ok := resp[tk.Name]; !ok {
			t.Errorf("task %s missing from /model/info", tk.Name)
		}
	}

	if resp["attendance"] == nil || resp["attendance"].ModelType != "LinearRegression" {
		t.Errorf("attendance metadata = %+v", resp["attendance"])
	}
	if resp["mobility"] != nil {
		t.Errorf("mobility metadata = %+v, want null", resp["mobility"])
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	logger := discardLogger()
	registry := artifact.NewRegistry(dir, logger)
	registry.Reload()
	pred := predictor.New(registry, logger)
	mux := SetupRoutes(registry, pred, testMetrics, logger)

	// Nothing loaded yet: predicting answers 503.
	if rec := doRequest(mux, http.MethodPost, "/predict/attendance", `{}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("pre-reload status = %d, want 503", rec.Code)
	}

	saveAttendanceModel(t, dir)

	rec := doRequest(mux, http.MethodPost, "/model/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reload status = %d", rec.Code)
	}

	var statuses map[string]artifact.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &statuses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !statuses["attendance"].Loaded {
		t.Error("attendance not loaded after reload")
	}

	if rec := doRequest(mux, http.MethodPost, "/predict/attendance", `{}`); rec.Code != http.StatusOK {
		t.Errorf("post-reload status = %d, want 200", rec.Code)
	}
}
