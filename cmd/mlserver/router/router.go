// Package router configures the HTTP routes of the prediction server.
//
// Routes configured:
//   - GET  /health - Service health and per-task model availability
//   - POST /predict/{task} - Run a prediction for attendance, mobility or saturation
//   - GET  /model/info - Metadata of the loaded models, null for absent ones
//   - POST /model/reload - Re-read all artifacts from disk, report per-task status
//   - GET  /metrics - Prometheus metrics endpoint
//
// A task without a loaded model answers 503 on /predict: it is a degraded
// state resolved by training, never a server fault.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/innovatec/aforo/cmd/mlserver/metrics"
	"github.com/innovatec/aforo/pkg/artifact"
	"github.com/innovatec/aforo/pkg/httpx"
	"github.com/innovatec/aforo/pkg/predictor"
	"github.com/innovatec/aforo/pkg/task"
)

// SetupRoutes configures the HTTP endpoints of the prediction server.
func SetupRoutes(registry *artifact.Registry, pred *predictor.Predictor, m *metrics.Metrics, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth(registry))
	mux.HandleFunc("POST /predict/{task}", handlePredict(pred, m, logger))
	mux.HandleFunc("GET /model/info", handleModelInfo(registry, logger))
	mux.HandleFunc("POST /model/reload", handleReload(registry, m, logger))
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func handleHealth(registry *artifact.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loaded := make(map[string]bool, len(task.All()))
		for _, t := range task.All() {
			_, _, ok := registry.Get(t.Name)
			loaded[t.Name] = ok
		}

		resp := map[string]any{
			"status":        "ok",
			"models_loaded": loaded,
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
		}
		if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	}
}

// handlePredict returns the handler for POST /predict/{task}.
func handlePredict(pred *predictor.Predictor, m *metrics.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("task")
		t, ok := task.ByName(name)
		if !ok {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("unknown task %q", name))
			return
		}

		var payload predictor.Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		start := time.Now()
		res, err := pred.Predict(t, payload)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			if errors.Is(err, predictor.ErrModelUnavailable) {
				m.RecordPrediction(t.Name, "unavailable", elapsed)
				httpx.WriteErrorMessage(w, http.StatusServiceUnavailable,
					fmt.Sprintf("model for task %q not available, train it first", t.Name))
				return
			}

			m.RecordPrediction(t.Name, "error", elapsed)
			logger.Error("prediction failed", "task", t.Name, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		m.RecordPrediction(t.Name, "ok", elapsed)

		resp := map[string]any{
			"confidence":    res.Confidence,
			"model_type":    res.ModelType,
			"features_used": res.FeaturesUsed,
		}
		if t.Kind == task.Classification {
			resp["saturationLevel"] = res.Value
			resp["saturationLabel"] = res.Label
		} else {
			resp["prediction"] = res.Value
		}

		if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
			logger.Error("failed to write prediction response", "error", err)
		}
	}
}

func handleModelInfo(registry *artifact.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := httpx.WriteJSON(w, http.StatusOK, registry.Info()); err != nil {
			logger.Error("failed to write model info", "error", err)
		}
	}
}

func handleReload(registry *artifact.Registry, m *metrics.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := registry.Reload()
		m.RecordReload()
		for name, st := range statuses {
			m.SetModelLoaded(name, st.Loaded)
		}

		logger.Info("models reloaded", "loaded", registry.Loaded())
		if err := httpx.WriteJSON(w, http.StatusOK, statuses); err != nil {
			logger.Error("failed to write reload response", "error", err)
		}
	}
}
