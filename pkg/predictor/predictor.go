// Package predictor turns request payloads into model predictions. It
// resolves missing temporal features deterministically, assembles the
// feature vector in the order the model was trained with, and post-processes
// the raw model output per task kind.
package predictor

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/innovatec/aforo/pkg/artifact"
	"github.com/innovatec/aforo/pkg/models"
	"github.com/innovatec/aforo/pkg/task"
)

// DefaultConfidence is reported when the model exposes no class
// probabilities.
const DefaultConfidence = 0.7

// DefaultHour is the hour feature used when neither an explicit value nor a
// parseable timestamp is given.
const DefaultHour = 12

// ErrModelUnavailable reports that the task has no model loaded. Callers
// map it to a retriable service condition, not a fault.
var ErrModelUnavailable = errors.New("model not available")

// Result is one completed prediction.
type Result struct {
	Task  string
	Kind  task.Kind
	Value int

	// Label is the saturation level name for classification tasks.
	Label string

	Confidence   float64
	ModelType    string
	FeaturesUsed []string
}

// Predictor serves predictions from the models held by a registry.
type Predictor struct {
	registry *artifact.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a predictor over a registry.
func New(registry *artifact.Registry, logger *slog.Logger) *Predictor {
	return &Predictor{registry: registry, logger: logger, now: time.Now}
}

// Predict runs one prediction for a task. The payload's explicit numeric
// fields win over values derived from date_time, which win over defaults.
func (p *Predictor) Predict(t task.Task, payload Payload) (Result, error) {
	res := Result{Task: t.Name, Kind: t.Kind}

	model, meta, ok := p.registry.Get(t.Name)
	if !ok {
		return res, fmt.Errorf("predict %s: %w", t.Name, ErrModelUnavailable)
	}
	res.ModelType = meta.ModelType
	res.FeaturesUsed = meta.Features

	vector := p.vector(t, meta.Features, payload)

	raw, err := model.Predict(vector)
	if err != nil {
		return res, fmt.Errorf("predict %s: %w", t.Name, err)
	}

	if t.Kind == task.Classification {
		level := int(raw)
		label := t.ClassLabel(raw)
		if len(meta.Classes) > 0 && !slices.Contains(meta.Classes, label) {
			return res, fmt.Errorf("predict %s: class %v: %w", t.Name, raw, models.ErrUnknownClass)
		}
		res.Value = level
		res.Label = task.SaturationLabel(level)
	} else {
		res.Value = clampCount(raw)
	}

	res.Confidence = DefaultConfidence
	if pm, ok := model.(models.ProbaModel); ok {
		probs, err := pm.PredictProba(vector)
		if err == nil && len(probs) > 0 {
			res.Confidence = slices.Max(probs)
		}
	}

	p.logger.Debug("prediction served",
		"task", t.Name,
		"model_type", res.ModelType,
		"value", res.Value,
		"confidence", res.Confidence)

	return res, nil
}

// vector assembles the feature vector in training order. dayOfWeek, hour and
// peakHour resolve through the explicit/timestamp/default chain; every other
// feature is the explicit value, the task default, or zero.
func (p *Predictor) vector(t task.Task, features []string, payload Payload) []float64 {
	ts, hasTS := p.parseTimestamp(payload.DateTime)

	day := float64((int(p.now().Weekday()) + 6) % 7)
	hour := float64(DefaultHour)
	if hasTS {
		day = float64((int(ts.Weekday()) + 6) % 7)
		hour = float64(ts.Hour())
	}
	if v, ok := payload.Get("dayOfWeek"); ok {
		day = v
	}
	if v, ok := payload.Get("hour"); ok {
		hour = v
	}

	vector := make([]float64, len(features))
	for i, name := range features {
		switch name {
		case "dayOfWeek":
			vector[i] = day
		case "hour":
			vector[i] = hour
		case "peakHour":
			if v, ok := payload.Get(name); ok {
				vector[i] = v
			} else {
				vector[i] = hour
			}
		default:
			if v, ok := payload.Get(name); ok {
				vector[i] = v
			} else {
				vector[i] = t.Defaults[name]
			}
		}
	}
	return vector
}

// parseTimestamp accepts RFC 3339 timestamps, with or without a zone
// offset. An unparseable value counts as absent so the request still
// resolves through the defaults.
func (p *Predictor) parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}

	p.logger.Warn("unparseable date_time, using defaults", "value", value)
	return time.Time{}, false
}

func clampCount(v float64) int {
	n := int(v)
	if n < 0 {
		return 0
	}
	return n
}
