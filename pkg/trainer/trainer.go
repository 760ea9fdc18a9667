// Package trainer runs the per-task training pipeline: dataset preparation,
// model family selection, fitting, held-out evaluation and artifact
// persistence.
package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/innovatec/aforo/pkg/artifact"
	"github.com/innovatec/aforo/pkg/dataset"
	"github.com/innovatec/aforo/pkg/eval"
	"github.com/innovatec/aforo/pkg/models"
	"github.com/innovatec/aforo/pkg/task"
)

// Training policy constants. Small extractions fall back to the synthetic
// dataset; small datasets get the simple model family, larger ones the
// forest.
const (
	MinExtractedRows = 10
	MinTrainingRows  = 4
	ForestThreshold  = 50

	TestFraction  = 0.2
	SplitSeed     = 42
	SyntheticSeed = 42
)

// ErrDataInsufficient reports that a task had too few rows to train even
// after the synthetic fallback. The previously persisted artifact, if any,
// stays in place.
var ErrDataInsufficient = errors.New("insufficient training data")

// Result summarizes one completed training run.
type Result struct {
	Task      string
	ModelType string
	Samples   int
	Synthetic bool
	Metrics   map[string]float64
}

// Trainer fits and persists models into a models directory.
type Trainer struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// New creates a trainer writing artifacts to dir.
func New(dir string, logger *slog.Logger) *Trainer {
	return &Trainer{dir: dir, logger: logger, now: time.Now}
}

// Train runs the full pipeline for one task over the extracted table and
// persists the fitted model. Tables with fewer than MinExtractedRows rows
// are replaced by the task's deterministic synthetic dataset.
func (tr *Trainer) Train(t task.Task, table dataset.Table) (Result, error) {
	res := Result{Task: t.Name}

	if len(table.Rows) < MinExtractedRows {
		tr.logger.Warn("too little extracted data, using synthetic dataset",
			"task", t.Name,
			"extracted_rows", len(table.Rows),
			"synthetic_rows", t.SyntheticSize)
		table = task.Synthetic(t, SyntheticSeed)
		res.Synthetic = true
	}

	if len(table.Rows) < MinTrainingRows {
		return res, fmt.Errorf("train %s: %d rows: %w", t.Name, len(table.Rows), ErrDataInsufficient)
	}

	res.Samples = len(table.Rows)
	train, test := table.Split(TestFraction, SplitSeed)

	trainX, trainY, err := train.Matrix()
	if err != nil {
		return res, fmt.Errorf("train %s: %w", t.Name, err)
	}
	testX, testY, err := test.Matrix()
	if err != nil {
		return res, fmt.Errorf("train %s: %w", t.Name, err)
	}

	start := tr.now()
	model, err := fit(t, table, trainX, trainY)
	if err != nil {
		return res, fmt.Errorf("train %s: %w", t.Name, err)
	}
	fitDuration := tr.now().Sub(start)
	res.ModelType = model.Name()

	metrics, err := evaluate(t, model, testX, testY)
	if err != nil {
		return res, fmt.Errorf("train %s: %w", t.Name, err)
	}
	res.Metrics = metrics

	meta := artifact.Metadata{
		ModelType: model.Name(),
		TrainedAt: tr.now().UTC(),
		Features:  t.Features,
		Samples:   res.Samples,
		Metrics:   metrics,
	}
	if c, ok := model.(models.Classifier); ok {
		for _, class := range c.Classes() {
			meta.Classes = append(meta.Classes, t.ClassLabel(class))
		}
	}

	if err := artifact.Save(tr.dir, t.Name, model, meta); err != nil {
		return res, fmt.Errorf("train %s: %w", t.Name, err)
	}

	tr.logger.Info("model trained",
		"task", t.Name,
		"model_type", model.Name(),
		"samples", res.Samples,
		"synthetic", res.Synthetic,
		"fit_duration", fitDuration,
		"metrics", metrics)

	return res, nil
}

// fit selects the model family by the full-table row count and fits it on
// the training partition.
func fit(t task.Task, table dataset.Table, X [][]float64, y []float64) (models.Model, error) {
	small := len(table.Rows) < ForestThreshold

	if t.Kind == task.Classification {
		if small {
			return models.FitLogistic(X, y)
		}
		return models.FitForestClassifier(X, y, models.DefaultForestConfig(len(t.Features), true))
	}

	if small {
		return models.FitLinear(t.Features, X, y)
	}
	return models.FitForestRegressor(X, y, models.DefaultForestConfig(len(t.Features), false))
}

func evaluate(t task.Task, m models.Model, X [][]float64, y []float64) (map[string]float64, error) {
	if t.Kind == task.Classification {
		c, ok := m.(models.Classifier)
		if !ok {
			return nil, fmt.Errorf("evaluate: %s model has no classes", m.Name())
		}
		return eval.Classification(c, X, y)
	}
	return eval.Regression(m, X, y)
}
