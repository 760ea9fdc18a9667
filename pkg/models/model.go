// Package models provides the predictive model families used by the
// training pipeline: linear regression, multiclass logistic regression, and
// a bagged random forest for both regression and classification.
//
// Every fitted model stores its parameters in exported fields so the whole
// artifact can be gob-encoded to disk and reloaded by the serving layer
// without the fitting library in the loop.
package models

import (
	"encoding/gob"
	"errors"
	"fmt"
)

// ErrUnknownClass reports that a class value is not part of the label set
// observed at training time. The serving layer surfaces it as a structured
// error instead of guessing a default label.
var ErrUnknownClass = errors.New("class not present in training data")

// Model is a fitted predictor. Predict takes a feature vector assembled in
// the model's training feature order and returns a single value: the
// predicted quantity for regressors, the predicted class value for
// classifiers.
type Model interface {
	Name() string
	Predict(features []float64) (float64, error)
}

// ProbaModel is implemented by models that can expose per-class
// probabilities. The serving layer uses the maximum probability as the
// prediction confidence when available.
type ProbaModel interface {
	Model
	PredictProba(features []float64) ([]float64, error)
}

// Classifier is implemented by models with a fixed class value set.
type Classifier interface {
	Model
	Classes() []float64
}

func init() {
	// Concrete model types are encoded through the Model interface, so
	// they must be registered for gob.
	gob.Register(&LinearModel{})
	gob.Register(&LogisticModel{})
	gob.Register(&Forest{})
}

// checkDims validates a feature vector length against the model's expected
// dimension.
func checkDims(got, want int) error {
	if got != want {
		return fmt.Errorf("feature vector has %d values, model expects %d", got, want)
	}
	return nil
}
