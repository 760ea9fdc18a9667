package models

import (
	"fmt"

	"github.com/sajari/regression"
	"gonum.org/v1/gonum/floats"
)

// LinearModel is an ordinary least squares regression fitted with the
// sajari/regression solver. Only the resulting intercept and coefficients
// are kept, so the artifact is a plain struct of floats.
type LinearModel struct {
	FeatureNames []string
	Intercept    float64
	Coefficients []float64

	// TrainR2 is the coefficient of determination on the training
	// partition, kept for diagnostics. Held-out metrics live in the
	// model metadata.
	TrainR2 float64
}

// FitLinear fits a linear regression of y on X. featureNames must match the
// column order of X.
func FitLinear(featureNames []string, X [][]float64, y []float64) (*LinearModel, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("fit linear: %d rows, %d targets", len(X), len(y))
	}

	var r regression.Regression
	r.SetObserved("target")
	for i, name := range featureNames {
		r.SetVar(i, name)
	}

	for i := range X {
		r.Train(regression.DataPoint(y[i], X[i]))
	}

	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("fit linear: %w", err)
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) != len(featureNames)+1 {
		return nil, fmt.Errorf("fit linear: got %d coefficients for %d features", len(coeffs), len(featureNames))
	}

	return &LinearModel{
		FeatureNames: featureNames,
		Intercept:    coeffs[0],
		Coefficients: coeffs[1:],
		TrainR2:      r.R2,
	}, nil
}

// Name returns the model family identifier.
func (m *LinearModel) Name() string { return "LinearRegression" }

// Predict evaluates the fitted linear combination.
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if err := checkDims(len(features), len(m.Coefficients)); err != nil {
		return 0, err
	}
	return m.Intercept + floats.Dot(m.Coefficients, features), nil
}
