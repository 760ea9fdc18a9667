package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Logistic regression training hyperparameters. Fixed, matching the simple
// small-data regime the family is selected for.
const (
	logisticIterations   = 1000
	logisticLearningRate = 0.1
)

// LogisticModel is a one-vs-rest multiclass logistic regression trained by
// batch gradient descent on standardized features.
type LogisticModel struct {
	// FeatureMean and FeatureStd standardize inference inputs the same
	// way the training matrix was standardized.
	FeatureMean []float64
	FeatureStd  []float64

	// Weights[c] and Bias[c] parameterize the binary one-vs-rest model
	// for class c, aligned with Encoder.Classes.
	Weights [][]float64
	Bias    []float64

	Encoder *LabelEncoder
}

// FitLogistic fits a multiclass logistic regression of the class values y on
// X. The class universe is the set of distinct values in y.
func FitLogistic(X [][]float64, y []float64) (*LogisticModel, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("fit logistic: %d rows, %d targets", n, len(y))
	}
	d := len(X[0])
	if d == 0 {
		return nil, fmt.Errorf("fit logistic: empty feature vectors")
	}

	enc := NewLabelEncoder(y)
	if enc.Len() < 2 {
		return nil, fmt.Errorf("fit logistic: need at least 2 classes, got %d", enc.Len())
	}

	mean, std := standardization(X)

	flat := make([]float64, 0, n*d)
	for _, row := range X {
		for j, v := range row {
			flat = append(flat, (v-mean[j])/std[j])
		}
	}
	xm := mat.NewDense(n, d, flat)

	m := &LogisticModel{
		FeatureMean: mean,
		FeatureStd:  std,
		Weights:     make([][]float64, enc.Len()),
		Bias:        make([]float64, enc.Len()),
		Encoder:     enc,
	}

	diff := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)
	z := mat.NewVecDense(n, nil)

	for ci, class := range enc.Classes {
		w := mat.NewVecDense(d, nil)
		b := 0.0

		for iter := 0; iter < logisticIterations; iter++ {
			z.MulVec(xm, w)
			for i := 0; i < n; i++ {
				target := 0.0
				if y[i] == class {
					target = 1.0
				}
				diff.SetVec(i, sigmoid(z.AtVec(i)+b)-target)
			}

			grad.MulVec(xm.T(), diff)
			w.AddScaledVec(w, -logisticLearningRate/float64(n), grad)
			b -= logisticLearningRate * mat.Sum(diff) / float64(n)
		}

		m.Weights[ci] = append([]float64{}, w.RawVector().Data...)
		m.Bias[ci] = b
	}

	return m, nil
}

// Name returns the model family identifier.
func (m *LogisticModel) Name() string { return "LogisticRegression" }

// Classes returns the class values observed at training time.
func (m *LogisticModel) Classes() []float64 { return m.Encoder.Classes }

// Predict returns the class value with the highest one-vs-rest score.
func (m *LogisticModel) Predict(features []float64) (float64, error) {
	probs, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return m.Encoder.Value(best)
}

// PredictProba returns per-class probabilities aligned with Classes(),
// normalized across the one-vs-rest scores.
func (m *LogisticModel) PredictProba(features []float64) ([]float64, error) {
	if err := checkDims(len(features), len(m.FeatureMean)); err != nil {
		return nil, err
	}

	x := make([]float64, len(features))
	for j, v := range features {
		x[j] = (v - m.FeatureMean[j]) / m.FeatureStd[j]
	}

	probs := make([]float64, len(m.Weights))
	sum := 0.0
	for ci, w := range m.Weights {
		score := m.Bias[ci]
		for j, wj := range w {
			score += wj * x[j]
		}
		probs[ci] = sigmoid(score)
		sum += probs[ci]
	}

	if sum == 0 {
		for i := range probs {
			probs[i] = 1.0 / float64(len(probs))
		}
		return probs, nil
	}

	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// standardization computes per-column means and standard deviations, with
// zero deviations replaced by 1 so constant columns pass through unchanged.
func standardization(X [][]float64) (mean, std []float64) {
	n := float64(len(X))
	d := len(X[0])
	mean = make([]float64, d)
	std = make([]float64, d)

	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range X {
		for j, v := range row {
			diff := v - mean[j]
			std[j] += diff * diff
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}

	return mean, std
}
