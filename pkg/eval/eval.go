// Package eval computes held-out evaluation metrics for fitted models. The
// metric set is fixed per model kind: regression models report mae, rmse and
// r2; classifiers report accuracy plus per-class precision and recall.
package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/innovatec/aforo/pkg/models"
)

// Regression scores a regression model on a held-out partition and returns
// the metric map stored in the artifact metadata.
func Regression(m models.Model, X [][]float64, y []float64) (map[string]float64, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("evaluate regression: %d rows, %d targets", len(X), len(y))
	}

	preds := make([]float64, len(X))
	absSum, sqSum := 0.0, 0.0
	for i, row := range X {
		p, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("evaluate regression: %w", err)
		}
		preds[i] = p

		diff := p - y[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}

	n := float64(len(y))
	return map[string]float64{
		"mae":  absSum / n,
		"rmse": math.Sqrt(sqSum / n),
		"r2":   stat.RSquaredFrom(preds, y, nil),
	}, nil
}

// Classification scores a classifier on a held-out partition. Per-class
// precision and recall are keyed "precision_<class>" and "recall_<class>"
// using the integer class value; classes never predicted get precision 0.
func Classification(m models.Classifier, X [][]float64, y []float64) (map[string]float64, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("evaluate classification: %d rows, %d targets", len(X), len(y))
	}

	classes := m.Classes()

	correct := 0
	truePos := make(map[float64]float64, len(classes))
	predCount := make(map[float64]float64, len(classes))
	trueCount := make(map[float64]float64, len(classes))

	for i, row := range X {
		p, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("evaluate classification: %w", err)
		}

		predCount[p]++
		trueCount[y[i]]++
		if p == y[i] {
			correct++
			truePos[p]++
		}
	}

	metrics := map[string]float64{
		"accuracy": float64(correct) / float64(len(y)),
	}
	for _, c := range classes {
		key := fmt.Sprintf("%d", int(c))

		precision := 0.0
		if predCount[c] > 0 {
			precision = truePos[c] / predCount[c]
		}
		recall := 0.0
		if trueCount[c] > 0 {
			recall = truePos[c] / trueCount[c]
		}

		metrics["precision_"+key] = precision
		metrics["recall_"+key] = recall
	}

	return metrics, nil
}
