// Package dataset provides the tabular feature representation shared by the
// extraction and training pipelines.
//
// A Table carries an ordered list of feature columns plus a target column.
// The column order is canonical: the training matrix is always assembled in
// Table.Columns order, and that same order is recorded in the persisted model
// metadata so the serving layer can rebuild inference vectors identically.
package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Row maps a feature or target name to its numeric value.
// Missing entries are treated as NaN and imputed at matrix-build time.
type Row map[string]float64

// Table is a rectangular dataset for one prediction task.
type Table struct {
	// Columns lists the feature names in canonical order.
	Columns []string

	// Target is the name of the target column.
	Target string

	// Rows holds the observations. Every row is expected to carry all
	// declared columns; absent or non-finite values are mean-imputed.
	Rows []Row
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Matrix builds the training matrix X and target vector y in canonical
// column order. Non-finite feature values (NaN, ±Inf) are imputed with the
// column mean over the finite values; non-finite targets are imputed with
// the target mean. A column with no finite values imputes to zero.
func (t Table) Matrix() (X [][]float64, y []float64, err error) {
	if len(t.Rows) == 0 {
		return nil, nil, fmt.Errorf("dataset: table has no rows")
	}
	if len(t.Columns) == 0 {
		return nil, nil, fmt.Errorf("dataset: table has no feature columns")
	}

	colMeans := make([]float64, len(t.Columns))
	for i, col := range t.Columns {
		colMeans[i] = t.columnMean(col)
	}
	targetMean := t.columnMean(t.Target)

	X = make([][]float64, len(t.Rows))
	y = make([]float64, len(t.Rows))

	for i, row := range t.Rows {
		vec := make([]float64, len(t.Columns))
		for j, col := range t.Columns {
			v, ok := row[col]
			if !ok || !isFinite(v) {
				v = colMeans[j]
			}
			vec[j] = v
		}
		X[i] = vec

		tv, ok := row[t.Target]
		if !ok || !isFinite(tv) {
			tv = targetMean
		}
		y[i] = tv
	}

	return X, y, nil
}

// Split partitions the table into train and test subsets using a shuffled
// split. The shuffle is driven by the given seed, so a fixed seed yields an
// identical partition on every run. testFraction is the share of rows
// assigned to the test set (rounded up, capped at len-1 so training is never
// empty).
func (t Table) Split(testFraction float64, seed int64) (train, test Table) {
	n := len(t.Rows)

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}

	train = Table{Columns: t.Columns, Target: t.Target}
	test = Table{Columns: t.Columns, Target: t.Target}

	for i, idx := range perm {
		if i < nTest {
			test.Rows = append(test.Rows, t.Rows[idx])
		} else {
			train.Rows = append(train.Rows, t.Rows[idx])
		}
	}

	return train, test
}

// columnMean returns the mean over the finite values of a column, or zero if
// the column has no finite values.
func (t Table) columnMean(col string) float64 {
	sum := 0.0
	count := 0
	for _, row := range t.Rows {
		if v, ok := row[col]; ok && isFinite(v) {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
