package models

import (
	"fmt"
	"sort"
)

// LabelEncoder maps the class values observed in a training partition to a
// dense index space 0..n-1 and back. The label universe is exactly the set
// of distinct values seen at fit time; decoding anything outside it is an
// ErrUnknownClass condition, never a silent default.
type LabelEncoder struct {
	// Classes holds the distinct class values in ascending order. The
	// position of a value is its dense index.
	Classes []float64
}

// NewLabelEncoder builds an encoder over the distinct values in targets.
func NewLabelEncoder(targets []float64) *LabelEncoder {
	seen := make(map[float64]bool, len(targets))
	classes := make([]float64, 0, 4)
	for _, v := range targets {
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	sort.Float64s(classes)
	return &LabelEncoder{Classes: classes}
}

// Len returns the number of classes.
func (e *LabelEncoder) Len() int { return len(e.Classes) }

// Index returns the dense index of a class value.
func (e *LabelEncoder) Index(value float64) (int, error) {
	for i, c := range e.Classes {
		if c == value {
			return i, nil
		}
	}
	return 0, fmt.Errorf("encode class %v: %w", value, ErrUnknownClass)
}

// Value returns the class value at a dense index.
func (e *LabelEncoder) Value(index int) (float64, error) {
	if index < 0 || index >= len(e.Classes) {
		return 0, fmt.Errorf("decode class index %d of %d: %w", index, len(e.Classes), ErrUnknownClass)
	}
	return e.Classes[index], nil
}
