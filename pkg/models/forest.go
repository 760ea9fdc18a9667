package models

import (
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig holds random forest hyperparameters. The defaults mirror the
// fixed configuration the training policy prescribes: 100 trees, depth 10,
// deterministic seed.
type ForestConfig struct {
	Trees       int
	MaxDepth    int
	MinSplit    int
	MaxFeatures int
	Seed        int64
}

// DefaultForestConfig returns the fixed hyperparameters for a forest over
// numFeatures features. Classifier trees consider sqrt(n) features per
// split; regressor trees consider all of them.
func DefaultForestConfig(numFeatures int, classify bool) ForestConfig {
	cfg := ForestConfig{
		Trees:       100,
		MaxDepth:    10,
		MinSplit:    2,
		MaxFeatures: numFeatures,
		Seed:        42,
	}
	if classify {
		cfg.MaxFeatures = int(math.Sqrt(float64(numFeatures)))
		if cfg.MaxFeatures < 1 {
			cfg.MaxFeatures = 1
		}
	}
	return cfg
}

// Forest is a bootstrap-aggregated ensemble of CART trees. With a non-nil
// Encoder it is a classifier (majority vote, vote-fraction probabilities);
// otherwise it is a regressor (mean of tree predictions).
type Forest struct {
	TreeNodes   []*TreeNode
	NumFeatures int
	Encoder     *LabelEncoder
}

// FitForestRegressor fits a random forest regressor of y on X.
func FitForestRegressor(X [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	return fitForest(X, y, nil, cfg)
}

// FitForestClassifier fits a random forest classifier over the class values
// in y.
func FitForestClassifier(X [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	enc := NewLabelEncoder(y)
	if enc.Len() < 2 {
		return nil, fmt.Errorf("fit forest classifier: need at least 2 classes, got %d", enc.Len())
	}

	encoded := make([]float64, len(y))
	for i, v := range y {
		idx, err := enc.Index(v)
		if err != nil {
			return nil, err
		}
		encoded[i] = float64(idx)
	}

	return fitForest(X, encoded, enc, cfg)
}

func fitForest(X [][]float64, y []float64, enc *LabelEncoder, cfg ForestConfig) (*Forest, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows, %d targets", n, len(y))
	}

	nClasses := 0
	if enc != nil {
		nClasses = enc.Len()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	forest := &Forest{
		TreeNodes:   make([]*TreeNode, 0, cfg.Trees),
		NumFeatures: len(X[0]),
		Encoder:     enc,
	}

	builder := &treeBuilder{
		X:           X,
		y:           y,
		nClasses:    nClasses,
		maxDepth:    cfg.MaxDepth,
		minSplit:    cfg.MinSplit,
		maxFeatures: cfg.MaxFeatures,
		rng:         rng,
	}

	indices := make([]int, n)
	for t := 0; t < cfg.Trees; t++ {
		// Bootstrap sample with replacement.
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		forest.TreeNodes = append(forest.TreeNodes, builder.build(indices, 0))
	}

	return forest, nil
}

// Name returns the model family identifier.
func (f *Forest) Name() string {
	if f.Encoder != nil {
		return "RandomForestClassifier"
	}
	return "RandomForest"
}

// Classes returns the class values for a classifier forest, or nil for a
// regressor.
func (f *Forest) Classes() []float64 {
	if f.Encoder == nil {
		return nil
	}
	return f.Encoder.Classes
}

// Predict returns the ensemble prediction: the mean leaf value for a
// regressor, the majority-vote class value for a classifier.
func (f *Forest) Predict(features []float64) (float64, error) {
	if err := checkDims(len(features), f.NumFeatures); err != nil {
		return 0, err
	}

	if f.Encoder == nil {
		sum := 0.0
		for _, tree := range f.TreeNodes {
			sum += tree.predict(features).Value
		}
		return sum / float64(len(f.TreeNodes)), nil
	}

	votes, err := f.voteFractions(features)
	if err != nil {
		return 0, err
	}

	best := 0
	for i, v := range votes {
		if v > votes[best] {
			best = i
		}
	}
	return f.Encoder.Value(best)
}

// PredictProba returns per-class vote fractions aligned with Classes().
// It fails for regressor forests, which have no class probability output.
func (f *Forest) PredictProba(features []float64) ([]float64, error) {
	if f.Encoder == nil {
		return nil, fmt.Errorf("forest regressor has no class probabilities")
	}
	if err := checkDims(len(features), f.NumFeatures); err != nil {
		return nil, err
	}
	return f.voteFractions(features)
}

func (f *Forest) voteFractions(features []float64) ([]float64, error) {
	agg := make([]float64, f.Encoder.Len())

	for _, tree := range f.TreeNodes {
		counts := tree.predict(features).Counts
		total := 0.0
		for _, c := range counts {
			total += c
		}
		if total == 0 {
			continue
		}
		for c, v := range counts {
			agg[c] += v / total
		}
	}

	for i := range agg {
		agg[i] /= float64(len(f.TreeNodes))
	}
	return agg, nil
}
