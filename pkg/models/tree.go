package models

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a CART decision tree. Interior nodes route on
// features[Feature] <= Threshold; leaves carry either a regression Value or
// per-class Counts.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode

	Value  float64
	Counts []float64
}

func (n *TreeNode) leaf() bool { return n.Left == nil }

// predict walks the tree to a leaf.
func (n *TreeNode) predict(features []float64) *TreeNode {
	node := n
	for !node.leaf() {
		if features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// treeBuilder grows a single CART tree over a shared design matrix. When
// nClasses > 0 the targets are dense class indices and splits minimize gini
// impurity; otherwise splits minimize the summed squared error.
type treeBuilder struct {
	X           [][]float64
	y           []float64
	nClasses    int
	maxDepth    int
	minSplit    int
	maxFeatures int
	rng         *rand.Rand
}

func (b *treeBuilder) build(indices []int, depth int) *TreeNode {
	if depth >= b.maxDepth || len(indices) < b.minSplit || b.pure(indices) {
		return b.makeLeaf(indices)
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return b.makeLeaf(indices)
	}

	var left, right []int
	for _, idx := range indices {
		if b.X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.makeLeaf(indices)
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

func (b *treeBuilder) pure(indices []int) bool {
	first := b.y[indices[0]]
	for _, idx := range indices[1:] {
		if b.y[idx] != first {
			return false
		}
	}
	return true
}

func (b *treeBuilder) makeLeaf(indices []int) *TreeNode {
	if b.nClasses > 0 {
		counts := make([]float64, b.nClasses)
		for _, idx := range indices {
			counts[int(b.y[idx])]++
		}
		return &TreeNode{Counts: counts}
	}

	sum := 0.0
	for _, idx := range indices {
		sum += b.y[idx]
	}
	return &TreeNode{Value: sum / float64(len(indices))}
}

// bestSplit searches a random subset of features for the split with the
// lowest impurity, scanning each candidate feature in sorted order with
// running aggregates.
func (b *treeBuilder) bestSplit(indices []int) (feature int, threshold float64, ok bool) {
	numFeatures := len(b.X[0])

	candidates := b.rng.Perm(numFeatures)
	if b.maxFeatures < numFeatures {
		candidates = candidates[:b.maxFeatures]
	}

	bestScore := 0.0
	sorted := make([]int, len(indices))

	for _, f := range candidates {
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool {
			return b.X[sorted[i]][f] < b.X[sorted[j]][f]
		})

		var score float64
		var thr float64
		var found bool
		if b.nClasses > 0 {
			score, thr, found = b.scanGini(sorted, f)
		} else {
			score, thr, found = b.scanVariance(sorted, f)
		}

		if found && (!ok || score < bestScore) {
			ok = true
			bestScore = score
			feature = f
			threshold = thr
		}
	}

	return feature, threshold, ok
}

// scanVariance finds the threshold minimizing left SSE + right SSE for one
// feature over indices pre-sorted by that feature.
func (b *treeBuilder) scanVariance(sorted []int, f int) (score, threshold float64, ok bool) {
	n := len(sorted)

	totalSum, totalSq := 0.0, 0.0
	for _, idx := range sorted {
		v := b.y[idx]
		totalSum += v
		totalSq += v * v
	}

	leftSum, leftSq := 0.0, 0.0
	for i := 0; i < n-1; i++ {
		v := b.y[sorted[i]]
		leftSum += v
		leftSq += v * v

		cur, next := b.X[sorted[i]][f], b.X[sorted[i+1]][f]
		if cur == next {
			continue
		}

		nl, nr := float64(i+1), float64(n-i-1)
		rightSum := totalSum - leftSum
		rightSq := totalSq - leftSq

		sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
		if !ok || sse < score {
			ok = true
			score = sse
			threshold = (cur + next) / 2
		}
	}

	return score, threshold, ok
}

// scanGini finds the threshold minimizing the weighted gini impurity for one
// feature over indices pre-sorted by that feature.
func (b *treeBuilder) scanGini(sorted []int, f int) (score, threshold float64, ok bool) {
	n := len(sorted)

	totalCounts := make([]float64, b.nClasses)
	for _, idx := range sorted {
		totalCounts[int(b.y[idx])]++
	}

	leftCounts := make([]float64, b.nClasses)
	for i := 0; i < n-1; i++ {
		leftCounts[int(b.y[sorted[i]])]++

		cur, next := b.X[sorted[i]][f], b.X[sorted[i+1]][f]
		if cur == next {
			continue
		}

		nl, nr := float64(i+1), float64(n-i-1)

		giniL, giniR := 1.0, 1.0
		for c := 0; c < b.nClasses; c++ {
			pl := leftCounts[c] / nl
			pr := (totalCounts[c] - leftCounts[c]) / nr
			giniL -= pl * pl
			giniR -= pr * pr
		}

		weighted := nl*giniL + nr*giniR
		if !ok || weighted < score {
			ok = true
			score = weighted
			threshold = (cur + next) / 2
		}
	}

	return score, threshold, ok
}
