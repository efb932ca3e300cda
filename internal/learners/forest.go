package learners

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RandomForest is an ensemble of CART trees grown on bootstrap samples with a random
// feature subset considered at each split. Class distributions of the reached leaves are
// averaged across trees.
type RandomForest struct {
	params ForestParams

	trees   []*treeNode
	classes int
	cols    int
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	dist      []float64 // class proportions, set on leaves only
}

// NewRandomForest creates an untrained random forest.
func NewRandomForest(params ForestParams) (*RandomForest, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &RandomForest{params: params}, nil
}

func (f *RandomForest) Fit(X mat.Matrix, y []int) error {
	rows, cols, classes, err := checkTrainingSet(X, y)
	if err != nil {
		return err
	}
	f.trees = nil

	samples := make([][]float64, rows)
	for i := range samples {
		samples[i] = mat.Row(nil, i, X)
	}

	maxFeatures := int(math.Sqrt(float64(cols)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rng := rand.New(rand.NewSource(f.params.Seed))
	trees := make([]*treeNode, f.params.NEstimators)
	for t := range trees {
		idx := make([]int, rows)
		for i := range idx {
			idx[i] = rng.Intn(rows)
		}
		g := &treeGrower{
			samples:     samples,
			labels:      y,
			classes:     classes,
			cols:        cols,
			maxFeatures: maxFeatures,
			maxDepth:    f.params.MaxDepth,
			minSplit:    f.params.MinSamplesSplit,
			rng:         rng,
		}
		trees[t] = g.grow(idx, 0)
	}

	f.trees = trees
	f.classes = classes
	f.cols = cols
	return nil
}

func (f *RandomForest) Predict(X mat.Matrix) ([]int, error) {
	if f.trees == nil {
		return nil, ErrNotFitted
	}
	rows, err := checkPredictInput(X, f.cols)
	if err != nil {
		return nil, err
	}
	row := make([]float64, f.cols)
	proba := make([]float64, f.classes)
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		for c := range proba {
			proba[c] = 0
		}
		for _, tree := range f.trees {
			floats.Add(proba, tree.leaf(row).dist)
		}
		out[i] = argmax(proba)
	}
	return out, nil
}

func (n *treeNode) leaf(row []float64) *treeNode {
	for n.dist == nil {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

type treeGrower struct {
	samples     [][]float64
	labels      []int
	classes     int
	cols        int
	maxFeatures int
	maxDepth    int
	minSplit    int
	rng         *rand.Rand
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (g *treeGrower) grow(idx []int, depth int) *treeNode {
	counts := make([]float64, g.classes)
	for _, i := range idx {
		counts[g.labels[i]]++
	}

	pure := floats.Max(counts) == float64(len(idx))
	if pure || len(idx) < g.minSplit || (g.maxDepth > 0 && depth >= g.maxDepth) {
		return g.newLeaf(counts, len(idx))
	}

	best, ok := g.bestSplit(idx)
	if !ok {
		return g.newLeaf(counts, len(idx))
	}

	var left, right []int
	for _, i := range idx {
		if g.samples[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return g.newLeaf(counts, len(idx))
	}
	return &treeNode{
		feature:   best.feature,
		threshold: best.threshold,
		left:      g.grow(left, depth+1),
		right:     g.grow(right, depth+1),
	}
}

func (g *treeGrower) newLeaf(counts []float64, n int) *treeNode {
	dist := make([]float64, len(counts))
	copy(dist, counts)
	floats.Scale(1/float64(n), dist)
	return &treeNode{dist: dist}
}

// bestSplit evaluates maxFeatures randomly ordered features, continuing past that budget
// only while no valid split has been found.
func (g *treeGrower) bestSplit(idx []int) (split, bool) {
	best := split{impurity: math.Inf(1)}
	found := false
	visited := 0
	for _, feature := range g.rng.Perm(g.cols) {
		if visited >= g.maxFeatures && found {
			break
		}
		visited++
		if s, ok := g.splitOn(idx, feature); ok && s.impurity < best.impurity {
			best = s
			found = true
		}
	}
	return best, found
}

// splitOn finds the threshold on one feature that minimizes weighted gini impurity.
func (g *treeGrower) splitOn(idx []int, feature int) (split, bool) {
	order := append([]int(nil), idx...)
	sort.Slice(order, func(a, b int) bool {
		return g.samples[order[a]][feature] < g.samples[order[b]][feature]
	})

	n := float64(len(order))
	leftCounts := make([]float64, g.classes)
	rightCounts := make([]float64, g.classes)
	for _, i := range order {
		rightCounts[g.labels[i]]++
	}

	best := split{feature: feature, impurity: math.Inf(1)}
	found := false
	for pos := 0; pos < len(order)-1; pos++ {
		label := g.labels[order[pos]]
		leftCounts[label]++
		rightCounts[label]--

		cur := g.samples[order[pos]][feature]
		next := g.samples[order[pos+1]][feature]
		if cur == next {
			continue
		}
		nl := float64(pos + 1)
		nr := n - nl
		impurity := (nl*gini(leftCounts, nl) + nr*gini(rightCounts, nr)) / n
		if impurity < best.impurity {
			best.impurity = impurity
			best.threshold = midpoint(cur, next)
			found = true
		}
	}
	return best, found
}

// midpoint returns a threshold t with cur <= t < next. For adjacent float64 values the
// arithmetic midpoint rounds to next, so cur is used instead.
func midpoint(cur, next float64) float64 {
	t := cur + (next-cur)/2
	if t >= next {
		return cur
	}
	return t
}

func gini(counts []float64, total float64) float64 {
	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	return impurity
}
