// Package dataset holds labeled feature matrices for training and evaluating the voting
// ensemble. It loads CSV files, encodes arbitrary string labels into the contiguous
// non-negative integers the ensemble tallies on, and produces stratified train/test splits.
package dataset

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Dataset is an n×d feature matrix with one encoded label per row.
type Dataset struct {
	Name     string
	X        *mat.Dense
	Y        []int
	Features []string
	Labels   *LabelEncoder
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Y)
}

// Subset returns a dataset restricted to the given rows, in the given order.
func (d *Dataset) Subset(idx []int) *Dataset {
	y := make([]int, len(idx))
	for i, r := range idx {
		y[i] = d.Y[r]
	}
	return &Dataset{
		Name:     d.Name,
		X:        Rows(d.X, idx),
		Y:        y,
		Features: d.Features,
		Labels:   d.Labels,
	}
}

// Split partitions the dataset into train and test sets. Rows of every class are shuffled
// with the given seed and the first testRatio share of each class goes to the test set, so
// both sides keep the class balance. Classes with a single row stay in the training set.
func (d *Dataset) Split(testRatio float64, seed int64) (train, test *Dataset, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0, 1), got %f", testRatio)
	}
	if d.Len() < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to split, got %d", d.Len())
	}

	byClass := make(map[int][]int)
	for i, label := range d.Y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, label := range classes {
		members := byClass[label]
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		nTest := int(float64(len(members))*testRatio + 0.5)
		if nTest >= len(members) {
			nTest = len(members) - 1
		}
		testIdx = append(testIdx, members[:nTest]...)
		trainIdx = append(trainIdx, members[nTest:]...)
	}
	if len(testIdx) == 0 {
		return nil, nil, fmt.Errorf("test ratio %f leaves the test set empty", testRatio)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	return d.Subset(trainIdx), d.Subset(testIdx), nil
}

// Rows copies the given rows of X into a new dense matrix.
func Rows(X mat.Matrix, idx []int) *mat.Dense {
	_, cols := X.Dims()
	if len(idx) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(idx), cols, nil)
	for i, r := range idx {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}
