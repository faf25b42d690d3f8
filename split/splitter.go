// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package split

import (
	"math"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/stratify/base"
	"github.com/gorse-io/stratify/base/log"
	"github.com/gorse-io/stratify/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Split is a partition of row indices into a train set and a test set.
type Split struct {
	Train []int
	Test  []int
}

// Validate checks that Train and Test are disjoint and together cover rows
// 0..n-1 exactly once.
func (s *Split) Validate(n int) error {
	seen := mapset.NewThreadUnsafeSetWithSize[int](n)
	for _, indices := range [][]int{s.Train, s.Test} {
		for _, index := range indices {
			if index < 0 || index >= n {
				return errors.NotValidf("row %d out of range [0, %d)", index, n)
			}
			if !seen.Add(index) {
				return errors.NotValidf("row %d assigned twice", index)
			}
		}
	}
	if seen.Cardinality() != n {
		return errors.NotValidf("split covers %d of %d rows", seen.Cardinality(), n)
	}
	return nil
}

// Splitter splits rows, given by their labels, into train and test sets.
type Splitter func(labels []string, seed int64) (*Split, error)

// FoldSplitter splits rows, given by their labels, into k train/test folds.
type FoldSplitter func(labels []string, seed int64) ([]*Split, error)

// NewStratifiedSplitter creates a splitter that keeps the frequency of every
// label class in both sets. The test set holds round-half-up(n*testRatio) of
// the n rows. Each class first gets floor(n_c*testRatio) test rows and the
// remaining test rows go one each to the classes with the largest fractional
// shares. A class that would be missing from either set fails the split.
func NewStratifiedSplitter(testRatio float64) Splitter {
	return func(labels []string, seed int64) (*Split, error) {
		if err := dataset.ValidateFraction(testRatio); err != nil {
			return nil, err
		}
		classes := dataset.NewClassDictFromLabels(labels)
		if classes.Count() < 2 {
			return nil, &dataset.InsufficientClassSamplesError{Count: classes.Count(), Required: 2}
		}
		// Check every class before drawing any row.
		testSizes, err := allocateTestSizes(classes, len(labels), testRatio)
		if err != nil {
			return nil, err
		}
		rng := base.NewRandomGenerator(seed)
		split := &Split{
			Train: make([]int, 0, len(labels)),
			Test:  make([]int, 0, len(labels)),
		}
		for id := 0; id < classes.Count(); id++ {
			perm := rng.Permutation(classes.Rows(id))
			split.Test = append(split.Test, perm[:testSizes[id]]...)
			split.Train = append(split.Train, perm[testSizes[id]:]...)
		}
		rng.ShuffleInts(split.Train)
		rng.ShuffleInts(split.Test)
		log.Logger().Debug("stratified split",
			zap.Int("classes", classes.Count()),
			zap.Ints("test_sizes", testSizes),
			zap.Int("train", len(split.Train)),
			zap.Int("test", len(split.Test)))
		return split, nil
	}
}

// allocateTestSizes returns the number of test rows of every class. Sizes
// sum to round-half-up(n*testRatio) and each lies within one row of the
// class share.
func allocateTestSizes(classes *dataset.ClassDict, n int, testRatio float64) ([]int, error) {
	testSizes := make([]int, classes.Count())
	remainders := make([]float64, classes.Count())
	assigned := 0
	for id := range testSizes {
		share := float64(classes.Freq(id)) * testRatio
		testSizes[id] = int(math.Floor(share))
		remainders[id] = share - float64(testSizes[id])
		assigned += testSizes[id]
	}
	// Classes without a test row come first, then larger remainders. Ties keep
	// class id order.
	candidates := lo.Filter(lo.Range(classes.Count()), func(id int, _ int) bool {
		return remainders[id] > 0 && testSizes[id]+1 <= classes.Freq(id)-1
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (testSizes[a] == 0) != (testSizes[b] == 0) {
			return testSizes[a] == 0
		}
		return remainders[a] > remainders[b]
	})
	leftover := max(base.RoundHalfUp(float64(n)*testRatio)-assigned, 0)
	if leftover > len(candidates) {
		// blame single rows first, then classes below the safe size
		for _, minSize := range []int{2, MinClassSize(testRatio)} {
			if err := insufficientClass(classes, testRatio, func(id int) bool {
				return classes.Freq(id) < minSize
			}); err != nil {
				return nil, err
			}
		}
		return nil, errors.NotValidf("%d test rows for %d classes", leftover, len(candidates))
	}
	for _, id := range candidates[:leftover] {
		testSizes[id]++
	}
	if err := insufficientClass(classes, testRatio, func(id int) bool {
		return testSizes[id] < 1 || testSizes[id] > classes.Freq(id)-1
	}); err != nil {
		return nil, err
	}
	return testSizes, nil
}

// insufficientClass reports the first class matching infeasible.
func insufficientClass(classes *dataset.ClassDict, testRatio float64, infeasible func(id int) bool) error {
	for id := 0; id < classes.Count(); id++ {
		if infeasible(id) {
			label, _ := classes.String(id)
			return &dataset.InsufficientClassSamplesError{
				Label:    label,
				Count:    classes.Freq(id),
				Required: MinClassSize(testRatio),
			}
		}
	}
	return nil
}

// MinClassSize returns the smallest class size that a stratified split with
// testRatio places in both sets whatever the other classes are: its share
// floor(n*testRatio) is at least one row and its share ceiling leaves a row
// for training.
func MinClassSize(testRatio float64) int {
	if dataset.ValidateFraction(testRatio) != nil {
		return 0
	}
	for n := 2; ; n++ {
		share := float64(n) * testRatio
		if math.Floor(share) >= 1 && share <= float64(n-1) {
			return n
		}
	}
}

// NewRatioSplitter creates a splitter that ignores labels and moves
// round-half-up(n*testRatio) random rows to the test set.
func NewRatioSplitter(testRatio float64) Splitter {
	return func(labels []string, seed int64) (*Split, error) {
		if err := dataset.ValidateFraction(testRatio); err != nil {
			return nil, err
		}
		n := len(labels)
		testSize := base.RoundHalfUp(float64(n) * testRatio)
		if testSize < 1 || testSize > n-1 {
			return nil, errors.NotValidf("test size %d of %d rows", testSize, n)
		}
		perm := base.NewRandomGenerator(seed).Perm(n)
		return &Split{
			Train: perm[testSize:],
			Test:  perm[:testSize],
		}, nil
	}
}

// NewStratifiedKFoldSplitter creates a splitter that deals the shuffled rows
// of every class into k folds. Fold i uses the i-th chunk of each class as
// its test set and the remaining chunks as its train set. Every class needs
// at least k rows.
func NewStratifiedKFoldSplitter(k int) FoldSplitter {
	return func(labels []string, seed int64) ([]*Split, error) {
		if k < 2 {
			return nil, errors.NotValidf("number of folds %d", k)
		}
		classes := dataset.NewClassDictFromLabels(labels)
		if classes.Count() < 2 {
			return nil, &dataset.InsufficientClassSamplesError{Count: classes.Count(), Required: 2}
		}
		for id := 0; id < classes.Count(); id++ {
			if classes.Freq(id) < k {
				label, _ := classes.String(id)
				return nil, &dataset.InsufficientClassSamplesError{Label: label, Count: classes.Freq(id), Required: k}
			}
		}
		rng := base.NewRandomGenerator(seed)
		tests := make([][]int, k)
		offset := 0
		for id := 0; id < classes.Count(); id++ {
			perm := rng.Permutation(classes.Rows(id))
			foldSize, remainder := len(perm)/k, len(perm)%k
			begin := 0
			for i := 0; i < k; i++ {
				end := begin + foldSize
				// rotate the folds receiving an extra row so fold sizes stay balanced
				if (i-offset+k)%k < remainder {
					end++
				}
				tests[i] = append(tests[i], perm[begin:end]...)
				begin = end
			}
			offset = (offset + remainder) % k
		}
		folds := make([]*Split, k)
		for i := range folds {
			folds[i] = &Split{Test: tests[i]}
			for j := range tests {
				if j != i {
					folds[i].Train = append(folds[i].Train, tests[j]...)
				}
			}
			rng.ShuffleInts(folds[i].Train)
			rng.ShuffleInts(folds[i].Test)
		}
		return folds, nil
	}
}
