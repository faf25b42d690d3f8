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

package base

import (
	"math"
	"math/rand"
)

// RandomGenerator is the random generator for stratify. All splitters draw
// from a RandomGenerator built from an explicit seed, never from the global
// source.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// ShuffleInts shuffles values in place.
func (rng RandomGenerator) ShuffleInts(values []int) {
	rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
}

// Permutation returns a shuffled copy of values.
func (rng RandomGenerator) Permutation(values []int) []int {
	perm := make([]int, len(values))
	for i, j := range rng.Perm(len(values)) {
		perm[i] = values[j]
	}
	return perm
}

// RoundHalfUp rounds x to the nearest integer, resolving ties upward.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
