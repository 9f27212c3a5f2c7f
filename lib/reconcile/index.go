// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"maps"
	"slices"
)

// Pair is one edge of a bipartite relation.
type Pair[A, B comparable] struct {
	Left  A
	Right B
}

// Index is a read-only bidirectional many-to-many index. Forward maps
// left keys to right values, Reverse maps right keys to left values.
// Keys keep their first-seen order (seeds first, then pairs), and
// value lists keep insertion order including duplicates.
type Index[A, B comparable] struct {
	forward   map[A][]B
	reverse   map[B][]A
	leftKeys  []A
	rightKeys []B
	pairs     int
}

// BuildIndex builds an Index from pairs. Every element of seedLeft and
// seedRight appears as a key even if no pair references it, so an
// enabled network with no agents still shows up with an empty list.
func BuildIndex[A, B comparable](pairs []Pair[A, B], seedLeft []A, seedRight []B) *Index[A, B] {
	index := &Index[A, B]{
		forward: make(map[A][]B, len(seedLeft)),
		reverse: make(map[B][]A, len(seedRight)),
	}
	for _, left := range seedLeft {
		index.touchLeft(left)
	}
	for _, right := range seedRight {
		index.touchRight(right)
	}
	for _, pair := range pairs {
		index.touchLeft(pair.Left)
		index.touchRight(pair.Right)
		index.forward[pair.Left] = append(index.forward[pair.Left], pair.Right)
		index.reverse[pair.Right] = append(index.reverse[pair.Right], pair.Left)
		index.pairs++
	}
	return index
}

func (ix *Index[A, B]) touchLeft(left A) {
	if _, exists := ix.forward[left]; !exists {
		ix.forward[left] = []B{}
		ix.leftKeys = append(ix.leftKeys, left)
	}
}

func (ix *Index[A, B]) touchRight(right B) {
	if _, exists := ix.reverse[right]; !exists {
		ix.reverse[right] = []A{}
		ix.rightKeys = append(ix.rightKeys, right)
	}
}

// Forward returns a copy of the values for left, or nil if left is
// not a key.
func (ix *Index[A, B]) Forward(left A) []B {
	return slices.Clone(ix.forward[left])
}

// Reverse returns a copy of the left keys paired with right, or nil
// if right is not a key.
func (ix *Index[A, B]) Reverse(right B) []A {
	return slices.Clone(ix.reverse[right])
}

// Keys returns the left keys in first-seen order.
func (ix *Index[A, B]) Keys() []A {
	return slices.Clone(ix.leftKeys)
}

// ReverseKeys returns the right keys in first-seen order.
func (ix *Index[A, B]) ReverseKeys() []B {
	return slices.Clone(ix.rightKeys)
}

// HasKey reports whether left is a key.
func (ix *Index[A, B]) HasKey(left A) bool {
	_, exists := ix.forward[left]
	return exists
}

// Pairs returns the number of pairs the index was built from,
// counting duplicates.
func (ix *Index[A, B]) Pairs() int {
	return ix.pairs
}

// Histogram maps a degree d to the number of left keys with exactly d
// values. Degrees count duplicate pairs. Zero-degree seeds are
// included, so the counts always sum to len(Keys()).
func (ix *Index[A, B]) Histogram() map[int]int {
	histogram := make(map[int]int)
	for _, left := range ix.leftKeys {
		histogram[len(ix.forward[left])]++
	}
	return histogram
}

// Degrees returns the histogram's degrees in ascending order.
func Degrees(histogram map[int]int) []int {
	return slices.Sorted(maps.Keys(histogram))
}

// AssignmentPairs converts assignments into resource-to-agent pairs.
func AssignmentPairs(assignments []Assignment) []Pair[ResourceID, AgentID] {
	pairs := make([]Pair[ResourceID, AgentID], len(assignments))
	for i, assignment := range assignments {
		pairs[i] = Pair[ResourceID, AgentID]{Left: assignment.Resource, Right: assignment.Agent}
	}
	return pairs
}
