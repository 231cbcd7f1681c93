// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package stock

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// ComplementSet is an IndexSet covering an interval [lowerBound, upperBound)
// except for an explicit list of excluded elements. Stocks use it to report
// their allocated range minus the free list.
type ComplementSet[I constraints.Integer] struct {
	lowerBound I
	upperBound I
	excluded   map[I]struct{}
}

// MakeComplementSet creates a set containing the elements in the interval [lowerBound, upperBound).
func MakeComplementSet[I constraints.Integer](lowerBound, upperBound I) *ComplementSet[I] {
	return &ComplementSet[I]{
		lowerBound: lowerBound,
		upperBound: upperBound,
	}
}

func (s *ComplementSet[I]) GetLowerBound() I {
	return s.lowerBound
}

func (s *ComplementSet[I]) GetUpperBound() I {
	return s.upperBound
}

func (s *ComplementSet[I]) Contains(i I) bool {
	if i < s.lowerBound || i >= s.upperBound {
		return false
	}
	_, excluded := s.excluded[i]
	return !excluded
}

// Remove excludes the given element from the set.
func (s *ComplementSet[I]) Remove(i I) {
	if i < s.lowerBound || i >= s.upperBound {
		return
	}
	if s.excluded == nil {
		s.excluded = map[I]struct{}{}
	}
	s.excluded[i] = struct{}{}
}

// Size returns the number of elements in the set.
func (s *ComplementSet[I]) Size() int {
	return int(s.upperBound-s.lowerBound) - len(s.excluded)
}

// ForEach calls the given function for every element of the set in
// ascending order.
func (s *ComplementSet[I]) ForEach(op func(I)) {
	for i := s.lowerBound; i < s.upperBound; i++ {
		if _, excluded := s.excluded[i]; !excluded {
			op(i)
		}
	}
}

func (s *ComplementSet[I]) GetMemoryFootprint() uintptr {
	var i I
	return unsafe.Sizeof(*s) + uintptr(len(s.excluded))*unsafe.Sizeof(i)
}
