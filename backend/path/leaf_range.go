// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package path

import "fmt"

// LeafRange is the closed interval [First, Last] of paths holding leaves.
// A range with First > Last is empty.
type LeafRange struct {
	First Path
	Last  Path
}

// EmptyLeafRange is the range of a tree without leaves.
var EmptyLeafRange = LeafRange{First: 1, Last: 0}

// NewLeafRange creates the range [first, last].
func NewLeafRange(first, last Path) LeafRange {
	return LeafRange{First: first, Last: last}
}

// IsEmpty reports whether no path is part of the range.
func (r LeafRange) IsEmpty() bool {
	return r.First > r.Last
}

// Contains reports whether p is a leaf path of the range.
func (r LeafRange) Contains(p Path) bool {
	return IsLeaf(p, r.First, r.Last)
}

// Size returns the number of paths in the range.
func (r LeafRange) Size() uint64 {
	if r.IsEmpty() {
		return 0
	}
	return uint64(r.Last-r.First) + 1
}

// Extend returns the smallest range covering r and p.
func (r LeafRange) Extend(p Path) LeafRange {
	if r.IsEmpty() {
		return LeafRange{First: p, Last: p}
	}
	return LeafRange{First: min(r.First, p), Last: max(r.Last, p)}
}

// ForEach calls the callback for every path of the range in ascending order.
func (r LeafRange) ForEach(callback func(Path)) {
	if r.IsEmpty() {
		return
	}
	for p := r.First; ; p++ {
		callback(p)
		if p == r.Last {
			return
		}
	}
}

func (r LeafRange) String() string {
	if r.IsEmpty() {
		return "[]"
	}
	return fmt.Sprintf("[%d,%d]", uint64(r.First), uint64(r.Last))
}
