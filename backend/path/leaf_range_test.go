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

import (
	"testing"
)

func TestLeafRange_EmptyRange(t *testing.T) {
	r := EmptyLeafRange
	if !r.IsEmpty() || r.Size() != 0 {
		t.Errorf("range should be empty")
	}
	for _, p := range []Path{0, 1, 2, 100} {
		if r.Contains(p) {
			t.Errorf("empty range should not contain %d", p)
		}
	}
	r.ForEach(func(p Path) {
		t.Errorf("unexpected path %d in empty range", p)
	})
	if got, want := r.String(), "[]"; got != want {
		t.Errorf("unexpected string, wanted %v, got %v", want, got)
	}
}

func TestLeafRange_ExtendCoversAllPaths(t *testing.T) {
	r := EmptyLeafRange
	for _, p := range []Path{5, 3, 9, 4} {
		r = r.Extend(p)
	}
	if got, want := r, NewLeafRange(3, 9); got != want {
		t.Errorf("unexpected range, wanted %v, got %v", want, got)
	}
	if r.Size() != 7 {
		t.Errorf("unexpected size %d", r.Size())
	}

	var visited []Path
	r.ForEach(func(p Path) { visited = append(visited, p) })
	if len(visited) != 7 || visited[0] != 3 || visited[6] != 9 {
		t.Errorf("unexpected iteration order: %v", visited)
	}
}

func TestLeafRange_SinglePathRangeIsNotEmpty(t *testing.T) {
	r := EmptyLeafRange.Extend(0)
	if r.IsEmpty() || !r.Contains(0) || r.Size() != 1 {
		t.Errorf("range [0,0] should hold exactly path 0")
	}
	if got, want := r.String(), "[0,0]"; got != want {
		t.Errorf("unexpected string, wanted %v, got %v", want, got)
	}
}
