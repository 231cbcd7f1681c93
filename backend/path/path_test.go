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
	"math"
	"testing"
)

func TestPath_ChildrenAndParentAreInverse(t *testing.T) {
	for p := Path(0); p < 10_000; p++ {
		left, right := LeftChild(p), RightChild(p)
		if got, ok := Parent(left); !ok || got != p {
			t.Errorf("unexpected parent of %d: %d", left, got)
		}
		if got, ok := Parent(right); !ok || got != p {
			t.Errorf("unexpected parent of %d: %d", right, got)
		}
		if !IsLeft(left) || IsLeft(right) {
			t.Errorf("unexpected sides for children of %d", p)
		}
		if got, ok := Sibling(left); !ok || got != right {
			t.Errorf("unexpected sibling of %d: %d", left, got)
		}
		if got, ok := Sibling(right); !ok || got != left {
			t.Errorf("unexpected sibling of %d: %d", right, got)
		}
		if Depth(left) != Depth(p)+1 || Depth(right) != Depth(p)+1 {
			t.Errorf("children of %d should be one level deeper", p)
		}
	}
}

func TestPath_ChildrenOfDeepestPathsWrapAround(t *testing.T) {
	const deep = Path(1 << 63)
	if got, want := LeftChild(deep), Path(1); got != want {
		t.Errorf("unexpected left child of %v, wanted %v, got %v", deep, want, got)
	}
	if got, want := RightChild(Path(math.MaxUint64)), Path(0); got != want {
		t.Errorf("unexpected right child of max path, wanted %v, got %v", want, got)
	}
	last := Path(1<<63 - 1)
	if got, want := LeftChild(last), Path(math.MaxUint64); got != want {
		t.Errorf("unexpected left child of %v, wanted %v, got %v", last, want, got)
	}
	if got, want := RightChild(last), Path(0); got != want {
		t.Errorf("unexpected right child of %v, wanted %v, got %v", last, want, got)
	}
}

func TestPath_RootHasNoParentOrSibling(t *testing.T) {
	if _, ok := Parent(Root); ok {
		t.Errorf("root should have no parent")
	}
	if _, ok := Sibling(Root); ok {
		t.Errorf("root should have no sibling")
	}
	if IsLeft(Root) {
		t.Errorf("root is not a left child")
	}
}

func TestPath_Depth(t *testing.T) {
	tests := []struct {
		path  Path
		depth int
	}{
		{0, 0},
		{1, 1}, {2, 1},
		{3, 2}, {6, 2},
		{7, 3}, {14, 3},
		{15, 4},
		{math.MaxUint64 - 1, 63},
	}
	for _, test := range tests {
		if got := Depth(test.path); got != test.depth {
			t.Errorf("unexpected depth of %d, wanted %d, got %d", test.path, test.depth, got)
		}
	}
}

func TestPath_IsLeaf(t *testing.T) {
	tests := []struct {
		path, first, last Path
		leaf              bool
	}{
		{0, 0, 0, true},
		{0, 1, 2, false},
		{1, 1, 2, true},
		{2, 1, 2, true},
		{3, 1, 2, false},
		{5, 4, 8, true},
		{3, 4, 8, false},
		{9, 4, 8, false},
	}
	for _, test := range tests {
		if got := IsLeaf(test.path, test.first, test.last); got != test.leaf {
			t.Errorf("IsLeaf(%d, %d, %d) = %t, wanted %t", test.path, test.first, test.last, got, test.leaf)
		}
	}
}

func TestPath_SerializerRoundTrip(t *testing.T) {
	s := Serializer{}
	for _, p := range []Path{0, 1, 255, 1 << 40, math.MaxUint64} {
		buffer := make([]byte, s.Size())
		s.CopyBytes(p, buffer)
		if got := s.FromBytes(buffer); got != p {
			t.Errorf("unexpected path after round trip: %d != %d", got, p)
		}
	}
}
