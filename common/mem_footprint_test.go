// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"strings"
	"testing"
)

func TestMemoryFootprint_TotalIncludesChildrenOnce(t *testing.T) {
	shared := NewMemoryFootprint(8)
	a := NewMemoryFootprint(16)
	a.AddChild("shared", shared)
	b := NewMemoryFootprint(32)
	b.AddChild("shared", shared)
	root := NewMemoryFootprint(4)
	root.AddChild("a", a)
	root.AddChild("b", b)

	if got, want := root.Total(), uintptr(4+16+32+8); got != want {
		t.Errorf("unexpected total, wanted %d, got %d", want, got)
	}
	if got, want := root.Value(), uintptr(4); got != want {
		t.Errorf("unexpected value, wanted %d, got %d", want, got)
	}
	if root.GetChild("a") != a || root.GetChild("c") != nil {
		t.Errorf("unexpected child lookup result")
	}
}

func TestMemoryFootprint_StringListsComponentsInOrder(t *testing.T) {
	root := NewMemoryFootprint(2048)
	root.AddChild("zeta", NewMemoryFootprint(10))
	root.AddChild("alpha", NewMemoryFootprint(3*1024*1024))

	str := root.String()
	lines := strings.Split(strings.TrimSpace(str), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected number of lines: %v", lines)
	}
	if !strings.HasSuffix(lines[0], " .") || !strings.HasSuffix(lines[1], "./alpha") || !strings.HasSuffix(lines[2], "./zeta") {
		t.Errorf("unexpected order of lines: %v", lines)
	}
	if !strings.HasPrefix(lines[1], "3.0 MB") {
		t.Errorf("unexpected amount formatting: %v", lines[1])
	}
	if !strings.HasPrefix(lines[2], "10 B") {
		t.Errorf("unexpected amount formatting: %v", lines[2])
	}
}
