// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package pagedarray

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/vmerkle/vmerkle/backend/array"
	"github.com/vmerkle/vmerkle/common"
)

func TestPagedArrayImplements(t *testing.T) {
	var s Array[uint64, common.Hash]
	var _ array.Array[uint64, common.Hash] = &s
	var _ io.Closer = &s
}

var (
	A = common.Hash{0xAA}
	B = common.Hash{0xBB}
	C = common.Hash{0xCC}
)

func createArray(t *testing.T, dir string) *Array[uint64, common.Hash] {
	arr, err := NewArray[uint64, common.Hash](dir, common.HashSerializer{}, 2)
	if err != nil {
		t.Fatalf("failed to create array: %v", err)
	}
	return arr
}

func TestStoreInArray(t *testing.T) {
	st := createArray(t, t.TempDir())
	defer st.Close()

	for i, value := range []common.Hash{A, B, C} {
		if err := st.Set(uint64(i), value); err != nil {
			t.Fatalf("failed to set value %d: %v", i, err)
		}
	}
	if value, err := st.Get(5); err != nil || value != (common.Hash{}) {
		t.Errorf("not-existing value is not reported as zero; err=%v", err)
	}
	for i, want := range []common.Hash{A, B, C} {
		if value, err := st.Get(uint64(i)); err != nil || value != want {
			t.Errorf("reading written value %d returned different value", i)
		}
	}
}

func TestStoringToArbitraryPositionSpanningPages(t *testing.T) {
	dir := t.TempDir()
	st := createArray(t, dir)

	// hashes do not align with page boundaries
	ids := []uint64{5, 85, 86, 1000, 10_000}
	for _, id := range ids {
		if err := st.Set(id, common.Hash{byte(id), byte(id >> 8)}); err != nil {
			t.Fatalf("failed to set value: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("failed to close array: %v", err)
	}

	st = createArray(t, dir)
	defer st.Close()
	for _, id := range ids {
		want := common.Hash{byte(id), byte(id >> 8)}
		if value, err := st.Get(id); err != nil || value != want {
			t.Errorf("unexpected value at %d: %v, err %v", id, value, err)
		}
	}
}

func TestNegativeIndexesAreContractViolations(t *testing.T) {
	arr, err := NewArray[int, uint64](t.TempDir(), common.Uint64Serializer{}, 2)
	if err != nil {
		t.Fatalf("failed to create array: %v", err)
	}
	defer arr.Close()
	if _, err := arr.Get(-1); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("negative index should be rejected, got %v", err)
	}
	if err := arr.Set(-1, 1); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("negative index should be rejected, got %v", err)
	}
}

func TestIndexesBeyondMaximumFileSizeCanNotBeSet(t *testing.T) {
	arr, err := NewArray[uint64, uint64](t.TempDir(), common.Uint64Serializer{}, 2)
	if err != nil {
		t.Fatalf("failed to create array: %v", err)
	}
	defer arr.Close()
	for _, id := range []uint64{1 << 61, 1 << 63, math.MaxUint64} {
		if err := arr.Set(id, 1); !errors.Is(err, common.ErrContractViolation) {
			t.Errorf("index %d should be rejected, got %v", id, err)
		}
		if got, err := arr.Get(id); err != nil || got != 0 {
			t.Errorf("unexpected value at %d: %d, err %v", id, got, err)
		}
	}
}

func TestMemoryFootprintIsReported(t *testing.T) {
	arr := createArray(t, t.TempDir())
	defer arr.Close()
	if mf := arr.GetMemoryFootprint(); mf == nil || mf.Total() == 0 {
		t.Errorf("invalid memory footprint reported: %v", mf)
	}
}
