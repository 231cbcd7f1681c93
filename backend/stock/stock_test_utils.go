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
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmerkle/vmerkle/common"
)

// IntEncoder is a ValueEncoder for int values used by stock tests.
type IntEncoder struct{}

func (IntEncoder) GetEncodedSize() int {
	return 4
}

func (e IntEncoder) Load(src []byte, value *int) error {
	if err := CheckEncodedSize("load", src, e.GetEncodedSize()); err != nil {
		return err
	}
	*value = int(binary.BigEndian.Uint32(src))
	return nil
}

func (e IntEncoder) Store(trg []byte, value *int) error {
	if err := CheckEncodedSize("store", trg, e.GetEncodedSize()); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(trg, uint32(*value))
	return nil
}

type NamedStockFactory struct {
	ImplementationName string
	Open               func(t *testing.T, directory string) (Stock[int, int], error)
	// Volatile implementations lose their content when closed.
	Volatile bool
}

// RunStockTests runs a set of black-box unit test against a generic Stock
// implementation defined by the given factory. It is intended to be used
// in implementation specific unit test packages to cover basic compliance
// properties as imposed by the Stock interface.
func RunStockTests(t *testing.T, factory NamedStockFactory) {
	wrap := func(test func(*testing.T, NamedStockFactory)) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			test(t, factory)
		}
	}
	t.Run(factory.ImplementationName, func(t *testing.T) {
		t.Run("NewCreatesFreshIndexValues", wrap(testNewCreatesFreshIndexValues))
		t.Run("LookUpsRetrieveTheSameValue", wrap(testLookUpsRetrieveTheSameValue))
		t.Run("DeletedElementsAreReused", wrap(testDeletedElementsAreReused))
		t.Run("FreedSlotsAreReusedInLifoOrder", wrap(testFreedSlotsAreReusedInLifoOrder))
		t.Run("AccessOutsideRangeIsContractViolation", wrap(testAccessOutsideRangeIsContractViolation))
		t.Run("GetIdsExcludesDeletedElements", wrap(testGetIdsExcludesDeletedElements))
		t.Run("FreeSlotsCanNotBeDeletedAgain", wrap(testFreeSlotsCanNotBeDeletedAgain))
		t.Run("LargeNumberOfElements", wrap(testLargeNumberOfElements))
		t.Run("ProvidesMemoryFootprint", wrap(testProvidesMemoryFootprint))
		t.Run("CanBeFlushed", wrap(testCanBeFlushed))
		t.Run("CanBeClosed", wrap(testCanBeClosed))
		if !factory.Volatile {
			t.Run("CreatesMissingDirectories", wrap(testCreatesMissingDirectories))
			t.Run("CanBeClosedAndReopened", wrap(testCanBeClosedAndReopened))
		}
	})
}

func testNewCreatesFreshIndexValues(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	index1, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	index2, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	if index1 == index2 {
		t.Errorf("expected different index values, got %v and %v", index1, index2)
	}
}

func testLookUpsRetrieveTheSameValue(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()

	indexes := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		index, err := stock.New()
		if err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
		if err := stock.Set(index, i+1); err != nil {
			t.Fatalf("failed to update value for index %d: %v", index, err)
		}
		indexes = append(indexes, index)
	}

	for i, index := range indexes {
		got, err := stock.Get(index)
		if err != nil {
			t.Fatalf("failed to obtain value for index %d: %v", index, err)
		}
		if got != i+1 {
			t.Errorf("failed to obtain value for index %d: got %d, wanted %d", index, got, i+1)
		}
	}
}

func testDeletedElementsAreReused(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()

	seen := map[int]bool{}
	for i := 0; i < 1_000; i++ {
		index, err := stock.New()
		if err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
		if _, exists := seen[index]; exists {
			return
		}
		seen[index] = true
		if err := stock.Delete(index); err != nil {
			t.Fatalf("failed to delete element with key %v: %v", index, err)
		}
	}
	t.Errorf("stock failed to reuse released index key")
}

func testFreedSlotsAreReusedInLifoOrder(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()

	indexes := make([]int, 5)
	for i := range indexes {
		if indexes[i], err = stock.New(); err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
	}
	if err := stock.Delete(indexes[1]); err != nil {
		t.Fatalf("failed to delete element: %v", err)
	}
	if err := stock.Delete(indexes[3]); err != nil {
		t.Fatalf("failed to delete element: %v", err)
	}

	for _, want := range []int{indexes[3], indexes[1]} {
		got, err := stock.New()
		if err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
		if got != want {
			t.Errorf("unexpected reused index, wanted %d, got %d", want, got)
		}
	}
	got, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	if got != 5 {
		t.Errorf("stock should grow once free list is exhausted, wanted index 5, got %d", got)
	}
}

func testAccessOutsideRangeIsContractViolation(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()

	if _, err := stock.New(); err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	if _, err := stock.Get(1); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("reading beyond the allocated range should fail, got %v", err)
	}
	if err := stock.Set(1, 12); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("writing beyond the allocated range should fail, got %v", err)
	}
	if _, err := stock.Get(-1); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("reading a negative index should fail, got %v", err)
	}
	if err := stock.Delete(7); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("deleting beyond the allocated range should fail, got %v", err)
	}
}

func testFreeSlotsCanNotBeDeletedAgain(t *testing.T, factory NamedStockFactory) {
	dir := t.TempDir()
	stock, err := factory.Open(t, dir)
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := stock.New(); err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
	}
	if err := stock.Delete(1); err != nil {
		t.Fatalf("failed to delete element: %v", err)
	}
	if err := stock.Delete(1); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("deleting a free slot should fail, got %v", err)
	}
	if got, err := stock.New(); err != nil || got != 1 {
		t.Fatalf("freed slot should be reused, got %d, err %v", got, err)
	}
	if got, err := stock.New(); err != nil || got != 3 {
		t.Fatalf("slot must only be handed out once, got %d, err %v", got, err)
	}
	if err := stock.Delete(1); err != nil {
		t.Fatalf("reused slot should be deletable: %v", err)
	}
	if err := stock.Close(); err != nil {
		t.Fatalf("failed to close stock: %v", err)
	}
	if factory.Volatile {
		return
	}

	stock, err = factory.Open(t, dir)
	if err != nil {
		t.Fatalf("failed to reopen stock: %v", err)
	}
	defer stock.Close()
	if err := stock.Delete(1); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("slot freed before reopening should stay free, got %v", err)
	}
}

func testGetIdsExcludesDeletedElements(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()

	for i := 0; i < 5; i++ {
		if _, err := stock.New(); err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
	}
	if err := stock.Delete(2); err != nil {
		t.Fatalf("failed to delete element: %v", err)
	}

	ids, err := stock.GetIds()
	if err != nil {
		t.Fatalf("failed to fetch ids: %v", err)
	}
	for i := -1; i < 7; i++ {
		want := i >= 0 && i < 5 && i != 2
		if got := ids.Contains(i); got != want {
			t.Errorf("unexpected membership of %d, wanted %t, got %t", i, want, got)
		}
	}
}

func testLargeNumberOfElements(t *testing.T, factory NamedStockFactory) {
	const N = 100_000
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	indexes := map[int]int{}
	for i := 0; i < N; i++ {
		index, err := stock.New()
		if err != nil {
			t.Fatalf("failed to create new entry: %v", err)
		}
		indexes[i] = index
		if err := stock.Set(index, i); err != nil {
			t.Fatalf("failed to update value of element with index %d: %v", index, err)
		}
	}

	for i := 0; i < N; i++ {
		got, err := stock.Get(indexes[i])
		if err != nil {
			t.Fatalf("failed to locate element: %v", err)
		}
		if got != i {
			t.Errorf("invalid value mapped to index %d: wanted %d, got %d", indexes[i], i, got)
		}
	}
}

func testProvidesMemoryFootprint(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	if _, err := stock.New(); err != nil {
		t.Fatalf("failed to insert single element into empty stock: %v", err)
	}
	footprint := stock.GetMemoryFootprint()
	if footprint == nil {
		t.Fatalf("implementation does not provide memory footprint data")
	}
	if footprint.Total() <= 0 {
		t.Fatalf("implementations claims zero memory footprint")
	}
}

func testCreatesMissingDirectories(t *testing.T, factory NamedStockFactory) {
	directory := filepath.Join(t.TempDir(), "some", "missing", "directory")
	stock, err := factory.Open(t, directory)
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	if _, err := os.Stat(directory); err != nil {
		t.Errorf("failed to create output directory: %v", err)
	}
}

func testCanBeFlushed(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	if err := stock.Flush(); err != nil {
		t.Fatalf("failed to flush empty stock: %v", err)
	}
	if _, err := stock.New(); err != nil {
		t.Fatalf("failed to insert single element into empty stock: %v", err)
	}
	if err := stock.Flush(); err != nil {
		t.Fatalf("failed to flush non-empty stock: %v", err)
	}
}

func testCanBeClosed(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	if _, err := stock.New(); err != nil {
		t.Fatalf("failed to insert single element into empty stock: %v", err)
	}
	if err := stock.Close(); err != nil {
		t.Fatalf("failed to close non-empty stock: %v", err)
	}
}

func testCanBeClosedAndReopened(t *testing.T, factory NamedStockFactory) {
	dir := t.TempDir()
	stock, err := factory.Open(t, dir)
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}

	// The first element shall be a deleted element.
	key1, err := stock.New()
	if err != nil {
		t.Fatalf("failed to insert single element into empty stock: %v", err)
	}

	// The second element is an element with a value.
	key2, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element in stock: %v", err)
	}
	if err := stock.Set(key2, 123); err != nil {
		t.Fatalf("failed to update value: %v", err)
	}

	// The third element is a default-value.
	key3, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element in stock: %v", err)
	}

	if err := stock.Delete(key1); err != nil {
		t.Fatalf("failed to delete key from stock: %v", err)
	}
	if err := stock.Close(); err != nil {
		t.Fatalf("failed to close non-empty stock: %v", err)
	}

	stock, err = factory.Open(t, dir)
	if err != nil {
		t.Fatalf("failed to reopen stock: %v", err)
	}
	defer stock.Close()

	got, err := stock.Get(key2)
	if err != nil {
		t.Fatalf("failed to read value from reopened stock: %v", err)
	}
	if got != 123 {
		t.Fatalf("invalid value read from reopened stock: got %v, wanted 123", got)
	}

	got, err = stock.Get(key3)
	if err != nil {
		t.Fatalf("failed to read value from reopened stock: %v", err)
	}
	if got != 0 {
		t.Fatalf("invalid value read from reopened stock: got %v, wanted 0", got)
	}

	keyX, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new entry in reopened stock: %v", err)
	}
	if keyX != key1 {
		t.Errorf("expected key reuse, wanted %d, got %d", key1, keyX)
	}
}
