// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package array_test

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/vmerkle/vmerkle/backend/array"
	"github.com/vmerkle/vmerkle/backend/array/memory"
	"github.com/vmerkle/vmerkle/backend/array/pagedarray"
	"github.com/vmerkle/vmerkle/backend/array/synced"
	"github.com/vmerkle/vmerkle/common"
)

const PoolSize = 3

func getArrayFactories() map[string]func(t *testing.T, dir string) array.Array[uint64, uint64] {
	openPaged := func(t *testing.T, dir string) array.Array[uint64, uint64] {
		arr, err := pagedarray.NewArray[uint64, uint64](dir, common.Uint64Serializer{}, PoolSize)
		if err != nil {
			t.Fatalf("cannot init array: %v", err)
		}
		return arr
	}
	return map[string]func(t *testing.T, dir string) array.Array[uint64, uint64]{
		"pagedArray": openPaged,
		"memory": func(t *testing.T, _ string) array.Array[uint64, uint64] {
			return memory.NewArray[uint64, uint64]()
		},
		"syncedPagedArray": func(t *testing.T, dir string) array.Array[uint64, uint64] {
			return synced.Sync(openPaged(t, dir))
		},
	}
}

func TestArrayGetSet(t *testing.T) {
	for _, size := range []int{0, 1, 5, 1000, 2000} {
		for name, factory := range getArrayFactories() {
			t.Run(fmt.Sprintf("array %s size %d", name, size), func(t *testing.T) {
				arr := factory(t, t.TempDir())
				defer arr.Close()
				flags := fill(t, arr, size)

				for index, flag := range flags {
					actual, err := arr.Get(uint64(index))
					if err != nil {
						t.Fatalf("cannot get value: %v", err)
					}
					if flag && actual != uint64(index)+1 {
						t.Errorf("value should be: %d and not: %d", index+1, actual)
					}
					if !flag && actual != 0 {
						t.Errorf("value should be empty, not: %d", actual)
					}
				}
			})
		}
	}
}

func TestArrayPersistence(t *testing.T) {
	dir := t.TempDir()
	arr, err := pagedarray.NewArray[uint64, uint64](dir, common.Uint64Serializer{}, PoolSize)
	if err != nil {
		t.Fatalf("cannot init array: %v", err)
	}
	flags := fill(t, arr, 1000)
	if err := arr.Close(); err != nil {
		t.Fatalf("cannot close array: %v", err)
	}

	arr, err = pagedarray.NewArray[uint64, uint64](dir, common.Uint64Serializer{}, PoolSize)
	if err != nil {
		t.Fatalf("cannot reopen array: %v", err)
	}
	defer arr.Close()
	for index, flag := range flags {
		actual, err := arr.Get(uint64(index))
		if err != nil {
			t.Fatalf("cannot get value: %v", err)
		}
		if flag && actual != uint64(index)+1 || !flag && actual != 0 {
			t.Errorf("unexpected value at %d after reopening: %d", index, actual)
		}
	}
}

func TestSyncedArray_CanBeAccessedConcurrently(t *testing.T) {
	arr := getArrayFactories()["syncedPagedArray"](t, t.TempDir())
	defer arr.Close()

	const N = 8
	var wg sync.WaitGroup
	wg.Add(N)
	for i := 0; i < N; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				id := uint64(j*N + i)
				if err := arr.Set(id, id+1); err != nil {
					t.Errorf("failed to set value: %v", err)
					return
				}
				if got, err := arr.Get(id); err != nil || got != id+1 {
					t.Errorf("unexpected value, wanted %d, got %d, err %v", id+1, got, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestArray_IndexesBeyondFileRangeReadAsZero(t *testing.T) {
	for name, factory := range getArrayFactories() {
		t.Run(name, func(t *testing.T) {
			arr := factory(t, t.TempDir())
			defer arr.Close()
			if err := arr.Set(3, 4); err != nil {
				t.Fatalf("failed to set value: %v", err)
			}
			for _, id := range []uint64{1 << 40, 1 << 63, math.MaxUint64} {
				if got, err := arr.Get(id); err != nil || got != 0 {
					t.Errorf("unexpected value at %d: %d, err %v", id, got, err)
				}
			}
		})
	}
}

// fill sets size values at random positions of an index space of 100*size
// entries; position i holds i+1. It returns which positions were set.
func fill(t *testing.T, arr array.Array[uint64, uint64], size int) []bool {
	dimension := 100 * size
	indexes := make([]bool, dimension)
	for i := 0; i < dimension; i++ {
		indexes[i] = i < size
	}

	rand.Shuffle(len(indexes), func(i, j int) { indexes[i], indexes[j] = indexes[j], indexes[i] })
	for i := 0; i < dimension; i++ {
		if indexes[i] {
			if err := arr.Set(uint64(i), uint64(i)+1); err != nil {
				t.Fatalf("cannot fill array: %v", err)
			}
		}
	}
	return indexes
}
