// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package synced

import (
	"sync"

	"github.com/vmerkle/vmerkle/backend/array"
	"github.com/vmerkle/vmerkle/common"
)

// syncedArray serializes all accesses to the nested array. Even reads of
// paged arrays update their page cache and must not run concurrently.
type syncedArray[I array.Index, V any] struct {
	mu     sync.Mutex
	nested array.Array[I, V]
}

// Sync wraps the given array into a synchronizing wrapper.
func Sync[I array.Index, V any](nested array.Array[I, V]) array.Array[I, V] {
	if res, ok := nested.(*syncedArray[I, V]); ok {
		return res
	}
	return &syncedArray[I, V]{nested: nested}
}

func (a *syncedArray[I, V]) Set(id I, value V) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nested.Set(id, value)
}

func (a *syncedArray[I, V]) Get(id I) (V, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nested.Get(id)
}

func (a *syncedArray[I, V]) GetMemoryFootprint() *common.MemoryFootprint {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nested.GetMemoryFootprint()
}

func (a *syncedArray[I, V]) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nested.Flush()
}

func (a *syncedArray[I, V]) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nested.Close()
}
