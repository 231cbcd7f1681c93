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

	"github.com/vmerkle/vmerkle/backend/index"
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
)

// syncedIndex wraps an index with a mutex. Lookups mutate the page caches of
// some implementations, so reads take the lock exclusively as well.
type syncedIndex struct {
	mu     sync.Mutex
	nested index.LongIndex
}

// Sync wraps the given index such that it can be used concurrently.
func Sync(nested index.LongIndex) index.LongIndex {
	return &syncedIndex{nested: nested}
}

func (m *syncedIndex) Add(key uint64, loc path.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nested.Add(key, loc)
}

func (m *syncedIndex) GetAll(key uint64) ([]path.Path, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nested.GetAll(key)
}

func (m *syncedIndex) Remove(key uint64, loc path.Path) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nested.Remove(key, loc)
}

func (m *syncedIndex) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nested.Size()
}

func (m *syncedIndex) ForEach(callback func(uint64, path.Path)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nested.ForEach(callback)
}

func (m *syncedIndex) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nested.Flush()
}

func (m *syncedIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nested.Close()
}

func (m *syncedIndex) GetMemoryFootprint() *common.MemoryFootprint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nested.GetMemoryFootprint()
}
