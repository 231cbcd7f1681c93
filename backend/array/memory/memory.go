// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"unsafe"

	"github.com/vmerkle/vmerkle/backend/array"
	"github.com/vmerkle/vmerkle/common"
)

// Array is an in-memory array.Array implementation backed by a growing slice.
// Items far beyond the end of the slice are kept in a map, so that setting a
// single large index does not allocate memory for all indexes below it.
type Array[I array.Index, V any] struct {
	data   []V
	sparse map[uint64]V
}

// maxGrowth is the number of items the slice may grow beyond twice its
// length in a single Set.
const maxGrowth = 1 << 12

func NewArray[I array.Index, V any]() *Array[I, V] {
	return &Array[I, V]{}
}

func (m *Array[I, V]) Set(id I, value V) error {
	if id < 0 {
		return common.ContractViolation("set", "negative array index %d", id)
	}
	pos, size := uint64(id), uint64(len(m.data))
	if pos < size {
		m.data[pos] = value
		return nil
	}
	if pos >= 2*size+maxGrowth {
		if m.sparse == nil {
			m.sparse = map[uint64]V{}
		}
		m.sparse[pos] = value
		return nil
	}
	m.data = append(m.data, make([]V, pos+1-size)...)
	// Sparse items now covered by the slice move into it.
	for i, v := range m.sparse {
		if i < uint64(len(m.data)) {
			m.data[i] = v
			delete(m.sparse, i)
		}
	}
	m.data[pos] = value
	return nil
}

func (m *Array[I, V]) Get(id I) (V, error) {
	var zero V
	if id < 0 {
		return zero, common.ContractViolation("get", "negative array index %d", id)
	}
	pos := uint64(id)
	if pos < uint64(len(m.data)) {
		return m.data[pos], nil
	}
	return m.sparse[pos], nil
}

func (m *Array[I, V]) Flush() error {
	return nil
}

func (m *Array[I, V]) Close() error {
	return nil
}

func (m *Array[I, V]) GetMemoryFootprint() *common.MemoryFootprint {
	var value V
	return common.NewMemoryFootprint(unsafe.Sizeof(*m) + uintptr(cap(m.data)+len(m.sparse))*unsafe.Sizeof(value))
}
