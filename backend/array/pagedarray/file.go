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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/vmerkle/vmerkle/backend/array"
	"github.com/vmerkle/vmerkle/backend/utils"
	"github.com/vmerkle/vmerkle/common"
)

// Array is a file-backed array.Array implementation storing the serialized
// form of its values at fixed offsets of a single data file. File access is
// buffered through a PagedFile keeping recently used pages in memory.
type Array[I array.Index, V any] struct {
	file       *utils.PagedFile
	serializer common.Serializer[V]
	itemSize   int64 // the amount of bytes per one value
	buffer     []byte
}

const fileNameData = "data.dat"

// NewArray opens the array stored in the given directory, creating it if
// needed. Up to poolSize pages are kept in memory.
func NewArray[I array.Index, V any](directory string, serializer common.Serializer[V], poolSize int) (*Array[I, V], error) {
	if serializer.Size() <= 0 {
		return nil, fmt.Errorf("invalid item size %d", serializer.Size())
	}
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, err
	}
	file, err := utils.OpenPagedFile(filepath.Join(directory, fileNameData), poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	return &Array[I, V]{
		file:       file,
		serializer: serializer,
		itemSize:   int64(serializer.Size()),
		buffer:     make([]byte, serializer.Size()),
	}, nil
}

// offset returns the position of the item in the file, false if it can not
// be represented in a file.
func (m *Array[I, V]) offset(id I) (int64, bool) {
	if uint64(id) > uint64(math.MaxInt64/m.itemSize-1) {
		return 0, false
	}
	return int64(id) * m.itemSize, true
}

// Set a value of an item
func (m *Array[I, V]) Set(id I, value V) error {
	if id < 0 {
		return common.ContractViolation("set", "negative array index %d", id)
	}
	offset, ok := m.offset(id)
	if !ok {
		return common.ContractViolation("set", "array index %d exceeds the maximum file size", id)
	}
	m.serializer.CopyBytes(value, m.buffer)
	return m.file.Write(offset, m.buffer)
}

// Get a value of the item (or a zero value, if not defined)
func (m *Array[I, V]) Get(id I) (V, error) {
	var zero V
	if id < 0 {
		return zero, common.ContractViolation("get", "negative array index %d", id)
	}
	offset, ok := m.offset(id)
	if !ok {
		return zero, nil
	}
	if err := m.file.Read(offset, m.buffer); err != nil {
		return zero, err
	}
	return m.serializer.FromBytes(m.buffer), nil
}

// Flush all changes to the disk
func (m *Array[I, V]) Flush() error {
	return m.file.Flush()
}

// Close the array
func (m *Array[I, V]) Close() error {
	return m.file.Close()
}

// GetMemoryFootprint provides the size of the array in memory in bytes
func (m *Array[I, V]) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*m) + uintptr(cap(m.buffer)))
	mf.AddChild("file", m.file.GetMemoryFootprint())
	return mf
}
