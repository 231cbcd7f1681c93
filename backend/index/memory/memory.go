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

	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/slices"
)

// Index is an in-memory index.LongIndex keeping the paths of each key in a
// sorted slice. Its content is lost when closed.
type Index struct {
	data map[uint64][]path.Path
	size int
}

func NewIndex() *Index {
	return &Index{
		data: map[uint64][]path.Path{},
	}
}

func find(paths []path.Path, loc path.Path) (int, bool) {
	return slices.BinarySearch(paths, loc)
}

func (m *Index) Add(key uint64, loc path.Path) error {
	paths := m.data[key]
	pos, found := find(paths, loc)
	if found {
		return nil
	}
	paths = append(paths, 0)
	copy(paths[pos+1:], paths[pos:])
	paths[pos] = loc
	m.data[key] = paths
	m.size++
	return nil
}

func (m *Index) GetAll(key uint64) ([]path.Path, error) {
	paths := m.data[key]
	if len(paths) == 0 {
		return nil, nil
	}
	res := make([]path.Path, len(paths))
	copy(res, paths)
	return res, nil
}

func (m *Index) Remove(key uint64, loc path.Path) (bool, error) {
	paths := m.data[key]
	pos, found := find(paths, loc)
	if !found {
		return false, nil
	}
	if len(paths) == 1 {
		delete(m.data, key)
	} else {
		m.data[key] = append(paths[:pos], paths[pos+1:]...)
	}
	m.size--
	return true, nil
}

func (m *Index) Size() int {
	return m.size
}

func (m *Index) ForEach(callback func(uint64, path.Path)) error {
	for key, paths := range m.data {
		for _, loc := range paths {
			callback(key, loc)
		}
	}
	return nil
}

func (m *Index) Flush() error {
	return nil
}

func (m *Index) Close() error {
	return nil
}

func (m *Index) GetMemoryFootprint() *common.MemoryFootprint {
	var key uint64
	var loc path.Path
	var paths []path.Path
	size := unsafe.Sizeof(*m) + uintptr(len(m.data))*(unsafe.Sizeof(key)+unsafe.Sizeof(paths))
	return common.NewMemoryFootprint(size + uintptr(m.size)*unsafe.Sizeof(loc))
}
