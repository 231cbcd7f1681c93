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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/vmerkle/vmerkle/backend/stock"
	"github.com/vmerkle/vmerkle/backend/utils"
	"github.com/vmerkle/vmerkle/common"
)

// inMemoryStock provides an in-memory implementation of the stock.Stock
// interface. If a directory is given, the content is written to it on flush
// and restored when the stock is reopened; otherwise the stock is volatile.
type inMemoryStock[I stock.Index, V any] struct {
	values    []V
	freeList  []I
	free      map[I]struct{} // content of freeList
	directory string
	encoder   stock.ValueEncoder[V]
}

const (
	fileNameMetadata = "meta.json"
	fileNameValues   = "values.dat"
	fileNameFreeList = "freelist.dat"
)

// OpenStock creates an in-memory stock, loading any content previously
// flushed to the given directory. An empty directory name yields a volatile
// stock.
func OpenStock[I stock.Index, V any](encoder stock.ValueEncoder[V], directory string) (stock.Stock[I, V], error) {
	res := &inMemoryStock[I, V]{
		values:    make([]V, 0, 10),
		freeList:  make([]I, 0, 10),
		free:      map[I]struct{}{},
		directory: directory,
		encoder:   encoder,
	}
	if directory == "" {
		return res, nil
	}
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, err
	}

	metafile := filepath.Join(directory, fileNameMetadata)
	if _, err := os.Stat(metafile); err != nil {
		return res, nil
	}
	meta, err := utils.ReadJsonFile[metadata](metafile)
	if err != nil {
		return nil, err
	}
	if meta.Version != dataFormatVersion {
		return nil, fmt.Errorf("invalid file format version, got %d, wanted %d", meta.Version, dataFormatVersion)
	}
	if indexSize := stock.IndexSize[I](); meta.IndexTypeSize != indexSize {
		return nil, fmt.Errorf("invalid index type encoding, expected %d byte, found %d", indexSize, meta.IndexTypeSize)
	}
	valueSize := encoder.GetEncodedSize()
	if meta.ValueTypeSize != valueSize {
		return nil, fmt.Errorf("invalid value type encoding, expected %d byte, found %d", valueSize, meta.ValueTypeSize)
	}

	data, err := os.ReadFile(filepath.Join(directory, fileNameValues))
	if err != nil {
		return nil, err
	}
	if len(data) != meta.ValueListLength*valueSize {
		return nil, fmt.Errorf("invalid value file size, got %d, wanted %d", len(data), meta.ValueListLength*valueSize)
	}
	res.values = make([]V, meta.ValueListLength)
	for i := range res.values {
		if err := encoder.Load(data[i*valueSize:(i+1)*valueSize], &res.values[i]); err != nil {
			return nil, err
		}
	}

	data, err = os.ReadFile(filepath.Join(directory, fileNameFreeList))
	if err != nil {
		return nil, err
	}
	indexSize := stock.IndexSize[I]()
	if len(data) != meta.FreeListLength*indexSize {
		return nil, fmt.Errorf("invalid free-list file size, got %d, wanted %d", len(data), meta.FreeListLength*indexSize)
	}
	res.freeList = make([]I, meta.FreeListLength)
	for i := range res.freeList {
		res.freeList[i] = stock.DecodeIndex[I](data[i*indexSize:])
		res.free[res.freeList[i]] = struct{}{}
	}
	return res, nil
}

func (s *inMemoryStock[I, V]) New() (I, error) {
	if len(s.freeList) > 0 {
		last := len(s.freeList) - 1
		index := s.freeList[last]
		s.freeList = s.freeList[:last]
		delete(s.free, index)
		return index, nil
	}
	var zero V
	s.values = append(s.values, zero)
	return I(len(s.values) - 1), nil
}

func (s *inMemoryStock[I, V]) Get(index I) (V, error) {
	if err := stock.CheckIndex("get", index, I(len(s.values))); err != nil {
		var zero V
		return zero, err
	}
	return s.values[index], nil
}

func (s *inMemoryStock[I, V]) Set(index I, value V) error {
	if err := stock.CheckIndex("set", index, I(len(s.values))); err != nil {
		return err
	}
	s.values[index] = value
	return nil
}

func (s *inMemoryStock[I, V]) Delete(index I) error {
	if err := stock.CheckIndex("delete", index, I(len(s.values))); err != nil {
		return err
	}
	if _, freed := s.free[index]; freed {
		return common.ContractViolation("delete", "slot %d is already free", index)
	}
	s.freeList = append(s.freeList, index)
	s.free[index] = struct{}{}
	return nil
}

func (s *inMemoryStock[I, V]) GetIds() (stock.IndexSet[I], error) {
	res := stock.MakeComplementSet[I](0, I(len(s.values)))
	for _, index := range s.freeList {
		res.Remove(index)
	}
	return res, nil
}

func (s *inMemoryStock[I, V]) GetMemoryFootprint() *common.MemoryFootprint {
	var value V
	var index I
	res := common.NewMemoryFootprint(unsafe.Sizeof(*s))
	res.AddChild("values", common.NewMemoryFootprint(uintptr(cap(s.values))*unsafe.Sizeof(value)))
	res.AddChild("freeList", common.NewMemoryFootprint(uintptr(cap(s.freeList))*unsafe.Sizeof(index)))
	return res
}

func (s *inMemoryStock[I, V]) Flush() error {
	if s.directory == "" {
		return nil
	}

	valueSize := s.encoder.GetEncodedSize()
	data := make([]byte, len(s.values)*valueSize)
	for i := range s.values {
		if err := s.encoder.Store(data[i*valueSize:(i+1)*valueSize], &s.values[i]); err != nil {
			return err
		}
	}
	indexSize := stock.IndexSize[I]()
	free := make([]byte, len(s.freeList)*indexSize)
	for i, index := range s.freeList {
		stock.EncodeIndex(index, free[i*indexSize:])
	}

	if err := errors.Join(
		os.WriteFile(filepath.Join(s.directory, fileNameValues), data, 0600),
		os.WriteFile(filepath.Join(s.directory, fileNameFreeList), free, 0600),
	); err != nil {
		return err
	}
	return utils.WriteJsonFile(filepath.Join(s.directory, fileNameMetadata), metadata{
		Version:         dataFormatVersion,
		IndexTypeSize:   indexSize,
		ValueTypeSize:   valueSize,
		ValueListLength: len(s.values),
		FreeListLength:  len(s.freeList),
	})
}

func (s *inMemoryStock[I, V]) Close() error {
	return s.Flush()
}

const dataFormatVersion = 1

// metadata is the helper type to read and write metadata from/to the disk.
type metadata struct {
	Version         int
	IndexTypeSize   int
	ValueTypeSize   int
	ValueListLength int
	FreeListLength  int
}
