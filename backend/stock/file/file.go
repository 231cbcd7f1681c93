// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package file

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

const (
	fileNameMetadata = "meta.json"
	fileNameValues   = "values.dat"
	fileNameFreeList = "freelist.dat"
)

// fileStock keeps fixed-size records in a values file addressed by slot
// index and the indexes of freed slots in a file-backed stack.
type fileStock[I stock.Index, V any] struct {
	directory       string
	encoder         stock.ValueEncoder[V]
	values          *utils.BufferedFile
	freelist        *fileBasedStack[I]
	free            map[I]struct{} // content of the free list
	numValuesInFile I
	buffer          []byte
}

// OpenStock opens the stock stored in the given directory, creating the
// directory and an empty stock if there is none.
func OpenStock[I stock.Index, V any](encoder stock.ValueEncoder[V], directory string) (stock.Stock[I, V], error) {
	return openStock[I, V](encoder, directory)
}

func openStock[I stock.Index, V any](encoder stock.ValueEncoder[V], directory string) (*fileStock[I, V], error) {
	if encoder.GetEncodedSize() <= 0 {
		return nil, common.ContractViolation("open stock", "invalid encoded value size %d", encoder.GetEncodedSize())
	}
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, err
	}

	metafile, valuefile, freelistfile := getFileNames(directory)
	meta, exists, err := readMetadata[I](metafile, encoder)
	if err != nil {
		return nil, err
	}
	if !exists {
		// Data files without metadata cannot be interpreted.
		for _, file := range []string{valuefile, freelistfile} {
			if _, err := os.Stat(file); err == nil {
				return nil, fmt.Errorf("found %s without %s in %s", filepath.Base(file), fileNameMetadata, directory)
			}
		}
	} else if err := verifyFileSizes[I](meta, valuefile, freelistfile, encoder.GetEncodedSize()); err != nil {
		return nil, err
	}

	values, err := utils.OpenBufferedFile(valuefile)
	if err != nil {
		return nil, err
	}

	freelist, err := openFileBasedStack[I](freelistfile)
	if err != nil {
		return nil, errors.Join(err, values.Close())
	}
	freeIds, err := freelist.GetAll()
	if err != nil {
		return nil, errors.Join(err, values.Close(), freelist.Close())
	}
	free := make(map[I]struct{}, len(freeIds))
	for _, id := range freeIds {
		free[id] = struct{}{}
	}

	res := &fileStock[I, V]{
		directory:       directory,
		encoder:         encoder,
		values:          values,
		freelist:        freelist,
		free:            free,
		numValuesInFile: I(meta.NumValuesInFile),
		buffer:          make([]byte, encoder.GetEncodedSize()),
	}
	if !exists {
		// A fresh stock gets its metadata right away so that the directory
		// can be reopened even if the stock is never flushed.
		if err := res.Flush(); err != nil {
			return nil, errors.Join(err, res.Close())
		}
	}
	return res, nil
}

func (s *fileStock[I, V]) New() (I, error) {
	if !s.freelist.Empty() {
		index, err := s.freelist.Pop()
		if err == nil {
			delete(s.free, index)
		}
		return index, err
	}
	index := s.numValuesInFile
	clear(s.buffer)
	if _, err := s.values.WriteAt(s.buffer, s.offset(index)); err != nil {
		return 0, err
	}
	s.numValuesInFile++
	return index, nil
}

func (s *fileStock[I, V]) Get(index I) (V, error) {
	var res V
	if err := stock.CheckIndex("get", index, s.numValuesInFile); err != nil {
		return res, err
	}
	if _, err := s.values.ReadAt(s.buffer, s.offset(index)); err != nil {
		return res, err
	}
	err := s.encoder.Load(s.buffer, &res)
	return res, err
}

func (s *fileStock[I, V]) Set(index I, value V) error {
	if err := stock.CheckIndex("set", index, s.numValuesInFile); err != nil {
		return err
	}
	if err := s.encoder.Store(s.buffer, &value); err != nil {
		return err
	}
	_, err := s.values.WriteAt(s.buffer, s.offset(index))
	return err
}

func (s *fileStock[I, V]) Delete(index I) error {
	if err := stock.CheckIndex("delete", index, s.numValuesInFile); err != nil {
		return err
	}
	if _, freed := s.free[index]; freed {
		return common.ContractViolation("delete", "slot %d is already free", index)
	}
	if err := s.freelist.Push(index); err != nil {
		return err
	}
	s.free[index] = struct{}{}
	return nil
}

func (s *fileStock[I, V]) GetIds() (stock.IndexSet[I], error) {
	res := stock.MakeComplementSet[I](0, s.numValuesInFile)
	ids, err := s.freelist.GetAll()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		res.Remove(id)
	}
	return res, nil
}

func (s *fileStock[I, V]) GetMemoryFootprint() *common.MemoryFootprint {
	res := common.NewMemoryFootprint(unsafe.Sizeof(*s) + uintptr(cap(s.buffer)))
	res.AddChild("values", common.NewMemoryFootprint(unsafe.Sizeof(*s.values)))
	res.AddChild("freelist", s.freelist.GetMemoryFootprint())
	return res
}

func (s *fileStock[I, V]) Flush() error {
	// Data files are flushed first, so the metadata never describes content
	// that has not reached the disk.
	if err := errors.Join(s.values.Flush(), s.freelist.Flush()); err != nil {
		return err
	}
	metafile, _, _ := getFileNames(s.directory)
	return utils.WriteJsonFile(metafile, metadata{
		Version:         dataFormatVersion,
		IndexTypeSize:   stock.IndexSize[I](),
		ValueTypeSize:   s.encoder.GetEncodedSize(),
		NumValuesInFile: int64(s.numValuesInFile),
		FreeListLength:  int64(s.freelist.Size()),
	})
}

func (s *fileStock[I, V]) Close() error {
	return errors.Join(
		s.Flush(),
		s.values.Close(),
		s.freelist.Close(),
	)
}

func (s *fileStock[I, V]) offset(index I) int64 {
	return int64(index) * int64(len(s.buffer))
}

// VerifyStock checks the consistency of the stock files in the given
// directory without opening the stock. An empty directory is a valid stock.
func VerifyStock[I stock.Index, V any](directory string, encoder stock.ValueEncoder[V]) error {
	if _, err := os.Stat(directory); err != nil {
		return err
	}
	metafile, valuefile, freelistfile := getFileNames(directory)
	meta, exists, err := readMetadata[I](metafile, encoder)
	if err != nil {
		return err
	}
	if !exists {
		entries, err := os.ReadDir(directory)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			return fmt.Errorf("missing %s in non-empty stock directory %s", fileNameMetadata, directory)
		}
		return nil
	}
	if err := verifyFileSizes[I](meta, valuefile, freelistfile, encoder.GetEncodedSize()); err != nil {
		return err
	}

	stack, err := openFileBasedStack[I](freelistfile)
	if err != nil {
		return err
	}
	ids, err := stack.GetAll()
	if err != nil {
		return errors.Join(err, stack.Close())
	}
	seen := make(map[I]struct{}, len(ids))
	for _, id := range ids {
		if id < 0 || int64(id) >= meta.NumValuesInFile {
			return errors.Join(fmt.Errorf("invalid free-list entry %d, stock has %d slots", id, meta.NumValuesInFile), stack.Close())
		}
		if _, found := seen[id]; found {
			return errors.Join(fmt.Errorf("duplicate free-list entry %d", id), stack.Close())
		}
		seen[id] = struct{}{}
	}
	return stack.Close()
}

func getFileNames(directory string) (metafile, valuefile, freelistfile string) {
	return filepath.Join(directory, fileNameMetadata),
		filepath.Join(directory, fileNameValues),
		filepath.Join(directory, fileNameFreeList)
}

// readMetadata loads and checks the metadata file. A missing file is not an
// error but reported through the exists flag.
func readMetadata[I stock.Index, V any](metafile string, encoder stock.ValueEncoder[V]) (meta metadata, exists bool, err error) {
	if _, err := os.Stat(metafile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return metadata{}, false, nil
		}
		return metadata{}, false, err
	}
	meta, err = utils.ReadJsonFile[metadata](metafile)
	if err != nil {
		return metadata{}, true, err
	}
	if meta.Version != dataFormatVersion {
		return meta, true, fmt.Errorf("invalid file format version, got %d, wanted %d", meta.Version, dataFormatVersion)
	}
	if indexSize := stock.IndexSize[I](); meta.IndexTypeSize != indexSize {
		return meta, true, fmt.Errorf("invalid index type encoding, expected %d byte, found %d", indexSize, meta.IndexTypeSize)
	}
	if encoder == nil {
		return meta, true, fmt.Errorf("no value encoder provided")
	}
	if valueSize := encoder.GetEncodedSize(); meta.ValueTypeSize != valueSize {
		return meta, true, fmt.Errorf("invalid value type encoding, expected %d byte, found %d", valueSize, meta.ValueTypeSize)
	}
	if meta.NumValuesInFile < 0 || meta.FreeListLength < 0 || meta.FreeListLength > meta.NumValuesInFile {
		return meta, true, fmt.Errorf("invalid slot counts, %d slots with %d free", meta.NumValuesInFile, meta.FreeListLength)
	}
	return meta, true, nil
}

func verifyFileSizes[I stock.Index](meta metadata, valuefile, freelistfile string, valueSize int) error {
	stats, err := os.Stat(freelistfile)
	if err != nil {
		return err
	}
	if got, want := stats.Size(), meta.FreeListLength*int64(stock.IndexSize[I]()); got != want {
		return fmt.Errorf("invalid free-list file size, got %d, wanted %d", got, want)
	}

	// The value file grows in whole blocks and may exceed the used slots.
	stats, err = os.Stat(valuefile)
	if err != nil {
		return err
	}
	if got, want := stats.Size(), meta.NumValuesInFile*int64(valueSize); got < want {
		return fmt.Errorf("insufficient value file size, got %d, wanted at least %d", got, want)
	}
	return nil
}

const dataFormatVersion = 1

// metadata is the helper type to read and write metadata from/to the disk.
type metadata struct {
	Version         int
	IndexTypeSize   int
	ValueTypeSize   int
	NumValuesInFile int64
	FreeListLength  int64
}
