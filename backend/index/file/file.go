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

	"github.com/vmerkle/vmerkle/backend/index"
	"github.com/vmerkle/vmerkle/backend/pagepool"
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/backend/utils"
	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/slices"
)

const (
	// The page pool should be able to hold the primary pages of the initial
	// buckets to prevent many page evictions for keys falling into sparse buckets.
	DefaultNumBuckets   = 1 << 10
	DefaultPagePoolSize = 1 << 12

	// PageSize is the size of pages exchanged with the disk.
	PageSize = 1 << 12

	fileNameMetadata = "meta.json"
	formatVersion    = 1
)

// metadata is the content of the meta.json file of an index.
type metadata struct {
	Version int
	Buckets int
	Records int
}

// Index is a file based index.LongIndex. Pairs are kept in a linear-hash
// multimap whose buckets are chains of fixed-size pages. Pages are held in an
// LRU page pool and spilled to the files of a pagepool.TwoFilesPageStorage.
// When the table exceeds its load factor, one bucket is split, so the table
// grows without ever rehashing all entries. The bucket and record counts are
// written to a metadata file on flush.
type Index struct {
	directory string
	table     *pagepool.LinearHashMultiMap[uint64, path.Path]
}

// OpenIndex opens the index stored in the given directory using default parameters.
func OpenIndex(directory string) (*Index, error) {
	return OpenParamIndex(directory, DefaultNumBuckets, DefaultPagePoolSize)
}

// OpenParamIndex opens the index stored in the given directory. The number of
// buckets only applies to new indexes, reopened indexes restore theirs.
func OpenParamIndex(directory string, numBuckets, pagePoolSize int) (*Index, error) {
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, err
	}
	meta, err := readMetadata(directory)
	if err != nil {
		return nil, err
	}
	if meta.Buckets == 0 {
		meta.Buckets = numBuckets
	}

	storage, err := pagepool.OpenTwoFilesPageStorage(directory, PageSize)
	if err != nil {
		return nil, err
	}
	keySerializer, pathSerializer := common.Uint64Serializer{}, path.Serializer{}
	pageFactory := func() *pagepool.KVPage[uint64, path.Path] {
		return pagepool.NewKVPage[uint64, path.Path](PageSize, keySerializer, pathSerializer)
	}
	pool := pagepool.NewPagePool[*pagepool.KVPage[uint64, path.Path]](pagePoolSize, storage, pageFactory)
	capacity := pagepool.NumKVPageEntries[uint64, path.Path](PageSize, keySerializer, pathSerializer)

	return &Index{
		directory: directory,
		table:     pagepool.NewLinearHashMultiMap[uint64, path.Path](meta.Buckets, meta.Records, capacity, pool, mixHasher{}),
	}, nil
}

func readMetadata(directory string) (metadata, error) {
	file := filepath.Join(directory, fileNameMetadata)
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return metadata{Version: formatVersion}, nil
	}
	meta, err := utils.ReadJsonFile[metadata](file)
	if err != nil {
		return meta, err
	}
	if meta.Version != formatVersion {
		return meta, fmt.Errorf("unsupported index format version %d", meta.Version)
	}
	if meta.Buckets < 0 || meta.Records < 0 {
		return meta, fmt.Errorf("invalid index metadata %+v", meta)
	}
	return meta, nil
}

func (m *Index) writeMetadata() error {
	return utils.WriteJsonFile(filepath.Join(m.directory, fileNameMetadata), metadata{
		Version: formatVersion,
		Buckets: int(m.table.GetNumBuckets()),
		Records: m.table.Size(),
	})
}

func (m *Index) Add(key uint64, loc path.Path) error {
	return m.table.Add(key, loc)
}

func (m *Index) GetAll(key uint64) ([]path.Path, error) {
	res, err := m.table.GetAll(key)
	if err != nil {
		return nil, err
	}
	slices.Sort(res)
	return res, nil
}

func (m *Index) Remove(key uint64, loc path.Path) (bool, error) {
	return m.table.Remove(key, loc)
}

func (m *Index) Size() int {
	return m.table.Size()
}

func (m *Index) ForEach(callback func(uint64, path.Path)) error {
	return m.table.ForEach(callback)
}

func (m *Index) Flush() error {
	if err := m.table.Flush(); err != nil {
		return err
	}
	return m.writeMetadata()
}

func (m *Index) Close() error {
	if err := m.table.Close(); err != nil {
		return err
	}
	return m.writeMetadata()
}

func (m *Index) GetMemoryFootprint() *common.MemoryFootprint {
	footprint := common.NewMemoryFootprint(unsafe.Sizeof(*m))
	footprint.AddChild("hashTable", m.table.GetMemoryFootprint())
	return footprint
}

func (m *Index) String() string {
	return m.table.String()
}

// mixHasher scrambles derived keys before they are mapped to buckets.
type mixHasher struct{}

func (mixHasher) Hash(key *uint64) uint64 {
	return index.Mix(*key)
}
