// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
)

const (
	// pairPrefix starts the database keys of index pairs, followed by the
	// derived key and the path, both big endian, so that all paths of a key
	// are adjacent and sorted.
	pairPrefix  byte = 'p'
	pairKeySize      = 1 + 8 + 8
)

// sizeKey holds the number of pairs in the index.
var sizeKey = []byte("size")

// Index is an index.LongIndex backed by a LevelDB database.
type Index struct {
	db   *leveldb.DB
	size int
}

// OpenIndex opens the database in the given directory, creating it if needed.
func OpenIndex(directory string) (*Index, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, err
	}
	size := 0
	data, err := db.Get(sizeKey, nil)
	if err == nil && len(data) == 8 {
		size = int(binary.BigEndian.Uint64(data))
	} else if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Join(err, db.Close())
	}
	return &Index{db: db, size: size}, nil
}

func toDbKey(key uint64, loc path.Path) []byte {
	res := make([]byte, pairKeySize)
	res[0] = pairPrefix
	binary.BigEndian.PutUint64(res[1:9], key)
	binary.BigEndian.PutUint64(res[9:], uint64(loc))
	return res
}

func keyPrefix(key uint64) []byte {
	res := make([]byte, 9)
	res[0] = pairPrefix
	binary.BigEndian.PutUint64(res[1:], key)
	return res
}

func encodeSize(size int) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(size))
}

func (m *Index) Add(key uint64, loc path.Path) error {
	dbKey := toDbKey(key, loc)
	exists, err := m.db.Has(dbKey, nil)
	if err != nil || exists {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Put(dbKey, nil)
	batch.Put(sizeKey, encodeSize(m.size+1))
	if err := m.db.Write(batch, nil); err != nil {
		return err
	}
	m.size++
	return nil
}

func (m *Index) GetAll(key uint64) ([]path.Path, error) {
	iter := m.db.NewIterator(util.BytesPrefix(keyPrefix(key)), nil)
	defer iter.Release()
	var res []path.Path
	for iter.Next() {
		res = append(res, path.Path(binary.BigEndian.Uint64(iter.Key()[9:])))
	}
	return res, iter.Error()
}

func (m *Index) Remove(key uint64, loc path.Path) (bool, error) {
	dbKey := toDbKey(key, loc)
	exists, err := m.db.Has(dbKey, nil)
	if err != nil || !exists {
		return false, err
	}
	batch := new(leveldb.Batch)
	batch.Delete(dbKey)
	batch.Put(sizeKey, encodeSize(m.size-1))
	if err := m.db.Write(batch, nil); err != nil {
		return false, err
	}
	m.size--
	return true, nil
}

func (m *Index) Size() int {
	return m.size
}

func (m *Index) ForEach(callback func(uint64, path.Path)) error {
	iter := m.db.NewIterator(util.BytesPrefix([]byte{pairPrefix}), nil)
	defer iter.Release()
	for iter.Next() {
		dbKey := iter.Key()
		if len(dbKey) != pairKeySize {
			continue
		}
		callback(binary.BigEndian.Uint64(dbKey[1:9]), path.Path(binary.BigEndian.Uint64(dbKey[9:])))
	}
	return iter.Error()
}

// Flush forces the journal of the database to be synced to disk.
func (m *Index) Flush() error {
	return m.db.Put(sizeKey, encodeSize(m.size), &opt.WriteOptions{Sync: true})
}

func (m *Index) Close() error {
	return errors.Join(m.Flush(), m.db.Close())
}

func (m *Index) GetMemoryFootprint() *common.MemoryFootprint {
	footprint := common.NewMemoryFootprint(unsafe.Sizeof(*m))
	var stats leveldb.DBStats
	if err := m.db.Stats(&stats); err == nil {
		footprint.AddChild("blockCache", common.NewMemoryFootprint(uintptr(stats.BlockCacheSize)))
	}
	return footprint
}
