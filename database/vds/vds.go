// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vds

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/ethereum/go-ethereum/log"
	"github.com/vmerkle/vmerkle/backend/array"
	memarray "github.com/vmerkle/vmerkle/backend/array/memory"
	"github.com/vmerkle/vmerkle/backend/array/pagedarray"
	syncedarray "github.com/vmerkle/vmerkle/backend/array/synced"
	"github.com/vmerkle/vmerkle/backend/index"
	fileindex "github.com/vmerkle/vmerkle/backend/index/file"
	"github.com/vmerkle/vmerkle/backend/index/ldb"
	memindex "github.com/vmerkle/vmerkle/backend/index/memory"
	syncedindex "github.com/vmerkle/vmerkle/backend/index/synced"
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/backend/stock"
	filestock "github.com/vmerkle/vmerkle/backend/stock/file"
	memstock "github.com/vmerkle/vmerkle/backend/stock/memory"
	syncedstock "github.com/vmerkle/vmerkle/backend/stock/synced"
	"github.com/vmerkle/vmerkle/common"
)

// ErrNotFound is reported, as a contract violation, when a path or key
// without a record is read.
const ErrNotFound = common.ConstError("not found")

// DataSource is the storage of a virtual Merkle tree. It stores a hash for
// every occupied path of a dense, breadth-first numbered binary tree, and a
// key/value record for every leaf. Leaves are addressable by path as well as
// by key; the paths [first, last] of the leaf range hold leaves, all paths
// below hold internal nodes.
//
// All mutations are staged in a Transaction and become visible atomically
// when it is committed. Reads may be issued concurrently at any time and
// observe the state of the last commit.
//
// Internally, internal hashes and leaf records are kept in two slot stores.
// Two path-indexed arrays map paths to slots, and a LongIndex maps the
// derived 64-bit key of every leaf to its path.
type DataSource[K comparable, V any] struct {
	params Parameters
	keys   common.Serializer[K]
	values common.Serializer[V]
	hasher common.Hasher[K]

	internals     stock.Stock[uint64, internalRecord]
	leaves        stock.Stock[uint64, leafRecord[K, V]]
	internalSlots array.Array[path.Path, uint64] // path -> internal slot + 1, 0 if absent
	leafSlots     array.Array[path.Path, uint64] // path -> leaf slot + 1, 0 if absent
	index         index.LongIndex

	lock common.LockFile // nil for volatile instances
	log  log.Logger

	// mu guards the committed state, readers hold it shared, commits and
	// lifecycle operations exclusively.
	mu        sync.RWMutex
	leafRange path.LeafRange
	closed    bool

	// txMu guards the transaction bookkeeping.
	txMu    sync.Mutex
	current *Transaction[K, V]
	broken  error // the cause of a failed commit, if any
}

// components bundles the storage components of a data source.
type components[K comparable, V any] struct {
	internals     stock.Stock[uint64, internalRecord]
	leaves        stock.Stock[uint64, leafRecord[K, V]]
	internalSlots array.Array[path.Path, uint64]
	leafSlots     array.Array[path.Path, uint64]
	index         index.LongIndex
}

func (c *components[K, V]) close() error {
	var errs []error
	for _, component := range []common.FlushAndCloser{c.internals, c.leaves, c.internalSlots, c.leafSlots, c.index} {
		if component != nil {
			errs = append(errs, component.Close())
		}
	}
	return errors.Join(errs...)
}

// OpenDataSource opens the data source configured by the given parameters.
// Keys and values are stored in the fixed-size form of the given
// serializers, the hasher derives the 64-bit index keys.
func OpenDataSource[K comparable, V any](
	params Parameters,
	keys common.Serializer[K],
	values common.Serializer[V],
	hasher common.Hasher[K],
) (*DataSource[K, V], error) {
	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, common.WrapContractViolation("open", err)
	}

	meta := metadata{
		Version:       formatVersion,
		KeySize:       keys.Size(),
		ValueSize:     values.Size(),
		FirstLeafPath: uint64(path.EmptyLeafRange.First),
		LastLeafPath:  uint64(path.EmptyLeafRange.Last),
	}
	var lock common.LockFile
	if !params.IsVolatile() {
		var err error
		if lock, err = openDirectory(params.Directory); err != nil {
			return nil, err
		}
		if meta, err = readMetadata(params.Directory, keys.Size(), values.Size()); err != nil {
			return nil, errors.Join(common.IoFailure("open", err), markClean(params.Directory), lock.Release())
		}
	}

	parts, rebuild, err := openComponents(params, leafEncoder[K, V]{keys, values})
	if err != nil {
		err = common.IoFailure("open", errors.Join(err, parts.close()))
		if lock != nil {
			err = errors.Join(err, markClean(params.Directory), lock.Release())
		}
		return nil, err
	}

	ds := newDataSource(params, keys, values, hasher, parts, meta.leafRange(), lock)
	if rebuild {
		if err := ds.rebuild(); err != nil {
			return nil, errors.Join(err, ds.Close())
		}
	}
	ds.log.Info("Opened data source", "params", params, "leaves", ds.index.Size(), "range", ds.leafRange)
	return ds, nil
}

func newDataSource[K comparable, V any](
	params Parameters,
	keys common.Serializer[K],
	values common.Serializer[V],
	hasher common.Hasher[K],
	parts components[K, V],
	leafRange path.LeafRange,
	lock common.LockFile,
) *DataSource[K, V] {
	dir := params.Directory
	if dir == "" {
		dir = "<volatile>"
	}
	return &DataSource[K, V]{
		params:        params,
		keys:          keys,
		values:        values,
		hasher:        hasher,
		internals:     parts.internals,
		leaves:        parts.leaves,
		internalSlots: parts.internalSlots,
		leafSlots:     parts.leafSlots,
		index:         parts.index,
		lock:          lock,
		log:           common.NewLogger("vds", "dir", dir),
		leafRange:     leafRange,
	}
}

// openComponents opens all storage components selected by the parameters.
// Components only kept in memory but backed by persisted stocks need to be
// rebuilt from the stocks, which is reported by the second result.
func openComponents[K comparable, V any](params Parameters, encoder leafEncoder[K, V]) (parts components[K, V], rebuild bool, err error) {
	dir := func(name string) string {
		if params.IsVolatile() {
			return ""
		}
		return filepath.Join(params.Directory, name)
	}

	var internals stock.Stock[uint64, internalRecord]
	var leaves stock.Stock[uint64, leafRecord[K, V]]
	if params.StockVariant == FileVariant {
		internals, err = filestock.OpenStock[uint64, internalRecord](internalEncoder{}, dir(internalsDirectory))
		if err != nil {
			return parts, false, err
		}
		parts.internals = syncedstock.Sync(internals)
		leaves, err = filestock.OpenStock[uint64, leafRecord[K, V]](encoder, dir(leavesDirectory))
	} else {
		internals, err = memstock.OpenStock[uint64, internalRecord](internalEncoder{}, dir(internalsDirectory))
		if err != nil {
			return parts, false, err
		}
		parts.internals = syncedstock.Sync(internals)
		leaves, err = memstock.OpenStock[uint64, leafRecord[K, V]](encoder, dir(leavesDirectory))
	}
	if err != nil {
		return parts, false, err
	}
	parts.leaves = syncedstock.Sync(leaves)

	if params.StockVariant == FileVariant {
		internalSlots, err := pagedarray.NewArray[path.Path, uint64](dir(internalSlotsDirectory), common.Uint64Serializer{}, params.PagePoolSize)
		if err != nil {
			return parts, false, err
		}
		parts.internalSlots = syncedarray.Sync[path.Path, uint64](internalSlots)
		leafSlots, err := pagedarray.NewArray[path.Path, uint64](dir(leafSlotsDirectory), common.Uint64Serializer{}, params.PagePoolSize)
		if err != nil {
			return parts, false, err
		}
		parts.leafSlots = syncedarray.Sync[path.Path, uint64](leafSlots)
	} else {
		parts.internalSlots = syncedarray.Sync[path.Path, uint64](memarray.NewArray[path.Path, uint64]())
		parts.leafSlots = syncedarray.Sync[path.Path, uint64](memarray.NewArray[path.Path, uint64]())
		rebuild = !params.IsVolatile()
	}

	var idx index.LongIndex
	switch params.IndexVariant {
	case FileVariant:
		idx, err = fileindex.OpenParamIndex(dir(indexDirectory), params.IndexBuckets, params.PagePoolSize)
	case LevelDbVariant:
		idx, err = ldb.OpenIndex(dir(indexDirectory))
	default:
		idx = memindex.NewIndex()
		rebuild = rebuild || !params.IsVolatile()
	}
	if err != nil {
		return parts, false, err
	}
	parts.index = syncedindex.Sync(idx)
	return parts, rebuild, nil
}

// rebuild restores the path mappings and the index of components kept in
// memory from the persisted stocks.
func (s *DataSource[K, V]) rebuild() error {
	internalIds, err := s.internals.GetIds()
	if err != nil {
		return common.IoFailure("rebuild", err)
	}
	for i := internalIds.GetLowerBound(); i < internalIds.GetUpperBound(); i++ {
		if !internalIds.Contains(i) {
			continue
		}
		record, err := s.internals.Get(i)
		if err != nil {
			return common.IoFailure("rebuild", err)
		}
		if err := s.internalSlots.Set(record.Path, i+1); err != nil {
			return common.IoFailure("rebuild", err)
		}
	}

	leafIds, err := s.leaves.GetIds()
	if err != nil {
		return common.IoFailure("rebuild", err)
	}
	for i := leafIds.GetLowerBound(); i < leafIds.GetUpperBound(); i++ {
		if !leafIds.Contains(i) {
			continue
		}
		record, err := s.leaves.Get(i)
		if err != nil {
			return common.IoFailure("rebuild", err)
		}
		if !s.leafRange.Contains(record.Path) {
			return common.IntegrityViolation("rebuild", "leaf slot %d holds %v outside of leaf range %v", i, record.Path, s.leafRange)
		}
		if err := s.leafSlots.Set(record.Path, i+1); err != nil {
			return common.IoFailure("rebuild", err)
		}
		if err := s.index.Add(s.hasher.Hash(&record.Key), record.Path); err != nil {
			return common.IoFailure("rebuild", err)
		}
	}
	s.log.Info("Rebuilt in-memory components", "internals", internalIds.GetUpperBound(), "leaves", s.index.Size())
	return nil
}

// checkOpen reports closed instances. The caller must hold mu.
func (s *DataSource[K, V]) checkOpen(op string) error {
	if s.closed {
		return common.ContractViolation(op, "data source is closed")
	}
	return nil
}

// getLeafRecord fetches the committed leaf at the given path. The caller
// must hold mu.
func (s *DataSource[K, V]) getLeafRecord(op string, p path.Path) (leafRecord[K, V], bool, error) {
	var res leafRecord[K, V]
	slot, err := s.leafSlots.Get(p)
	if err != nil || slot == 0 {
		return res, false, common.IoFailure(op, err)
	}
	res, err = s.leaves.Get(slot - 1)
	if err != nil {
		return res, false, common.IoFailure(op, err)
	}
	if res.Path != p {
		err := common.IntegrityViolation(op, "slot %d of %v holds a leaf of %v", slot-1, p, res.Path)
		s.log.Error("Inconsistent leaf slot", "err", err)
		return res, false, err
	}
	return res, true, nil
}

// getInternalRecord fetches the committed internal node at the given path.
// The caller must hold mu.
func (s *DataSource[K, V]) getInternalRecord(op string, p path.Path) (internalRecord, bool, error) {
	var res internalRecord
	slot, err := s.internalSlots.Get(p)
	if err != nil || slot == 0 {
		return res, false, common.IoFailure(op, err)
	}
	res, err = s.internals.Get(slot - 1)
	if err != nil {
		return res, false, common.IoFailure(op, err)
	}
	if res.Path != p {
		err := common.IntegrityViolation(op, "slot %d of %v holds a node of %v", slot-1, p, res.Path)
		s.log.Error("Inconsistent internal slot", "err", err)
		return res, false, err
	}
	return res, true, nil
}

// findLeaf resolves the committed leaf of the given key. Index candidates
// are disambiguated by the key stored in their leaf records. The caller must
// hold mu.
func (s *DataSource[K, V]) findLeaf(op string, key K) (leafRecord[K, V], bool, error) {
	var res leafRecord[K, V]
	derived := s.hasher.Hash(&key)
	candidates, err := s.index.GetAll(derived)
	if err != nil {
		return res, false, common.IoFailure(op, err)
	}
	for _, candidate := range candidates {
		record, found, err := s.getLeafRecord(op, candidate)
		if err != nil {
			return res, false, err
		}
		if !found {
			err := common.IntegrityViolation(op, "index entry %d references %v without leaf", derived, candidate)
			s.log.Error("Dangling index entry", "err", err)
			return res, false, err
		}
		if record.Key == key {
			return record, true, nil
		}
		if s.hasher.Hash(&record.Key) != derived {
			err := common.IntegrityViolation(op, "index entry %d references %v holding a key of a different derived key", derived, candidate)
			s.log.Error("Mismatching index entry", "err", err)
			return res, false, err
		}
	}
	return res, false, nil
}

func notFound(op string, format string, args ...any) error {
	return common.ContractViolation(op, "%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// LoadHash returns the hash of the given path. Paths within the leaf range
// are served from the leaf store, all others from the internal node store.
func (s *DataSource[K, V]) LoadHash(p path.Path) (common.Hash, error) {
	const op = "load hash"
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(op); err != nil {
		return common.Hash{}, err
	}
	if s.leafRange.Contains(p) {
		record, found, err := s.getLeafRecord(op, p)
		if err != nil {
			return common.Hash{}, err
		}
		if !found {
			return common.Hash{}, notFound(op, "no leaf at %v", p)
		}
		return record.Hash, nil
	}
	record, found, err := s.getInternalRecord(op, p)
	if err != nil {
		return common.Hash{}, err
	}
	if !found {
		return common.Hash{}, notFound(op, "no internal node at %v", p)
	}
	return record.Hash, nil
}

func (s *DataSource[K, V]) loadLeafByPath(op string, p path.Path) (leafRecord[K, V], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(op); err != nil {
		return leafRecord[K, V]{}, err
	}
	record, found, err := s.getLeafRecord(op, p)
	if err == nil && !found {
		err = notFound(op, "no leaf at %v", p)
	}
	return record, err
}

func (s *DataSource[K, V]) loadLeafByKey(op string, key K) (leafRecord[K, V], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(op); err != nil {
		return leafRecord[K, V]{}, err
	}
	record, found, err := s.findLeaf(op, key)
	if err == nil && !found {
		err = notFound(op, "no leaf of key %v", key)
	}
	return record, err
}

// LoadLeafKey returns the key of the leaf at the given path.
func (s *DataSource[K, V]) LoadLeafKey(p path.Path) (K, error) {
	record, err := s.loadLeafByPath("load leaf key", p)
	return record.Key, err
}

// LoadLeafValue returns the value of the leaf at the given path.
func (s *DataSource[K, V]) LoadLeafValue(p path.Path) (V, error) {
	record, err := s.loadLeafByPath("load leaf value", p)
	return record.Value, err
}

// LoadLeafValueByKey returns the value of the leaf of the given key.
func (s *DataSource[K, V]) LoadLeafValueByKey(key K) (V, error) {
	record, err := s.loadLeafByKey("load leaf value", key)
	return record.Value, err
}

// LoadLeafPath returns the path of the leaf of the given key.
func (s *DataSource[K, V]) LoadLeafPath(key K) (path.Path, error) {
	record, err := s.loadLeafByKey("load leaf path", key)
	return record.Path, err
}

// LeafPathRange returns the committed leaf range.
func (s *DataSource[K, V]) LeafPathRange() path.LeafRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leafRange
}

// LeafCount returns the number of committed leaves.
func (s *DataSource[K, V]) LeafCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Size()
}

// Flush writes all committed data to disk, making the current state the
// one restored when the directory is reopened after a crash.
func (s *DataSource[K, V]) Flush() error {
	s.txMu.Lock()
	broken := s.broken
	s.txMu.Unlock()
	if broken != nil {
		return broken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen("flush"); err != nil {
		return err
	}
	return s.flush()
}

// flush persists all components and the metadata. The caller must hold mu
// exclusively.
func (s *DataSource[K, V]) flush() error {
	err := errors.Join(
		s.internals.Flush(),
		s.leaves.Flush(),
		s.internalSlots.Flush(),
		s.leafSlots.Flush(),
		s.index.Flush(),
	)
	if err == nil && !s.params.IsVolatile() {
		err = writeMetadata(s.params.Directory, metadata{
			Version:       formatVersion,
			KeySize:       s.keys.Size(),
			ValueSize:     s.values.Size(),
			FirstLeafPath: uint64(s.leafRange.First),
			LastLeafPath:  uint64(s.leafRange.Last),
		})
	}
	return common.IoFailure("flush", err)
}

// Close flushes all data and releases all resources, on all paths. An open
// transaction is abandoned. Instances broken by a failed commit are closed
// without flushing and leave their directory marked dirty.
func (s *DataSource[K, V]) Close() error {
	s.txMu.Lock()
	if s.current != nil {
		s.current.done = true
		s.current = nil
	}
	broken := s.broken
	s.txMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if broken == nil {
		err = s.flush()
	}
	err = errors.Join(err, common.IoFailure("close", (&components[K, V]{
		internals:     s.internals,
		leaves:        s.leaves,
		internalSlots: s.internalSlots,
		leafSlots:     s.leafSlots,
		index:         s.index,
	}).close()))

	if s.lock != nil {
		// Only a successfully closed directory is marked clean.
		if err == nil && broken == nil {
			err = markClean(s.params.Directory)
		}
		err = errors.Join(err, s.lock.Release())
	}
	if err != nil {
		s.log.Warn("Failed to close data source cleanly", "err", err)
	} else {
		s.log.Info("Closed data source", "range", s.leafRange)
	}
	return err
}

func (s *DataSource[K, V]) GetMemoryFootprint() *common.MemoryFootprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*s))
	mf.AddChild("internals", s.internals.GetMemoryFootprint())
	mf.AddChild("leaves", s.leaves.GetMemoryFootprint())
	mf.AddChild("internalSlots", s.internalSlots.GetMemoryFootprint())
	mf.AddChild("leafSlots", s.leafSlots.GetMemoryFootprint())
	mf.AddChild("index", s.index.GetMemoryFootprint())
	return mf
}

func (s *DataSource[K, V]) String() string {
	return fmt.Sprintf("data source %v, leaves %v", s.params, s.LeafPathRange())
}
