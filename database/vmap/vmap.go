// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package vmap implements a Merkle-hashed key/value map on top of a virtual
// data source. It is the tree-balancing caller of the data source: it decides
// where leaves are placed, which leaf is moved on deletion, and how child
// hashes are combined into their parent's hash.
//
// The leaves of a map with n entries occupy the paths [n-1, 2n-2] of the
// virtual tree, all paths below hold internal nodes. A single entry is kept
// at path 1, below a root with only a left child. Leaves are hashed as
// SHA3-384(key||value), internal nodes as SHA3-384(left||right).
package vmap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
	"github.com/vmerkle/vmerkle/database/vds"
)

// VirtualMap is a map of fixed-size keys to fixed-size values authenticated
// by a Merkle root hash. Updates are serialized, reads may be issued
// concurrently and observe the state of the last completed update.
type VirtualMap[K comparable, V any] struct {
	source *vds.DataSource[K, V]
	keys   common.Serializer[K]
	values common.Serializer[V]
	log    log.Logger
	mu     sync.Mutex // serializes updates
}

// OpenVirtualMap opens the map stored in the data source described by the
// given parameters.
func OpenVirtualMap[K comparable, V any](
	params vds.Parameters,
	keys common.Serializer[K],
	values common.Serializer[V],
	hasher common.Hasher[K],
) (*VirtualMap[K, V], error) {
	source, err := vds.OpenDataSource(params, keys, values, hasher)
	if err != nil {
		return nil, err
	}
	return &VirtualMap[K, V]{
		source: source,
		keys:   keys,
		values: values,
		log:    common.NewLogger("vmap"),
	}, nil
}

// Put associates the value with the key, replacing any previous value.
func (m *VirtualMap[K, V]) Put(key K, value V) error {
	return m.Update(func(batch *Batch[K, V]) error {
		return batch.Put(key, value)
	})
}

// Remove deletes the key from the map and reports whether it was present.
func (m *VirtualMap[K, V]) Remove(key K) (bool, error) {
	var removed bool
	err := m.Update(func(batch *Batch[K, V]) (err error) {
		removed, err = batch.Remove(key)
		return err
	})
	return removed, err
}

// Update applies all modifications performed by the given function on the
// batch atomically. If the function fails, none of its modifications is
// applied.
func (m *VirtualMap[K, V]) Update(modify func(*Batch[K, V]) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.source.StartTransaction()
	if err != nil {
		return err
	}
	batch := newBatch(m, tx, m.source.LeafPathRange().Size())
	if err := modify(batch); err != nil {
		return errors.Join(err, m.source.AbortTransaction(tx))
	}
	if err := batch.rehash(); err != nil {
		return errors.Join(err, m.source.AbortTransaction(tx))
	}
	if err := m.source.CommitTransaction(tx); err != nil {
		return err
	}
	m.log.Debug("Updated map", "size", batch.size, "modified", len(batch.dirty))
	return nil
}

// Get returns the value of the given key, if present.
func (m *VirtualMap[K, V]) Get(key K) (V, bool, error) {
	value, err := m.source.LoadLeafValueByKey(key)
	if errors.Is(err, vds.ErrNotFound) {
		return value, false, nil
	}
	return value, err == nil, err
}

// Size returns the number of entries of the map.
func (m *VirtualMap[K, V]) Size() int {
	return int(m.source.LeafPathRange().Size())
}

// RootHash returns the hash of the root of the map's tree. The root hash of
// an empty map is zero.
func (m *VirtualMap[K, V]) RootHash() (common.Hash, error) {
	if m.source.LeafPathRange().IsEmpty() {
		return common.Hash{}, nil
	}
	return m.source.LoadHash(path.Root)
}

// Source provides access to the data source holding the map's tree.
func (m *VirtualMap[K, V]) Source() *vds.DataSource[K, V] {
	return m.source
}

func (m *VirtualMap[K, V]) Flush() error {
	return m.source.Flush()
}

func (m *VirtualMap[K, V]) Close() error {
	return m.source.Close()
}

func (m *VirtualMap[K, V]) GetMemoryFootprint() *common.MemoryFootprint {
	return m.source.GetMemoryFootprint()
}

func (m *VirtualMap[K, V]) String() string {
	return fmt.Sprintf("virtual map of %d entries", m.Size())
}

func (m *VirtualMap[K, V]) leafHash(key K, value V) common.Hash {
	return common.Sha384(m.keys.ToBytes(key), m.values.ToBytes(value))
}

// firstLeaf returns the first leaf path of a non-empty map of the given size.
func firstLeaf(size uint64) path.Path {
	if size == 1 {
		return 1
	}
	return path.Path(size - 1)
}
