// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package pagepool

import (
	"fmt"
	"unsafe"

	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/constraints"
)

// splitThreshold is the fill ratio of the table triggering a bucket split.
const splitThreshold = 0.8

// LinearHashMultiMap is a multimap of key/value pairs based on linear
// hashing. Each bucket is a chain of pages held in a PagePool. When the
// number of pairs exceeds the threshold, exactly one bucket is split, so the
// table grows without ever rehashing all entries.
type LinearHashMultiMap[K, V constraints.Ordered] struct {
	common.LinearHashBase[K, V]

	pagePool     *PagePool[*KVPage[K, V]]
	pageCapacity int
	records      int
}

// NewLinearHashMultiMap creates a multimap of the given number of buckets
// holding the given number of records. Both are zero for a new table and the
// persisted values when an existing table is reopened from the pool storage.
func NewLinearHashMultiMap[K, V constraints.Ordered](numBuckets, records, pageCapacity int, pagePool *PagePool[*KVPage[K, V]], hasher common.Hasher[K]) *LinearHashMultiMap[K, V] {
	return &LinearHashMultiMap[K, V]{
		LinearHashBase: common.NewLinearHashBase[K, V](numBuckets, hasher),
		pagePool:       pagePool,
		pageCapacity:   max(pageCapacity, 1),
		records:        records,
	}
}

func (h *LinearHashMultiMap[K, V]) bucket(key K) PageList[K, V] {
	return NewPageList[K, V](int(h.GetBucketId(&key)), h.pagePool)
}

// Add associates the value with the key. Adding an existing pair is a no-op.
func (h *LinearHashMultiMap[K, V]) Add(key K, val V) error {
	added, err := h.bucket(key).Add(key, val)
	if err != nil || !added {
		return err
	}
	h.records++
	if float64(h.records) > float64(h.GetNumBuckets())*float64(h.pageCapacity)*splitThreshold {
		return h.split()
	}
	return nil
}

// GetAll returns all values associated with the key.
func (h *LinearHashMultiMap[K, V]) GetAll(key K) ([]V, error) {
	return h.bucket(key).GetAll(key)
}

// Remove deletes the pair and returns whether it was present.
func (h *LinearHashMultiMap[K, V]) Remove(key K, val V) (bool, error) {
	removed, err := h.bucket(key).Remove(key, val)
	if removed {
		h.records--
	}
	return removed, err
}

// ForEach calls the callback for every pair of the table.
func (h *LinearHashMultiMap[K, V]) ForEach(callback func(K, V)) error {
	for i := 0; i < int(h.GetNumBuckets()); i++ {
		if err := NewPageList[K, V](i, h.pagePool).ForEach(callback); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of pairs in the table.
func (h *LinearHashMultiMap[K, V]) Size() int {
	return h.records
}

// split adds one bucket to the table and redistributes the entries of the
// bucket next in turn.
func (h *LinearHashMultiMap[K, V]) split() error {
	bucketId := h.NextBucketId()
	oldBucket := NewPageList[K, V](int(bucketId), h.pagePool)
	entries, err := oldBucket.GetEntries()
	if err != nil {
		return err
	}

	entriesA, entriesB := h.SplitEntries(bucketId, entries)
	newBucket := NewPageList[K, V](int(h.GetNumBuckets())-1, h.pagePool)

	if err := oldBucket.Clear(); err != nil {
		return err
	}
	if err := newBucket.reset(); err != nil {
		return err
	}
	if err := oldBucket.bulkInsert(entriesA); err != nil {
		return err
	}
	return newBucket.bulkInsert(entriesB)
}

func (h *LinearHashMultiMap[K, V]) Flush() error {
	return h.pagePool.Flush()
}

func (h *LinearHashMultiMap[K, V]) Close() error {
	return h.pagePool.Close()
}

func (h *LinearHashMultiMap[K, V]) GetMemoryFootprint() *common.MemoryFootprint {
	footprint := common.NewMemoryFootprint(unsafe.Sizeof(*h))
	footprint.AddChild("pagePool", h.pagePool.GetMemoryFootprint())
	return footprint
}

func (h *LinearHashMultiMap[K, V]) String() string {
	return fmt.Sprintf("buckets: %d, bits: %d, records: %d", h.GetNumBuckets(), h.GetBits(), h.records)
}
