// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// LinearHashBase holds the bucket addressing state of a linear hash table.
// Keys are mapped to buckets using the lowest bits of their hash. When a
// bucket is split, the table grows by exactly one bucket and only the
// entries of the split bucket get redistributed.
type LinearHashBase[K, V constraints.Ordered] struct {
	hasher           Hasher[K]
	bits, numBuckets uint // number of bits in current hash mask
}

// NewLinearHashBase creates the addressing state for a table of the given
// number of buckets, which must be at least 2.
func NewLinearHashBase[K, V constraints.Ordered](numBuckets int, hasher Hasher[K]) LinearHashBase[K, V] {
	if numBuckets < 2 {
		numBuckets = 2
	}
	return LinearHashBase[K, V]{hasher, IntLog2(numBuckets), uint(numBuckets)}
}

// GetBucketId computes the bucket hosting the given key.
func (h *LinearHashBase[K, V]) GetBucketId(key *K) uint {
	hashedKey := h.hasher.Hash(key)
	m := uint(hashedKey & ((1 << h.bits) - 1))
	if m < h.numBuckets {
		return m
	}
	// the bucket addressed by the full mask does not exist yet, drop the top bit
	return m ^ (1 << (h.bits - 1))
}

// NextBucketId returns the bucket to be split next.
func (h *LinearHashBase[K, V]) NextBucketId() uint {
	return h.numBuckets % (1 << (h.bits - 1))
}

// SplitEntries adds a bucket to the table and divides the entries of the
// split bucket into those remaining in bucketId and those moving to the new
// bucket. Both results are sorted by key and value.
func (h *LinearHashBase[K, V]) SplitEntries(bucketId uint, oldEntries []MapEntry[K, V]) (entriesA, entriesB []MapEntry[K, V]) {
	entriesA = make([]MapEntry[K, V], 0, len(oldEntries))
	entriesB = make([]MapEntry[K, V], 0, len(oldEntries))

	h.numBuckets += 1
	if h.numBuckets > (1 << h.bits) {
		h.bits += 1
	}

	for _, entry := range oldEntries {
		if h.GetBucketId(&entry.Key) == bucketId {
			entriesA = append(entriesA, entry)
		} else {
			entriesB = append(entriesB, entry)
		}
	}

	SortEntries(entriesA)
	SortEntries(entriesB)
	return entriesA, entriesB
}

func (h *LinearHashBase[K, V]) ToString(k K, v V) string {
	hash := h.hasher.Hash(&k)
	return fmt.Sprintf("  %2v -> %3v hash: %64b, mask: %b", k, v, hash, h.bits)
}

func (h *LinearHashBase[K, V]) GetBits() uint {
	return h.bits
}

func (h *LinearHashBase[K, V]) GetNumBuckets() uint {
	return h.numBuckets
}

// SortEntries orders the given entries by key and, for equal keys, by value.
func SortEntries[K, V constraints.Ordered](entries []MapEntry[K, V]) {
	slices.SortFunc(entries, func(a, b MapEntry[K, V]) bool {
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.Val < b.Val
	})
}

// IntLog2 computes the ceiling of log2(x) for positive x.
func IntLog2(x int) uint {
	if x <= 1 {
		return 0
	}
	return uint(bits.Len(uint(x - 1)))
}
