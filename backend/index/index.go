// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package index

//go:generate mockgen -source index.go -destination index_mocks.go -package index

import (
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/constraints"
)

// LongIndex maps derived 64-bit keys to the tree paths of the leaves carrying
// them. Since several business keys may reduce to the same derived key, the
// index is a multimap: a key may be associated with several paths, and
// callers disambiguate candidates by inspecting the leaves at those paths.
type LongIndex interface {
	// Add associates the given path with the key. Adding an existing pair
	// has no effect.
	Add(key uint64, loc path.Path) error

	// GetAll returns the paths associated with the key in ascending order.
	// An unknown key yields an empty result.
	GetAll(key uint64) ([]path.Path, error)

	// Remove drops the given pair and reports whether it was present.
	Remove(key uint64, loc path.Path) (bool, error)

	// Size returns the number of pairs in the index.
	Size() int

	// ForEach calls the callback for every pair of the index.
	ForEach(callback func(key uint64, loc path.Path)) error

	common.MemoryFootprintProvider
	common.FlushAndCloser
}

// IdentityHasher derives the long key of integral keys from their value.
type IdentityHasher[K constraints.Integer] struct{}

func (IdentityHasher[K]) Hash(key *K) uint64 {
	return uint64(*key)
}

// Mix is a bijective scrambling of 64-bit values (the SplitMix64 finalizer).
// It spreads derived keys with regular low bits over the hash buckets.
func Mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
