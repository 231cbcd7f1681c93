// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vmap

import (
	"errors"

	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
	"github.com/vmerkle/vmerkle/database/vds"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Batch collects the modifications of a single map update. It tracks the
// positions and hashes of the leaves it moves, since the data source only
// exposes them after the commit.
type Batch[K comparable, V any] struct {
	m    *VirtualMap[K, V]
	tx   *vds.Transaction[K, V]
	size uint64

	keys   map[path.Path]stagedKey[K]
	paths  map[K]stagedPath
	hashes map[path.Path]common.Hash
	dirty  map[path.Path]struct{} // paths whose ancestors need rehashing
}

type stagedKey[K comparable] struct {
	key     K
	present bool
}

type stagedPath struct {
	path    path.Path
	present bool
}

func newBatch[K comparable, V any](m *VirtualMap[K, V], tx *vds.Transaction[K, V], size uint64) *Batch[K, V] {
	return &Batch[K, V]{
		m:      m,
		tx:     tx,
		size:   size,
		keys:   map[path.Path]stagedKey[K]{},
		paths:  map[K]stagedPath{},
		hashes: map[path.Path]common.Hash{},
		dirty:  map[path.Path]struct{}{},
	}
}

// Size returns the number of entries including the modifications of the batch.
func (b *Batch[K, V]) Size() int {
	return int(b.size)
}

// Put associates the value with the key. New keys are appended at the end
// of the leaf region, the leaf at its start descends one level to make room.
func (b *Batch[K, V]) Put(key K, value V) error {
	hash := b.m.leafHash(key, value)
	p, found, err := b.pathOf(key)
	if err != nil {
		return err
	}
	if found {
		if err := b.m.source.UpdateLeaf(b.tx, p, value, hash); err != nil {
			return err
		}
		b.place(p, key, hash)
		return nil
	}

	if b.size < 2 {
		target := path.Path(b.size + 1)
		if err := b.m.source.AddLeaf(b.tx, target, key, value, hash); err != nil {
			return err
		}
		b.place(target, key, hash)
		b.size++
		return nil
	}

	first := firstLeaf(b.size)
	if err := b.move(first, path.LeftChild(first)); err != nil {
		return err
	}
	target := path.RightChild(first)
	if err := b.m.source.AddLeaf(b.tx, target, key, value, hash); err != nil {
		return err
	}
	// The former first leaf became an internal node.
	if err := b.m.source.SetLeafPathRange(b.tx, first+1, target); err != nil {
		return err
	}
	b.place(target, key, hash)
	b.size++
	return nil
}

// Remove deletes the key. The last leaf takes the place of the removed one,
// and its former sibling ascends into their parent.
func (b *Batch[K, V]) Remove(key K) (bool, error) {
	p, found, err := b.pathOf(key)
	if err != nil || !found {
		return false, err
	}

	switch b.size {
	case 1:
		b.vacate(p)
		err = b.m.source.SetLeafPathRange(b.tx, path.EmptyLeafRange.First, path.EmptyLeafRange.Last)
	case 2:
		if p == 1 {
			err = b.move(2, 1)
		} else {
			b.vacate(p)
		}
		if err == nil {
			err = b.m.source.SetLeafPathRange(b.tx, 1, 1)
		}
	default:
		last := path.Path(2*b.size - 2)
		sibling, _ := path.Sibling(last)
		parent, _ := path.Parent(last)
		if p != last {
			err = b.move(last, p)
		} else {
			b.vacate(last)
		}
		if err == nil {
			err = b.move(sibling, parent)
		}
		if err == nil {
			err = b.m.source.SetLeafPathRange(b.tx, parent, last-2)
		}
	}
	if err != nil {
		return false, err
	}
	b.paths[key] = stagedPath{}
	b.size--
	return true, nil
}

func (b *Batch[K, V]) pathOf(key K) (path.Path, bool, error) {
	if staged, found := b.paths[key]; found {
		return staged.path, staged.present, nil
	}
	p, err := b.m.source.LoadLeafPath(key)
	if errors.Is(err, vds.ErrNotFound) {
		return 0, false, nil
	}
	return p, err == nil, err
}

func (b *Batch[K, V]) keyAt(p path.Path) (K, error) {
	if staged, found := b.keys[p]; found {
		if !staged.present {
			return staged.key, common.IntegrityViolation("map update", "no leaf at %v", p)
		}
		return staged.key, nil
	}
	return b.m.source.LoadLeafKey(p)
}

func (b *Batch[K, V]) hashAt(p path.Path) (common.Hash, error) {
	if hash, found := b.hashes[p]; found {
		return hash, nil
	}
	return b.m.source.LoadHash(p)
}

// move relocates the leaf at from to the position to, displacing any leaf
// present there.
func (b *Batch[K, V]) move(from, to path.Path) error {
	key, err := b.keyAt(from)
	if err != nil {
		return err
	}
	hash, err := b.hashAt(from)
	if err != nil {
		return err
	}
	if err := b.m.source.MoveLeaf(b.tx, from, to, key, hash); err != nil {
		return err
	}
	b.vacate(from)
	b.place(to, key, hash)
	return nil
}

func (b *Batch[K, V]) place(p path.Path, key K, hash common.Hash) {
	b.keys[p] = stagedKey[K]{key: key, present: true}
	b.paths[key] = stagedPath{path: p, present: true}
	b.hashes[p] = hash
	b.dirty[p] = struct{}{}
}

func (b *Batch[K, V]) vacate(p path.Path) {
	b.keys[p] = stagedKey[K]{}
	delete(b.hashes, p)
	b.dirty[p] = struct{}{}
}

// rehash recomputes the hashes of all internal nodes above modified paths,
// children before their parents.
func (b *Batch[K, V]) rehash() error {
	if b.size == 0 {
		return nil
	}
	first := firstLeaf(b.size)
	stale := map[path.Path]struct{}{}
	for p := range b.dirty {
		for cur, ok := p, true; ok; cur, ok = path.Parent(cur) {
			if cur >= first {
				continue
			}
			if _, seen := stale[cur]; seen {
				break
			}
			stale[cur] = struct{}{}
		}
	}

	nodes := maps.Keys(stale)
	slices.Sort(nodes)
	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		left, err := b.hashAt(path.LeftChild(node))
		if err != nil {
			return err
		}
		var hash common.Hash
		if b.size == 1 {
			hash = common.Sha384(left[:])
		} else {
			right, err := b.hashAt(path.RightChild(node))
			if err != nil {
				return err
			}
			hash = common.Sha384(left[:], right[:])
		}
		if err := b.m.source.SaveInternal(b.tx, node, hash); err != nil {
			return err
		}
		b.hashes[node] = hash
	}
	return nil
}
