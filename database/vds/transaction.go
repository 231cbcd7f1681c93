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
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Transaction is the token of a batch of mutations. Mutations are staged in
// the transaction and applied to the stores when it is committed; until
// then, readers observe the previously committed state. A data source has
// at most one open transaction, which must only be used by a single
// goroutine.
type Transaction[K comparable, V any] struct {
	owner *DataSource[K, V]
	done  bool

	leafRange path.LeafRange
	internals map[path.Path]common.Hash
	leaves    map[path.Path]stagedLeaf[K, V]
	keys      map[K]stagedKey
}

// stagedLeaf is the state of a leaf path modified by a transaction, either
// holding a new record or being vacated.
type stagedLeaf[K comparable, V any] struct {
	present bool
	record  leafRecord[K, V]
}

// stagedKey is the path of a key modified by a transaction, if present.
type stagedKey struct {
	present bool
	path    path.Path
}

// LeafPathRange returns the leaf range as staged by the transaction.
func (tx *Transaction[K, V]) LeafPathRange() path.LeafRange {
	return tx.leafRange
}

// StartTransaction opens a new transaction. Only one transaction may be open
// at any time.
func (s *DataSource[K, V]) StartTransaction() (*Transaction[K, V], error) {
	const op = "start transaction"
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.broken != nil {
		return nil, s.broken
	}
	if s.current != nil {
		return nil, common.ContractViolation(op, "another transaction is open")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(op); err != nil {
		return nil, err
	}
	s.current = &Transaction[K, V]{
		owner:     s,
		leafRange: s.leafRange,
		internals: map[path.Path]common.Hash{},
		leaves:    map[path.Path]stagedLeaf[K, V]{},
		keys:      map[K]stagedKey{},
	}
	return s.current, nil
}

// checkTransaction verifies that the given transaction is the open
// transaction of this data source and that the data source accepts updates.
func (s *DataSource[K, V]) checkTransaction(op string, tx *Transaction[K, V]) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if s.broken != nil {
		return s.broken
	}
	if tx == nil {
		return common.ContractViolation(op, "no transaction")
	}
	if tx.owner != s {
		return common.ContractViolation(op, "transaction of another data source")
	}
	if tx.done || tx != s.current {
		return common.ContractViolation(op, "transaction is finished")
	}
	return nil
}

// stagedLeafAt returns the leaf at the given path as seen by the transaction.
func (s *DataSource[K, V]) stagedLeafAt(op string, tx *Transaction[K, V], p path.Path) (leafRecord[K, V], bool, error) {
	if staged, found := tx.leaves[p]; found {
		return staged.record, staged.present, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(op); err != nil {
		return leafRecord[K, V]{}, false, err
	}
	return s.getLeafRecord(op, p)
}

// stagedPathOf returns the path of the given key as seen by the transaction.
func (s *DataSource[K, V]) stagedPathOf(op string, tx *Transaction[K, V], key K) (path.Path, bool, error) {
	if staged, found := tx.keys[key]; found {
		return staged.path, staged.present, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(op); err != nil {
		return 0, false, err
	}
	record, found, err := s.findLeaf(op, key)
	return record.Path, found, err
}

// vacate stages the removal of the given leaf.
func (tx *Transaction[K, V]) vacate(record leafRecord[K, V]) {
	tx.leaves[record.Path] = stagedLeaf[K, V]{}
	tx.keys[record.Key] = stagedKey{}
}

// place stages the given leaf record at its path.
func (tx *Transaction[K, V]) place(record leafRecord[K, V]) {
	tx.leaves[record.Path] = stagedLeaf[K, V]{present: true, record: record}
	tx.keys[record.Key] = stagedKey{present: true, path: record.Path}
	tx.leafRange = tx.leafRange.Extend(record.Path)
}

// SaveInternal stores the hash of an internal node, overwriting any
// previous hash of the path.
func (s *DataSource[K, V]) SaveInternal(tx *Transaction[K, V], p path.Path, hash common.Hash) error {
	if err := s.checkTransaction("save internal", tx); err != nil {
		return err
	}
	tx.internals[p] = hash
	return nil
}

// AddLeaf creates a new leaf at the given path. The path must not be
// occupied by a leaf and the key must not be present. The leaf range is
// extended to cover the path.
func (s *DataSource[K, V]) AddLeaf(tx *Transaction[K, V], p path.Path, key K, value V, hash common.Hash) error {
	const op = "add leaf"
	if err := s.checkTransaction(op, tx); err != nil {
		return err
	}
	if _, occupied, err := s.stagedLeafAt(op, tx, p); err != nil || occupied {
		if err == nil {
			err = common.ContractViolation(op, "%v is occupied", p)
		}
		return err
	}
	if current, present, err := s.stagedPathOf(op, tx, key); err != nil || present {
		if err == nil {
			err = common.ContractViolation(op, "key %v is already present at %v", key, current)
		}
		return err
	}
	tx.place(leafRecord[K, V]{Path: p, Key: key, Value: value, Hash: hash})
	return nil
}

// UpdateLeaf replaces value and hash of the leaf at the given path. Key and
// path of the leaf remain unchanged.
func (s *DataSource[K, V]) UpdateLeaf(tx *Transaction[K, V], p path.Path, value V, hash common.Hash) error {
	const op = "update leaf"
	if err := s.checkTransaction(op, tx); err != nil {
		return err
	}
	record, found, err := s.stagedLeafAt(op, tx, p)
	if err != nil {
		return err
	}
	if !found {
		return notFound(op, "no leaf at %v", p)
	}
	record.Value = value
	record.Hash = hash
	tx.place(record)
	return nil
}

// MoveLeaf relocates the leaf of the given key from oldPath to newPath and
// replaces its hash. The value is carried over. A leaf present at newPath is
// displaced, i.e. removed together with its index entry. oldPath is vacant
// afterwards.
func (s *DataSource[K, V]) MoveLeaf(tx *Transaction[K, V], oldPath, newPath path.Path, key K, hash common.Hash) error {
	const op = "move leaf"
	if err := s.checkTransaction(op, tx); err != nil {
		return err
	}
	record, found, err := s.stagedLeafAt(op, tx, oldPath)
	if err != nil {
		return err
	}
	if !found {
		return notFound(op, "no leaf at %v", oldPath)
	}
	if record.Key != key {
		return common.ContractViolation(op, "leaf at %v holds key %v, not %v", oldPath, record.Key, key)
	}
	if oldPath != newPath {
		displaced, occupied, err := s.stagedLeafAt(op, tx, newPath)
		if err != nil {
			return err
		}
		if occupied {
			tx.vacate(displaced)
		}
		tx.vacate(record)
	}
	record.Path = newPath
	record.Hash = hash
	tx.place(record)
	return nil
}

// SetLeafPathRange sets the leaf range [first, last], with first > last
// denoting an empty range. Leaves outside of the new range are removed.
func (s *DataSource[K, V]) SetLeafPathRange(tx *Transaction[K, V], first, last path.Path) error {
	const op = "set leaf path range"
	if err := s.checkTransaction(op, tx); err != nil {
		return err
	}
	updated := path.NewLeafRange(first, last)
	var err error
	tx.leafRange.ForEach(func(p path.Path) {
		if err != nil || updated.Contains(p) {
			return
		}
		var record leafRecord[K, V]
		var found bool
		record, found, err = s.stagedLeafAt(op, tx, p)
		if err == nil && found {
			tx.vacate(record)
		}
	})
	if err != nil {
		return err
	}
	tx.leafRange = updated
	return nil
}

// CommitTransaction applies all mutations of the transaction atomically with
// respect to readers and finishes the transaction. If the stores fail while
// the transaction is applied, the data source is broken: all later
// mutations and commits fail with the cause of the failure.
func (s *DataSource[K, V]) CommitTransaction(tx *Transaction[K, V]) error {
	const op = "commit"
	if err := s.checkTransaction(op, tx); err != nil {
		return err
	}

	s.mu.Lock()
	err := s.checkOpen(op)
	if err == nil {
		if err = s.apply(tx); err != nil {
			err = common.IoFailure(op, err)
		}
	}
	s.mu.Unlock()

	s.txMu.Lock()
	defer s.txMu.Unlock()
	tx.done = true
	if s.current == tx {
		s.current = nil
	}
	if err != nil && common.KindOf(err) != common.ErrContractViolation {
		s.broken = err
		s.log.Warn("Commit failed, data source is broken", "err", err)
	}
	return err
}

// AbortTransaction discards all mutations staged in the transaction and
// finishes it.
func (s *DataSource[K, V]) AbortTransaction(tx *Transaction[K, V]) error {
	if err := s.checkTransaction("abort", tx); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	tx.done = true
	s.current = nil
	return nil
}

type indexEntry struct {
	key  uint64
	path path.Path
}

// apply writes the staged mutations of the transaction to the stores. The
// caller must hold mu exclusively.
func (s *DataSource[K, V]) apply(tx *Transaction[K, V]) error {
	const op = "commit"

	// Index updates are derived from the committed state before it changes.
	var removals, additions []indexEntry
	for key, staged := range tx.keys {
		committed, found, err := s.findLeaf(op, key)
		if err != nil {
			return err
		}
		derived := s.hasher.Hash(&key)
		if found && (!staged.present || committed.Path != staged.path) {
			removals = append(removals, indexEntry{derived, committed.Path})
		}
		if staged.present && (!found || committed.Path != staged.path) {
			additions = append(additions, indexEntry{derived, staged.path})
		}
	}

	// Vacated paths are released first so that their slots get reused.
	paths := maps.Keys(tx.leaves)
	slices.Sort(paths)
	for _, p := range paths {
		if tx.leaves[p].present {
			continue
		}
		slot, err := s.leafSlots.Get(p)
		if err != nil {
			return err
		}
		if slot == 0 {
			continue
		}
		if err := s.leaves.Delete(slot - 1); err != nil {
			return err
		}
		if err := s.leafSlots.Set(p, 0); err != nil {
			return err
		}
	}
	for _, p := range paths {
		staged := tx.leaves[p]
		if !staged.present {
			continue
		}
		slot, err := s.leafSlots.Get(p)
		if err != nil {
			return err
		}
		if slot == 0 {
			fresh, err := s.leaves.New()
			if err != nil {
				return err
			}
			slot = fresh + 1
			if err := s.leafSlots.Set(p, slot); err != nil {
				return err
			}
		}
		if err := s.leaves.Set(slot-1, staged.record); err != nil {
			return err
		}
	}

	// Removals precede additions since colliding keys may share entries.
	for _, entry := range removals {
		if _, err := s.index.Remove(entry.key, entry.path); err != nil {
			return err
		}
	}
	for _, entry := range additions {
		if err := s.index.Add(entry.key, entry.path); err != nil {
			return err
		}
	}

	paths = maps.Keys(tx.internals)
	slices.Sort(paths)
	for _, p := range paths {
		slot, err := s.internalSlots.Get(p)
		if err != nil {
			return err
		}
		if slot == 0 {
			fresh, err := s.internals.New()
			if err != nil {
				return err
			}
			slot = fresh + 1
			if err := s.internalSlots.Set(p, slot); err != nil {
				return err
			}
		}
		if err := s.internals.Set(slot-1, internalRecord{Path: p, Hash: tx.internals[p]}); err != nil {
			return err
		}
	}

	s.leafRange = tx.leafRange
	s.log.Debug("Committed transaction", "internals", len(tx.internals), "leaves", len(tx.leaves), "keys", len(tx.keys), "range", s.leafRange)

	if s.params.FlushOnCommit {
		return s.flush()
	}
	return nil
}
