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
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
)

func TestDataSource_EmptySourceHasNoRecords(t *testing.T) {
	for _, config := range allConfigs {
		t.Run(config.name, func(t *testing.T) {
			ds := openTestSource(t, config.params(t.TempDir()))
			defer ds.Close()

			if got := ds.LeafCount(); got != 0 {
				t.Errorf("unexpected leaf count %d", got)
			}
			if got := ds.LeafPathRange(); !got.IsEmpty() {
				t.Errorf("unexpected leaf range %v", got)
			}
			if _, err := ds.LoadHash(1); !errors.Is(err, ErrNotFound) || !errors.Is(err, common.ErrContractViolation) {
				t.Errorf("expected not found contract violation, got %v", err)
			}
			if _, err := ds.LoadLeafKey(1); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
			if _, err := ds.LoadLeafPath(1); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
			if _, err := ds.LoadLeafValueByKey(1); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected not found, got %v", err)
			}
			if err := ds.Verify(nil); err != nil {
				t.Errorf("empty source is inconsistent: %v", err)
			}
		})
	}
}

func TestDataSource_LargePathsHaveNoRecords(t *testing.T) {
	for _, config := range allConfigs {
		t.Run(config.name, func(t *testing.T) {
			ds := openTestSource(t, config.params(t.TempDir()))
			defer ds.Close()
			addLeaves(t, ds, 1, 3)

			for _, p := range []path.Path{1 << 62, 1 << 63, math.MaxUint64} {
				if _, err := ds.LoadHash(p); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected no hash at %v, got %v", p, err)
				}
				if _, err := ds.LoadLeafKey(p); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected no leaf key at %v, got %v", p, err)
				}
				if _, err := ds.LoadLeafValue(p); !errors.Is(err, ErrNotFound) {
					t.Errorf("expected no leaf value at %v, got %v", p, err)
				}
			}
			checkLeaf(t, ds, 2, 2, 2, hashOf(2))
		})
	}
}

func TestDataSource_SavedRecordsCanBeLoaded(t *testing.T) {
	for _, config := range allConfigs {
		t.Run(config.name, func(t *testing.T) {
			ds := openTestSource(t, config.params(t.TempDir()))
			defer ds.Close()

			update(t, ds, func(tx *Transaction[uint64, uint64]) error {
				for i := 0; i < 10; i++ {
					if err := ds.SaveInternal(tx, path.Path(i), hashOf(100+i)); err != nil {
						return err
					}
				}
				for i := 10; i < 30; i++ {
					if err := ds.AddLeaf(tx, path.Path(i), uint64(1000+i), uint64(2000+i), hashOf(i)); err != nil {
						return err
					}
				}
				return nil
			})

			if got, want := ds.LeafPathRange(), path.NewLeafRange(10, 29); got != want {
				t.Errorf("unexpected leaf range, wanted %v, got %v", want, got)
			}
			if got := ds.LeafCount(); got != 20 {
				t.Errorf("unexpected leaf count %d", got)
			}
			for i := 0; i < 10; i++ {
				if got, err := ds.LoadHash(path.Path(i)); err != nil || got != hashOf(100+i) {
					t.Errorf("unexpected hash of %d: %v, err %v", i, got, err)
				}
			}
			for i := 10; i < 30; i++ {
				checkLeaf(t, ds, path.Path(i), uint64(1000+i), uint64(2000+i), hashOf(i))
			}
		})
	}
}

func TestDataSource_InternalHashesAreOverwritten(t *testing.T) {
	ds := openTestSource(t, Parameters{})
	defer ds.Close()
	for i := 0; i < 3; i++ {
		update(t, ds, func(tx *Transaction[uint64, uint64]) error {
			return ds.SaveInternal(tx, 7, hashOf(i))
		})
		if got, err := ds.LoadHash(7); err != nil || got != hashOf(i) {
			t.Errorf("unexpected hash %v, err %v", got, err)
		}
	}
}

func TestDataSource_ThousandLeavesWithRelocation(t *testing.T) {
	for _, config := range allConfigs {
		t.Run(config.name, func(t *testing.T) {
			ds := openTestSource(t, config.params(t.TempDir()))
			defer ds.Close()

			addLeaves(t, ds, 0, 1000)
			for i := 0; i < 1000; i++ {
				if got, err := ds.LoadHash(path.Path(i)); err != nil || got != hashOf(i) {
					t.Fatalf("unexpected hash at %d: %v, err %v", i, got, err)
				}
			}

			update(t, ds, func(tx *Transaction[uint64, uint64]) error {
				return ds.MoveLeaf(tx, 500, 250, 500, hashOf(5000))
			})

			checkLeaf(t, ds, 250, 500, 500, hashOf(5000))
			if _, err := ds.LoadLeafPath(250); !errors.Is(err, ErrNotFound) {
				t.Errorf("displaced key is still present, err %v", err)
			}
			if _, err := ds.LoadLeafKey(500); !errors.Is(err, ErrNotFound) {
				t.Errorf("vacated path still holds a leaf, err %v", err)
			}
			if got := ds.LeafCount(); got != 999 {
				t.Errorf("unexpected leaf count %d", got)
			}
			if err := ds.Verify(nil); err != nil {
				t.Errorf("inconsistent data source: %v", err)
			}
		})
	}
}

func TestDataSource_ShuffledUpdatesKeepIdentities(t *testing.T) {
	for _, config := range allConfigs {
		t.Run(config.name, func(t *testing.T) {
			ds := openTestSource(t, config.params(t.TempDir()))
			defer ds.Close()

			const N = 500
			addLeaves(t, ds, 0, N)
			order := rand.New(rand.NewSource(42)).Perm(N)

			// Updating twice with the same arguments has the same effect.
			for round := 0; round < 2; round++ {
				update(t, ds, func(tx *Transaction[uint64, uint64]) error {
					for _, i := range order {
						if err := ds.UpdateLeaf(tx, path.Path(i), uint64(i+10000), hashOf(i+10000)); err != nil {
							return err
						}
					}
					return nil
				})
				for i := 0; i < N; i++ {
					checkLeaf(t, ds, path.Path(i), uint64(i), uint64(i+10000), hashOf(i+10000))
				}
			}
		})
	}
}

func TestDataSource_RelocationToVacantPathCarriesValue(t *testing.T) {
	ds := openTestSource(t, Parameters{})
	defer ds.Close()
	addLeaves(t, ds, 4, 8)

	update(t, ds, func(tx *Transaction[uint64, uint64]) error {
		return ds.MoveLeaf(tx, 5, 9, 5, hashOf(99))
	})
	checkLeaf(t, ds, 9, 5, 5, hashOf(99))
	if _, err := ds.LoadLeafKey(5); !errors.Is(err, ErrNotFound) {
		t.Errorf("vacated path still holds a leaf, err %v", err)
	}
	if got, want := ds.LeafPathRange(), path.NewLeafRange(4, 9); got != want {
		t.Errorf("unexpected leaf range, wanted %v, got %v", want, got)
	}
	if got := ds.LeafCount(); got != 4 {
		t.Errorf("unexpected leaf count %d", got)
	}
}

func TestDataSource_MovingLeafInPlaceOnlyUpdatesHash(t *testing.T) {
	ds := openTestSource(t, Parameters{})
	defer ds.Close()
	addLeaves(t, ds, 4, 8)
	update(t, ds, func(tx *Transaction[uint64, uint64]) error {
		return ds.MoveLeaf(tx, 6, 6, 6, hashOf(66))
	})
	checkLeaf(t, ds, 6, 6, 6, hashOf(66))
}

func TestDataSource_DeletionByMovingTheLastLeaf(t *testing.T) {
	for _, config := range allConfigs {
		t.Run(config.name, func(t *testing.T) {
			ds := openTestSource(t, config.params(t.TempDir()))
			defer ds.Close()

			// A tree of 5 leaves occupies paths 4 to 8.
			addLeaves(t, ds, 4, 9)

			// Deleting the leaf at 5 moves the last leaf into its position.
			update(t, ds, func(tx *Transaction[uint64, uint64]) error {
				if err := ds.MoveLeaf(tx, 8, 5, 8, hashOf(88)); err != nil {
					return err
				}
				return ds.SetLeafPathRange(tx, 4, 7)
			})

			if got, want := ds.LeafPathRange(), path.NewLeafRange(4, 7); got != want {
				t.Errorf("unexpected leaf range, wanted %v, got %v", want, got)
			}
			checkLeaf(t, ds, 5, 8, 8, hashOf(88))
			if _, err := ds.LoadLeafPath(5); !errors.Is(err, ErrNotFound) {
				t.Errorf("deleted key is still present, err %v", err)
			}
			if got := ds.LeafCount(); got != 4 {
				t.Errorf("unexpected leaf count %d", got)
			}
			if err := ds.Verify(nil); err != nil {
				t.Errorf("inconsistent data source: %v", err)
			}
		})
	}
}

func TestDataSource_ShrinkingTheRangeDropsLeaves(t *testing.T) {
	ds := openTestSource(t, Parameters{})
	defer ds.Close()
	addLeaves(t, ds, 10, 20)
	update(t, ds, func(tx *Transaction[uint64, uint64]) error {
		return ds.SetLeafPathRange(tx, 12, 15)
	})
	for i := 10; i < 20; i++ {
		_, err := ds.LoadLeafPath(uint64(i))
		if i >= 12 && i <= 15 && err != nil {
			t.Errorf("leaf %d should be retained, err %v", i, err)
		}
		if (i < 12 || i > 15) && !errors.Is(err, ErrNotFound) {
			t.Errorf("leaf %d should be dropped, err %v", i, err)
		}
	}
	if got := ds.LeafCount(); got != 4 {
		t.Errorf("unexpected leaf count %d", got)
	}

	update(t, ds, func(tx *Transaction[uint64, uint64]) error {
		return ds.SetLeafPathRange(tx, 1, 0)
	})
	if got := ds.LeafCount(); got != 0 {
		t.Errorf("unexpected leaf count %d", got)
	}
	if got := ds.LeafPathRange(); !got.IsEmpty() {
		t.Errorf("unexpected leaf range %v", got)
	}
}

func TestDataSource_FreedSlotsAreReused(t *testing.T) {
	ds := openTestSource(t, Parameters{})
	defer ds.Close()
	addLeaves(t, ds, 0, 10)
	ids, err := ds.leaves.GetIds()
	if err != nil {
		t.Fatalf("failed to get ids: %v", err)
	}
	before := ids.GetUpperBound()

	last := uint64(9)
	for round := 0; round < 5; round++ {
		update(t, ds, func(tx *Transaction[uint64, uint64]) error {
			return ds.MoveLeaf(tx, 9, 3, last, hashOf(round))
		})
		last = uint64(100 + round)
		update(t, ds, func(tx *Transaction[uint64, uint64]) error {
			if err := ds.SetLeafPathRange(tx, 0, 8); err != nil {
				return err
			}
			return ds.AddLeaf(tx, 9, last, 0, hashOf(round))
		})
	}
	if ids, err = ds.leaves.GetIds(); err != nil {
		t.Fatalf("failed to get ids: %v", err)
	}
	if got := ids.GetUpperBound(); got != before {
		t.Errorf("leaf store grew from %d to %d slots", before, got)
	}
}

func TestDataSource_CollidingKeysAreDisambiguated(t *testing.T) {
	ds, err := OpenDataSource[uint64, uint64](Parameters{}, common.Uint64Serializer{}, common.Uint64Serializer{}, collidingHasher{})
	if err != nil {
		t.Fatalf("failed to open data source: %v", err)
	}
	defer ds.Close()

	addLeaves(t, ds, 0, 30)
	for i := 0; i < 30; i++ {
		checkLeaf(t, ds, path.Path(i), uint64(i), uint64(i), hashOf(i))
	}
	update(t, ds, func(tx *Transaction[uint64, uint64]) error {
		return ds.MoveLeaf(tx, 29, 3, 29, hashOf(29))
	})
	checkLeaf(t, ds, 3, 29, 29, hashOf(29))
	if _, err := ds.LoadLeafPath(3); !errors.Is(err, ErrNotFound) {
		t.Errorf("displaced key is still present, err %v", err)
	}
	if err := ds.Verify(nil); err != nil {
		t.Errorf("inconsistent data source: %v", err)
	}
}

func TestDataSource_ContentSurvivesReopening(t *testing.T) {
	for _, config := range persistentConfigs {
		t.Run(config.name, func(t *testing.T) {
			dir := t.TempDir()
			ds := openTestSource(t, config.params(dir))
			update(t, ds, func(tx *Transaction[uint64, uint64]) error {
				for i := 0; i < 100; i++ {
					if err := ds.SaveInternal(tx, path.Path(i), hashOf(1000+i)); err != nil {
						return err
					}
				}
				return nil
			})
			addLeaves(t, ds, 100, 200)
			update(t, ds, func(tx *Transaction[uint64, uint64]) error {
				return ds.MoveLeaf(tx, 199, 150, 199, hashOf(199))
			})
			update(t, ds, func(tx *Transaction[uint64, uint64]) error {
				return ds.SetLeafPathRange(tx, 100, 198)
			})
			if err := ds.Close(); err != nil {
				t.Fatalf("failed to close data source: %v", err)
			}

			ds = openTestSource(t, config.params(dir))
			defer ds.Close()
			if got, want := ds.LeafPathRange(), path.NewLeafRange(100, 198); got != want {
				t.Errorf("unexpected leaf range, wanted %v, got %v", want, got)
			}
			if got := ds.LeafCount(); got != 99 {
				t.Errorf("unexpected leaf count %d", got)
			}
			for i := 0; i < 100; i++ {
				if got, err := ds.LoadHash(path.Path(i)); err != nil || got != hashOf(1000+i) {
					t.Errorf("unexpected hash of %d: %v, err %v", i, got, err)
				}
			}
			for i := 100; i < 199; i++ {
				if i == 150 {
					checkLeaf(t, ds, 150, 199, 199, hashOf(199))
					continue
				}
				checkLeaf(t, ds, path.Path(i), uint64(i), uint64(i), hashOf(i))
			}
			if err := ds.Verify(nil); err != nil {
				t.Errorf("inconsistent data source: %v", err)
			}
		})
	}
}

func TestDataSource_FlushedContentCanBeReopenedAfterFlushOnCommit(t *testing.T) {
	dir := t.TempDir()
	params := Parameters{Directory: dir, FlushOnCommit: true, PagePoolSize: 8, IndexBuckets: 4}
	ds := openTestSource(t, params)
	addLeaves(t, ds, 1, 3)
	meta, err := readMetadata(dir, 8, 8)
	if err != nil {
		t.Fatalf("failed to read metadata: %v", err)
	}
	if got, want := meta.leafRange(), path.NewLeafRange(1, 2); got != want {
		t.Errorf("commit was not flushed, wanted range %v, got %v", want, got)
	}
	if err := ds.Close(); err != nil {
		t.Fatalf("failed to close data source: %v", err)
	}
}

func TestDataSource_RecordSizeMismatchIsRejected(t *testing.T) {
	dir := t.TempDir()
	ds := openTestSource(t, Parameters{Directory: dir})
	addLeaves(t, ds, 1, 3)
	if err := ds.Close(); err != nil {
		t.Fatalf("failed to close data source: %v", err)
	}
	_, err := OpenDataSource[uint64, common.Hash](Parameters{Directory: dir}, common.Uint64Serializer{}, common.HashSerializer{}, collidingHasher{})
	if !errors.Is(err, common.ErrIoFailure) {
		t.Errorf("expected size mismatch to be rejected, got %v", err)
	}
	// The failed attempt must not leave the directory dirty or locked.
	ds = openTestSource(t, Parameters{Directory: dir})
	if err := ds.Close(); err != nil {
		t.Fatalf("failed to close data source: %v", err)
	}
}

func TestDataSource_DirectoryIsLocked(t *testing.T) {
	dir := t.TempDir()
	ds := openTestSource(t, Parameters{Directory: dir})
	defer ds.Close()
	if _, err := OpenDataSource[uint64, uint64](Parameters{Directory: dir}, common.Uint64Serializer{}, common.Uint64Serializer{}, collidingHasher{}); err == nil {
		t.Errorf("directory should be locked")
	}
}

func TestDataSource_DirtyDirectoryIsRefused(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, dirtyFileName), nil, 0600); err != nil {
		t.Fatalf("failed to create dirty mark: %v", err)
	}
	_, err := OpenDataSource[uint64, uint64](Parameters{Directory: dir}, common.Uint64Serializer{}, common.Uint64Serializer{}, collidingHasher{})
	if !errors.Is(err, common.ErrIntegrityViolation) {
		t.Errorf("expected dirty directory to be refused, got %v", err)
	}
}

func TestDataSource_InvalidParametersAreRejected(t *testing.T) {
	tests := []Parameters{
		{StockVariant: FileVariant},
		{IndexVariant: LevelDbVariant},
		{FlushOnCommit: true},
		{Directory: "x", StockVariant: "unknown"},
	}
	for _, params := range tests {
		if _, err := OpenDataSource[uint64, uint64](params, common.Uint64Serializer{}, common.Uint64Serializer{}, collidingHasher{}); !errors.Is(err, common.ErrContractViolation) {
			t.Errorf("expected %v to be rejected, got %v", params, err)
		}
	}
}

func TestDataSource_ReadersObserveCommittedStates(t *testing.T) {
	ds := openTestSource(t, Parameters{Directory: t.TempDir(), PagePoolSize: 8, IndexBuckets: 4})
	defer ds.Close()
	const N = 100
	addLeaves(t, ds, 0, N)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				for i := 0; i < N; i++ {
					value, err := ds.LoadLeafValueByKey(uint64(i))
					if err != nil {
						t.Errorf("failed to read leaf %d: %v", i, err)
						return
					}
					if value%1000 != uint64(i) {
						t.Errorf("unexpected value of leaf %d: %d", i, value)
						return
					}
				}
			}
		}()
	}

	for generation := 1; generation <= 20; generation++ {
		update(t, ds, func(tx *Transaction[uint64, uint64]) error {
			for i := 0; i < N; i++ {
				if err := ds.UpdateLeaf(tx, path.Path(i), uint64(generation*1000+i), hashOf(i)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	close(done)
	wg.Wait()
}

func TestDataSource_StagedMutationsAreInvisibleUntilCommit(t *testing.T) {
	ds := openTestSource(t, Parameters{})
	defer ds.Close()
	addLeaves(t, ds, 1, 3)

	tx, err := ds.StartTransaction()
	if err != nil {
		t.Fatalf("failed to start transaction: %v", err)
	}
	if err := ds.UpdateLeaf(tx, 1, 42, hashOf(42)); err != nil {
		t.Fatalf("failed to update leaf: %v", err)
	}
	if err := ds.AddLeaf(tx, 3, 3, 3, hashOf(3)); err != nil {
		t.Fatalf("failed to add leaf: %v", err)
	}
	if got, want := tx.LeafPathRange(), path.NewLeafRange(1, 3); got != want {
		t.Errorf("unexpected staged range, wanted %v, got %v", want, got)
	}

	checkLeaf(t, ds, 1, 1, 1, hashOf(1))
	if _, err := ds.LoadLeafPath(3); !errors.Is(err, ErrNotFound) {
		t.Errorf("staged leaf is visible, err %v", err)
	}
	if got, want := ds.LeafPathRange(), path.NewLeafRange(1, 2); got != want {
		t.Errorf("unexpected committed range, wanted %v, got %v", want, got)
	}

	if err := ds.CommitTransaction(tx); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	checkLeaf(t, ds, 1, 1, 42, hashOf(42))
	checkLeaf(t, ds, 3, 3, 3, hashOf(3))
}

func TestDataSource_ProvidesMemoryFootprint(t *testing.T) {
	ds := openTestSource(t, Parameters{})
	defer ds.Close()
	addLeaves(t, ds, 1, 100)
	mf := ds.GetMemoryFootprint()
	for _, name := range []string{"internals", "leaves", "internalSlots", "leafSlots", "index"} {
		if mf.GetChild(name) == nil {
			t.Errorf("missing footprint of %s", name)
		}
	}
	if mf.Total() == 0 {
		t.Errorf("footprint should not be empty")
	}
}

func TestDataSource_ClosedSourceRejectsOperations(t *testing.T) {
	ds := openTestSource(t, Parameters{})
	addLeaves(t, ds, 1, 3)
	if err := ds.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
	if err := ds.Close(); err != nil {
		t.Errorf("closing twice should be a no-op, got %v", err)
	}
	if _, err := ds.LoadHash(1); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("expected contract violation, got %v", err)
	}
	if _, err := ds.StartTransaction(); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("expected contract violation, got %v", err)
	}
	if err := ds.Flush(); !errors.Is(err, common.ErrContractViolation) {
		t.Errorf("expected contract violation, got %v", err)
	}
}

func checkLeaf(t *testing.T, ds *testSource, p path.Path, key, value uint64, hash common.Hash) {
	t.Helper()
	if got, err := ds.LoadLeafKey(p); err != nil || got != key {
		t.Errorf("unexpected key at %v, wanted %d, got %d, err %v", p, key, got, err)
	}
	if got, err := ds.LoadLeafValue(p); err != nil || got != value {
		t.Errorf("unexpected value at %v, wanted %d, got %d, err %v", p, value, got, err)
	}
	if got, err := ds.LoadLeafValueByKey(key); err != nil || got != value {
		t.Errorf("unexpected value of key %d, wanted %d, got %d, err %v", key, value, got, err)
	}
	if got, err := ds.LoadLeafPath(key); err != nil || got != p {
		t.Errorf("unexpected path of key %d, wanted %v, got %v, err %v", key, p, got, err)
	}
	if got, err := ds.LoadHash(p); err != nil || got != hash {
		t.Errorf("unexpected hash at %v, wanted %v, got %v, err %v", p, hash, got, err)
	}
}
