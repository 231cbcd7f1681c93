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

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/vmerkle/vmerkle/backend/path"
)

type NamedIndexFactory struct {
	ImplementationName string
	Open               func(t *testing.T, directory string) (LongIndex, error)
	// Volatile implementations lose their content when closed.
	Volatile bool
}

// RunIndexTests runs a set of black-box unit tests against a LongIndex
// implementation defined by the given factory. It is intended to be used in
// implementation specific test packages.
func RunIndexTests(t *testing.T, factory NamedIndexFactory) {
	wrap := func(test func(*testing.T, NamedIndexFactory)) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			test(t, factory)
		}
	}
	t.Run(factory.ImplementationName, func(t *testing.T) {
		t.Run("EmptyIndexHasNoPaths", wrap(testEmptyIndexHasNoPaths))
		t.Run("AddedPathsCanBeRetrieved", wrap(testAddedPathsCanBeRetrieved))
		t.Run("PathsAreSorted", wrap(testPathsAreSorted))
		t.Run("DuplicatesAreIgnored", wrap(testDuplicatesAreIgnored))
		t.Run("RemoveDropsOnlyTheGivenPair", wrap(testRemoveDropsOnlyTheGivenPair))
		t.Run("ForEachVisitsAllPairs", wrap(testForEachVisitsAllPairs))
		t.Run("LargeNumberOfElements", wrap(testLargeNumberOfElements))
		t.Run("ProvidesMemoryFootprint", wrap(testProvidesMemoryFootprint))
		t.Run("CanBeFlushed", wrap(testIndexCanBeFlushed))
		if !factory.Volatile {
			t.Run("CanBeClosedAndReopened", wrap(testIndexCanBeClosedAndReopened))
		}
	})
}

func openIndex(t *testing.T, factory NamedIndexFactory, directory string) LongIndex {
	t.Helper()
	index, err := factory.Open(t, directory)
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	return index
}

func openTestIndex(t *testing.T, factory NamedIndexFactory) LongIndex {
	t.Helper()
	index := openIndex(t, factory, t.TempDir())
	t.Cleanup(func() {
		if err := index.Close(); err != nil {
			t.Errorf("failed to close index: %v", err)
		}
	})
	return index
}

func checkPaths(t *testing.T, index LongIndex, key uint64, want ...path.Path) {
	t.Helper()
	got, err := index.GetAll(key)
	if err != nil {
		t.Fatalf("failed to get paths of key %d: %v", key, err)
	}
	if len(got) != 0 || len(want) != 0 {
		if !slices.Equal(got, want) {
			t.Errorf("unexpected paths for key %d, wanted %v, got %v", key, want, got)
		}
	}
}

func testEmptyIndexHasNoPaths(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	if index.Size() != 0 {
		t.Errorf("empty index should have no pairs")
	}
	checkPaths(t, index, 0)
	checkPaths(t, index, 12)
	if removed, err := index.Remove(12, 1); err != nil || removed {
		t.Errorf("removing from empty index should report nothing removed, err %v", err)
	}
}

func testAddedPathsCanBeRetrieved(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	for key := uint64(0); key < 10; key++ {
		if err := index.Add(key, path.Path(key+100)); err != nil {
			t.Fatalf("failed to add pair: %v", err)
		}
	}
	for key := uint64(0); key < 10; key++ {
		checkPaths(t, index, key, path.Path(key+100))
	}
	checkPaths(t, index, 10)
	if got, want := index.Size(), 10; got != want {
		t.Errorf("unexpected size, wanted %d, got %d", want, got)
	}
}

func testPathsAreSorted(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	for _, p := range []path.Path{17, 3, 1 << 40, 9} {
		if err := index.Add(5, p); err != nil {
			t.Fatalf("failed to add pair: %v", err)
		}
	}
	checkPaths(t, index, 5, 3, 9, 17, 1<<40)
}

func testDuplicatesAreIgnored(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	for i := 0; i < 3; i++ {
		if err := index.Add(7, 21); err != nil {
			t.Fatalf("failed to add pair: %v", err)
		}
	}
	checkPaths(t, index, 7, 21)
	if got, want := index.Size(), 1; got != want {
		t.Errorf("unexpected size, wanted %d, got %d", want, got)
	}
}

func testRemoveDropsOnlyTheGivenPair(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	index.Add(1, 10)
	index.Add(1, 11)
	index.Add(2, 10)

	if removed, err := index.Remove(1, 10); err != nil || !removed {
		t.Fatalf("failed to remove pair, err %v", err)
	}
	if removed, err := index.Remove(1, 10); err != nil || removed {
		t.Errorf("pair should not be removed twice, err %v", err)
	}
	if removed, err := index.Remove(3, 10); err != nil || removed {
		t.Errorf("unknown pair should not be removed, err %v", err)
	}
	checkPaths(t, index, 1, 11)
	checkPaths(t, index, 2, 10)
	if got, want := index.Size(), 2; got != want {
		t.Errorf("unexpected size, wanted %d, got %d", want, got)
	}
}

func testForEachVisitsAllPairs(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	want := map[string]bool{}
	for key := uint64(0); key < 50; key++ {
		for j := uint64(0); j < key%3+1; j++ {
			p := path.Path(key*10 + j)
			index.Add(key, p)
			want[fmt.Sprintf("%d:%d", key, p)] = true
		}
	}
	got := map[string]bool{}
	if err := index.ForEach(func(key uint64, p path.Path) {
		got[fmt.Sprintf("%d:%d", key, p)] = true
	}); err != nil {
		t.Fatalf("failed to iterate index: %v", err)
	}
	if len(got) != len(want) {
		t.Errorf("unexpected number of pairs, wanted %d, got %d", len(want), len(got))
	}
	for pair := range want {
		if !got[pair] {
			t.Errorf("pair %s not visited", pair)
		}
	}
}

func testLargeNumberOfElements(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	const n = 10_000
	for _, i := range rand.Perm(n) {
		// keys collide in pairs
		if err := index.Add(uint64(i/2), path.Path(i)); err != nil {
			t.Fatalf("failed to add pair: %v", err)
		}
	}
	if got := index.Size(); got != n {
		t.Errorf("unexpected size, wanted %d, got %d", n, got)
	}
	for key := uint64(0); key < n/2; key++ {
		checkPaths(t, index, key, path.Path(2*key), path.Path(2*key+1))
	}
	for i := 0; i < n; i += 2 {
		if removed, err := index.Remove(uint64(i/2), path.Path(i)); err != nil || !removed {
			t.Fatalf("failed to remove pair %d, err %v", i, err)
		}
	}
	for key := uint64(0); key < n/2; key++ {
		checkPaths(t, index, key, path.Path(2*key+1))
	}
}

func testProvidesMemoryFootprint(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	index.Add(1, 1)
	if footprint := index.GetMemoryFootprint(); footprint == nil || footprint.Total() == 0 {
		t.Errorf("invalid memory footprint: %v", footprint)
	}
}

func testIndexCanBeFlushed(t *testing.T, factory NamedIndexFactory) {
	index := openTestIndex(t, factory)
	index.Add(1, 1)
	if err := index.Flush(); err != nil {
		t.Errorf("failed to flush index: %v", err)
	}
	checkPaths(t, index, 1, 1)
}

func testIndexCanBeClosedAndReopened(t *testing.T, factory NamedIndexFactory) {
	directory := t.TempDir()
	index := openIndex(t, factory, directory)
	for i := 0; i < 1000; i++ {
		if err := index.Add(uint64(i%100), path.Path(i)); err != nil {
			t.Fatalf("failed to add pair: %v", err)
		}
	}
	for i := 0; i < 1000; i += 10 {
		if _, err := index.Remove(uint64(i%100), path.Path(i)); err != nil {
			t.Fatalf("failed to remove pair: %v", err)
		}
	}
	if err := index.Close(); err != nil {
		t.Fatalf("failed to close index: %v", err)
	}

	index = openIndex(t, factory, directory)
	defer func() {
		if err := index.Close(); err != nil {
			t.Errorf("failed to close index: %v", err)
		}
	}()
	if got, want := index.Size(), 900; got != want {
		t.Errorf("unexpected size after reopening, wanted %d, got %d", want, got)
	}
	for key := uint64(0); key < 100; key++ {
		var want []path.Path
		for i := key; i < 1000; i += 100 {
			if i%10 != 0 {
				want = append(want, path.Path(i))
			}
		}
		checkPaths(t, index, key, want...)
	}
}
