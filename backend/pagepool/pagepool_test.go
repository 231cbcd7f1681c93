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
	"errors"
	"testing"
)

func newTestPagePool(capacity int, storage PageStorage) *PagePool[*KVPage[uint64, uint64]] {
	return NewPagePool[*KVPage[uint64, uint64]](capacity, storage, newTestPage)
}

func TestPagePool_GetReturnsSameInstance(t *testing.T) {
	pool := newTestPagePool(4, NewMemoryPageStorage())
	a, err := pool.Get(NewPageId(0, 0))
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}
	b, _ := pool.Get(NewPageId(1, 0))
	if got, _ := pool.Get(NewPageId(0, 0)); got != a {
		t.Errorf("wrong page returned")
	}
	if got, _ := pool.Get(NewPageId(1, 0)); got != b {
		t.Errorf("wrong page returned")
	}
}

func TestPagePool_EvictedPagesAreStored(t *testing.T) {
	storage := NewMemoryPageStorage()
	pool := newTestPagePool(2, storage)

	for i := 0; i < 5; i++ {
		page, err := pool.Get(NewPageId(i, 0))
		if err != nil {
			t.Fatalf("failed to get page: %v", err)
		}
		page.Add(uint64(i), uint64(i))
	}

	// the first pages were evicted into the storage
	page := newTestPage()
	if err := storage.Load(NewPageId(0, 0), page); err != nil || page.Len() != 1 {
		t.Errorf("evicted page was not stored, err %v", err)
	}

	for i := 0; i < 5; i++ {
		page, err := pool.Get(NewPageId(i, 0))
		if err != nil {
			t.Fatalf("failed to get page: %v", err)
		}
		if page.Len() != 1 || len(page.GetAll(uint64(i), nil)) != 1 {
			t.Errorf("page %d lost its content", i)
		}
	}
}

func TestPagePool_RemoveDropsPage(t *testing.T) {
	storage := NewMemoryPageStorage()
	pool := newTestPagePool(2, storage)
	id := NewPageId(0, pool.NextOverflowId())
	page, _ := pool.Get(id)
	page.Add(1, 1)
	if err := pool.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}
	if err := pool.Remove(id); err != nil {
		t.Fatalf("failed to remove page: %v", err)
	}
	page, err := pool.Get(id)
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}
	if page.Len() != 0 {
		t.Errorf("removed page should be empty")
	}
}

func TestPagePool_FlushStoresDirtyPages(t *testing.T) {
	storage := NewMemoryPageStorage()
	pool := newTestPagePool(4, storage)
	page, _ := pool.Get(NewPageId(3, 0))
	page.Add(3, 3)
	if err := pool.Flush(); err != nil {
		t.Fatalf("failed to flush: %v", err)
	}
	if page.IsDirty() {
		t.Errorf("flushed page should be clean")
	}
	loaded := newTestPage()
	if err := storage.Load(NewPageId(3, 0), loaded); err != nil || loaded.Len() != 1 {
		t.Errorf("page not flushed, err %v", err)
	}
}

type failingStorage struct {
	*MemoryPageStorage
	err error
}

func (s failingStorage) Store(PageId, Page) error {
	return s.err
}

func (s failingStorage) Load(PageId, Page) error {
	return s.err
}

func TestPagePool_StorageErrorsAreReported(t *testing.T) {
	injectedErr := errors.New("injected error")
	pool := newTestPagePool(2, failingStorage{NewMemoryPageStorage(), injectedErr})
	if _, err := pool.Get(NewPageId(0, 0)); !errors.Is(err, injectedErr) {
		t.Errorf("load error should be reported, got %v", err)
	}
}

func TestPagePool_FlushReportsStoreErrors(t *testing.T) {
	injectedErr := errors.New("injected error")
	storage := &switchableStorage{MemoryPageStorage: NewMemoryPageStorage()}
	pool := newTestPagePool(2, storage)
	page, _ := pool.Get(NewPageId(0, 0))
	page.Add(1, 1)
	storage.err = injectedErr
	if err := pool.Flush(); !errors.Is(err, injectedErr) {
		t.Errorf("flush should report the store error, got %v", err)
	}
}

func TestPagePool_FailedEvictionKeepsPage(t *testing.T) {
	injectedErr := errors.New("injected error")
	storage := &switchableStorage{MemoryPageStorage: NewMemoryPageStorage()}
	pool := newTestPagePool(2, storage)
	for i := 0; i < 2; i++ {
		page, _ := pool.Get(NewPageId(i, 0))
		page.Add(uint64(i), 1)
	}
	storage.err = injectedErr
	if _, err := pool.Get(NewPageId(2, 0)); !errors.Is(err, injectedErr) {
		t.Fatalf("eviction error should be reported, got %v", err)
	}
	storage.err = nil
	for i := 0; i < 2; i++ {
		page, err := pool.Get(NewPageId(i, 0))
		if err != nil {
			t.Fatalf("failed to get page: %v", err)
		}
		if page.Len() != 1 {
			t.Errorf("page %d lost its content", i)
		}
	}
}

func TestPagePool_MemoryFootprint(t *testing.T) {
	pool := newTestPagePool(2, NewMemoryPageStorage())
	pool.Get(NewPageId(0, 0))
	footprint := pool.GetMemoryFootprint()
	if footprint.GetChild("pagePool") == nil || footprint.GetChild("pageStore") == nil {
		t.Errorf("footprint is missing children: %v", footprint)
	}
}

// switchableStorage fails stores while err is set.
type switchableStorage struct {
	*MemoryPageStorage
	err error
}

func (s *switchableStorage) Store(id PageId, page Page) error {
	if s.err != nil {
		return s.err
	}
	return s.MemoryPageStorage.Store(id, page)
}
