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
	"unsafe"

	"github.com/vmerkle/vmerkle/common"
)

// PagePool maintains memory pages and handles their evictions, persistence and loadings.
// It uses an LRU cache to determine if the page has been recently used or not. The least used page
// is evicted when the capacity exceeds, and stored using PageStorage. When the pool is asked for
// a page that does not exist in this pool, it tries to load it from the PageStorage.
type PagePool[T Page] struct {
	pagePool    *common.LruCache[PageId, T]
	pageStore   PageStorage
	pageFactory func() T

	freePages []T // evicted page instances reused for later loads
}

// NewPagePool creates a pool holding up to capacity pages in memory. At
// least two pages are kept so that a chain may be relinked in place.
func NewPagePool[T Page](capacity int, pageStore PageStorage, pageFactory func() T) *PagePool[T] {
	capacity = max(capacity, 2)
	return &PagePool[T]{
		pagePool:    common.NewLruCache[PageId, T](capacity),
		pageStore:   pageStore,
		pageFactory: pageFactory,
		freePages:   make([]T, 0, capacity),
	}
}

// NextOverflowId returns an unused overflow page number.
func (p *PagePool[T]) NextOverflowId() int {
	return p.pageStore.NextOverflowId()
}

// Get returns a Page from the pool, or loads it from the storage if the page is not in the pool.
// Another Page may be potentially evicted.
func (p *PagePool[T]) Get(id PageId) (T, error) {
	if page, exists := p.pagePool.Get(id); exists {
		return page, nil
	}
	page := p.createPage()
	if err := p.pageStore.Load(id, page); err != nil {
		p.freePages = append(p.freePages, page)
		var empty T
		return empty, err
	}
	if err := p.put(id, page); err != nil {
		var empty T
		return empty, err
	}
	return page, nil
}

// put associates a new Page with this pool. The least recently used page is
// written back when the pool exceeds its capacity.
func (p *PagePool[T]) put(pageId PageId, page T) error {
	evictedId, evictedPage, evicted := p.pagePool.Set(pageId, page)
	if !evicted {
		return nil
	}
	if err := p.storePage(evictedId, evictedPage); err != nil {
		// the page must not get lost, keep it in the pool for a later retry
		p.pagePool.Remove(pageId)
		p.pagePool.Set(evictedId, evictedPage)
		p.freePages = append(p.freePages, page)
		return err
	}
	p.freePages = append(p.freePages, evictedPage)
	return nil
}

// Remove drops a page from this pool and the storage.
func (p *PagePool[T]) Remove(id PageId) error {
	if original, exists := p.pagePool.Remove(id); exists {
		p.freePages = append(p.freePages, original)
	}
	return p.pageStore.Remove(id)
}

// Flush writes all dirty pages to the storage and flushes the storage.
func (p *PagePool[T]) Flush() error {
	var errs []error
	p.pagePool.Iterate(func(id PageId, page T) bool {
		if err := p.storePage(id, page); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	errs = append(errs, p.pageStore.Flush())
	return errors.Join(errs...)
}

func (p *PagePool[T]) Close() error {
	err := p.Flush()
	p.pagePool.Clear()
	return errors.Join(err, p.pageStore.Close())
}

func (p *PagePool[T]) storePage(pageId PageId, page T) error {
	if page.IsDirty() {
		return p.pageStore.Store(pageId, page)
	}
	return nil
}

// createPage returns a page instance either from the free list or a new one.
func (p *PagePool[T]) createPage() T {
	if len(p.freePages) > 0 {
		page := p.freePages[len(p.freePages)-1]
		p.freePages = p.freePages[:len(p.freePages)-1]
		page.Clear()
		return page
	}
	return p.pageFactory()
}

func (p *PagePool[T]) GetMemoryFootprint() *common.MemoryFootprint {
	pageSize := p.pageFactory().GetMemoryFootprint()
	footprint := common.NewMemoryFootprint(unsafe.Sizeof(*p))
	footprint.AddChild("freeList", common.NewMemoryFootprint(uintptr(len(p.freePages))*pageSize.Value()))
	footprint.AddChild("pagePool", p.pagePool.GetMemoryFootprint(pageSize.Value()))
	footprint.AddChild("pageStore", p.pageStore.GetMemoryFootprint())
	return footprint
}
