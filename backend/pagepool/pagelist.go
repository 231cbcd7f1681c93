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
	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/constraints"
)

// PageList is the chain of pages of one bucket. The chain starts with the
// primary page of the bucket and continues through overflow pages linked by
// their next page IDs. A list holds no pages itself; pages are obtained from
// the pool while the chain is walked, and a page reference is never used
// after another page was requested, as that may have evicted it.
type PageList[K, V constraints.Ordered] struct {
	bucket   int
	pagePool *PagePool[*KVPage[K, V]]
}

// NewPageList creates a view on the chain of the given bucket.
func NewPageList[K, V constraints.Ordered](bucket int, pagePool *PagePool[*KVPage[K, V]]) PageList[K, V] {
	return PageList[K, V]{
		bucket:   bucket,
		pagePool: pagePool,
	}
}

func (m PageList[K, V]) head() PageId {
	return NewPageId(m.bucket, 0)
}

// walk visits the pages of the chain until the callback returns false.
func (m PageList[K, V]) walk(callback func(PageId, *KVPage[K, V]) bool) error {
	id := m.head()
	for {
		page, err := m.pagePool.Get(id)
		if err != nil {
			return err
		}
		next, hasNext := page.Next()
		if !callback(id, page) || !hasNext {
			return nil
		}
		id = next
	}
}

// Add inserts the pair into the first page having space for it, appending a
// new overflow page if all pages are full. It returns false if the pair is
// already present.
func (m PageList[K, V]) Add(key K, val V) (bool, error) {
	exists := false
	var free, last PageId
	hasFree := false
	err := m.walk(func(id PageId, page *KVPage[K, V]) bool {
		if page.Contains(key, val) {
			exists = true
			return false
		}
		if !hasFree && !page.IsFull() {
			free, hasFree = id, true
		}
		last = id
		return true
	})
	if err != nil || exists {
		return false, err
	}

	if !hasFree {
		free = NewPageId(m.bucket, m.pagePool.NextOverflowId())
		lastPage, err := m.pagePool.Get(last)
		if err != nil {
			return false, err
		}
		lastPage.SetNext(free)
	}

	page, err := m.pagePool.Get(free)
	if err != nil {
		return false, err
	}
	if !hasFree {
		page.Clear()
	}
	return page.Add(key, val), nil
}

// GetAll returns all values associated to the given key.
func (m PageList[K, V]) GetAll(key K) ([]V, error) {
	var res []V
	err := m.walk(func(_ PageId, page *KVPage[K, V]) bool {
		res = page.GetAll(key, res)
		return true
	})
	return res, err
}

// Remove deletes the pair and returns whether it was present. An overflow
// page becoming empty is unlinked from the chain and released.
func (m PageList[K, V]) Remove(key K, val V) (bool, error) {
	found := false
	var prev, current, next PageId
	hasNext := false
	err := m.walk(func(id PageId, page *KVPage[K, V]) bool {
		if page.Remove(key, val) {
			found = true
			current = id
			if page.Len() == 0 {
				next, hasNext = page.Next()
			}
			return false
		}
		prev = id
		return true
	})
	if err != nil || !found {
		return found, err
	}

	if current.IsOverflowPage() {
		empty, err := m.pagePool.Get(current)
		if err != nil {
			return true, err
		}
		if empty.Len() > 0 {
			return true, nil
		}
		prevPage, err := m.pagePool.Get(prev)
		if err != nil {
			return true, err
		}
		if hasNext {
			prevPage.SetNext(next)
		} else {
			prevPage.RemoveNext()
		}
		return true, m.pagePool.Remove(current)
	}
	return true, nil
}

// ForEach calls the callback for each pair of the chain.
func (m PageList[K, V]) ForEach(callback func(K, V)) error {
	return m.walk(func(_ PageId, page *KVPage[K, V]) bool {
		page.ForEach(callback)
		return true
	})
}

// GetEntries returns a copy of all pairs of the chain.
func (m PageList[K, V]) GetEntries() ([]common.MapEntry[K, V], error) {
	var res []common.MapEntry[K, V]
	err := m.walk(func(_ PageId, page *KVPage[K, V]) bool {
		res = append(res, page.Entries()...)
		return true
	})
	return res, err
}

// Size returns the number of pairs of the chain.
func (m PageList[K, V]) Size() (int, error) {
	size := 0
	err := m.walk(func(_ PageId, page *KVPage[K, V]) bool {
		size += page.Len()
		return true
	})
	return size, err
}

// Clear empties the primary page and releases all overflow pages.
func (m PageList[K, V]) Clear() error {
	var overflows []PageId
	err := m.walk(func(id PageId, page *KVPage[K, V]) bool {
		if id.IsOverflowPage() {
			overflows = append(overflows, id)
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, id := range overflows {
		if err := m.pagePool.Remove(id); err != nil {
			return err
		}
	}
	return m.reset()
}

// reset empties the primary page without following its chain.
func (m PageList[K, V]) reset() error {
	head, err := m.pagePool.Get(m.head())
	if err != nil {
		return err
	}
	head.Clear()
	return nil
}

// bulkInsert fills an empty chain with the given sorted, duplicate free
// entries, appending overflow pages as needed.
func (m PageList[K, V]) bulkInsert(entries []common.MapEntry[K, V]) error {
	id := m.head()
	page, err := m.pagePool.Get(id)
	if err != nil {
		return err
	}
	for i := 0; i < len(entries); {
		for ; i < len(entries) && !page.IsFull(); i++ {
			page.Add(entries[i].Key, entries[i].Val)
		}
		if i == len(entries) {
			break
		}
		next := NewPageId(m.bucket, m.pagePool.NextOverflowId())
		page.SetNext(next)
		if page, err = m.pagePool.Get(next); err != nil {
			return err
		}
		page.Clear()
	}
	return nil
}
