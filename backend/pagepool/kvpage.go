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
	"encoding/binary"
	"sort"
	"unsafe"

	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/constraints"
)

// kvPageHeaderSize covers the entry count, the next-page flag, and the
// bucket and overflow number of the next page.
const kvPageHeaderSize = 4 + 4 + 8 + 8

// KVPage is a page holding a sorted set of key/value pairs. The same key
// may be present with several values. Pages of a bucket chain are linked
// through the next page ID.
type KVPage[K, V constraints.Ordered] struct {
	entries         []common.MapEntry[K, V]
	keySerializer   common.Serializer[K]
	valueSerializer common.Serializer[V]
	sizeBytes       int

	next    PageId
	hasNext bool

	dirty bool
}

// NumKVPageEntries computes the number of entries fitting into a page of the given size.
func NumKVPageEntries[K, V any](sizeBytes int, keySerializer common.Serializer[K], valueSerializer common.Serializer[V]) int {
	return (sizeBytes - kvPageHeaderSize) / (keySerializer.Size() + valueSerializer.Size())
}

func NewKVPage[K, V constraints.Ordered](sizeBytes int, keySerializer common.Serializer[K], valueSerializer common.Serializer[V]) *KVPage[K, V] {
	return &KVPage[K, V]{
		entries:         make([]common.MapEntry[K, V], 0, NumKVPageEntries(sizeBytes, keySerializer, valueSerializer)),
		keySerializer:   keySerializer,
		valueSerializer: valueSerializer,
		sizeBytes:       sizeBytes,
	}
}

// Len returns the number of entries in the page.
func (p *KVPage[K, V]) Len() int {
	return len(p.entries)
}

func (p *KVPage[K, V]) IsFull() bool {
	return len(p.entries) == cap(p.entries)
}

// Contains checks whether the given pair is present.
func (p *KVPage[K, V]) Contains(key K, val V) bool {
	_, found := p.find(key, val)
	return found
}

// Add inserts the given pair, keeping the entries sorted. It returns false if
// the pair is already present or the page is full.
func (p *KVPage[K, V]) Add(key K, val V) bool {
	index, found := p.find(key, val)
	if found || p.IsFull() {
		return false
	}
	p.entries = append(p.entries, common.MapEntry[K, V]{})
	copy(p.entries[index+1:], p.entries[index:])
	p.entries[index] = common.MapEntry[K, V]{Key: key, Val: val}
	p.dirty = true
	return true
}

// Remove deletes the given pair and returns whether it was present.
func (p *KVPage[K, V]) Remove(key K, val V) bool {
	index, found := p.find(key, val)
	if !found {
		return false
	}
	p.entries = append(p.entries[:index], p.entries[index+1:]...)
	p.dirty = true
	return true
}

// GetAll appends all values associated to the given key to res.
func (p *KVPage[K, V]) GetAll(key K, res []V) []V {
	for i := p.findFirst(key); i < len(p.entries) && p.entries[i].Key == key; i++ {
		res = append(res, p.entries[i].Val)
	}
	return res
}

// ForEach calls the callback for each key-value pair in the page.
func (p *KVPage[K, V]) ForEach(callback func(K, V)) {
	for _, entry := range p.entries {
		callback(entry.Key, entry.Val)
	}
}

// Entries returns the pairs of the page in ascending order. The result must
// not be modified.
func (p *KVPage[K, V]) Entries() []common.MapEntry[K, V] {
	return p.entries
}

// Next returns the ID of the page following this page in its chain.
func (p *KVPage[K, V]) Next() (PageId, bool) {
	return p.next, p.hasNext
}

func (p *KVPage[K, V]) SetNext(next PageId) {
	p.next = next
	p.hasNext = true
	p.dirty = true
}

func (p *KVPage[K, V]) RemoveNext() {
	p.next = PageId{}
	p.hasNext = false
	p.dirty = true
}

// findFirst returns the position of the first entry with the given key, or
// of the place it would be inserted at.
func (p *KVPage[K, V]) findFirst(key K) int {
	return sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].Key >= key
	})
}

func (p *KVPage[K, V]) find(key K, val V) (int, bool) {
	index := sort.Search(len(p.entries), func(i int) bool {
		entry := p.entries[i]
		return entry.Key > key || entry.Key == key && entry.Val >= val
	})
	found := index < len(p.entries) && p.entries[index].Key == key && p.entries[index].Val == val
	return index, found
}

func (p *KVPage[K, V]) Size() int {
	return p.sizeBytes
}

func (p *KVPage[K, V]) IsDirty() bool {
	return p.dirty
}

func (p *KVPage[K, V]) SetDirty(dirty bool) {
	p.dirty = dirty
}

func (p *KVPage[K, V]) Clear() {
	p.entries = p.entries[:0]
	p.next = PageId{}
	p.hasNext = false
	p.dirty = true
}

func (p *KVPage[K, V]) FromBytes(data []byte) {
	count := int(binary.BigEndian.Uint32(data[0:4]))
	p.hasNext = binary.BigEndian.Uint32(data[4:8]) != 0
	p.next = NewPageId(int(binary.BigEndian.Uint64(data[8:16])), int(binary.BigEndian.Uint64(data[16:24])))
	if count > cap(p.entries) {
		count = cap(p.entries)
	}

	keySize := p.keySerializer.Size()
	pairSize := keySize + p.valueSerializer.Size()
	p.entries = p.entries[:count]
	offset := kvPageHeaderSize
	for i := range p.entries {
		p.entries[i].Key = p.keySerializer.FromBytes(data[offset : offset+keySize])
		p.entries[i].Val = p.valueSerializer.FromBytes(data[offset+keySize : offset+pairSize])
		offset += pairSize
	}
	p.dirty = false
}

func (p *KVPage[K, V]) ToBytes(data []byte) {
	clear(data)
	binary.BigEndian.PutUint32(data[0:4], uint32(len(p.entries)))
	if p.hasNext {
		binary.BigEndian.PutUint32(data[4:8], 1)
		binary.BigEndian.PutUint64(data[8:16], uint64(p.next.Bucket()))
		binary.BigEndian.PutUint64(data[16:24], uint64(p.next.Overflow()))
	}

	keySize := p.keySerializer.Size()
	pairSize := keySize + p.valueSerializer.Size()
	offset := kvPageHeaderSize
	for _, entry := range p.entries {
		p.keySerializer.CopyBytes(entry.Key, data[offset:offset+keySize])
		p.valueSerializer.CopyBytes(entry.Val, data[offset+keySize:offset+pairSize])
		offset += pairSize
	}
}

func (p *KVPage[K, V]) GetMemoryFootprint() *common.MemoryFootprint {
	var entry common.MapEntry[K, V]
	return common.NewMemoryFootprint(unsafe.Sizeof(*p) + uintptr(cap(p.entries))*unsafe.Sizeof(entry))
}
