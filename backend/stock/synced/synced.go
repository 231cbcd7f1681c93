// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package synced provides a stock wrapper that may be shared among
// goroutines.
package synced

import (
	"sync"
	"unsafe"

	"github.com/vmerkle/vmerkle/backend/stock"
	"github.com/vmerkle/vmerkle/common"
)

// syncedStock runs at most one operation on the nested stock at any time.
// Reads are serialized as well since file-backed stocks move their buffers
// on lookups. Once closed, all operations are rejected before they reach the
// nested stock, which has released its files by then.
type syncedStock[I stock.Index, V any] struct {
	mu     sync.Mutex
	nested stock.Stock[I, V]
	closed bool
}

// Sync wraps the provided stock into a synchronizing wrapper. Stocks that
// are synchronized already are returned unchanged.
func Sync[I stock.Index, V any](nested stock.Stock[I, V]) stock.Stock[I, V] {
	if res, ok := nested.(*syncedStock[I, V]); ok {
		return res
	}
	return &syncedStock[I, V]{nested: nested}
}

// run performs the given operation on the nested stock while holding the lock.
func run[I stock.Index, V any, R any](s *syncedStock[I, V], op string, call func(stock.Stock[I, V]) (R, error)) (R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		var zero R
		return zero, common.ContractViolation(op, "stock is closed")
	}
	return call(s.nested)
}

func (s *syncedStock[I, V]) New() (I, error) {
	return run(s, "new", func(nested stock.Stock[I, V]) (I, error) {
		return nested.New()
	})
}

func (s *syncedStock[I, V]) Get(index I) (V, error) {
	return run(s, "get", func(nested stock.Stock[I, V]) (V, error) {
		return nested.Get(index)
	})
}

func (s *syncedStock[I, V]) Set(index I, value V) error {
	_, err := run(s, "set", func(nested stock.Stock[I, V]) (struct{}, error) {
		return struct{}{}, nested.Set(index, value)
	})
	return err
}

func (s *syncedStock[I, V]) Delete(index I) error {
	_, err := run(s, "delete", func(nested stock.Stock[I, V]) (struct{}, error) {
		return struct{}{}, nested.Delete(index)
	})
	return err
}

func (s *syncedStock[I, V]) GetIds() (stock.IndexSet[I], error) {
	return run(s, "get ids", func(nested stock.Stock[I, V]) (stock.IndexSet[I], error) {
		return nested.GetIds()
	})
}

func (s *syncedStock[I, V]) Flush() error {
	_, err := run(s, "flush", func(nested stock.Stock[I, V]) (struct{}, error) {
		return struct{}{}, nested.Flush()
	})
	return err
}

func (s *syncedStock[I, V]) GetMemoryFootprint() *common.MemoryFootprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*s))
	if !s.closed {
		mf.AddChild("nested", s.nested.GetMemoryFootprint())
	}
	return mf
}

// Close closes the nested stock. Closing a closed stock has no effect.
func (s *syncedStock[I, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.nested.Close()
}
