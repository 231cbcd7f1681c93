// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package stock

import (
	"encoding/binary"
	"unsafe"

	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/constraints"
)

//go:generate mockgen -source stock.go -destination stock_mocks.go -package stock -exclude_interfaces Index,IndexSet,ValueEncoder

// Stock is a collection of fixed-sized, serializable records each associated
// to a unique, Stock-controlled slot index serving as an identifier.
//
// Stocks mirror a persistent memory-management system: indexes are pointers
// to record slots, New allocates a slot, Delete frees it, and Get
// dereferences it. Freed slots are recycled by later New calls; their
// content is not cleared, they only become unaddressable by the client.
//
// I ... the type used to address values in the stock (=index space)
// V ... the type of values stored in the stock
type Stock[I Index, V any] interface {
	// New allocates a slot for a new value, reusing a freed slot if one is
	// available and growing the stock otherwise.
	New() (I, error)

	// Get retrieves the value stored in the given slot. Slots outside the
	// allocated range are rejected as contract violations. Stocks do not
	// track which slots are freed, reading a freed slot yields its stale
	// content.
	Get(I) (V, error)

	// Set updates the value stored in the given slot, which must be within
	// the allocated range.
	Set(I, V) error

	// Delete frees the given slot. Slots may only be deleted once; deleting
	// a slot twice corrupts the free list.
	Delete(I) error

	// GetIds fetches a snapshot of the slots currently in use. This may be a
	// costly operation and is intended for consistency checks.
	GetIds() (IndexSet[I], error)

	common.MemoryFootprintProvider
	common.FlushAndCloser
}

// Index defines the type constraints on Stock index types.
type Index interface {
	constraints.Integer
}

// IndexSet is a compact representation of a set of index values.
type IndexSet[I Index] interface {
	// Contains tests whether the given index element is part of this set.
	Contains(I) bool
	// GetLowerBound returns an index value less or equal to any element in the set.
	GetLowerBound() I
	// GetUpperBound returns an index value greater than any element in this set.
	GetUpperBound() I
}

// ValueEncoder handles the marshaling of values within stock instances.
// Each value is encoded into a byte slice of exactly GetEncodedSize bytes;
// slices of any other length are rejected.
type ValueEncoder[V any] interface {
	// The number of bytes required for encoding the value.
	GetEncodedSize() int
	// Store encodes the given value into the given byte slice.
	Store([]byte, *V) error
	// Load restores the value encoded in the given byte slice.
	Load([]byte, *V) error
}

// CheckIndex reports a contract violation if the given index is not within
// the allocated range [0, limit).
func CheckIndex[I Index](op string, index, limit I) error {
	if index < 0 || index >= limit {
		return common.ContractViolation(op, "index %d out of range [0,%d)", index, limit)
	}
	return nil
}

// CheckEncodedSize reports a contract violation if the given buffer does not
// have the size required by the encoder.
func CheckEncodedSize(op string, buffer []byte, size int) error {
	if len(buffer) != size {
		return common.ContractViolation(op, "invalid record size, got %d bytes, wanted %d", len(buffer), size)
	}
	return nil
}

// EncodeIndex encodes an index into a binary form to be persisted.
func EncodeIndex[I Index](index I, trg []byte) {
	switch unsafe.Sizeof(index) {
	case 1:
		trg[0] = byte(index)
	case 2:
		binary.BigEndian.PutUint16(trg, uint16(index))
	case 4:
		binary.BigEndian.PutUint32(trg, uint32(index))
	default:
		binary.BigEndian.PutUint64(trg, uint64(index))
	}
}

// DecodeIndex decodes an index value from its persistent binary form.
func DecodeIndex[I Index](src []byte) I {
	var index I
	switch unsafe.Sizeof(index) {
	case 1:
		return I(src[0])
	case 2:
		return I(binary.BigEndian.Uint16(src))
	case 4:
		return I(binary.BigEndian.Uint32(src))
	default:
		return I(binary.BigEndian.Uint64(src))
	}
}

// IndexSize is the number of bytes used by EncodeIndex for index type I.
func IndexSize[I Index]() int {
	var index I
	return int(unsafe.Sizeof(index))
}

// IndexEncoder is a ValueEncoder for index values, used for storing slot
// references.
type IndexEncoder[I Index] struct{}

func (IndexEncoder[I]) GetEncodedSize() int {
	return IndexSize[I]()
}

func (e IndexEncoder[I]) Load(src []byte, value *I) error {
	if err := CheckEncodedSize("load", src, e.GetEncodedSize()); err != nil {
		return err
	}
	*value = DecodeIndex[I](src)
	return nil
}

func (e IndexEncoder[I]) Store(trg []byte, value *I) error {
	if err := CheckEncodedSize("store", trg, e.GetEncodedSize()); err != nil {
		return err
	}
	EncodeIndex(*value, trg)
	return nil
}
