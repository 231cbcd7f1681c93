// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"fmt"
	"io"
)

// Flusher is any type that can be flushed.
type Flusher interface {
	Flush() error
}

type FlushAndCloser interface {
	Flusher
	io.Closer
}

type MemoryFootprintProvider interface {
	GetMemoryFootprint() *MemoryFootprint
}

// Hasher reduces a key to a 64-bit value. Implementations must be
// deterministic; collisions are tolerated by all users.
type Hasher[K any] interface {
	Hash(*K) uint64
}

// Serializer converts values of a type to and from a fixed-size binary form.
// Size declares the exact number of bytes produced by ToBytes and consumed by
// FromBytes. Variable-length payloads must be bounded or length-prefixed
// within that budget by the implementation.
type Serializer[T any] interface {
	// ToBytes returns the binary form of the value.
	ToBytes(T) []byte
	// CopyBytes writes the binary form of the value into the given slice.
	CopyBytes(T, []byte)
	// FromBytes restores a value from its binary form.
	FromBytes([]byte) T
	// Size is the length of the binary form in bytes.
	Size() int
}

// MapEntry is a single key/value pair of a map-like structure.
type MapEntry[K comparable, V any] struct {
	Key K
	Val V
}

func (e MapEntry[K, V]) String() string {
	return fmt.Sprintf("Entry: %v -> %v", e.Key, e.Val)
}
