// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package array

import (
	"github.com/vmerkle/vmerkle/common"
	"golang.org/x/exp/constraints"
)

// Index defines the type constraints on array index types.
type Index interface {
	constraints.Integer
}

// Array is a structure that allows to store and fetch a value to/from ordinal indexes.
// Positions never written hold the zero value of V.
type Array[I Index, V any] interface {
	// Set creates a new mapping from the index to the value
	Set(id I, value V) error

	// Get a value associated with the index (or a default value if not defined)
	Get(id I) (V, error)

	// provides the size of the store in memory in bytes
	common.MemoryFootprintProvider

	// Also, arrays need to be flush and closable.
	common.FlushAndCloser
}
