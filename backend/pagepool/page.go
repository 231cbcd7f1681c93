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

import "github.com/vmerkle/vmerkle/common"

// Page is a fixed-size unit of data exchanged between a PagePool and its
// PageStorage.
type Page interface {
	common.MemoryFootprintProvider

	// Size returns the number of bytes of the serialized page.
	Size() int

	// IsDirty reports whether the page was modified since it was last
	// loaded or stored.
	IsDirty() bool

	// SetDirty updates the dirty flag.
	SetDirty(dirty bool)

	// Clear resets the page to its empty state.
	Clear()

	// FromBytes restores the page from its serialized form.
	FromBytes(data []byte)

	// ToBytes serializes the page into the given slice of Size bytes.
	ToBytes(data []byte)
}
