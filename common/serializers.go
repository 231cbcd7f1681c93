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

import "encoding/binary"

// Uint64Serializer is a Serializer of uint64 values using big-endian order.
type Uint64Serializer struct{}

func (Uint64Serializer) ToBytes(value uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), value)
}

func (Uint64Serializer) CopyBytes(value uint64, out []byte) {
	binary.BigEndian.PutUint64(out, value)
}

func (Uint64Serializer) FromBytes(bytes []byte) uint64 {
	return binary.BigEndian.Uint64(bytes)
}

func (Uint64Serializer) Size() int {
	return 8
}
