// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vds

import (
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/backend/stock"
	"github.com/vmerkle/vmerkle/common"
)

// internalRecord is the content of a slot of the internal node store. The
// path is kept next to the hash to detect and recover stale slot mappings.
type internalRecord struct {
	Path path.Path
	Hash common.Hash
}

type internalEncoder struct{}

func (internalEncoder) GetEncodedSize() int {
	return 8 + len(common.Hash{})
}

func (e internalEncoder) Store(trg []byte, value *internalRecord) error {
	if err := stock.CheckEncodedSize("store", trg, e.GetEncodedSize()); err != nil {
		return err
	}
	path.Serializer{}.CopyBytes(value.Path, trg[0:8])
	copy(trg[8:], value.Hash[:])
	return nil
}

func (e internalEncoder) Load(src []byte, value *internalRecord) error {
	if err := stock.CheckEncodedSize("load", src, e.GetEncodedSize()); err != nil {
		return err
	}
	value.Path = path.Serializer{}.FromBytes(src[0:8])
	copy(value.Hash[:], src[8:])
	return nil
}

// leafRecord is the content of a slot of the leaf store.
type leafRecord[K comparable, V any] struct {
	Path  path.Path
	Key   K
	Value V
	Hash  common.Hash
}

// leafEncoder lays out leaf records as path, key, value, and hash.
type leafEncoder[K comparable, V any] struct {
	keys   common.Serializer[K]
	values common.Serializer[V]
}

func (e leafEncoder[K, V]) GetEncodedSize() int {
	return 8 + e.keys.Size() + e.values.Size() + len(common.Hash{})
}

func (e leafEncoder[K, V]) Store(trg []byte, value *leafRecord[K, V]) error {
	if err := stock.CheckEncodedSize("store", trg, e.GetEncodedSize()); err != nil {
		return err
	}
	keyEnd := 8 + e.keys.Size()
	valueEnd := keyEnd + e.values.Size()
	path.Serializer{}.CopyBytes(value.Path, trg[0:8])
	e.keys.CopyBytes(value.Key, trg[8:keyEnd])
	e.values.CopyBytes(value.Value, trg[keyEnd:valueEnd])
	copy(trg[valueEnd:], value.Hash[:])
	return nil
}

func (e leafEncoder[K, V]) Load(src []byte, value *leafRecord[K, V]) error {
	if err := stock.CheckEncodedSize("load", src, e.GetEncodedSize()); err != nil {
		return err
	}
	keyEnd := 8 + e.keys.Size()
	valueEnd := keyEnd + e.values.Size()
	value.Path = path.Serializer{}.FromBytes(src[0:8])
	value.Key = e.keys.FromBytes(src[8:keyEnd])
	value.Value = e.values.FromBytes(src[keyEnd:valueEnd])
	copy(value.Hash[:], src[valueEnd:])
	return nil
}
