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
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// HashSize is the length of a node hash in bytes, matching a 384-bit digest.
const HashSize = 48

// Hash is the digest associated with every occupied path of a virtual tree.
// The storage engine treats it as an opaque fixed-length byte string.
type Hash [HashSize]byte

func (h Hash) String() string {
	return hexutil.Encode(h[:])
}

// IsZero reports whether all bytes of the hash are zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Sha384 computes the SHA3-384 digest of the concatenation of the given
// byte slices. It is the hash function provider used by the virtual map and
// the tools; the storage layer itself never hashes.
func Sha384(data ...[]byte) Hash {
	hasher := sha3.New384()
	for _, cur := range data {
		hasher.Write(cur)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}

// HashSerializer is a Serializer of the Hash type
type HashSerializer struct{}

func (HashSerializer) ToBytes(hash Hash) []byte {
	return hash[:]
}

func (HashSerializer) CopyBytes(hash Hash, out []byte) {
	copy(out, hash[:])
}

func (HashSerializer) FromBytes(bytes []byte) Hash {
	var hash Hash
	copy(hash[:], bytes)
	return hash
}

func (HashSerializer) Size() int {
	return HashSize
}
