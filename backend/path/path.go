// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package path provides the arithmetic of breadth-first node positions in a
// complete binary tree. The root has path 0, the children of node p are
// 2p+1 and 2p+2. All functions are pure and accept any input.
package path

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// Path is the breadth-first position of a node in a virtual binary tree.
type Path uint64

// Root is the path of the root node.
const Root Path = 0

// Parent returns the path of the parent node. The root has no parent, in
// which case false is returned.
func Parent(p Path) (Path, bool) {
	if p == Root {
		return Root, false
	}
	return (p - 1) / 2, true
}

// LeftChild returns the path of the left child node. The result wraps around
// modulo 2^64 for p >= 2^63.
func LeftChild(p Path) Path {
	return 2*p + 1
}

// RightChild returns the path of the right child node. The result wraps
// around modulo 2^64 for p >= 2^63-1.
func RightChild(p Path) Path {
	return 2*p + 2
}

// IsLeft reports whether p is the left child of its parent. The root is
// neither a left nor a right child.
func IsLeft(p Path) bool {
	return p != Root && p%2 == 1
}

// Sibling returns the other child of the parent of p. The root has no
// sibling, in which case false is returned.
func Sibling(p Path) (Path, bool) {
	if p == Root {
		return Root, false
	}
	if IsLeft(p) {
		return p + 1, true
	}
	return p - 1, true
}

// Depth returns the level of the node, the root having depth 0.
func Depth(p Path) int {
	// nodes of depth d occupy the interval [2^d-1, 2^(d+1)-2]
	if p == math.MaxUint64 {
		return 64
	}
	return bits.Len64(uint64(p)+1) - 1
}

// IsLeaf reports whether p lies within the leaf region [first, last].
func IsLeaf(p, first, last Path) bool {
	return first <= p && p <= last
}

func (p Path) String() string {
	return fmt.Sprintf("path(%d)", uint64(p))
}

// Serializer is a Serializer of the Path type.
type Serializer struct{}

func (Serializer) ToBytes(p Path) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), uint64(p))
}

func (Serializer) CopyBytes(p Path, out []byte) {
	binary.BigEndian.PutUint64(out, uint64(p))
}

func (Serializer) FromBytes(bytes []byte) Path {
	return Path(binary.BigEndian.Uint64(bytes))
}

func (Serializer) Size() int {
	return 8
}
