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
	"strings"
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestHash_Sha384MatchesReference(t *testing.T) {
	data := []byte("hello world")
	want := Hash(sha3.Sum384(data))
	if got := Sha384(data); got != want {
		t.Errorf("unexpected hash, wanted %v, got %v", want, got)
	}
	if got := Sha384([]byte("hello "), []byte("world")); got != want {
		t.Errorf("hash of parts should equal hash of concatenation")
	}
}

func TestHash_StringIsHexEncoded(t *testing.T) {
	h := Hash{0x12, 0xab}
	str := h.String()
	if !strings.HasPrefix(str, "0x12ab") || len(str) != 2+2*HashSize {
		t.Errorf("unexpected string representation: %v", str)
	}
	if !(Hash{}).IsZero() || h.IsZero() {
		t.Errorf("unexpected zero check result")
	}
}

func TestHashSerializer_RoundTrip(t *testing.T) {
	s := HashSerializer{}
	h := Sha384([]byte{1, 2, 3})
	buffer := make([]byte, s.Size())
	s.CopyBytes(h, buffer)
	if got := s.FromBytes(buffer); got != h {
		t.Errorf("unexpected hash after round trip: %v", got)
	}
	if got := s.FromBytes(s.ToBytes(h)); got != h {
		t.Errorf("unexpected hash after round trip: %v", got)
	}
}
