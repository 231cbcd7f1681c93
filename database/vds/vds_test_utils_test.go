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
	"fmt"
	"testing"

	"github.com/vmerkle/vmerkle/backend/index"
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
)

type testSource = DataSource[uint64, uint64]

type namedConfig struct {
	name   string
	params func(directory string) Parameters
}

var volatileConfig = namedConfig{"volatile", func(string) Parameters {
	return Parameters{}
}}

// persistentConfigs covers all combinations of stock and index variants
// backed by a directory.
var persistentConfigs = func() []namedConfig {
	var res []namedConfig
	for _, stockVariant := range []Variant{FileVariant, MemoryVariant} {
		for _, indexVariant := range []Variant{FileVariant, LevelDbVariant, MemoryVariant} {
			stockVariant, indexVariant := stockVariant, indexVariant
			res = append(res, namedConfig{
				name: fmt.Sprintf("%s-%s", stockVariant, indexVariant),
				params: func(directory string) Parameters {
					return Parameters{
						Directory:    directory,
						StockVariant: stockVariant,
						IndexVariant: indexVariant,
						PagePoolSize: 8,
						IndexBuckets: 4,
					}
				},
			})
		}
	}
	return res
}()

var allConfigs = append([]namedConfig{volatileConfig}, persistentConfigs...)

func openTestSource(t *testing.T, params Parameters) *testSource {
	t.Helper()
	ds, err := OpenDataSource[uint64, uint64](params, common.Uint64Serializer{}, common.Uint64Serializer{}, index.IdentityHasher[uint64]{})
	if err != nil {
		t.Fatalf("failed to open data source: %v", err)
	}
	return ds
}

func hashOf(i int) common.Hash {
	return common.Sha384(common.Uint64Serializer{}.ToBytes(uint64(i)))
}

// collidingHasher maps all keys to a few derived keys, forcing the data
// source to disambiguate index candidates.
type collidingHasher struct{}

func (collidingHasher) Hash(key *uint64) uint64 {
	return *key % 3
}

// update runs the given mutations in a single transaction.
func update(t *testing.T, ds *testSource, mutate func(tx *Transaction[uint64, uint64]) error) {
	t.Helper()
	tx, err := ds.StartTransaction()
	if err != nil {
		t.Fatalf("failed to start transaction: %v", err)
	}
	if err := mutate(tx); err != nil {
		t.Fatalf("failed to stage mutations: %v", err)
	}
	if err := ds.CommitTransaction(tx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}
}

// addLeaves adds leaves with key and value i at path i for all i in [from, to).
func addLeaves(t *testing.T, ds *testSource, from, to int) {
	t.Helper()
	update(t, ds, func(tx *Transaction[uint64, uint64]) error {
		for i := from; i < to; i++ {
			if err := ds.AddLeaf(tx, path.Path(i), uint64(i), uint64(i), hashOf(i)); err != nil {
				return err
			}
		}
		return nil
	})
}
