// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/vmerkle/vmerkle/common"
	"github.com/vmerkle/vmerkle/database/vmap"
)

var (
	numLeavesFlag = cli.IntFlag{
		Name:  "num-leaves",
		Usage: "the number of leaves to be added",
		Value: 1000,
	}
	batchSizeFlag = cli.IntFlag{
		Name:  "batch-size",
		Usage: "the number of leaves added per transaction",
		Value: 100,
	}
)

var populateCommand = cli.Command{
	Action: populate,
	Name:   "populate",
	Usage:  "adds synthetic leaves to a data source directory and prints the resulting root hash",
	Flags: append([]cli.Flag{
		&numLeavesFlag,
		&batchSizeFlag,
		&cpuProfilingFlag,
	}, variantFlags...),
}

func populate(ctx *cli.Context) error {
	profileTarget := ctx.String(cpuProfilingFlag.Name)
	if len(profileTarget) != 0 {
		if err := StartCPUProfile(profileTarget); err != nil {
			return err
		}
		defer StopCPUProfile()
	}

	numLeaves := ctx.Int(numLeavesFlag.Name)
	batchSize := ctx.Int(batchSizeFlag.Name)
	if numLeaves < 0 || batchSize <= 0 {
		return fmt.Errorf("invalid number of leaves %d or batch size %d", numLeaves, batchSize)
	}

	return withMap(ctx, func(m *treeMap) error {
		offset := uint64(m.Size())
		log.Printf("Adding %d leaves to %d existing leaves ...", numLeaves, offset)
		start := time.Now()
		for from := 0; from < numLeaves; from += batchSize {
			to := min(from+batchSize, numLeaves)
			err := m.Update(func(batch *vmap.Batch[uint64, common.Hash]) error {
				for i := from; i < to; i++ {
					key := offset + uint64(i)
					if err := batch.Put(key, common.Sha384(common.Uint64Serializer{}.ToBytes(key))); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			if to%(100*batchSize) == 0 {
				log.Printf("Added %d leaves ...", to)
			}
		}
		log.Printf("Adding leaves took %.1f seconds", time.Since(start).Seconds())

		hash, err := m.RootHash()
		if err != nil {
			return err
		}
		fmt.Printf("Leaves: %d\n", m.Size())
		fmt.Printf("Root hash: %v\n", hash)
		return nil
	})
}
