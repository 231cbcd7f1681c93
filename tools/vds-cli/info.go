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

	"github.com/urfave/cli/v2"
)

var getInfoCommand = cli.Command{
	Action: getInfo,
	Name:   "info",
	Usage:  "prints summary information about a data source directory",
	Flags:  variantFlags,
}

func getInfo(ctx *cli.Context) error {
	return withMap(ctx, func(m *treeMap) error {
		source := m.Source()
		fmt.Printf("Leaf range: %v\n", source.LeafPathRange())
		fmt.Printf("Leaves: %d\n", source.LeafCount())

		log.Printf("Loading root hash ...")
		hash, err := m.RootHash()
		if err != nil {
			return err
		}
		fmt.Printf("Root hash: %v\n", hash)
		fmt.Printf("Memory footprint:\n%v", m.GetMemoryFootprint())
		return nil
	})
}
