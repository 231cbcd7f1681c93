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
	"os"
	"runtime/pprof"

	"github.com/urfave/cli/v2"
	"github.com/vmerkle/vmerkle/backend/index"
	"github.com/vmerkle/vmerkle/common"
	"github.com/vmerkle/vmerkle/database/vds"
	"github.com/vmerkle/vmerkle/database/vmap"
)

var (
	dbDirectoryFlag = cli.StringFlag{
		Name:     "dir",
		Usage:    "the targeted directory",
		Required: true,
	}
	stockVariantFlag = cli.StringFlag{
		Name:  "stock",
		Usage: "the slot store variant, file or memory",
		Value: string(vds.FileVariant),
	}
	indexVariantFlag = cli.StringFlag{
		Name:  "index",
		Usage: "the long index variant, file, ldb or memory",
		Value: string(vds.FileVariant),
	}
	cpuProfilingFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enable the recording of a CPU profile",
	}
)

// variantFlags are accepted by all commands opening a directory.
var variantFlags = []cli.Flag{
	&dbDirectoryFlag,
	&stockVariantFlag,
	&indexVariantFlag,
}

// treeMap is the map type handled by the tools, keyed by integers and
// holding hashes as values.
type treeMap = vmap.VirtualMap[uint64, common.Hash]

func open(ctx *cli.Context) (*treeMap, error) {
	return vmap.OpenVirtualMap[uint64, common.Hash](
		vds.Parameters{
			Directory:    ctx.String(dbDirectoryFlag.Name),
			StockVariant: vds.Variant(ctx.String(stockVariantFlag.Name)),
			IndexVariant: vds.Variant(ctx.String(indexVariantFlag.Name)),
		},
		common.Uint64Serializer{},
		common.HashSerializer{},
		index.IdentityHasher[uint64]{},
	)
}

// withMap opens the map of the directory selected on the command line, runs
// the given action on it and closes it again.
func withMap(ctx *cli.Context, action func(*treeMap) error) (err error) {
	dir := ctx.String(dbDirectoryFlag.Name)
	log.Printf("Opening data source in %v ...", dir)
	m, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		log.Printf("Closing data source in %v ...", dir)
		if closeError := m.Close(); closeError != nil {
			if err == nil {
				err = closeError
			} else {
				log.Printf("Failure closing data source: %v", closeError)
			}
		}
	}()
	return action(m)
}

func StartCPUProfile(profileName string) error {
	f, err := os.Create(profileName)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}

func StopCPUProfile() {
	pprof.StopCPUProfile()
}
