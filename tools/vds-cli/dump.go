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
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
	"github.com/vmerkle/vmerkle/database/vds"
)

var (
	fromPathFlag = cli.Uint64Flag{
		Name:  "from",
		Usage: "the first path to be printed",
	}
	toPathFlag = cli.Uint64Flag{
		Name:  "to",
		Usage: "the last path to be printed",
		Value: 15,
	}
)

var dumpCommand = cli.Command{
	Action: dump,
	Name:   "dump",
	Usage:  "prints the hashes stored for an interval of paths",
	Flags: append([]cli.Flag{
		&fromPathFlag,
		&toPathFlag,
	}, variantFlags...),
}

func dump(ctx *cli.Context) error {
	from := path.Path(ctx.Uint64(fromPathFlag.Name))
	to := path.Path(ctx.Uint64(toPathFlag.Name))
	if from > to {
		return fmt.Errorf("empty path interval [%v, %v]", from, to)
	}
	return withMap(ctx, func(m *treeMap) error {
		source := m.Source()
		leaves := source.LeafPathRange()
		for p := from; ; p++ {
			if err := dumpPath(source, leaves, p); err != nil {
				return err
			}
			if p == to {
				return nil
			}
		}
	})
}

func dumpPath(source *vds.DataSource[uint64, common.Hash], leaves path.LeafRange, p path.Path) error {
	hash, err := source.LoadHash(p)
	if errors.Is(err, vds.ErrNotFound) {
		fmt.Printf("%v: -\n", p)
		return nil
	}
	if err != nil {
		return err
	}
	if !leaves.Contains(p) {
		fmt.Printf("%v: %v\n", p, hash)
		return nil
	}
	key, err := source.LoadLeafKey(p)
	if err != nil {
		return err
	}
	fmt.Printf("%v: %v (key %d)\n", p, hash, key)
	return nil
}
