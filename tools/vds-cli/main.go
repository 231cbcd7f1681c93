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
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

// Run using
//  go run ./tools/vds-cli <command> <flags>

var verbosityFlag = cli.IntFlag{
	Name:  "verbosity",
	Usage: "log level of the data source, 0 = critical ... 5 = trace",
	Value: int(log.LvlWarn),
}

func main() {
	app := &cli.App{
		Name:      "Virtual Data Source Toolbox",
		HelpName:  "vds",
		Usage:     "Create, inspect and check virtual data source directories",
		Copyright: "(c) 2024 Fantom Foundation",
		Flags:     []cli.Flag{&verbosityFlag},
		Before:    setupLogging,
		Commands: []*cli.Command{
			&getInfoCommand,
			&verifyCommand,
			&populateCommand,
			&dumpCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging routes the structured logs of the data source to stderr.
func setupLogging(ctx *cli.Context) error {
	level := ctx.Int(verbosityFlag.Name)
	if level < int(log.LvlCrit) || level > int(log.LvlTrace) {
		return fmt.Errorf("invalid verbosity %d", level)
	}
	log.Root().SetHandler(log.LvlFilterHandler(
		log.Lvl(level),
		log.StreamHandler(os.Stderr, log.TerminalFormat(false)),
	))
	return nil
}
