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
	"github.com/ethereum/go-ethereum/log"
)

// NewLogger returns a structured logger for the named module. All entries
// carry the module name as their first context value and are routed through
// the process-wide root logger.
func NewLogger(module string, ctx ...any) log.Logger {
	return log.New(append([]any{"module", module}, ctx...)...)
}
