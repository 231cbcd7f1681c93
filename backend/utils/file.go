// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package utils

import (
	"io/fs"
	"os"
)

//go:generate mockgen -source file.go -destination file_mocks.go -package utils

// OsFile is the subset of *os.File operations used by file-backed stores.
// It is provided to enable the injection of I/O failures in tests.
type OsFile interface {
	Write(b []byte) (n int, err error)
	Stat() (os.FileInfo, error)
	Seek(offset int64, whence int) (ret int64, err error)
	Read(p []byte) (n int, err error)
	Sync() error
	Close() error
}

type FileInfo interface {
	fs.FileInfo
}
