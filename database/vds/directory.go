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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/backend/utils"
	"github.com/vmerkle/vmerkle/common"
)

const (
	lockFileName     = "~lock"
	dirtyFileName    = "~dirty"
	metadataFileName = "vds.json"

	internalsDirectory     = "internals"
	leavesDirectory        = "leaves"
	internalSlotsDirectory = "internal-slots"
	leafSlotsDirectory     = "leaf-slots"
	indexDirectory         = "index"

	formatVersion = 1
)

// metadata is the content of the vds.json file of a data source directory.
type metadata struct {
	Version       int
	KeySize       int
	ValueSize     int
	FirstLeafPath uint64
	LastLeafPath  uint64
}

func (m metadata) leafRange() path.LeafRange {
	return path.NewLeafRange(path.Path(m.FirstLeafPath), path.Path(m.LastLeafPath))
}

// lockDirectory acquires a lock on the given directory, creating it if needed.
//
// Note: if successful, the acquired lock needs to be explicitly released.
// The lock is not automatically released when the process is terminated.
func lockDirectory(directory string) (common.LockFile, error) {
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, err
	}
	lock, err := common.CreateLockFile(filepath.Join(directory, lockFileName))
	if err != nil {
		return nil, fmt.Errorf("unable to gain exclusive access to %s: %w", directory, err)
	}
	return lock, nil
}

// isDirty checks whether the given directory is marked as dirty. The mark
// is represented by the presence of a file in the respective directory.
func isDirty(directory string) (bool, error) {
	info, err := os.Stat(directory)
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s is not a directory", directory)
	}
	stat, err := os.Stat(filepath.Join(directory, dirtyFileName))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil && !stat.IsDir(), err
}

// markDirty marks the given directory as dirty, and thus, potentially
// corrupted. Data sources keep their directory marked as long as they are
// open and only clear the mark if they got successfully closed.
func markDirty(directory string) error {
	return os.WriteFile(filepath.Join(directory, dirtyFileName), []byte{}, 0600)
}

func markClean(directory string) error {
	return os.Remove(filepath.Join(directory, dirtyFileName))
}

// openDirectory locks the directory and marks it dirty. Directories not
// closed cleanly before are refused.
func openDirectory(directory string) (common.LockFile, error) {
	lock, err := lockDirectory(directory)
	if err != nil {
		return nil, err
	}
	dirty, err := isDirty(directory)
	if err == nil && dirty {
		err = common.IntegrityViolation("open", "unable to open %s, content is dirty, likely corrupted", directory)
	}
	if err == nil {
		err = markDirty(directory)
	}
	if err != nil {
		return nil, errors.Join(err, lock.Release())
	}
	return lock, nil
}

// readMetadata loads the metadata of the given directory and checks it
// against the record sizes of the opening data source. A directory without
// metadata yields fresh metadata.
func readMetadata(directory string, keySize, valueSize int) (metadata, error) {
	fresh := metadata{
		Version:       formatVersion,
		KeySize:       keySize,
		ValueSize:     valueSize,
		FirstLeafPath: uint64(path.EmptyLeafRange.First),
		LastLeafPath:  uint64(path.EmptyLeafRange.Last),
	}
	file := filepath.Join(directory, metadataFileName)
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return fresh, nil
	}
	meta, err := utils.ReadJsonFile[metadata](file)
	if err != nil {
		return meta, err
	}
	if meta.Version != formatVersion {
		return meta, fmt.Errorf("unsupported format version %d", meta.Version)
	}
	if meta.KeySize != keySize || meta.ValueSize != valueSize {
		return meta, fmt.Errorf("record size mismatch, stored key/value sizes %d/%d, requested %d/%d", meta.KeySize, meta.ValueSize, keySize, valueSize)
	}
	return meta, nil
}

func writeMetadata(directory string, meta metadata) error {
	return utils.WriteJsonFile(filepath.Join(directory, metadataFileName), meta)
}
