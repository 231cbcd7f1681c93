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
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LockFile marks the exclusive ownership of a resource, typically a
// directory, by the current process. The lock is a file created atomically
// in the file system holding the ID of the owning process. It is deleted on
// release.
//
// Locks not released by a process stay in place after the process ends.
type LockFile interface {
	// Release deletes the lock file. A lock may only be released once.
	Release() error
	// Valid reports whether the lock has not been released yet.
	Valid() bool
}

type lockFile struct {
	path     string
	released bool
}

// CreateLockFile atomically creates the file at the given path and takes
// ownership of it. It fails if the file already exists.
func CreateLockFile(path string) (LockFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if owner, ownerErr := ReadLockOwner(path); ownerErr == nil {
			return nil, fmt.Errorf("failed to acquire file lock held by process %d: %w", owner, err)
		}
		return nil, fmt.Errorf("failed to acquire file lock: %w", err)
	}
	_, err = f.WriteString(strconv.Itoa(os.Getpid()))
	if err = errors.Join(err, f.Close()); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to record lock owner: %w", err), os.Remove(path))
	}
	return &lockFile{path: path}, nil
}

// ReadLockOwner returns the ID of the process that created the lock file at
// the given path.
func ReadLockOwner(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func (l *lockFile) Valid() bool {
	return l.path != "" && !l.released
}

func (l *lockFile) Release() error {
	if !l.Valid() {
		return fmt.Errorf("unable to release invalid lock")
	}
	l.released = true
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("failed to release file lock: %w", err)
	}
	return nil
}
