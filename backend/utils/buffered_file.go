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
	"errors"
	"fmt"
	"io"
	"os"
)

// BufferedFile provides random access to a file through a single cached
// block. Writes are collected in the block and written back when another
// block is accessed, on Flush, and on Close. The file grows in whole blocks,
// its size on disk is always a multiple of the block size.
//
// The first failing write or sync poisons the file: all later operations
// fail with the same cause since the content on disk may be incomplete.
type BufferedFile struct {
	file     OsFile
	size     int64 // bytes on disk
	position int64 // position of the file cursor, -1 if unknown
	block    block
	failure  error
}

// block is the cached section [offset, offset+blockSize) of the file.
type block struct {
	offset int64
	data   [blockSize]byte
	dirty  bool
}

const blockSize = 1 << 12

// OpenBufferedFile opens the file at the given path for read/write operations.
// If it does not exist, a new file is implicitly created.
func OpenBufferedFile(path string) (*BufferedFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	return openBufferedFile(f)
}

func openBufferedFile(f OsFile) (*BufferedFile, error) {
	stats, err := f.Stat()
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	size := stats.Size()
	if size%blockSize != 0 {
		return nil, errors.Join(
			fmt.Errorf("invalid file size, got %d, expected multiple of %d", size, blockSize),
			f.Close(),
		)
	}
	res := &BufferedFile{file: f, size: size}
	if err := res.readFile(0, res.block.data[:]); err != nil {
		return nil, errors.Join(err, f.Close())
	}
	return res, nil
}

// Size returns the number of bytes covered by the file, including written
// data not yet on disk.
func (f *BufferedFile) Size() int64 {
	if f.block.dirty {
		return max(f.size, f.block.offset+blockSize)
	}
	return f.size
}

// WriteAt writes the given data at the given position. The file is extended
// if the position is beyond its end.
func (f *BufferedFile) WriteAt(src []byte, position int64) (int, error) {
	if f.failure != nil {
		return 0, f.failure
	}
	if position < 0 {
		return 0, fmt.Errorf("cannot write at negative position: %d", position)
	}
	written := 0
	for len(src) > 0 {
		offset := position - position%blockSize
		if err := f.load(offset); err != nil {
			return written, err
		}
		n := copy(f.block.data[position-offset:], src)
		f.block.dirty = true
		src = src[n:]
		position += int64(n)
		written += n
	}
	return written, nil
}

// ReadAt reads data starting at the given position. Sections beyond the end
// of the file read as zeros.
func (f *BufferedFile) ReadAt(dst []byte, position int64) (int, error) {
	if f.failure != nil {
		return 0, f.failure
	}
	if position < 0 {
		return 0, fmt.Errorf("cannot read at negative position: %d", position)
	}
	read := 0
	for len(dst) > 0 {
		offset := position - position%blockSize
		n := min(len(dst), int(offset+blockSize-position))
		if offset == f.block.offset {
			copy(dst[:n], f.block.data[position-offset:])
		} else if err := f.readFile(position, dst[:n]); err != nil {
			return read, err
		}
		dst = dst[n:]
		position += int64(n)
		read += n
	}
	return read, nil
}

// load makes the block starting at the given offset the cached block.
func (f *BufferedFile) load(offset int64) error {
	if f.block.offset == offset {
		return nil
	}
	if err := f.writeBack(); err != nil {
		return err
	}
	if err := f.readFile(offset, f.block.data[:]); err != nil {
		return err
	}
	f.block.offset = offset
	return nil
}

func (f *BufferedFile) writeBack() error {
	if !f.block.dirty {
		return nil
	}
	if err := f.writeFile(f.block.offset, f.block.data[:]); err != nil {
		f.failure = err
		return err
	}
	f.block.dirty = false
	return nil
}

func (f *BufferedFile) writeFile(position int64, src []byte) error {
	// Gaps between the end of the file and the position are zero-filled.
	if f.size < position {
		data := make([]byte, position-f.size+int64(len(src)))
		copy(data[position-f.size:], src)
		return f.writeFile(f.size, data)
	}
	if err := f.seek(position); err != nil {
		return err
	}
	n, err := f.file.Write(src)
	f.position += int64(n)
	if f.position > f.size {
		f.size = f.position
	}
	if err != nil {
		f.position = -1
		return err
	}
	if n != len(src) {
		f.position = -1
		return fmt.Errorf("short write, wanted %d bytes, wrote %d", len(src), n)
	}
	return nil
}

func (f *BufferedFile) readFile(position int64, dst []byte) error {
	covered := max(0, min(int64(len(dst)), f.size-position))
	clear(dst[covered:])
	if covered == 0 {
		return nil
	}
	if err := f.seek(position); err != nil {
		return err
	}
	n, err := io.ReadFull(f.file, dst[:covered])
	f.position += int64(n)
	if err != nil {
		f.position = -1
	}
	return err
}

func (f *BufferedFile) seek(position int64) error {
	if f.position == position {
		return nil
	}
	pos, err := f.file.Seek(position, io.SeekStart)
	if err != nil || pos != position {
		f.position = -1
		return errors.Join(err, fmt.Errorf("failed to seek to %d, reached %d", position, pos))
	}
	f.position = position
	return nil
}

// Flush writes back cached data and syncs the file to the storage device.
func (f *BufferedFile) Flush() error {
	if f.failure != nil {
		return f.failure
	}
	if err := f.writeBack(); err != nil {
		return err
	}
	if err := f.file.Sync(); err != nil {
		f.failure = err
		return err
	}
	return nil
}

// Close flushes and closes the file.
func (f *BufferedFile) Close() error {
	return errors.Join(f.Flush(), f.file.Close())
}
