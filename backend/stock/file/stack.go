// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package file

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/vmerkle/vmerkle/backend/stock"
	"github.com/vmerkle/vmerkle/common"
)

// stackBufferSize a constant defining the batch size of elements buffered in
// memory by the fileBasedStack implementation below.
const stackBufferSize = 1_024

// fileBasedStack is a file-backed stack of integer values. The top-most
// partial batch of elements is kept in memory, full batches are written to
// the file and loaded back when the buffer runs empty.
type fileBasedStack[I stock.Index] struct {
	file         *os.File
	size         int
	buffer       []I
	bufferOffset int
}

func openFileBasedStack[I stock.Index](filename string) (*fileBasedStack[I], error) {
	size := 0
	valueSize := stock.IndexSize[I]()
	if stats, err := os.Stat(filename); err == nil {
		fileSize := stats.Size()
		if fileSize%int64(valueSize) != 0 {
			return nil, fmt.Errorf("invalid stack file size %d, expected multiple of %d", fileSize, valueSize)
		}
		size = int(fileSize) / valueSize
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	res := &fileBasedStack[I]{
		file:         file,
		size:         size,
		buffer:       make([]I, 0, stackBufferSize),
		bufferOffset: size - size%stackBufferSize,
	}
	if err := res.load(size % stackBufferSize); err != nil {
		file.Close()
		return nil, err
	}
	return res, nil
}

func (s *fileBasedStack[I]) Size() int {
	return s.size
}

func (s *fileBasedStack[I]) Empty() bool {
	return s.size == 0
}

func (s *fileBasedStack[I]) Push(value I) error {
	s.buffer = append(s.buffer, value)
	s.size++
	if len(s.buffer) == cap(s.buffer) {
		if err := s.flushBuffer(); err != nil {
			return err
		}
		s.bufferOffset += len(s.buffer)
		s.buffer = s.buffer[0:0]
	}
	return nil
}

func (s *fileBasedStack[I]) Pop() (I, error) {
	if s.size <= 0 {
		return 0, fmt.Errorf("cannot pop from empty stack")
	}
	if len(s.buffer) == 0 {
		s.bufferOffset -= cap(s.buffer)
		if err := s.load(cap(s.buffer)); err != nil {
			s.bufferOffset += cap(s.buffer)
			return 0, err
		}
	}
	last := len(s.buffer) - 1
	res := s.buffer[last]
	s.buffer = s.buffer[0:last]
	s.size--
	return res, nil
}

// GetAll returns all elements of the stack, bottom to top.
func (s *fileBasedStack[I]) GetAll() ([]I, error) {
	res := make([]I, 0, s.size)
	if s.bufferOffset > 0 {
		data, err := s.read(0, s.bufferOffset)
		if err != nil {
			return nil, err
		}
		res = append(res, data...)
	}
	return append(res, s.buffer...), nil
}

// load fills the buffer with n elements read from the buffer offset.
func (s *fileBasedStack[I]) load(n int) error {
	data, err := s.read(s.bufferOffset, n)
	if err != nil {
		return err
	}
	s.buffer = append(s.buffer[0:0], data...)
	return nil
}

func (s *fileBasedStack[I]) read(from, n int) ([]I, error) {
	if n == 0 {
		return nil, nil
	}
	valueSize := stock.IndexSize[I]()
	if _, err := s.file.Seek(int64(valueSize*from), io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, n*valueSize)
	if _, err := io.ReadFull(s.file, data); err != nil {
		return nil, err
	}
	res := make([]I, n)
	for i := range res {
		res[i] = stock.DecodeIndex[I](data[i*valueSize:])
	}
	return res, nil
}

func (s *fileBasedStack[I]) flushBuffer() error {
	valueSize := stock.IndexSize[I]()
	if _, err := s.file.Seek(int64(valueSize*s.bufferOffset), io.SeekStart); err != nil {
		return err
	}
	data := make([]byte, len(s.buffer)*valueSize)
	for i, value := range s.buffer {
		stock.EncodeIndex(value, data[i*valueSize:])
	}
	_, err := s.file.Write(data)
	return err
}

func (s *fileBasedStack[I]) Flush() error {
	if err := s.flushBuffer(); err != nil {
		return err
	}
	// Truncate file to needed size.
	if err := s.file.Truncate(int64(s.size * stock.IndexSize[I]())); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *fileBasedStack[I]) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}

func (s *fileBasedStack[I]) GetMemoryFootprint() *common.MemoryFootprint {
	res := common.NewMemoryFootprint(unsafe.Sizeof(*s))
	res.AddChild("buffer", common.NewMemoryFootprint(uintptr(stock.IndexSize[I]()*cap(s.buffer))))
	return res
}
