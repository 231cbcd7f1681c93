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
	"sync"
	"unsafe"

	"github.com/vmerkle/vmerkle/common"
)

// PagedFile provides positional read and write access to a file through an
// in-memory cache of fixed-size pages. Dirty pages are written back when they
// get evicted from the cache or when the file is flushed. Regions never
// written read as zeros.
type PagedFile struct {
	file        OsFile                             // the file handle to represent
	pagesInFile int64                              // the number of pages in the file
	pages       *common.LruCache[int64, *filePage] // an in-memory page cache
	pool        sync.Pool                          // a pool for recycling pages
}

// PagedFilePageSize is the size of the pages read and written by a PagedFile.
const PagedFilePageSize = 1 << 12 // = 4 KB

type filePage struct {
	data  [PagedFilePageSize]byte
	dirty bool
}

func (p *filePage) clear() {
	p.dirty = false
	p.data = [PagedFilePageSize]byte{}
}

// OpenPagedFile opens the file at the given path, creating it if missing,
// and caches up to cachedPages pages in memory.
func OpenPagedFile(path string, cachedPages int) (*PagedFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	return openPagedFile(f, cachedPages)
}

func openPagedFile(f OsFile, cachedPages int) (*PagedFile, error) {
	stats, err := f.Stat()
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	size := stats.Size()
	if size%PagedFilePageSize != 0 {
		return nil, errors.Join(
			fmt.Errorf("invalid file size, got %d, expected multiple of %d", size, PagedFilePageSize),
			f.Close(),
		)
	}
	return &PagedFile{
		file:        f,
		pagesInFile: size / PagedFilePageSize,
		pages:       common.NewLruCache[int64, *filePage](max(cachedPages, 1)),
		pool:        sync.Pool{New: func() any { return new(filePage) }},
	}, nil
}

// Read fills dst with the content of the file starting at the given position.
func (f *PagedFile) Read(position int64, dst []byte) error {
	if position < 0 {
		return fmt.Errorf("cannot read at negative position: %d", position)
	}
	for len(dst) > 0 {
		page, err := f.getPage(position / PagedFilePageSize)
		if err != nil {
			return err
		}
		n := copy(dst, page.data[position%PagedFilePageSize:])
		dst = dst[n:]
		position += int64(n)
	}
	return nil
}

// Write stores src in the file starting at the given position.
func (f *PagedFile) Write(position int64, src []byte) error {
	if position < 0 {
		return fmt.Errorf("cannot write at negative position: %d", position)
	}
	for len(src) > 0 {
		page, err := f.getPage(position / PagedFilePageSize)
		if err != nil {
			return err
		}
		page.dirty = true
		n := copy(page.data[position%PagedFilePageSize:], src)
		src = src[n:]
		position += int64(n)
	}
	return nil
}

// Flush writes all dirty pages to the file and syncs it.
func (f *PagedFile) Flush() error {
	var flushErr error
	f.pages.Iterate(func(id int64, page *filePage) bool {
		if err := f.writePage(id, page); err != nil {
			flushErr = err
			return false
		}
		return true
	})
	if flushErr != nil {
		return flushErr
	}
	return f.file.Sync()
}

func (f *PagedFile) Close() error {
	return errors.Join(
		f.Flush(),
		f.file.Close(),
	)
}

func (f *PagedFile) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*f))
	mf.AddChild("pageCache", f.pages.GetMemoryFootprint(unsafe.Sizeof(filePage{})))
	return mf
}

func (f *PagedFile) getPage(id int64) (*filePage, error) {
	if res, found := f.pages.Get(id); found {
		return res, nil
	}

	res, err := f.readPage(id)
	if err != nil {
		return nil, err
	}

	if evictedId, evictedPage, evicted := f.pages.Set(id, res); evicted {
		if err := f.writePage(evictedId, evictedPage); err != nil {
			f.pages.Remove(id)
			f.pages.Set(evictedId, evictedPage)
			f.release(res)
			return nil, err
		}
		f.release(evictedPage)
	}
	return res, nil
}

func (f *PagedFile) release(page *filePage) {
	page.clear()
	f.pool.Put(page)
}

func (f *PagedFile) readPage(id int64) (*filePage, error) {
	res := f.pool.Get().(*filePage)
	if id >= f.pagesInFile {
		return res, nil
	}
	if _, err := f.file.Seek(id*PagedFilePageSize, io.SeekStart); err != nil {
		f.release(res)
		return nil, err
	}
	if _, err := io.ReadFull(f.file, res.data[:]); err != nil {
		f.release(res)
		return nil, err
	}
	return res, nil
}

func (f *PagedFile) writePage(id int64, page *filePage) error {
	if !page.dirty {
		return nil
	}
	// The file is extended with empty pages up to the written one.
	for f.pagesInFile < id {
		if err := f.writeRaw(f.pagesInFile, make([]byte, PagedFilePageSize)); err != nil {
			return err
		}
	}
	if err := f.writeRaw(id, page.data[:]); err != nil {
		return err
	}
	page.dirty = false
	return nil
}

func (f *PagedFile) writeRaw(id int64, data []byte) error {
	if _, err := f.file.Seek(id*PagedFilePageSize, io.SeekStart); err != nil {
		return err
	}
	n, err := f.file.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("failed to write page %d, wanted %d bytes, got %d", id, len(data), n)
	}
	if f.pagesInFile < id+1 {
		f.pagesInFile = id + 1
	}
	return nil
}
