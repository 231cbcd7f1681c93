// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package pagepool

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/vmerkle/vmerkle/backend/utils"
	"github.com/vmerkle/vmerkle/common"
)

// PageStorage is the persistent backend of a PagePool. A page is sent to the
// storage when it is evicted from the pool, and loaded from the storage when
// it is requested while not present in the pool.
type PageStorage interface {
	common.MemoryFootprintProvider
	common.FlushAndCloser

	// Load fills the given page with the content stored under the given ID.
	// Pages never stored before are loaded empty.
	Load(pageId PageId, page Page) error

	// Store persists the content of the given page under the given ID.
	Store(pageId PageId, page Page) error

	// Remove releases the page of the given ID. Released overflow numbers
	// are handed out again by NextOverflowId.
	Remove(pageId PageId) error

	// NextOverflowId returns an unused overflow page number.
	NextOverflowId() int
}

const (
	fileNamePrimaryPages  = "primaryPages.dat"
	fileNameOverflowPages = "overflowPages.dat"
	fileNamePagesMeta     = "pages.json"
)

// pagesMetadata is the content of the metadata file of a TwoFilesPageStorage.
type pagesMetadata struct {
	PageSize        int
	LastOverflowId  int
	FreeOverflowIds []int
}

// TwoFilesPageStorage distributes pages into two files. Primary pages are
// directly addressed by their bucket number in the primary file, overflow
// pages by their overflow number in the overflow file. Released overflow
// numbers and the highest overflow number in use are kept in a metadata file
// written on flush.
type TwoFilesPageStorage struct {
	directory string
	pageSize  int

	primaryFile  *os.File
	overflowFile *os.File

	lastOverflowId  int
	freeOverflowIds []int

	buffer []byte // shared between Load and Store not to allocate on each call
}

// OpenTwoFilesPageStorage opens the storage located in the given directory,
// creating it if needed. Reopening with a different page size fails.
func OpenTwoFilesPageStorage(directory string, pageSize int) (*TwoFilesPageStorage, error) {
	if pageSize <= kvPageHeaderSize {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, err
	}

	meta := pagesMetadata{PageSize: pageSize}
	metaFile := filepath.Join(directory, fileNamePagesMeta)
	if _, err := os.Stat(metaFile); err == nil {
		if meta, err = utils.ReadJsonFile[pagesMetadata](metaFile); err != nil {
			return nil, err
		}
		if meta.PageSize != pageSize {
			return nil, fmt.Errorf("page size mismatch, stored %d, requested %d", meta.PageSize, pageSize)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	primaryFile, err := os.OpenFile(filepath.Join(directory, fileNamePrimaryPages), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	overflowFile, err := os.OpenFile(filepath.Join(directory, fileNameOverflowPages), os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Join(err, primaryFile.Close())
	}

	return &TwoFilesPageStorage{
		directory:       directory,
		pageSize:        pageSize,
		primaryFile:     primaryFile,
		overflowFile:    overflowFile,
		lastOverflowId:  meta.LastOverflowId,
		freeOverflowIds: meta.FreeOverflowIds,
		buffer:          make([]byte, pageSize),
	}, nil
}

// locate returns the file and the offset hosting the page of the given ID.
func (s *TwoFilesPageStorage) locate(pageId PageId) (*os.File, int64) {
	if pageId.IsOverflowPage() {
		return s.overflowFile, int64(pageId.Overflow()-1) * int64(s.pageSize)
	}
	return s.primaryFile, int64(pageId.Bucket()) * int64(s.pageSize)
}

func (s *TwoFilesPageStorage) Load(pageId PageId, page Page) error {
	file, offset := s.locate(pageId)
	if _, err := file.ReadAt(s.buffer, offset); err != nil {
		if errors.Is(err, io.EOF) {
			// page does not exist yet
			page.Clear()
			page.SetDirty(false)
			return nil
		}
		return err
	}
	page.FromBytes(s.buffer)
	return nil
}

func (s *TwoFilesPageStorage) Store(pageId PageId, page Page) error {
	file, offset := s.locate(pageId)
	page.ToBytes(s.buffer)
	if _, err := file.WriteAt(s.buffer, offset); err != nil {
		return err
	}
	page.SetDirty(false)
	return nil
}

// Remove overwrites the page with zeros, which loads as an empty page.
func (s *TwoFilesPageStorage) Remove(pageId PageId) error {
	file, offset := s.locate(pageId)
	info, err := file.Stat()
	if err != nil {
		return err
	}
	if offset < info.Size() {
		clear(s.buffer)
		if _, err := file.WriteAt(s.buffer, offset); err != nil {
			return err
		}
	}
	if pageId.IsOverflowPage() {
		s.freeOverflowIds = append(s.freeOverflowIds, pageId.Overflow())
	}
	return nil
}

func (s *TwoFilesPageStorage) NextOverflowId() int {
	if len(s.freeOverflowIds) > 0 {
		id := s.freeOverflowIds[len(s.freeOverflowIds)-1]
		s.freeOverflowIds = s.freeOverflowIds[:len(s.freeOverflowIds)-1]
		return id
	}
	s.lastOverflowId++
	return s.lastOverflowId
}

func (s *TwoFilesPageStorage) Flush() error {
	meta := pagesMetadata{
		PageSize:        s.pageSize,
		LastOverflowId:  s.lastOverflowId,
		FreeOverflowIds: s.freeOverflowIds,
	}
	return errors.Join(
		s.primaryFile.Sync(),
		s.overflowFile.Sync(),
		utils.WriteJsonFile(filepath.Join(s.directory, fileNamePagesMeta), meta),
	)
}

func (s *TwoFilesPageStorage) Close() error {
	return errors.Join(
		s.Flush(),
		s.primaryFile.Close(),
		s.overflowFile.Close(),
	)
}

func (s *TwoFilesPageStorage) GetMemoryFootprint() *common.MemoryFootprint {
	var intType int
	footprint := common.NewMemoryFootprint(unsafe.Sizeof(*s) + uintptr(len(s.buffer)))
	footprint.AddChild("freeOverflowIds", common.NewMemoryFootprint(uintptr(cap(s.freeOverflowIds))*unsafe.Sizeof(intType)))
	return footprint
}

// MemoryPageStorage keeps serialized pages in memory. It serves volatile
// indexes and tests.
type MemoryPageStorage struct {
	pages           map[PageId][]byte
	lastOverflowId  int
	freeOverflowIds []int
}

func NewMemoryPageStorage() *MemoryPageStorage {
	return &MemoryPageStorage{
		pages: map[PageId][]byte{},
	}
}

func (s *MemoryPageStorage) Load(pageId PageId, page Page) error {
	data, exists := s.pages[pageId]
	if !exists {
		page.Clear()
		page.SetDirty(false)
		return nil
	}
	page.FromBytes(data)
	return nil
}

func (s *MemoryPageStorage) Store(pageId PageId, page Page) error {
	data, exists := s.pages[pageId]
	if !exists {
		data = make([]byte, page.Size())
		s.pages[pageId] = data
	}
	page.ToBytes(data)
	page.SetDirty(false)
	return nil
}

func (s *MemoryPageStorage) Remove(pageId PageId) error {
	delete(s.pages, pageId)
	if pageId.IsOverflowPage() {
		s.freeOverflowIds = append(s.freeOverflowIds, pageId.Overflow())
	}
	return nil
}

func (s *MemoryPageStorage) NextOverflowId() int {
	if len(s.freeOverflowIds) > 0 {
		id := s.freeOverflowIds[len(s.freeOverflowIds)-1]
		s.freeOverflowIds = s.freeOverflowIds[:len(s.freeOverflowIds)-1]
		return id
	}
	s.lastOverflowId++
	return s.lastOverflowId
}

func (s *MemoryPageStorage) Flush() error {
	return nil
}

func (s *MemoryPageStorage) Close() error {
	return nil
}

func (s *MemoryPageStorage) GetMemoryFootprint() *common.MemoryFootprint {
	var pageId PageId
	size := unsafe.Sizeof(*s)
	for _, data := range s.pages {
		size += unsafe.Sizeof(pageId) + uintptr(len(data))
	}
	return common.NewMemoryFootprint(size)
}
