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

import "fmt"

// Variant selects the implementation of a storage component.
type Variant string

const (
	FileVariant    Variant = "file"
	MemoryVariant  Variant = "memory"
	LevelDbVariant Variant = "ldb"
)

const (
	defaultPagePoolSize = 1 << 12
	defaultIndexBuckets = 1 << 10
)

// Parameters configures a data source. Zero values are replaced by defaults.
type Parameters struct {
	// Directory hosting all files of the data source. An empty directory
	// makes the data source volatile, which requires memory variants.
	Directory string

	// StockVariant selects the slot stores, either FileVariant or MemoryVariant.
	StockVariant Variant

	// IndexVariant selects the long index, one of FileVariant, LevelDbVariant
	// and MemoryVariant.
	IndexVariant Variant

	// PagePoolSize is the number of pages cached by each paged component.
	PagePoolSize int

	// IndexBuckets is the initial number of buckets of a new file index.
	IndexBuckets int

	// FlushOnCommit makes every commit a durable checkpoint.
	FlushOnCommit bool
}

// withDefaults returns a copy of the parameters with all zero values
// replaced by their defaults.
func (p Parameters) withDefaults() Parameters {
	if p.StockVariant == "" {
		p.StockVariant = FileVariant
		if p.Directory == "" {
			p.StockVariant = MemoryVariant
		}
	}
	if p.IndexVariant == "" {
		p.IndexVariant = FileVariant
		if p.Directory == "" {
			p.IndexVariant = MemoryVariant
		}
	}
	if p.PagePoolSize == 0 {
		p.PagePoolSize = defaultPagePoolSize
	}
	if p.IndexBuckets == 0 {
		p.IndexBuckets = defaultIndexBuckets
	}
	return p
}

// validate rejects inconsistent parameters.
func (p Parameters) validate() error {
	switch p.StockVariant {
	case FileVariant, MemoryVariant:
	default:
		return fmt.Errorf("unsupported stock variant %q", p.StockVariant)
	}
	switch p.IndexVariant {
	case FileVariant, LevelDbVariant, MemoryVariant:
	default:
		return fmt.Errorf("unsupported index variant %q", p.IndexVariant)
	}
	if p.Directory == "" {
		if p.StockVariant != MemoryVariant || p.IndexVariant != MemoryVariant {
			return fmt.Errorf("%s stocks and %s index require a directory", p.StockVariant, p.IndexVariant)
		}
		if p.FlushOnCommit {
			return fmt.Errorf("volatile data sources can not flush on commit")
		}
	}
	if p.PagePoolSize < 0 {
		return fmt.Errorf("invalid page pool size %d", p.PagePoolSize)
	}
	if p.IndexBuckets < 0 {
		return fmt.Errorf("invalid number of index buckets %d", p.IndexBuckets)
	}
	return nil
}

// IsVolatile reports whether the content is lost when the data source is closed.
func (p Parameters) IsVolatile() bool {
	return p.Directory == ""
}

func (p Parameters) String() string {
	dir := p.Directory
	if dir == "" {
		dir = "<volatile>"
	}
	return fmt.Sprintf("%s (stock: %s, index: %s, pool: %d)", dir, p.StockVariant, p.IndexVariant, p.PagePoolSize)
}
