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

import "fmt"

// PageId identifies a page of a bucket chain. Primary pages, the first page
// of each bucket, have an overflow component of zero and are addressed by
// their bucket number. Overflow pages carry a unique, positive overflow
// number; their bucket component names the bucket owning them.
type PageId struct {
	bucket, overflow int
}

// NewPageId creates a page ID for the given bucket and overflow number.
func NewPageId(bucket, overflow int) PageId {
	return PageId{bucket, overflow}
}

func (p PageId) Bucket() int {
	return p.bucket
}

func (p PageId) Overflow() int {
	return p.overflow
}

// IsOverflowPage returns true for pages following the primary page of a bucket.
func (p PageId) IsOverflowPage() bool {
	return p.overflow != 0
}

func (p PageId) String() string {
	return fmt.Sprintf("%d/%d", p.bucket, p.overflow)
}
