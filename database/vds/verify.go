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

	"github.com/vmerkle/vmerkle/backend/path"
	"github.com/vmerkle/vmerkle/common"
)

// maxReportedViolations limits the number of inconsistencies collected by
// Verify before it gives up.
const maxReportedViolations = 100

// Verify checks the consistency of the committed leaves and the key index.
// Every leaf must be indexed under its derived key, every index entry must
// reference a leaf carrying a key of the entry's derived key, and the number
// of leaves must match the number of index entries. The observer, if not
// nil, is informed about the progress. Detected inconsistencies are reported
// as integrity violations.
func (s *DataSource[K, V]) Verify(observer VerificationObserver) error {
	const op = "verify"
	if observer == nil {
		observer = NilVerificationObserver{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(op); err != nil {
		return err
	}

	var violations []error
	report := func(err error) bool {
		violations = append(violations, err)
		return len(violations) < maxReportedViolations
	}

	observer.StartVerification()
	observer.Progress("Checking leaves of range %v ...", s.leafRange)
	leaves := 0
	var failure error
	s.leafRange.ForEach(func(p path.Path) {
		if failure != nil {
			return
		}
		record, found, err := s.getLeafRecord(op, p)
		if err != nil {
			if common.KindOf(err) != common.ErrIntegrityViolation {
				failure = err
			} else if !report(err) {
				failure = errors.Join(violations...)
			}
			return
		}
		if !found {
			return
		}
		leaves++
		derived := s.hasher.Hash(&record.Key)
		candidates, err := s.index.GetAll(derived)
		if err != nil {
			failure = common.IoFailure(op, err)
			return
		}
		for _, candidate := range candidates {
			if candidate == p {
				return
			}
		}
		if !report(common.IntegrityViolation(op, "leaf at %v is not indexed under %d", p, derived)) {
			failure = errors.Join(violations...)
		}
	})
	if failure != nil {
		observer.EndVerification(failure)
		return failure
	}

	observer.Progress("Checking %d index entries ...", s.index.Size())
	err := s.index.ForEach(func(key uint64, loc path.Path) {
		if len(violations) >= maxReportedViolations {
			return
		}
		if !s.leafRange.Contains(loc) {
			report(common.IntegrityViolation(op, "index entry %d references %v outside of leaf range %v", key, loc, s.leafRange))
			return
		}
		record, found, err := s.getLeafRecord(op, loc)
		if err != nil {
			report(err)
			return
		}
		if !found {
			report(common.IntegrityViolation(op, "index entry %d references %v without leaf", key, loc))
			return
		}
		if derived := s.hasher.Hash(&record.Key); derived != key {
			report(common.IntegrityViolation(op, "index entry %d references %v holding a key of derived key %d", key, loc, derived))
		}
	})
	if err != nil {
		err = common.IoFailure(op, err)
		observer.EndVerification(err)
		return err
	}

	if size := s.index.Size(); size != leaves && len(violations) < maxReportedViolations {
		report(common.IntegrityViolation(op, "%d leaves but %d index entries", leaves, size))
	}
	err = errors.Join(violations...)
	observer.EndVerification(err)
	return err
}

// VerificationObserver is informed about the progress of a verification.
type VerificationObserver interface {
	StartVerification()
	Progress(msg string, args ...any)
	EndVerification(res error)
}

// NilVerificationObserver ignores all progress reports.
type NilVerificationObserver struct{}

func (NilVerificationObserver) StartVerification()        {}
func (NilVerificationObserver) Progress(string, ...any)   {}
func (NilVerificationObserver) EndVerification(res error) {}
