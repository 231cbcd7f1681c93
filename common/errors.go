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
)

// The closed set of failure kinds reported by the storage engine. Every error
// surfaced by a data source matches exactly one of them through errors.Is.
const (
	// ErrIoFailure marks a failing disk read, write, or file growth. The
	// affected instance must not be written to any more.
	ErrIoFailure = ConstError("i/o failure")

	// ErrIntegrityViolation marks an inconsistency between the stored
	// structures detected at read time, e.g. an index entry referencing a
	// record of a different key.
	ErrIntegrityViolation = ConstError("integrity violation")

	// ErrContractViolation marks a usage error of the caller, e.g. a mutation
	// outside a transaction, a read of a missing record, or a mis-sized record.
	ErrContractViolation = ConstError("contract violation")
)

// StorageError decorates an underlying cause with the failure kind and the
// name of the operation it was observed in.
type StorageError struct {
	Kind ConstError
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IoFailure wraps the given error as an I/O failure of the named operation.
// Nil errors stay nil, errors that already carry a kind are kept as they are.
func IoFailure(op string, err error) error {
	return classify(ErrIoFailure, op, err)
}

// IntegrityViolation creates a new integrity error for the named operation.
func IntegrityViolation(op string, format string, args ...any) error {
	return &StorageError{Kind: ErrIntegrityViolation, Op: op, Err: fmt.Errorf(format, args...)}
}

// ContractViolation creates a new contract error for the named operation.
func ContractViolation(op string, format string, args ...any) error {
	return &StorageError{Kind: ErrContractViolation, Op: op, Err: fmt.Errorf(format, args...)}
}

// WrapContractViolation marks the given error as a contract violation of
// the named operation.
func WrapContractViolation(op string, err error) error {
	return classify(ErrContractViolation, op, err)
}

// KindOf returns the failure kind of the given error, or the empty string if
// the error carries none.
func KindOf(err error) ConstError {
	for _, kind := range []ConstError{ErrIoFailure, ErrIntegrityViolation, ErrContractViolation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ""
}

func classify(kind ConstError, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return &StorageError{Kind: kind, Op: op, Err: err}
}
