// pkg/wal/errors.go
package wal

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel error kinds. Every fallible operation in this package returns one
// of these, wrapped with github.com/pkg/errors so the call site that first
// observed the failure keeps a stack trace attached.
var (
	// ErrIOFailure marks a disk read/write/truncate error. It propagates to
	// the caller and aborts the in-flight operation; the log region may be
	// left holding a partial batch, which recovery discards because it was
	// never confirmed.
	ErrIOFailure = errors.New("io failure")

	// ErrInvariantViolation marks a runtime assertion failure, e.g. a
	// caller handing WriteEmptyLogPagesAsync a non-empty walDirtyPages map.
	// Fatal: the engine should refuse further operations.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrAllocationFailure marks a memory factory unable to supply a
	// buffer.
	ErrAllocationFailure = errors.New("allocation failure")
)

// WrapIOFailure wraps err as an IOFailure with the given context message.
func WrapIOFailure(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(fmt.Errorf("%w: %s: %w", ErrIOFailure, msg, err))
}

// WrapAllocationFailure wraps err as an AllocationFailure with context.
func WrapAllocationFailure(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(fmt.Errorf("%w: %s: %w", ErrAllocationFailure, msg, err))
}

// NewInvariantViolation builds an InvariantViolation carrying a stack trace
// from the point it was detected, not from some later propagation site.
func NewInvariantViolation(msg string) error {
	return errors.Wrap(ErrInvariantViolation, msg)
}
