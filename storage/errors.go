package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a node, edge or vector does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("storage: store is closed")

	// ErrReadOnlyTxn is returned when a write is attempted on a read-only
	// transaction.
	ErrReadOnlyTxn = errors.New("storage: write on read-only transaction")
)

// ErrLabelNotFound indicates a lookup for a label no stored entity carries.
type ErrLabelNotFound struct {
	Label string
}

func (e *ErrLabelNotFound) Error() string {
	return fmt.Sprintf("storage: label %q not found", e.Label)
}

// ErrInvalidStoreSize indicates a MaxStoreSize outside the range the
// backing value log supports.
type ErrInvalidStoreSize struct {
	Size int64
}

func (e *ErrInvalidStoreSize) Error() string {
	return fmt.Sprintf("storage: store size %d out of range [%d, %d]", e.Size, MinStoreSize, MaxStoreSize)
}

// ErrIndexNotFound indicates an operation against an undeclared secondary
// index.
type ErrIndexNotFound struct {
	Name string
}

func (e *ErrIndexNotFound) Error() string {
	return fmt.Sprintf("storage: secondary index %q not found", e.Name)
}

// ErrDuplicateKey indicates a unique secondary-index violation. It is
// reported distinctly from generic storage failures so callers can reject
// the write without mistaking it for an outage.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDuplicateKey struct {
	Index string
	Value any
	cause error
}

func (e *ErrDuplicateKey) Error() string {
	return fmt.Sprintf("storage: duplicate key %v in unique index %q", e.Value, e.Index)
}

func (e *ErrDuplicateKey) Unwrap() error { return e.cause }

// DecodeError indicates a corrupt or schema-mismatched binary payload.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type DecodeError struct {
	What  string
	cause error
}

func (e *DecodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("storage: decode %s: %v", e.What, e.cause)
	}
	return fmt.Sprintf("storage: decode %s failed", e.What)
}

func (e *DecodeError) Unwrap() error { return e.cause }
