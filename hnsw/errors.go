package hnsw

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryPointNotFound is returned when a search runs against an
	// empty index.
	ErrEntryPointNotFound = errors.New("hnsw: entry point not found")

	// ErrVectorAlreadyDeleted is returned when deleting a vector whose
	// soft-delete flag is already set.
	ErrVectorAlreadyDeleted = errors.New("hnsw: vector already deleted")

	// ErrInvalidVectorData is returned for empty or undecodable payloads.
	ErrInvalidVectorData = errors.New("hnsw: invalid vector data")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("hnsw: k must be positive")
)

// ErrVectorNotFound indicates a lookup for an id with no stored vector.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrVectorNotFound struct {
	ID    string
	cause error
}

func (e *ErrVectorNotFound) Error() string {
	return fmt.Sprintf("hnsw: vector %s not found", e.ID)
}

func (e *ErrVectorNotFound) Unwrap() error { return e.cause }

// ErrInvalidVectorLength indicates a query or insert payload whose
// dimensionality does not match the index.
type ErrInvalidVectorLength struct {
	Expected int
	Actual   int
}

func (e *ErrInvalidVectorLength) Error() string {
	return fmt.Sprintf("hnsw: invalid vector length: expected %d, got %d", e.Expected, e.Actual)
}
