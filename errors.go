package helixdb

import (
	"errors"
	"fmt"

	"github.com/Mu-L/helix-db-sub003/hnsw"
	"github.com/Mu-L/helix-db-sub003/storage"
)

var (
	// ErrNotFound unifies every "entity does not exist" condition the
	// engine surfaces: missing nodes, edges, vectors, and searches on an
	// empty index.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when operating on a closed engine.
	ErrClosed = errors.New("engine closed")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var vnf *hnsw.ErrVectorNotFound
	if errors.As(err, &vnf) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var lnf *storage.ErrLabelNotFound
	if errors.As(err, &lnf) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, hnsw.ErrEntryPointNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Argument normalization.
	var ivl *hnsw.ErrInvalidVectorLength
	if errors.As(err, &ivl) {
		return &ErrDimensionMismatch{Expected: ivl.Expected, Actual: ivl.Actual, cause: err}
	}
	if errors.Is(err, hnsw.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, storage.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
