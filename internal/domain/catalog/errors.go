package catalog

import (
	"fmt"

	"github.com/erp/urlsync/internal/domain/shared"
)

// ErrCategoryNotFound is returned when a category id does not resolve
var ErrCategoryNotFound = shared.ErrNotFound

// ErrCyclicMove rejects moving a category under itself or one of its descendants.
// It is raised before any mutation and is never retryable.
var ErrCyclicMove = &shared.DomainError{
	Code:    "CYCLIC_MOVE",
	Message: "Cannot move a parent category under one of its own children",
}

// MoveError wraps a persistence failure while committing a move
type MoveError struct {
	CategoryID int64
	Err        error
}

// Error implements the error interface
func (e *MoveError) Error() string {
	return fmt.Sprintf("could not move category %d: %v", e.CategoryID, e.Err)
}

// Unwrap returns the underlying cause
func (e *MoveError) Unwrap() error {
	return e.Err
}
