package merging

import (
	"errors"
	"fmt"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Merge failure kinds. None of them is retried.
var (
	// ErrInsufficientSelection means fewer than two distinct records were selected
	ErrInsufficientSelection = errors.New("insufficient selection: at least two records are required")
	// ErrStoreFetchFailure means the target could not be re-read before merging
	ErrStoreFetchFailure = errors.New("store fetch failure")
	// ErrStoreTransactionFailure means the update and delete transaction did not commit
	ErrStoreTransactionFailure = errors.New("store transaction failure")
)

// MergeError is returned by Engine.Merge. errors.Is matches both the kind and the
// underlying store error.
type MergeError struct {
	Kind  error
	State models.MergeState
	Err   error
}

func (e *MergeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("merge failed in %s: %v", e.State, e.Kind)
	}
	return fmt.Sprintf("merge failed in %s: %v: %v", e.State, e.Kind, e.Err)
}

func (e *MergeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
