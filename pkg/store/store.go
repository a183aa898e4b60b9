// Package store defines the contact store contract used by detection and merge.
package store

import (
	"context"
	"errors"

	"github.com/Ramsey-B/clover/pkg/models"
)

// ErrNotFound is returned when a contact does not exist in the caller's tenant
var ErrNotFound = errors.New("contact not found")

// ContactStore supplies snapshots and applies merges. Implementations scope every call to the
// tenant carried by the context.
type ContactStore interface {
	// FetchAll returns every live contact in a stable order
	FetchAll(ctx context.Context) ([]models.ContactRecord, error)
	// FetchMutable returns the latest state of one contact
	FetchMutable(ctx context.Context, id string) (models.ContactRecord, error)
	// ExecuteTransaction updates one contact and deletes the others atomically
	ExecuteTransaction(ctx context.Context, update models.ContactRecord, deletes []string) error
}

// ContactWriter loads contacts into a store
type ContactWriter interface {
	Upsert(ctx context.Context, contacts []models.ContactRecord) error
}
