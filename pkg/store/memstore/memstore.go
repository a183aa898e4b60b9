// Package memstore is an in-process ContactStore keyed by tenant.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"

	appctx "github.com/Ramsey-B/clover/pkg/context"
)

type tenantContacts struct {
	order   []string
	records map[string]models.ContactRecord
}

// Store keeps contacts in insertion order. Reads and writes copy records so callers never
// share slices with the store.
type Store struct {
	mu      sync.RWMutex
	tenants map[string]*tenantContacts
}

func New() *Store {
	return &Store{tenants: make(map[string]*tenantContacts)}
}

func (s *Store) tenant(ctx context.Context, create bool) *tenantContacts {
	id := appctx.GetTenantID(ctx)
	t, ok := s.tenants[id]
	if !ok && create {
		t = &tenantContacts{records: make(map[string]models.ContactRecord)}
		s.tenants[id] = t
	}
	return t
}

// Upsert inserts new contacts at the end and replaces existing ones in place
func (s *Store) Upsert(ctx context.Context, contacts []models.ContactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(ctx, true)
	for _, c := range contacts {
		if c.ID == "" {
			return fmt.Errorf("contact id is required")
		}
		if _, exists := t.records[c.ID]; !exists {
			t.order = append(t.order, c.ID)
		}
		t.records[c.ID] = c.Clone()
	}
	return nil
}

func (s *Store) FetchAll(ctx context.Context) ([]models.ContactRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tenant(ctx, false)
	if t == nil {
		return []models.ContactRecord{}, nil
	}
	out := make([]models.ContactRecord, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.records[id].Clone())
	}
	return out, nil
}

func (s *Store) FetchMutable(ctx context.Context, id string) (models.ContactRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.ContactRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tenant(ctx, false)
	if t == nil {
		return models.ContactRecord{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	c, ok := t.records[id]
	if !ok {
		return models.ContactRecord{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return c.Clone(), nil
}

// ExecuteTransaction validates every ID before applying anything, so a failure changes nothing
func (s *Store) ExecuteTransaction(ctx context.Context, update models.ContactRecord, deletes []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(ctx, false)
	if t == nil {
		return fmt.Errorf("%w: %s", store.ErrNotFound, update.ID)
	}
	if _, ok := t.records[update.ID]; !ok {
		return fmt.Errorf("%w: %s", store.ErrNotFound, update.ID)
	}
	remove := make(map[string]struct{}, len(deletes))
	for _, id := range deletes {
		if id == update.ID {
			return fmt.Errorf("cannot delete the updated contact %s", id)
		}
		if _, ok := t.records[id]; !ok {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		remove[id] = struct{}{}
	}

	t.records[update.ID] = update.Clone()
	if len(remove) == 0 {
		return nil
	}
	order := t.order[:0:0]
	for _, id := range t.order {
		if _, ok := remove[id]; ok {
			delete(t.records, id)
			continue
		}
		order = append(order, id)
	}
	t.order = order
	return nil
}
