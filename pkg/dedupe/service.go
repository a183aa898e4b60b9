// Package dedupe runs duplicate detection and merges for one tenant at a time. It owns the
// per-tenant lock and fans results out to the event and graph sinks.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/clustering"
	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/locks"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ErrContactNotFound is returned when a requested contact is not in the tenant's snapshot
var ErrContactNotFound = errors.New("contact not found")

// EventEmitter publishes detection and merge events
type EventEmitter interface {
	EmitContactsMerged(ctx context.Context, tenantID string, result *models.MergeResult) error
	EmitDuplicatesDetected(ctx context.Context, tenantID string, groups []models.DuplicateGroup) error
}

// GroupProjector mirrors detection results into a review store
type GroupProjector interface {
	ProjectGroups(ctx context.Context, tenantID string, groups []models.DuplicateGroup) error
	RemoveContacts(ctx context.Context, tenantID string, ids []string) error
}

// Service coordinates detection, merges and imports
type Service struct {
	logger    ectologger.Logger
	store     store.ContactStore
	writer    store.ContactWriter
	builder   *clustering.Builder
	engine    *merging.Engine
	locker    locks.Locker
	emitter   EventEmitter
	projector GroupProjector
}

// Dependencies holds the collaborators of a Service. Emitter and Projector are optional.
type Dependencies struct {
	Store     store.ContactStore
	Writer    store.ContactWriter
	Builder   *clustering.Builder
	Engine    *merging.Engine
	Locker    locks.Locker
	Emitter   EventEmitter
	Projector GroupProjector
}

// NewService creates a new dedupe service
func NewService(logger ectologger.Logger, deps Dependencies) *Service {
	return &Service{
		logger:    logger,
		store:     deps.Store,
		writer:    deps.Writer,
		builder:   deps.Builder,
		engine:    deps.Engine,
		locker:    deps.Locker,
		emitter:   deps.Emitter,
		projector: deps.Projector,
	}
}

func lockKey(tenantID string) string {
	return "contacts:" + tenantID
}

// Detect builds the duplicate groups of the tenant's current snapshot
func (s *Service) Detect(ctx context.Context) (*models.DetectionResult, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.Detect")
	defer span.End()

	tenantID := appctx.GetTenantID(ctx)
	log := s.logger.WithContext(ctx).WithField("tenant_id", tenantID)

	var result *models.DetectionResult
	err := s.locker.WithLock(ctx, lockKey(tenantID), func(ctx context.Context) error {
		records, err := s.store.FetchAll(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", merging.ErrStoreFetchFailure, err)
		}

		groups, err := s.builder.Build(ctx, records)
		if err != nil {
			return err
		}

		result = &models.DetectionResult{
			Groups:      groups,
			RecordCount: len(records),
			Strategy:    string(s.builder.Strategy()),
			DetectedAt:  time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Duplicate detection failed")
		return nil, err
	}

	if s.projector != nil {
		if err := s.projector.ProjectGroups(ctx, tenantID, result.Groups); err != nil {
			log.WithError(err).Warn("Failed to project duplicate groups")
		}
	}
	if s.emitter != nil {
		if err := s.emitter.EmitDuplicatesDetected(ctx, tenantID, result.Groups); err != nil {
			log.WithError(err).Warn("Failed to emit duplicates detected events")
		}
	}

	log.WithFields(map[string]any{
		"record_count": result.RecordCount,
		"group_count":  len(result.Groups),
	}).Info("Detected duplicates")
	return result, nil
}

// Merge resolves ids against the tenant's snapshot, in request order, and merges them.
// Fewer than two distinct ids fail without touching the store.
func (s *Service) Merge(ctx context.Context, ids []string) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.Merge")
	defer span.End()

	tenantID := appctx.GetTenantID(ctx)
	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":   tenantID,
		"contact_ids": ids,
	})

	ids = distinct(ids)
	if len(ids) < 2 {
		return s.engine.Merge(ctx, nil)
	}

	var result *models.MergeResult
	err := s.locker.WithLock(ctx, lockKey(tenantID), func(ctx context.Context) error {
		records, err := s.store.FetchAll(ctx)
		if err != nil {
			return &merging.MergeError{Kind: merging.ErrStoreFetchFailure, State: models.MergeStateIdle, Err: err}
		}

		byID := make(map[string]models.ContactRecord, len(records))
		for _, r := range records {
			byID[r.ID] = r
		}

		selection := make([]models.ContactRecord, 0, len(ids))
		for _, id := range ids {
			r, ok := byID[id]
			if !ok {
				return fmt.Errorf("%w: %s", ErrContactNotFound, id)
			}
			selection = append(selection, r)
		}

		result, err = s.engine.Merge(ctx, selection)
		return err
	})
	if err != nil {
		log.WithError(err).Warn("Merge request failed")
		return nil, err
	}

	if s.emitter != nil {
		if err := s.emitter.EmitContactsMerged(ctx, tenantID, result); err != nil {
			log.WithError(err).Warn("Failed to emit contacts merged event")
		}
	}
	if s.projector != nil {
		if err := s.projector.RemoveContacts(ctx, tenantID, result.DeletedIDs); err != nil {
			log.WithError(err).Warn("Failed to remove merged contacts from graph")
		}
	}

	return result, nil
}

// Import upserts contacts into the tenant's store, assigning IDs to new ones
func (s *Service) Import(ctx context.Context, contacts []models.ContactRecord) ([]models.ContactRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Service.Import")
	defer span.End()

	tenantID := appctx.GetTenantID(ctx)

	imported := ectolinq.Map(contacts, func(c models.ContactRecord) models.ContactRecord {
		c = c.Clone()
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		return c
	})

	err := s.locker.WithLock(ctx, lockKey(tenantID), func(ctx context.Context) error {
		return s.writer.Upsert(ctx, imported)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Error("Failed to import contacts")
		return nil, err
	}

	return imported, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
