// Package merging folds a selection of duplicate contacts into the most complete one and
// commits the result as one store transaction.
package merging

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/scoring"
	"github.com/Ramsey-B/clover/pkg/store"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Engine merges contact selections
type Engine struct {
	logger  ectologger.Logger
	store   store.ContactStore
	scoring scoring.Options
}

// NewEngine creates a new merge engine
func NewEngine(logger ectologger.Logger, contactStore store.ContactStore, opts scoring.Options) *Engine {
	return &Engine{
		logger:  logger,
		store:   contactStore,
		scoring: opts,
	}
}

// Merge folds the selection into its highest scoring record and deletes the rest.
//
// The selection must hold at least two distinct records; repeated IDs are ignored after the
// first. The target is re-fetched from the store before the union so changes made since the
// snapshot are kept. Exactly one ExecuteTransaction call is made, and only after every earlier
// step succeeded. On any failure nothing is written and a *MergeError is returned.
func (e *Engine) Merge(ctx context.Context, selection []models.ContactRecord) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Engine.Merge")
	defer span.End()

	sm := models.NewMergeStateMachine()
	log := e.logger.WithContext(ctx).WithField("selection_size", len(selection))

	fail := func(kind, err error) (*models.MergeResult, error) {
		state := sm.Current()
		_ = sm.Transition(models.MergeStateFailed)
		mergeErr := &MergeError{Kind: kind, State: state, Err: err}
		log.WithError(mergeErr).WithField("state", state).Warn("Merge failed")
		span.RecordError(mergeErr)
		return nil, mergeErr
	}

	_ = sm.Transition(models.MergeStateValidating)
	members := distinctByID(selection)
	if len(members) < 2 {
		return fail(ErrInsufficientSelection, nil)
	}

	targetIdx := scoring.Best(members, e.scoring)
	snapshot := members[targetIdx]
	others := make([]models.ContactRecord, 0, len(members)-1)
	deletes := make([]string, 0, len(members)-1)
	for i, m := range members {
		if i == targetIdx {
			continue
		}
		others = append(others, m)
		deletes = append(deletes, m.ID)
	}
	log = log.WithFields(map[string]any{
		"target_id":  snapshot.ID,
		"delete_ids": deletes,
	})

	_ = sm.Transition(models.MergeStateFetchingTarget)
	fresh, err := e.store.FetchMutable(ctx, snapshot.ID)
	if err != nil {
		return fail(ErrStoreFetchFailure, err)
	}

	_ = sm.Transition(models.MergeStateMerging)
	merged := UnionFields(fresh, others)

	_ = sm.Transition(models.MergeStateCommitting)
	if err := e.store.ExecuteTransaction(ctx, merged, deletes); err != nil {
		return fail(ErrStoreTransactionFailure, err)
	}

	_ = sm.Transition(models.MergeStateSucceeded)
	log.Info("Merged contacts")

	return &models.MergeResult{
		Target:     merged,
		DeletedIDs: deletes,
		State:      sm.Current(),
		States:     sm.History(),
		Stale:      true,
	}, nil
}

func distinctByID(records []models.ContactRecord) []models.ContactRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.ContactRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
