// Package events publishes detection and merge outcomes for downstream consumers.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Publisher writes contact events
type Publisher interface {
	PublishContactEvents(ctx context.Context, events []*kafka.ContactEvent) error
}

// Emitter builds and publishes dedupe events
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// EmitContactsMerged emits one event for a committed merge, keyed by the surviving contact
func (e *Emitter) EmitContactsMerged(ctx context.Context, tenantID string, result *models.MergeResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitContactsMerged")
	defer span.End()

	data, err := json.Marshal(NewContactsMergedData(result))
	if err != nil {
		return err
	}

	event := &kafka.ContactEvent{
		EventType:  EventContactsMerged,
		TenantID:   tenantID,
		ContactID:  result.Target.ID,
		RelatedIDs: result.DeletedIDs,
		Data:       data,
	}

	if err := e.publisher.PublishContactEvents(ctx, []*kafka.ContactEvent{event}); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", EventContactsMerged)
		return err
	}
	return nil
}

// EmitDuplicatesDetected emits one event per duplicate group, keyed by the group's best member
func (e *Emitter) EmitDuplicatesDetected(ctx context.Context, tenantID string, groups []models.DuplicateGroup) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDuplicatesDetected")
	defer span.End()

	if len(groups) == 0 {
		return nil
	}

	batch := ectolinq.Map(groups, func(g models.DuplicateGroup) *kafka.ContactEvent {
		ids := g.MemberIDs()
		data, _ := json.Marshal(NewDuplicatesDetectedData(g))
		return &kafka.ContactEvent{
			EventType:  EventDuplicatesDetected,
			TenantID:   tenantID,
			ContactID:  ectolinq.First(ids),
			GroupKey:   g.Key,
			RelatedIDs: ids[1:],
			Data:       data,
		}
	})

	if err := e.publisher.PublishContactEvents(ctx, batch); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("group_count", len(groups)).
			Errorf("Failed to emit %s events", EventDuplicatesDetected)
		return err
	}
	return nil
}
