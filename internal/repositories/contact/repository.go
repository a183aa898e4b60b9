package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository is the Postgres contact store. Every call is scoped to the tenant on the
// context; deleted contacts are soft deleted and invisible to reads.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

var (
	_ store.ContactStore  = (*Repository)(nil)
	_ store.ContactWriter = (*Repository)(nil)
)

// NewRepository creates a new contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// FetchAll returns the tenant's live contacts in insertion order
func (r *Repository) FetchAll(ctx context.Context) ([]models.ContactRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.FetchAll")
	defer span.End()

	tenantID := appctx.GetTenantID(ctx)
	sb := contactStruct.SelectFrom(contactTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("seq").Asc()

	query, args := sb.Build()

	var rows []ContactRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("tenant_id", tenantID).Error("Failed to fetch contacts")
		return nil, fmt.Errorf("fetch contacts: %w", err)
	}

	contacts := make([]models.ContactRecord, len(rows))
	for i := range rows {
		contacts[i] = ToContactRecord(&rows[i])
	}
	return contacts, nil
}

// FetchMutable reads the current state of one live contact
func (r *Repository) FetchMutable(ctx context.Context, id string) (models.ContactRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.FetchMutable")
	defer span.End()

	tenantID := appctx.GetTenantID(ctx)
	sb := contactStruct.SelectFrom(contactTable)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var row ContactRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ContactRecord{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id":  tenantID,
			"contact_id": id,
		}).Error("Failed to fetch contact")
		return models.ContactRecord{}, fmt.Errorf("fetch contact %s: %w", id, err)
	}

	return ToContactRecord(&row), nil
}

// ExecuteTransaction writes the merged contact and soft deletes the others in one SQL
// transaction. Any missing row rolls the whole transaction back.
func (r *Repository) ExecuteTransaction(ctx context.Context, update models.ContactRecord, deletes []string) error {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.ExecuteTransaction")
	defer span.End()

	tenantID := appctx.GetTenantID(ctx)
	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":  tenantID,
		"target_id":  update.ID,
		"delete_ids": deletes,
	})

	txCtx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(txCtx)

	now := time.Now().UTC()
	row := FromContactRecord(tenantID, update, now)

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(contactTable)
	ub.Set(
		ub.Assign("given_name", row.GivenName),
		ub.Assign("family_name", row.FamilyName),
		ub.Assign("organization_name", row.OrganizationName),
		ub.Assign("job_title", row.JobTitle),
		ub.Assign("phones", row.Phones),
		ub.Assign("emails", row.Emails),
		ub.Assign("postal_addresses", row.PostalAddresses),
		ub.Assign("photo", row.Photo),
		ub.Assign("updated_at", now),
		ub.Add("version", 1),
	)
	ub.Where(
		ub.Equal("tenant_id", tenantID),
		ub.Equal("id", update.ID),
		ub.IsNull("deleted_at"),
	)

	query, args := ub.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		log.WithError(err).Error("Failed to update merge target")
		return fmt.Errorf("update contact %s: %w", update.ID, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, update.ID)
	}

	if ids := distinct(deletes); len(ids) > 0 {
		for _, id := range ids {
			if id == update.ID {
				return fmt.Errorf("cannot delete the updated contact %s", id)
			}
		}

		del := sqlbuilder.PostgreSQL.NewUpdateBuilder()
		del.Update(contactTable)
		del.Set(
			del.Assign("deleted_at", now),
			del.Assign("updated_at", now),
			del.Add("version", 1),
		)
		del.Where(
			del.Equal("tenant_id", tenantID),
			del.In("id", toArgs(ids)...),
			del.IsNull("deleted_at"),
		)

		query, args := del.Build()
		result, err := tx.ExecContext(txCtx, query, args...)
		if err != nil {
			log.WithError(err).Error("Failed to delete merged contacts")
			return fmt.Errorf("delete contacts: %w", err)
		}
		if affected, _ := result.RowsAffected(); affected != int64(len(ids)) {
			return fmt.Errorf("%w: deleted %d of %d contacts", store.ErrNotFound, affected, len(ids))
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	log.Info("Committed merge transaction")
	return nil
}

// Upsert inserts contacts or replaces the fields of existing ones, reviving soft deleted rows
func (r *Repository) Upsert(ctx context.Context, contacts []models.ContactRecord) error {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Upsert")
	defer span.End()

	if len(contacts) == 0 {
		return nil
	}

	tenantID := appctx.GetTenantID(ctx)
	now := time.Now().UTC()

	// a statement may not touch the same row twice, so the last copy of an ID wins
	positions := make(map[string]int, len(contacts))
	rows := make([]any, 0, len(contacts))
	for _, c := range contacts {
		row := FromContactRecord(tenantID, c, now)
		if pos, ok := positions[c.ID]; ok {
			rows[pos] = row
			continue
		}
		positions[c.ID] = len(rows)
		rows = append(rows, row)
	}

	ib := contactStruct.InsertInto(contactTable, rows...)
	ub := ib.OnConflict("tenant_id", "id")
	ub.Set(
		ub.Assign("given_name", database.Excluded("given_name")),
		ub.Assign("family_name", database.Excluded("family_name")),
		ub.Assign("organization_name", database.Excluded("organization_name")),
		ub.Assign("job_title", database.Excluded("job_title")),
		ub.Assign("phones", database.Excluded("phones")),
		ub.Assign("emails", database.Excluded("emails")),
		ub.Assign("postal_addresses", database.Excluded("postal_addresses")),
		ub.Assign("photo", database.Excluded("photo")),
		ub.Assign("deleted_at", nil),
		ub.Assign("updated_at", now),
		ub.Assign("version", sqlbuilder.Raw(contactTable+".version + 1")),
	)

	query, args := ib.Build()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(txCtx)

	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"count":     len(contacts),
		}).Error("Failed to upsert contacts")
		return fmt.Errorf("upsert contacts: %w", err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"count":     len(contacts),
	}).Info("Upserted contacts")
	return nil
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
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

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
