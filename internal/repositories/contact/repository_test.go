package contact

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/store"
)

func getTestLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

func TestRowConversion(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	record := models.ContactRecord{
		ID:        "c1",
		GivenName: "Ann",
		Phones:    []models.LabeledValue{{Label: "mobile", Value: "5551234"}},
		Photo:     []byte{1, 2, 3},
	}

	row := FromContactRecord("tenant-a", record, now)
	assert.Equal(t, "tenant-a", row.TenantID)
	assert.Equal(t, 1, row.Version)
	assert.Equal(t, now, row.CreatedAt)
	assert.NotNil(t, row.Emails.GetValue(), "nil lists are stored as empty arrays")
	assert.Empty(t, row.Emails.GetValue())

	assert.Equal(t, record, ToContactRecord(row))
}

// newIntegrationRepository connects to the Postgres configured by DB_* variables and
// applies the migrations. It skips when no database is configured.
func newIntegrationRepository(t *testing.T) (*Repository, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, envOr("DB_PORT", "5432"), envOr("DB_USER_NAME", "postgres"), os.Getenv("DB_PASSWORD"), envOr("DB_NAME", "clover"))
	conn, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	logger := getTestLogger()
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{MigrationFolderPath: "../../../db/pg"})
	require.NoError(t, migrations.MigratePostgres(conn))

	ctx := appctx.SetTenantID(context.Background(), "test-"+uuid.NewString())
	return NewRepository(database.NewDatabaseInstance(conn, logger), logger), ctx
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestRepository_MergeTransaction(t *testing.T) {
	repo, ctx := newIntegrationRepository(t)

	a := models.ContactRecord{ID: "A", GivenName: "Ann", Phones: []models.LabeledValue{{Label: "mobile", Value: "5551234"}}}
	b := models.ContactRecord{ID: "B", Emails: []models.LabeledValue{{Label: "home", Value: "b@x.com"}}}
	c := models.ContactRecord{ID: "C", GivenName: "Cat"}
	require.NoError(t, repo.Upsert(ctx, []models.ContactRecord{a, b, c}))

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []models.ContactRecord{a, b, c}, all)

	merged := a.Clone()
	merged.Emails = b.Emails
	require.NoError(t, repo.ExecuteTransaction(ctx, merged, []string{"B"}))

	all, err = repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ContactRecord{merged, c}, all)

	_, err = repo.FetchMutable(ctx, "B")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRepository_TransactionRollsBack(t *testing.T) {
	repo, ctx := newIntegrationRepository(t)

	a := models.ContactRecord{ID: "A", GivenName: "Ann"}
	b := models.ContactRecord{ID: "B", GivenName: "Bob"}
	require.NoError(t, repo.Upsert(ctx, []models.ContactRecord{a, b}))

	changed := a.Clone()
	changed.JobTitle = "CTO"
	err := repo.ExecuteTransaction(ctx, changed, []string{"B", "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ContactRecord{a, b}, all)
}

func TestRepository_TenantIsolation(t *testing.T) {
	repo, ctx := newIntegrationRepository(t)
	require.NoError(t, repo.Upsert(ctx, []models.ContactRecord{{ID: "A", GivenName: "Ann"}}))

	other := appctx.SetTenantID(context.Background(), "other-"+uuid.NewString())
	all, err := repo.FetchAll(other)
	require.NoError(t, err)
	assert.Empty(t, all)
}
