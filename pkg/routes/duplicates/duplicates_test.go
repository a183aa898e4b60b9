package duplicates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/pkg/clustering"
	appctx "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/locks"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/scoring"
	"github.com/Ramsey-B/clover/pkg/store/memstore"
)

func getTestLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	logger := getTestLogger()
	st := memstore.New()

	ctx := appctx.SetTenantID(context.Background(), "tenant-a")
	require.NoError(t, st.Upsert(ctx, []models.ContactRecord{
		{ID: "A", GivenName: "Ann", FamilyName: "Lee", Phones: []models.LabeledValue{{Label: "mobile", Value: "5551234"}}},
		{ID: "B", Phones: []models.LabeledValue{{Label: "work", Value: "(555) 1234"}}},
		{ID: "C", Emails: []models.LabeledValue{{Label: "home", Value: "c@x.com"}}},
	}))

	svc := dedupe.NewService(logger, dedupe.Dependencies{
		Store:   st,
		Writer:  st,
		Builder: clustering.NewBuilder(logger, clustering.DefaultOptions()),
		Engine:  merging.NewEngine(logger, st, scoring.Options{}),
		Locker:  locks.NewLocalLocker(time.Second),
	})

	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1", middleware.RequireTenant()))
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderTenantID, "tenant-a")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/v1/duplicates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.DetectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.RecordCount)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, []string{"A", "B"}, result.Groups[0].MemberIDs())
}

func TestList_RequiresTenant(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/duplicates", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "merges pair", body: `{"contact_ids":["B","A"]}`, wantStatus: http.StatusOK},
		{name: "single id", body: `{"contact_ids":["A"]}`, wantStatus: http.StatusBadRequest},
		{name: "repeated id", body: `{"contact_ids":["A","A"]}`, wantStatus: http.StatusBadRequest},
		{name: "missing ids", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "blank id", body: `{"contact_ids":["A",""]}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", body: `{"contact_ids":`, wantStatus: http.StatusBadRequest},
		{name: "unknown id", body: `{"contact_ids":["A","Z"]}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(t)
			rec := do(e, http.MethodPost, "/api/v1/duplicates/merge", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestMerge_ResultBody(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/duplicates/merge", `{"contact_ids":["B","A"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.MergeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "A", result.Target.ID)
	assert.Equal(t, []string{"B"}, result.DeletedIDs)
	assert.Equal(t, models.MergeStateSucceeded, result.State)
	assert.True(t, result.Stale)

	rec = do(e, http.MethodGet, "/api/v1/duplicates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detection models.DetectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detection))
	assert.Equal(t, 2, detection.RecordCount)
	assert.Empty(t, detection.Groups)
}
