package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maison-group/supplier-risk-cli/internal/config"
	"github.com/maison-group/supplier-risk-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "suppliers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleSuppliers() []model.Supplier {
	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	return []model.Supplier{
		{
			Name:    "Mill A",
			Country: "Portugal",
			City:    "Porto",
			Certifications: []model.Certification{
				{Code: model.CertGOTS, Known: true, Expiry: &expiry},
			},
			AuditStatus: model.AuditPassed,
		},
		{
			Name:        "Dye House B",
			Country:     "Bangladesh",
			HasIncident: true,
			Incident:    &model.Incident{Type: "labor", Status: "open"},
		},
	}
}

func TestSQLiteUpsertAndGet(t *testing.T) {
	st := testSQLite(t)
	ctx := context.Background()

	count, err := st.UpsertSuppliers(ctx, sampleSuppliers())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := st.GetSupplier(ctx, "Mill A")
	require.NoError(t, err)
	assert.Equal(t, "Portugal", got.Country)
	require.Len(t, got.Certifications, 1)
	assert.Equal(t, model.CertGOTS, got.Certifications[0].Code)
	require.NotNil(t, got.Certifications[0].Expiry)

	// Upsert replaces in place.
	got.AuditStatus = model.AuditFailed
	_, err = st.UpsertSuppliers(ctx, []model.Supplier{*got})
	require.NoError(t, err)
	again, err := st.GetSupplier(ctx, "Mill A")
	require.NoError(t, err)
	assert.Equal(t, model.AuditFailed, again.AuditStatus)
}

func TestSQLiteGetMissing(t *testing.T) {
	st := testSQLite(t)
	_, err := st.GetSupplier(context.Background(), "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListOrdered(t *testing.T) {
	st := testSQLite(t)
	ctx := context.Background()

	_, err := st.UpsertSuppliers(ctx, sampleSuppliers())
	require.NoError(t, err)

	suppliers, err := st.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 2)
	assert.Equal(t, "Dye House B", suppliers[0].Name)
	assert.Equal(t, "Mill A", suppliers[1].Name)
}

func TestSQLiteDelete(t *testing.T) {
	st := testSQLite(t)
	ctx := context.Background()

	_, err := st.UpsertSuppliers(ctx, sampleSuppliers())
	require.NoError(t, err)

	require.NoError(t, st.DeleteSupplier(ctx, "Mill A"))
	_, err = st.GetSupplier(ctx, "Mill A")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, st.DeleteSupplier(ctx, "Mill A"), ErrNotFound)
}

func TestSQLiteActivityLog(t *testing.T) {
	st := testSQLite(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []ActivityEntry{
		{Timestamp: base, Action: ActionImport, Detail: map[string]any{"imported": float64(10)}},
		{Timestamp: base.Add(time.Hour), Action: ActionCertUpdate, Supplier: "Mill A"},
		{Timestamp: base.Add(2 * time.Hour), Action: ActionIncidentOpen, Supplier: "Dye House B"},
	}
	for _, e := range entries {
		require.NoError(t, st.AppendActivity(ctx, e))
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := st.ListActivity(ctx, ActivityFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, ActionIncidentOpen, got[0].Action)
		assert.Equal(t, ActionImport, got[2].Action)
		assert.NotEmpty(t, got[0].ID)
	})

	t.Run("filter by action", func(t *testing.T) {
		got, err := st.ListActivity(ctx, ActivityFilter{Action: ActionCertUpdate})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Mill A", got[0].Supplier)
	})

	t.Run("filter by supplier and since", func(t *testing.T) {
		got, err := st.ListActivity(ctx, ActivityFilter{
			Supplier: "Dye House B",
			Since:    base.Add(90 * time.Minute),
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, ActionIncidentOpen, got[0].Action)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := st.ListActivity(ctx, ActivityFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("detail round trip", func(t *testing.T) {
		got, err := st.ListActivity(ctx, ActivityFilter{Action: ActionImport})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, float64(10), got[0].Detail["imported"])
	})
}

func TestOpen(t *testing.T) {
	t.Run("sqlite default", func(t *testing.T) {
		st, err := Open(context.Background(), config.StoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "open.db"),
		})
		require.NoError(t, err)
		require.NoError(t, st.Close())
	})

	t.Run("postgres requires url", func(t *testing.T) {
		_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres"})
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(context.Background(), config.StoreConfig{Driver: "cockroach"})
		assert.Error(t, err)
	})
}
