package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

func testPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresMigrate(t *testing.T) {
	st, mock := testPostgres(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS suppliers").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertSuppliers(t *testing.T) {
	st, mock := testPostgres(t)

	suppliers := []model.Supplier{
		{Name: "Mill A", Country: "Portugal"},
		{Name: "Dye House B", Country: "Bangladesh", HasIncident: true},
	}
	for _, s := range suppliers {
		doc, err := json.Marshal(&s)
		require.NoError(t, err)
		mock.ExpectExec("INSERT INTO suppliers").
			WithArgs(s.Name, s.Country, doc, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	count, err := st.UpsertSuppliers(context.Background(), suppliers)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSupplier(t *testing.T) {
	st, mock := testPostgres(t)

	want := model.Supplier{Name: "Mill A", Country: "Portugal", AuditStatus: model.AuditPassed}
	doc, err := json.Marshal(&want)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT doc FROM suppliers WHERE name").
		WithArgs("Mill A").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(doc))

	got, err := st.GetSupplier(context.Background(), "Mill A")
	require.NoError(t, err)
	assert.Equal(t, want.Country, got.Country)
	assert.Equal(t, model.AuditPassed, got.AuditStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSupplierNotFound(t *testing.T) {
	st, mock := testPostgres(t)

	mock.ExpectQuery("SELECT doc FROM suppliers WHERE name").
		WithArgs("Nobody").
		WillReturnError(pgx.ErrNoRows)

	_, err := st.GetSupplier(context.Background(), "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresListSuppliers(t *testing.T) {
	st, mock := testPostgres(t)

	a, _ := json.Marshal(&model.Supplier{Name: "A", Country: "Peru"})
	b, _ := json.Marshal(&model.Supplier{Name: "B", Country: "India"})
	mock.ExpectQuery("SELECT doc FROM suppliers ORDER BY name").
		WillReturnRows(pgxmock.NewRows([]string{"doc"}).AddRow(a).AddRow(b))

	suppliers, err := st.ListSuppliers(context.Background())
	require.NoError(t, err)
	require.Len(t, suppliers, 2)
	assert.Equal(t, "Peru", suppliers[0].Country)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteSupplier(t *testing.T) {
	st, mock := testPostgres(t)

	mock.ExpectExec("DELETE FROM suppliers").
		WithArgs("Mill A").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, st.DeleteSupplier(context.Background(), "Mill A"))

	mock.ExpectExec("DELETE FROM suppliers").
		WithArgs("Nobody").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, st.DeleteSupplier(context.Background(), "Nobody"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendActivity(t *testing.T) {
	st, mock := testPostgres(t)

	mock.ExpectExec("INSERT INTO activity_log").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), ActionImport, "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := st.AppendActivity(context.Background(), ActivityEntry{
		Action: ActionImport,
		Detail: map[string]any{"imported": 5},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListActivity(t *testing.T) {
	st, mock := testPostgres(t)

	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	detail, _ := json.Marshal(map[string]any{"code": "GOTS"})
	mock.ExpectQuery("SELECT id, ts, action, supplier, detail FROM activity_log").
		WithArgs(ActionCertUpdate, "Mill A", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "ts", "action", "supplier", "detail"}).
			AddRow("id-1", ts, ActionCertUpdate, "Mill A", detail))

	entries, err := st.ListActivity(context.Background(), ActivityFilter{
		Action:   ActionCertUpdate,
		Supplier: "Mill A",
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mill A", entries[0].Supplier)
	assert.Equal(t, "GOTS", entries[0].Detail["code"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
