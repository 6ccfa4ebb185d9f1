package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a mock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects to the given database URL and pings it.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS suppliers (
	name       TEXT PRIMARY KEY,
	country    TEXT NOT NULL DEFAULT '',
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS activity_log (
	id       TEXT PRIMARY KEY,
	ts       TIMESTAMPTZ NOT NULL,
	action   TEXT NOT NULL,
	supplier TEXT NOT NULL DEFAULT '',
	detail   JSONB
);

CREATE INDEX IF NOT EXISTS idx_suppliers_country ON suppliers(country);
CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity_log(ts);
CREATE INDEX IF NOT EXISTS idx_activity_supplier ON activity_log(supplier);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertSuppliers(ctx context.Context, suppliers []model.Supplier) (int, error) {
	now := time.Now().UTC()
	count := 0
	for i := range suppliers {
		doc, err := json.Marshal(&suppliers[i])
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal supplier %s", suppliers[i].Name)
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO suppliers (name, country, doc, updated_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (name) DO UPDATE SET country = EXCLUDED.country, doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
			suppliers[i].Name, suppliers[i].Country, doc, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: upsert supplier %s", suppliers[i].Name)
		}
		count++
	}
	return count, nil
}

func (s *PostgresStore) GetSupplier(ctx context.Context, name string) (*model.Supplier, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM suppliers WHERE name = $1`, name).Scan(&doc)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "supplier %q", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get supplier %s", name)
	}

	var supplier model.Supplier
	if err := json.Unmarshal(doc, &supplier); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal supplier %s", name)
	}
	return &supplier, nil
}

func (s *PostgresStore) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suppliers")
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan supplier")
		}
		var supplier model.Supplier
		if err := json.Unmarshal(doc, &supplier); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal supplier")
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, eris.Wrap(rows.Err(), "postgres: iterate suppliers")
}

func (s *PostgresStore) DeleteSupplier(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM suppliers WHERE name = $1`, name)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete supplier %s", name)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "supplier %q", name)
	}
	return nil
}

func (s *PostgresStore) AppendActivity(ctx context.Context, entry ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	var detail []byte
	if entry.Detail != nil {
		var err error
		if detail, err = json.Marshal(entry.Detail); err != nil {
			return eris.Wrap(err, "postgres: marshal activity detail")
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO activity_log (id, ts, action, supplier, detail) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Timestamp, entry.Action, entry.Supplier, detail,
	)
	return eris.Wrap(err, "postgres: append activity")
}

func (s *PostgresStore) ListActivity(ctx context.Context, filter ActivityFilter) ([]ActivityEntry, error) {
	query := `SELECT id, ts, action, supplier, detail FROM activity_log WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Action != "" {
		query += ` AND action = ` + arg(filter.Action)
	}
	if filter.Supplier != "" {
		query += ` AND supplier = ` + arg(filter.Supplier)
	}
	if !filter.Since.IsZero() {
		query += ` AND ts >= ` + arg(filter.Since)
	}
	query += ` ORDER BY ts DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list activity")
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var entry ActivityEntry
		var detail []byte
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Action, &entry.Supplier, &detail); err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &entry.Detail); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal activity detail")
			}
		}
		entries = append(entries, entry)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: iterate activity")
}
