package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Supplier records
// are stored as JSON documents with the identity fields broken out for
// filtering, mirroring how sparse and evolving the source data is.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS suppliers (
	name       TEXT PRIMARY KEY,
	country    TEXT NOT NULL DEFAULT '',
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS activity_log (
	id       TEXT PRIMARY KEY,
	ts       DATETIME NOT NULL,
	action   TEXT NOT NULL,
	supplier TEXT NOT NULL DEFAULT '',
	detail   TEXT
);

CREATE INDEX IF NOT EXISTS idx_suppliers_country ON suppliers(country);
CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity_log(ts);
CREATE INDEX IF NOT EXISTS idx_activity_supplier ON activity_log(supplier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertSuppliers(ctx context.Context, suppliers []model.Supplier) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	count := 0
	for i := range suppliers {
		doc, err := json.Marshal(&suppliers[i])
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal supplier %s", suppliers[i].Name)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO suppliers (name, country, doc, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET country = excluded.country, doc = excluded.doc, updated_at = excluded.updated_at`,
			suppliers[i].Name, suppliers[i].Country, string(doc), now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert supplier %s", suppliers[i].Name)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return count, nil
}

func (s *SQLiteStore) GetSupplier(ctx context.Context, name string) (*model.Supplier, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM suppliers WHERE name = ?`, name).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "supplier %q", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get supplier %s", name)
	}

	var supplier model.Supplier
	if err := json.Unmarshal([]byte(doc), &supplier); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal supplier %s", name)
	}
	return &supplier, nil
}

func (s *SQLiteStore) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suppliers")
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan supplier")
		}
		var supplier model.Supplier
		if err := json.Unmarshal([]byte(doc), &supplier); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal supplier")
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, eris.Wrap(rows.Err(), "sqlite: iterate suppliers")
}

func (s *SQLiteStore) DeleteSupplier(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE name = ?`, name)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete supplier %s", name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "supplier %q", name)
	}
	return nil
}

func (s *SQLiteStore) AppendActivity(ctx context.Context, entry ActivityEntry) error {
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
			return eris.Wrap(err, "sqlite: marshal activity detail")
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, ts, action, supplier, detail) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, entry.Action, entry.Supplier, nullableString(detail),
	)
	return eris.Wrap(err, "sqlite: append activity")
}

func (s *SQLiteStore) ListActivity(ctx context.Context, filter ActivityFilter) ([]ActivityEntry, error) {
	query := `SELECT id, ts, action, supplier, detail FROM activity_log WHERE 1=1`
	var args []any
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if filter.Supplier != "" {
		query += ` AND supplier = ?`
		args = append(args, filter.Supplier)
	}
	if !filter.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, filter.Since)
	}
	query += ` ORDER BY ts DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list activity")
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var entry ActivityEntry
		var detail sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Action, &entry.Supplier, &detail); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		if detail.Valid && detail.String != "" {
			if err := json.Unmarshal([]byte(detail.String), &entry.Detail); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal activity detail")
			}
		}
		entries = append(entries, entry)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate activity")
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
