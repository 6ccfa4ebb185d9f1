// Package store persists the supplier directory and the data-collection
// activity log behind a driver-selectable interface. Risk results are never
// stored; they are recomputed from current inputs on every pass.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/maison-group/supplier-risk-cli/internal/config"
	"github.com/maison-group/supplier-risk-cli/internal/model"
)

// ErrNotFound is returned when a supplier lookup misses.
var ErrNotFound = eris.New("store: supplier not found")

// Activity actions recorded by the data-collection commands.
const (
	ActionImport        = "import"
	ActionCertUpdate    = "certification_update"
	ActionAuditUpdate   = "audit_update"
	ActionIncidentOpen  = "incident_report"
	ActionIncidentClear = "incident_clear"
)

// ActivityEntry is one logged data change.
type ActivityEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Supplier  string         `json:"supplier,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// ActivityFilter narrows ListActivity output. Zero values mean "no filter".
type ActivityFilter struct {
	Action   string
	Supplier string
	Since    time.Time
	Limit    int
}

// Store is the persistence interface for suppliers and activity history.
type Store interface {
	Migrate(ctx context.Context) error

	UpsertSuppliers(ctx context.Context, suppliers []model.Supplier) (int, error)
	GetSupplier(ctx context.Context, name string) (*model.Supplier, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	DeleteSupplier(ctx context.Context, name string) error

	AppendActivity(ctx context.Context, entry ActivityEntry) error
	ListActivity(ctx context.Context, filter ActivityFilter) ([]ActivityEntry, error)

	Close() error
}

// Open creates a Store from configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "suppliers.db"
		}
		return NewSQLite(path)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires database_url (SUPPLIER_STORE_DATABASE_URL)")
		}
		return NewPostgres(ctx, cfg.DatabaseURL)
	}
	return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
}
