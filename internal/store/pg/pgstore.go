// Package pg persists the inventory, policy, and directory data in
// PostgreSQL over database/sql with the pgx stdlib driver.
package pg

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"datenwacht.org/internal/auth"
	"datenwacht.org/internal/inventory"
	"datenwacht.org/internal/policy"
)

type Store struct {
	db *sql.DB
}

var (
	_ inventory.Store            = (*Store)(nil)
	_ inventory.ReferenceChecker = (*Store)(nil)
	_ policy.Store               = (*Store)(nil)
	_ auth.Directory             = (*Store)(nil)
)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle; used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// --- helpers ---

// jsonbOrNil marshals a map for a jsonb column, keeping NULL for empty maps.
func jsonbOrNil[M ~map[string]any | ~map[string]string](m M) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func unmarshalJSONB[T any](raw []byte, dst *T) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
