// Package sqlite implements the SQLite storage backend for crudweb.
// The backend owns a pooled *sql.DB and exposes the records table through
// types.RecordTable. Every statement is parameterized.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/crudweb/pkg/types"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	records  *recordsTable
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database file under config.DataDir, creating the
// directory and schema if needed. Returns ErrAlreadyAttached if already
// attached. Unlike a throwaway cache, the database file is kept across
// attaches: it is the source of truth.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, config.GetDatabaseFile())
	db, err := sql.Open(driverName, dsn(dbPath))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	// One statement holds one pooled connection; requests never share a handle.
	db.SetMaxOpenConns(config.GetMaxOpenConns())
	db.SetMaxIdleConns(config.GetMaxOpenConns())

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("connecting to database: %w", err)
	}

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.config.DataDir = dataDir
	b.records = &recordsTable{backend: b, pushdown: config.SearchPushdown}
	b.attached = true
	return nil
}

// Detach closes the connection pool. After Detach, Records returns
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.attached = false
	b.records = nil
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	return nil
}

// Records returns the query layer for the records table.
// Returns ErrStoreDetached if the backend is not attached.
func (b *Backend) Records() (types.RecordTable, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.records, nil
}

// Ping verifies that a pooled connection can reach the database.
func (b *Backend) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	return b.db.PingContext(ctx)
}

// DatabasePath returns the path of the attached database file, or the
// empty string when detached.
func (b *Backend) DatabasePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return ""
	}
	return filepath.Join(b.config.DataDir, b.config.GetDatabaseFile())
}

// dsn builds a modernc.org/sqlite data source name that applies the
// pragmas to every connection the pool opens.
func dsn(path string) string {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return path + "?" + strings.Join(params, "&")
}
