package types

import (
	"errors"
	"strings"
)

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend      string `json:"backend" yaml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	DatabaseFile string `json:"database_file,omitempty" yaml:"database_file,omitempty"`

	// MaxOpenConns bounds the connection pool. Zero means DefaultMaxOpenConns.
	MaxOpenConns int `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`

	// SearchPushdown evaluates substring searches in SQL instead of
	// filtering all rows in memory. Results are identical either way.
	SearchPushdown bool `json:"search_pushdown,omitempty" yaml:"search_pushdown,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied by the accessors below.
const (
	DefaultDatabaseFile = "records.db"
	DefaultMaxOpenConns = 4
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrDatabaseFileInvalid = errors.New("database file must be a plain file name")
	ErrMaxOpenConnsInvalid = errors.New("max open connections must not be negative")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if strings.ContainsAny(c.DatabaseFile, `/\`) || c.DatabaseFile == "." || c.DatabaseFile == ".." {
		return ErrDatabaseFileInvalid
	}
	if c.MaxOpenConns < 0 {
		return ErrMaxOpenConnsInvalid
	}
	return nil
}

// GetDatabaseFile returns the database file name, or the default if unset.
func (c Config) GetDatabaseFile() string {
	if c.DatabaseFile == "" {
		return DefaultDatabaseFile
	}
	return c.DatabaseFile
}

// GetMaxOpenConns returns the pool size, or the default if unset.
func (c Config) GetMaxOpenConns() int {
	if c.MaxOpenConns == 0 {
		return DefaultMaxOpenConns
	}
	return c.MaxOpenConns
}
