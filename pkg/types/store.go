package types

import "errors"

// Store defines the lifecycle of a storage backend. Callers attach with a
// Config, obtain the RecordTable, and detach when done.
type Store interface {
	// Attach opens the backend described by config, creating the data
	// directory and schema if needed. Returns ErrAlreadyAttached if called
	// while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	// After Detach, Records returns ErrStoreDetached.
	Detach() error

	// Records returns the query layer for the records table.
	Records() (RecordTable, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
