package types

import (
	"context"
	"errors"
)

// RecordTable provides the query layer over the records table.
// Every write commits immediately.
type RecordTable interface {
	// List returns every record in storage order. The result is never nil.
	List(ctx context.Context) ([]Record, error)

	// Get retrieves the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Get(ctx context.Context, id int64) (Record, error)

	// Insert appends a new record and returns the ID assigned by storage.
	Insert(ctx context.Context, title, description string) (int64, error)

	// Update overwrites title and description of the record with the given ID.
	// Returns ErrNotFound, with nothing changed, if the ID does not exist.
	Update(ctx context.Context, id int64, title, description string) error

	// Delete removes the record with the given ID.
	// Returns ErrNotFound, with nothing changed, if the ID does not exist.
	Delete(ctx context.Context, id int64) error

	// SearchByTitle returns records whose title contains substr.
	SearchByTitle(ctx context.Context, substr string) ([]Record, error)

	// SearchByDescription returns records whose description contains substr.
	SearchByDescription(ctx context.Context, substr string) ([]Record, error)

	// SearchByEither returns records whose title or description contains substr.
	SearchByEither(ctx context.Context, substr string) ([]Record, error)

	// Search dispatches to one of the three searches by field.
	Search(ctx context.Context, field SearchField, substr string) ([]Record, error)
}

// Record operation errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidID    = errors.New("invalid record ID")
	ErrInvalidField = errors.New("invalid search field")
)
