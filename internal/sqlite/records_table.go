// This file implements the records table accessor for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/crudweb/pkg/types"
)

// Compile-time interface check: recordsTable must implement RecordTable.
var _ types.RecordTable = (*recordsTable)(nil)

// recordsTable implements types.RecordTable over the records table.
// Each call acquires a pooled connection for a single statement.
type recordsTable struct {
	backend  *Backend
	pushdown bool // evaluate searches in SQL instead of in memory
}

// conn returns the pool, or ErrStoreDetached. The caller must hold
// backend.mu for reading.
func (rt *recordsTable) conn() (*sql.DB, error) {
	if !rt.backend.attached || rt.backend.db == nil {
		return nil, types.ErrStoreDetached
	}
	return rt.backend.db, nil
}

// List returns every record ordered by id.
func (rt *recordsTable) List(ctx context.Context) ([]types.Record, error) {
	rt.backend.mu.RLock()
	defer rt.backend.mu.RUnlock()

	db, err := rt.conn()
	if err != nil {
		return nil, err
	}
	return queryRecords(ctx, db, selectRecords+" ORDER BY id")
}

// Get retrieves a record by ID.
// Returns ErrInvalidID if id is not positive, ErrNotFound if absent.
func (rt *recordsTable) Get(ctx context.Context, id int64) (types.Record, error) {
	if id <= 0 {
		return types.Record{}, types.ErrInvalidID
	}

	rt.backend.mu.RLock()
	defer rt.backend.mu.RUnlock()

	db, err := rt.conn()
	if err != nil {
		return types.Record{}, err
	}

	var r types.Record
	err = db.QueryRowContext(ctx, selectRecords+" WHERE id = ?", id).
		Scan(&r.ID, &r.Title, &r.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, types.ErrNotFound
	}
	if err != nil {
		return types.Record{}, fmt.Errorf("getting record %d: %w", id, err)
	}
	return r, nil
}

// Insert creates a record and returns the ID assigned by SQLite.
func (rt *recordsTable) Insert(ctx context.Context, title, description string) (int64, error) {
	rt.backend.mu.RLock()
	defer rt.backend.mu.RUnlock()

	db, err := rt.conn()
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx,
		"INSERT INTO records (title, description) VALUES (?, ?)",
		title, description,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted record id: %w", err)
	}
	return id, nil
}

// Update overwrites title and description of an existing record.
// Returns ErrNotFound if no row has the given id.
func (rt *recordsTable) Update(ctx context.Context, id int64, title, description string) error {
	if id <= 0 {
		return types.ErrInvalidID
	}

	rt.backend.mu.RLock()
	defer rt.backend.mu.RUnlock()

	db, err := rt.conn()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		"UPDATE records SET title = ?, description = ? WHERE id = ?",
		title, description, id,
	)
	if err != nil {
		return fmt.Errorf("updating record %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// Delete removes a record. Returns ErrNotFound if no row has the given id.
func (rt *recordsTable) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}

	rt.backend.mu.RLock()
	defer rt.backend.mu.RUnlock()

	db, err := rt.conn()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	return requireAffected(res, id)
}

// SearchByTitle returns records whose title contains substr.
func (rt *recordsTable) SearchByTitle(ctx context.Context, substr string) ([]types.Record, error) {
	return rt.Search(ctx, types.FieldTitle, substr)
}

// SearchByDescription returns records whose description contains substr.
func (rt *recordsTable) SearchByDescription(ctx context.Context, substr string) ([]types.Record, error) {
	return rt.Search(ctx, types.FieldDescription, substr)
}

// SearchByEither returns records whose title or description contains substr.
func (rt *recordsTable) SearchByEither(ctx context.Context, substr string) ([]types.Record, error) {
	return rt.Search(ctx, types.FieldEither, substr)
}

// Search returns records containing substr in field, in storage order.
// Matching is case-sensitive in both evaluation modes.
func (rt *recordsTable) Search(ctx context.Context, field types.SearchField, substr string) ([]types.Record, error) {
	where, ok := searchPredicates[field]
	if !ok {
		return nil, types.ErrInvalidField
	}

	if !rt.pushdown || substr == "" {
		all, err := rt.List(ctx)
		if err != nil {
			return nil, err
		}
		return types.FilterRecords(all, field, substr), nil
	}

	rt.backend.mu.RLock()
	defer rt.backend.mu.RUnlock()

	db, err := rt.conn()
	if err != nil {
		return nil, err
	}

	// instr is a byte-wise comparison; LIKE would fold ASCII case.
	args := []any{substr}
	if field == types.FieldEither {
		args = append(args, substr)
	}
	return queryRecords(ctx, db, selectRecords+" WHERE "+where+" ORDER BY id", args...)
}

// searchPredicates holds the SQL form of each search field.
var searchPredicates = map[types.SearchField]string{
	types.FieldTitle:       "instr(title, ?) > 0",
	types.FieldDescription: "instr(description, ?) > 0",
	types.FieldEither:      "(instr(title, ?) > 0 OR instr(description, ?) > 0)",
}

// queryRecords runs a SELECT of recordColumns and scans every row.
// The result is never nil.
func queryRecords(ctx context.Context, db *sql.DB, query string, args ...any) ([]types.Record, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		var r types.Record
		if err := rows.Scan(&r.ID, &r.Title, &r.Description); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// requireAffected maps a zero-row write to ErrNotFound.
func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected for record %d: %w", id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}
