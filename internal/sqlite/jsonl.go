// This file provides JSONL export and import of the records table.
// Export writes atomically with the temp-file, fsync, rename pattern.
package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/crudweb/pkg/types"
)

// ExportJSONL writes every record to path, one JSON object per line.
// Returns the number of records written.
func (b *Backend) ExportJSONL(ctx context.Context, path string) (int, error) {
	records, err := b.Records()
	if err != nil {
		return 0, err
	}
	all, err := records.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := writeJSONL(path, all); err != nil {
		return 0, err
	}
	return len(all), nil
}

// ImportJSONL inserts every well-formed record in path within a single
// transaction. IDs in the file are ignored; storage assigns new ones.
// Blank and malformed lines are skipped. Returns the number inserted.
func (b *Backend) ImportJSONL(ctx context.Context, path string) (int, error) {
	lines, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return 0, types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (title, description) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, line := range lines {
		var r types.Record
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.Title, r.Description); err != nil {
			return 0, fmt.Errorf("importing record: %w", err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return n, nil
}

// readJSONL reads a JSONL file and returns each non-empty, syntactically
// valid line.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return lines, nil
}

// writeJSONL atomically replaces path with one JSON line per record.
func writeJSONL(path string, records []types.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		// Encode terminates each value with a newline.
		if err := enc.Encode(r); err != nil {
			return fail(fmt.Errorf("writing record %d: %w", r.ID, err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
