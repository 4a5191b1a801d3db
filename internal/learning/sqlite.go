package learning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"nexusprep/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS firm_mappings (
	firm_id       TEXT    NOT NULL,
	header        TEXT    NOT NULL,
	source_column TEXT    NOT NULL,
	field         TEXT    NOT NULL,
	confidence    INTEGER NOT NULL,
	times_seen    INTEGER NOT NULL DEFAULT 1,
	updated_at    TEXT    NOT NULL,
	PRIMARY KEY (firm_id, header)
)`

const upsert = `
INSERT INTO firm_mappings (firm_id, header, source_column, field, confidence, times_seen, updated_at)
VALUES (?, ?, ?, ?, ?, 1, ?)
ON CONFLICT (firm_id, header) DO UPDATE SET
	field         = CASE WHEN excluded.confidence >= firm_mappings.confidence THEN excluded.field ELSE firm_mappings.field END,
	source_column = CASE WHEN excluded.confidence >= firm_mappings.confidence THEN excluded.source_column ELSE firm_mappings.source_column END,
	confidence    = MAX(firm_mappings.confidence, excluded.confidence),
	times_seen    = firm_mappings.times_seen + 1,
	updated_at    = excluded.updated_at`

const selectColumns = `SELECT firm_id, header, source_column, field, confidence, times_seen, updated_at FROM firm_mappings`

// SQLiteStore persists learned mappings in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at dsn and migrates the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate firm_mappings: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Lookup returns the entry for a firm's normalized header.
func (s *SQLiteStore) Lookup(ctx context.Context, firmID, header string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE firm_id = ? AND header = ?`, firmID, header)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Record upserts entries in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	ts := s.now().UTC().Format(time.RFC3339Nano)
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.FirmID, e.Header, e.SourceColumn, string(e.Field), e.Confidence, ts); err != nil {
			return fmt.Errorf("upsert %s/%s: %w", e.FirmID, e.Header, err)
		}
	}
	return tx.Commit()
}

// List returns a firm's entries ordered by header.
func (s *SQLiteStore) List(ctx context.Context, firmID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE firm_id = ? ORDER BY header`, firmID)
	if err != nil {
		return nil, fmt.Errorf("list firm %s: %w", firmID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e       Entry
		field   string
		updated string
	)
	if err := row.Scan(&e.FirmID, &e.Header, &e.SourceColumn, &field, &e.Confidence, &e.TimesSeen, &updated); err != nil {
		return Entry{}, err
	}
	e.Field = domain.FieldID(field)
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		e.UpdatedAt = t
	}
	return e, nil
}
