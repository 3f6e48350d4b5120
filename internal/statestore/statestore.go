// Package statestore persists per-student module state in SQLite. Instance
// state is keyed by (student, location); shared state is keyed by
// (student, category, shared key) so modules of the same type can share
// per-student data. Modules themselves never touch the store; the server
// loads state before instantiating a module and saves it back afterwards.
package statestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS instance_state (
	student    TEXT NOT NULL,
	location   TEXT NOT NULL,
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (student, location)
);

CREATE TABLE IF NOT EXISTS shared_state (
	student    TEXT NOT NULL,
	category   TEXT NOT NULL,
	shared_key TEXT NOT NULL,
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (student, category, shared_key)
);
`

// Store is a SQLite-backed student state store.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the state database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStateError("open_failed", "opening state database", err)
	}

	// SQLite allows one writer; serializing through a single connection
	// avoids SQLITE_BUSY under concurrent request handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewStateError("init_failed", "initializing state schema", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InstanceState returns the serialized state for a student and location, or
// "" when none was saved.
func (s *Store) InstanceState(ctx context.Context, student string, loc course.Location) (string, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM instance_state WHERE student = ? AND location = ?`,
		student, loc.URL()).Scan(&state)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewStateError("load_failed", "loading instance state", err).WithLocation(loc.URL())
	}
	return state, nil
}

// SaveInstanceState upserts the serialized state for a student and location.
func (s *Store) SaveInstanceState(ctx context.Context, student string, loc course.Location, state string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO instance_state (student, location, state, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (student, location) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		student, loc.URL(), state, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.NewStateError("save_failed", "saving instance state", err).WithLocation(loc.URL())
	}
	return nil
}

// SharedState returns the serialized shared state for a student under a
// module type and shared key, or "" when none was saved.
func (s *Store) SharedState(ctx context.Context, student, category, sharedKey string) (string, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM shared_state WHERE student = ? AND category = ? AND shared_key = ?`,
		student, category, sharedKey).Scan(&state)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewStateError("load_failed", "loading shared state", err)
	}
	return state, nil
}

// SaveSharedState upserts the shared state for a student under a module
// type and shared key.
func (s *Store) SaveSharedState(ctx context.Context, student, category, sharedKey, state string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shared_state (student, category, shared_key, state, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (student, category, shared_key) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		student, category, sharedKey, state, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.NewStateError("save_failed", "saving shared state", err)
	}
	return nil
}

// StudentCount returns how many distinct students have saved state.
func (s *Store) StudentCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT student) FROM instance_state`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting students: %w", err)
	}
	return count, nil
}
