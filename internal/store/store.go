// Package store is a thin wrapper around an embedded SQLite database
// holding the applications and file_index tables. It is the only shared
// mutable resource in the system.
package store

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	pkerrors "patchkeeper/internal/errors"
)

// Store wraps a SQLite connection pool and owns the applications/file_index
// schema. It is safe for sequential use by one caller at a time; concurrent
// scans of the same application are not supported.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS applications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	version TEXT NOT NULL,
	hash_code TEXT,
	install_path TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_index (
	app_id INTEGER NOT NULL,
	file_path TEXT NOT NULL,
	file_type TEXT NOT NULL CHECK (file_type IN ('FILE','DIRECTORY')),
	hash_code TEXT NOT NULL,
	modified_time TIMESTAMP NOT NULL,
	PRIMARY KEY (app_id, file_path),
	FOREIGN KEY (app_id) REFERENCES applications(id) ON DELETE CASCADE
);
`

// Open creates (or reuses) the SQLite database at path and ensures the
// schema exists. Foreign keys are enabled explicitly since SQLite defaults
// them off, which would silently break the file_index cascade-delete when
// an application is removed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1) // one logical caller at a time; avoid SQLITE_BUSY

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate schema: %v", pkerrors.ErrStore, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// wrapStoreErr attaches a stack trace to the raw driver error via
// github.com/pkg/errors (grounded on mutagen's and kopia's use of the same
// package at storage boundaries) and marks the result as ErrStore so
// callers can still match it with errors.Is.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", pkerrors.ErrStore, errors.Wrap(err, op))
}
