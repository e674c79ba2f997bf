package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	pkerrors "patchkeeper/internal/errors"
)

// Application mirrors the applications table row.
type Application struct {
	ID          int64
	Name        string
	Version     string
	InstallPath string
	HashCode    sql.NullString
}

// CreateApplication inserts a new application row with no hash set, the
// first step of registering a new application before its initial scan. A
// unique-name violation is translated to ErrDuplicateApplication rather
// than a raw SQLite error.
func (s *Store) CreateApplication(ctx context.Context, name, version, installPath string) (Application, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (name, version, hash_code, install_path) VALUES (?, ?, NULL, ?)`,
		name, version, installPath)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return Application{}, fmt.Errorf("%w: %s", pkerrors.ErrDuplicateApplication, name)
		}
		return Application{}, wrapStoreErr("create application", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Application{}, wrapStoreErr("create application", err)
	}
	return Application{ID: id, Name: name, Version: version, InstallPath: installPath}, nil
}

// UpdateApplicationHash rewrites an application's version and hash_code
// after a successful scan.
func (s *Store) UpdateApplicationHash(ctx context.Context, id int64, version, hashCode string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE applications SET version = ?, hash_code = ? WHERE id = ?`,
		version, hashCode, id)
	return wrapStoreErr("update application hash", err)
}

// GetApplicationByName fetches a single application row, returning
// ErrApplicationNotFound (not a generic store error) when absent — callers
// rely on distinguishing this case from other failures.
func (s *Store) GetApplicationByName(ctx context.Context, name string) (Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, install_path, hash_code FROM applications WHERE name = ?`, name)

	var app Application
	if err := row.Scan(&app.ID, &app.Name, &app.Version, &app.InstallPath, &app.HashCode); err != nil {
		if err == sql.ErrNoRows {
			return Application{}, fmt.Errorf("%w: %s", pkerrors.ErrApplicationNotFound, name)
		}
		return Application{}, wrapStoreErr("get application", err)
	}
	return app, nil
}

// ListApplications returns every registered application, ordered by name for
// stable CLI output.
func (s *Store) ListApplications(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, version, install_path, hash_code FROM applications ORDER BY name`)
	if err != nil {
		return nil, wrapStoreErr("list applications", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(&app.ID, &app.Name, &app.Version, &app.InstallPath, &app.HashCode); err != nil {
			return nil, wrapStoreErr("list applications", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// RemoveApplication deletes an application row; the file_index cascade
// (ON DELETE CASCADE) removes its indexed files as a side effect.
func (s *Store) RemoveApplication(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE name = ?`, name)
	if err != nil {
		return wrapStoreErr("remove application", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapStoreErr("remove application", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", pkerrors.ErrApplicationNotFound, name)
	}
	return nil
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
