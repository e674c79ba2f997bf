// Package appmanager registers a new application and runs its first full,
// index-updating scan so the application row ends up with a populated root
// digest.
package appmanager

import (
	"context"
	"path/filepath"

	"patchkeeper/internal/hashindex"
	"patchkeeper/internal/logging"
	"patchkeeper/internal/store"
)

// Manager creates applications and performs their initial scan.
type Manager struct {
	store *store.Store
	log   *logging.Logger
}

func New(s *store.Store, log *logging.Logger) *Manager {
	return &Manager{store: s, log: log}
}

// CreateApplication inserts the application row, runs a full update-index
// scan over its install path, and writes back the resulting root digest.
// A duplicate name surfaces as ErrDuplicateApplication from the insert
// step; if the scan itself fails afterward, the row is left behind with no
// hash_code set, so a failed add can be retried by removing and re-adding
// the application.
func (m *Manager) CreateApplication(ctx context.Context, name, version, installPath string) (store.Application, error) {
	absPath, err := filepath.Abs(installPath)
	if err != nil {
		return store.Application{}, err
	}

	app, err := m.store.CreateApplication(ctx, name, version, absPath)
	if err != nil {
		return store.Application{}, err
	}

	adapter := store.NewHashIndexAdapter(ctx, m.store, app.ID)
	cfg := hashindex.Config{AppID: app.ID, Store: adapter, UpdateIndex: true, Log: m.log}

	root, err := hashindex.HashDirectory(absPath, cfg)
	if err != nil {
		return store.Application{}, err
	}
	digest, changes, err := root.Finalize()
	if err != nil {
		return store.Application{}, err
	}

	if err := m.store.UpdateApplicationHash(ctx, app.ID, version, digest); err != nil {
		return store.Application{}, err
	}

	m.log.Info("application created",
		logging.String("name", name),
		logging.String("hash", digest),
		logging.Int("changes", len(changes)))

	app.HashCode.String, app.HashCode.Valid = digest, true
	return app, nil
}
