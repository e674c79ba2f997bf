package store

import (
	"context"
	"time"

	"patchkeeper/internal/hashindex"
)

// HashIndexAdapter adapts a Store (and a fixed application id) to the
// hashindex.IndexStore interface, so the hasher never depends on
// database/sql or the applications table directly.
type HashIndexAdapter struct {
	store *Store
	appID int64
	ctx   context.Context
}

// NewHashIndexAdapter scopes store to a single application for the
// duration of one scan.
func NewHashIndexAdapter(ctx context.Context, store *Store, appID int64) *HashIndexAdapter {
	return &HashIndexAdapter{store: store, appID: appID, ctx: ctx}
}

var _ hashindex.IndexStore = (*HashIndexAdapter)(nil)

func (a *HashIndexAdapter) LastIndex(path string) (*hashindex.IndexedEntry, error) {
	e, err := a.store.LastIndex(a.ctx, a.appID, path)
	if err != nil || e == nil {
		return nil, err
	}
	return &hashindex.IndexedEntry{
		FilePath:     e.FilePath,
		FileType:     hashindex.FileType(e.FileType),
		HashCode:     e.HashCode,
		ModifiedTime: e.ModifiedTime,
	}, nil
}

func (a *HashIndexAdapter) ListIndexedFiles(parentDir string) ([]hashindex.IndexedEntry, error) {
	entries, err := a.store.ListIndexedFiles(a.ctx, a.appID, parentDir)
	if err != nil {
		return nil, err
	}
	return toIndexedEntries(entries), nil
}

func (a *HashIndexAdapter) FilesInSubtree(root string) ([]hashindex.IndexedEntry, error) {
	entries, err := a.store.FilesInSubtree(a.ctx, a.appID, root)
	if err != nil {
		return nil, err
	}
	return toIndexedEntries(entries), nil
}

func (a *HashIndexAdapter) UpsertFileIndex(path string, fileType hashindex.FileType, hashCode string, modifiedTime time.Time) error {
	return a.store.UpsertFileIndex(a.ctx, FileIndexEntry{
		AppID:        a.appID,
		FilePath:     path,
		FileType:     FileType(fileType),
		HashCode:     hashCode,
		ModifiedTime: modifiedTime,
	})
}

func (a *HashIndexAdapter) DeleteFileIndex(path string) error {
	return a.store.DeleteFileIndex(a.ctx, a.appID, path)
}

func toIndexedEntries(entries []FileIndexEntry) []hashindex.IndexedEntry {
	out := make([]hashindex.IndexedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, hashindex.IndexedEntry{
			FilePath:     e.FilePath,
			FileType:     hashindex.FileType(e.FileType),
			HashCode:     e.HashCode,
			ModifiedTime: e.ModifiedTime,
		})
	}
	return out
}
