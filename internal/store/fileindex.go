package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"
)

// FileType mirrors the file_type CHECK constraint on file_index.
type FileType string

const (
	FileTypeFile      FileType = "FILE"
	FileTypeDirectory FileType = "DIRECTORY"
)

// FileIndexEntry mirrors a file_index row.
type FileIndexEntry struct {
	AppID        int64
	FilePath     string
	FileType     FileType
	HashCode     string
	ModifiedTime time.Time
}

// LastIndex fetches the single indexed entry for path, if any. It is the
// cache lookup consulted by the file hasher to decide cache-hit vs
// cache-miss.
func (s *Store) LastIndex(ctx context.Context, appID int64, path string) (*FileIndexEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT app_id, file_path, file_type, hash_code, modified_time
		 FROM file_index WHERE app_id = ? AND file_path = ?`, appID, path)

	var e FileIndexEntry
	var ft string
	if err := row.Scan(&e.AppID, &e.FilePath, &ft, &e.HashCode, &e.ModifiedTime); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, wrapStoreErr("last index", err)
	}
	e.FileType = FileType(ft)
	return &e, nil
}

// FilesInSubtree returns every indexed entry whose path is root itself or
// lies anywhere beneath it, regardless of depth. Directory hashing needs
// the full subtree (not just direct children) to detect deletions that
// cascade below a removed directory.
func (s *Store) FilesInSubtree(ctx context.Context, appID int64, root string) ([]FileIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT app_id, file_path, file_type, hash_code, modified_time
		 FROM file_index WHERE app_id = ? AND (file_path = ? OR file_path LIKE ? ESCAPE '\')
		 ORDER BY file_path`,
		appID, root, likePrefix(root))
	if err != nil {
		return nil, wrapStoreErr("files in subtree", err)
	}
	defer rows.Close()

	var entries []FileIndexEntry
	for rows.Next() {
		var e FileIndexEntry
		var ft string
		if err := rows.Scan(&e.AppID, &e.FilePath, &ft, &e.HashCode, &e.ModifiedTime); err != nil {
			return nil, wrapStoreErr("files in subtree", err)
		}
		e.FileType = FileType(ft)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListIndexedFiles returns the direct children of parentDir previously
// indexed for appID: the full subtree is fetched and then filtered down to
// entries whose filepath.Dir equals parentDir exactly, mirroring the Rust
// get_direct_children helper rather than relying on a LIKE pattern that
// would also match grandchildren.
func (s *Store) ListIndexedFiles(ctx context.Context, appID int64, parentDir string) ([]FileIndexEntry, error) {
	all, err := s.FilesInSubtree(ctx, appID, parentDir)
	if err != nil {
		return nil, err
	}

	children := make([]FileIndexEntry, 0, len(all))
	for _, e := range all {
		if e.FilePath == parentDir {
			continue
		}
		if filepath.Dir(e.FilePath) == parentDir {
			children = append(children, e)
		}
	}
	return children, nil
}

// UpsertFileIndex inserts or replaces an entry, called by the hasher on a
// cache miss once it has recomputed a digest.
func (s *Store) UpsertFileIndex(ctx context.Context, e FileIndexEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_index (app_id, file_path, file_type, hash_code, modified_time)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (app_id, file_path) DO UPDATE SET
		   file_type = excluded.file_type,
		   hash_code = excluded.hash_code,
		   modified_time = excluded.modified_time`,
		e.AppID, e.FilePath, string(e.FileType), e.HashCode, e.ModifiedTime)
	return wrapStoreErr("upsert file index", err)
}

// DeleteFileIndex removes a single entry, used when the hasher detects a
// previously-indexed path no longer exists on disk.
func (s *Store) DeleteFileIndex(ctx context.Context, appID int64, path string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM file_index WHERE app_id = ? AND file_path = ?`, appID, path)
	return wrapStoreErr("delete file index", err)
}

// likePrefix builds a LIKE pattern matching every path strictly beneath
// root, escaping SQLite's own LIKE metacharacters so a path component
// containing '%' or '_' can't widen the match.
func likePrefix(root string) string {
	escaped := strings.NewReplacer("\\", "\\\\", "%", "\\%", "_", "\\_").Replace(root)
	return escaped + string(filepath.Separator) + "%"
}
