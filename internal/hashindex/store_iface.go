package hashindex

import "time"

// IndexedEntry is the subset of a file_index row the hasher needs to
// decide cache-hit/miss and to drive deletion detection.
type IndexedEntry struct {
	FilePath     string
	FileType     FileType
	HashCode     string
	ModifiedTime time.Time
}

// IndexStore is a thin interface over the persistent store so this package
// never depends on a concrete database driver. internal/store provides the
// implementation used in production; tests may supply an in-memory fake.
type IndexStore interface {
	// LastIndex returns the stored entry for path, or nil if none exists.
	LastIndex(path string) (*IndexedEntry, error)

	// ListIndexedFiles returns the direct children of parentDir previously
	// indexed, i.e. entries whose stored path's parent is exactly parentDir.
	ListIndexedFiles(parentDir string) ([]IndexedEntry, error)

	// FilesInSubtree returns every indexed entry at or beneath root,
	// regardless of depth, used for deletion fan-out.
	FilesInSubtree(root string) ([]IndexedEntry, error)

	// UpsertFileIndex persists a freshly computed digest for path.
	UpsertFileIndex(path string, fileType FileType, hashCode string, modifiedTime time.Time) error

	// DeleteFileIndex removes path's entry because it no longer exists on disk.
	DeleteFileIndex(path string) error
}
