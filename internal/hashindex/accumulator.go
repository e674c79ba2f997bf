// Package hashindex implements the indexed recursive hasher: the hash
// accumulator, file hasher, and directory hasher that together walk an
// application's install tree, produce a stable aggregate SHA-256 digest per
// node, and classify Created/Modified/Deleted changes against the
// persistent index.
//
// A node's digest never mixes a child's raw bytes into its parent: it folds
// in the child's own hex digest string instead, so a directory's digest
// depends only on its children's digests in sorted path order, not on
// their names, sizes or on-disk layout.
package hashindex

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"patchkeeper/internal/logging"
)

// FileType matches the file_type values stored in file_index.
type FileType string

const (
	FileTypeFile      FileType = "FILE"
	FileTypeDirectory FileType = "DIRECTORY"
)

// ChangeType classifies how a path differs from the prior index.
type ChangeType string

const (
	ChangeCreated  ChangeType = "Created"
	ChangeModified ChangeType = "Modified"
	ChangeDeleted  ChangeType = "Deleted"
)

// FileChange is one entry in a scan's change set; it exists only in memory
// for the duration of a scan and is never itself persisted as a row.
type FileChange struct {
	FilePath   string
	FileType   FileType
	ChangeType ChangeType
}

// Config carries the per-scan parameters threaded through every
// accumulator and hasher invocation: which application is being scanned,
// the store to consult/update, and whether the scan should persist what it
// finds. It is passed by value, never held as process-wide state, so two
// scans of different applications never interfere with each other.
//
// Log is optional; when set, every finalized node emits one debug line
// reporting its path and digest, and whether the digest came from cache or
// was recomputed. A nil Log disables these lines entirely.
type Config struct {
	AppID       int64
	Store       IndexStore
	UpdateIndex bool
	Log         *logging.Logger
}

// Accumulator is a streaming SHA-256 wrapper that also carries the node's
// identity, an optional pre-known digest, and the change events discovered
// while producing it.
type Accumulator struct {
	path         string
	fileType     FileType
	modifiedTime time.Time
	config       Config

	hasher       sha256Hasher
	cachedDigest string
	hasCached    bool
	changes      []FileChange

	finalized    bool
	finalDigest  string
	finalChanges []FileChange
}

// sha256Hasher is the subset of hash.Hash this package relies on, named so
// tests can substitute a deterministic stand-in if ever needed.
type sha256Hasher interface {
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
}

// NewAccumulator builds a fresh accumulator with an empty rolling hasher —
// the constructor used when a node has no usable cached digest.
func NewAccumulator(path string, fileType FileType, modifiedTime time.Time, config Config) *Accumulator {
	return &Accumulator{
		path:         path,
		fileType:     fileType,
		modifiedTime: modifiedTime,
		config:       config,
		hasher:       sha256.New(),
	}
}

// NewAccumulatorFromCachedDigest builds an accumulator that already knows
// its digest (a cache hit); the rolling hasher is never used.
func NewAccumulatorFromCachedDigest(path string, fileType FileType, modifiedTime time.Time, config Config, digest string) *Accumulator {
	return &Accumulator{
		path:         path,
		fileType:     fileType,
		modifiedTime: modifiedTime,
		config:       config,
		cachedDigest: digest,
		hasCached:    true,
	}
}

// AppendBytes feeds bytes into the rolling SHA-256. It has no effect on the
// change list and is a no-op once the node already carries a cached digest,
// since a cached accumulator's finalize never reads the hasher.
func (a *Accumulator) AppendBytes(b []byte) {
	if a.hasCached {
		return
	}
	_, _ = a.hasher.Write(b)
}

// AppendChange records a change event for this node without affecting the
// hash state.
func (a *Accumulator) AppendChange(path string, fileType FileType, change ChangeType) {
	a.changes = append(a.changes, FileChange{FilePath: path, FileType: fileType, ChangeType: change})
}

// Extend consumes other: it finalizes other, feeds the resulting digest's
// lowercase hex ASCII bytes into this accumulator's rolling hasher, and
// appends other's changes to this one's. This is the sole composition rule
// in the system — children always contribute their hex digest string, never
// their raw bytes, which is what makes a cache-hit child and a freshly
// recomputed child with the same digest indistinguishable to the parent.
func (a *Accumulator) Extend(other *Accumulator) error {
	digest, changes, err := other.Finalize()
	if err != nil {
		return err
	}
	a.AppendBytes([]byte(digest))
	a.changes = append(a.changes, changes...)
	return nil
}

// Finalize returns the node's digest and its change list. A cached
// accumulator returns its pre-known digest with an empty change list and
// never touches the store. Otherwise it computes the digest from the
// rolling hasher and, if config.UpdateIndex is set, upserts the resulting
// row into the index store. Finalize is idempotent: calling it more than
// once returns the same result without re-upserting.
func (a *Accumulator) Finalize() (string, []FileChange, error) {
	if a.finalized {
		return a.finalDigest, a.finalChanges, nil
	}

	if a.hasCached {
		a.finalized = true
		a.finalDigest = a.cachedDigest
		a.finalChanges = nil
		a.logEntry(a.finalDigest, true)
		return a.finalDigest, a.finalChanges, nil
	}

	sum := a.hasher.Sum(nil)
	digest := hex.EncodeToString(sum)

	if a.config.UpdateIndex {
		if err := a.config.Store.UpsertFileIndex(a.path, a.fileType, digest, a.modifiedTime); err != nil {
			return "", nil, err
		}
	}

	a.finalized = true
	a.finalDigest = digest
	a.finalChanges = a.changes
	a.logEntry(a.finalDigest, false)
	return a.finalDigest, a.finalChanges, nil
}

// logEntry emits one debug line per finalized node, mirroring the
// accumulator's own per-entry progress reporting: hash, path, and whether
// the digest was served from cache or recomputed. A nil config.Log is the
// default in tests and keeps this a no-op.
func (a *Accumulator) logEntry(digest string, cached bool) {
	if a.config.Log == nil {
		return
	}
	a.config.Log.Debug("hashed entry",
		logging.String("hash", digest),
		logging.String("entry", a.path),
		logging.Bool("cached", cached))
}
