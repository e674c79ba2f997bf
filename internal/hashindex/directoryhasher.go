package hashindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	pkerrors "patchkeeper/internal/errors"
)

// HashDirectory is a recursive walker that orders children deterministically,
// folds each child's digest into a parent accumulator, and detects deletions
// by differencing the prior indexed children against the current ones.
func HashDirectory(path string, config Config) (*Accumulator, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkerrors.ErrIO, errors.Wrapf(err, "stat %s", path))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", pkerrors.ErrNotADirectory, path)
	}
	mtime := info.ModTime().UTC()

	fullSubtree, err := config.Store.FilesInSubtree(path)
	if err != nil {
		return nil, err
	}
	directChildren, err := config.Store.ListIndexedFiles(path)
	if err != nil {
		return nil, err
	}
	previousChildren := make(map[string]IndexedEntry, len(directChildren))
	for _, e := range directChildren {
		previousChildren[e.FilePath] = e
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkerrors.ErrIO, errors.Wrapf(err, "readdir %s", path))
	}
	sort.Slice(entries, func(i, j int) bool {
		return filepath.Join(path, entries[i].Name()) < filepath.Join(path, entries[j].Name())
	})

	parent := NewAccumulator(path, FileTypeDirectory, mtime, config)
	currentChildren := make(map[string]FileType, len(entries))

	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())

		switch {
		case entry.Type().IsDir():
			currentChildren[childPath] = FileTypeDirectory

			child, err := HashDirectory(childPath, config)
			if err != nil {
				return nil, err
			}
			childDigest, _, err := child.Finalize()
			if err != nil {
				return nil, err
			}
			if err := parent.Extend(child); err != nil {
				return nil, err
			}

			if prev, existed := previousChildren[childPath]; !existed {
				parent.AppendChange(childPath, FileTypeDirectory, ChangeCreated)
			} else if prev.HashCode != childDigest {
				parent.AppendChange(childPath, FileTypeDirectory, ChangeModified)
			}

		case entry.Type().IsRegular():
			currentChildren[childPath] = FileTypeFile

			child, err := HashFile(childPath, config)
			if err != nil {
				return nil, err
			}
			if err := parent.Extend(child); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("%w: %s", pkerrors.ErrUnsupportedEntryKind, childPath)
		}
	}

	if err := detectDeletions(path, previousChildren, currentChildren, fullSubtree, parent, config); err != nil {
		return nil, err
	}

	return parent, nil
}

// detectDeletions appends a Deleted change (and, if update_index is set,
// deletes the store row) for every previously indexed direct child absent
// from the current listing. Deleted directories fan out a Deleted event
// for every descendant previously recorded under them.
func detectDeletions(
	root string,
	previousChildren map[string]IndexedEntry,
	currentChildren map[string]FileType,
	fullSubtree []IndexedEntry,
	parent *Accumulator,
	config Config,
) error {
	deletedPaths := make([]string, 0)
	for p := range previousChildren {
		if _, stillPresent := currentChildren[p]; !stillPresent {
			deletedPaths = append(deletedPaths, p)
		}
	}
	sort.Strings(deletedPaths)

	for _, deletedPath := range deletedPaths {
		prev := previousChildren[deletedPath]

		if prev.FileType == FileTypeDirectory {
			prefix := deletedPath + string(filepath.Separator)
			descendants := make([]IndexedEntry, 0)
			for _, e := range fullSubtree {
				if strings.HasPrefix(e.FilePath, prefix) {
					descendants = append(descendants, e)
				}
			}
			sort.Slice(descendants, func(i, j int) bool { return descendants[i].FilePath < descendants[j].FilePath })

			for _, d := range descendants {
				parent.AppendChange(d.FilePath, d.FileType, ChangeDeleted)
				if config.UpdateIndex {
					if err := config.Store.DeleteFileIndex(d.FilePath); err != nil {
						return err
					}
				}
			}
		}

		parent.AppendChange(deletedPath, prev.FileType, ChangeDeleted)
		if config.UpdateIndex {
			if err := config.Store.DeleteFileIndex(deletedPath); err != nil {
				return err
			}
		}
	}

	return nil
}
