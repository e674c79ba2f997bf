package hashindex

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	pkerrors "patchkeeper/internal/errors"
)

// readChunkSize is the buffer size used to stream a file's bytes into the
// rolling hasher without holding the whole file in memory.
const readChunkSize = 64 * 1024

// HashFile builds a hash accumulator for a single regular file at path,
// consulting the index store to decide between cache hit and recompute.
func HashFile(path string, config Config) (*Accumulator, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkerrors.ErrIO, errors.Wrapf(err, "stat %s", path))
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", pkerrors.ErrNotAFile, path)
	}

	mtime := info.ModTime().UTC()

	previous, err := config.Store.LastIndex(path)
	if err != nil {
		return nil, err
	}

	if previous != nil && previous.FileType == FileTypeFile && previous.ModifiedTime.Equal(mtime) && previous.HashCode != "" {
		return NewAccumulatorFromCachedDigest(path, FileTypeFile, mtime, config, previous.HashCode), nil
	}

	acc := NewAccumulator(path, FileTypeFile, mtime, config)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkerrors.ErrIO, errors.Wrapf(err, "open %s", path))
	}
	defer f.Close()

	buf := make([]byte, readChunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			acc.AppendBytes(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %s", pkerrors.ErrIO, errors.Wrapf(readErr, "read %s", path))
		}
	}

	if previous == nil {
		acc.AppendChange(path, FileTypeFile, ChangeCreated)
	} else {
		acc.AppendChange(path, FileTypeFile, ChangeModified)
	}

	return acc, nil
}
