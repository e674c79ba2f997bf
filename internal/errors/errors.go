// Package errors defines the typed error kinds shared across patchkeeper's
// indexing, storage and packaging layers so callers can discriminate
// failures with errors.Is instead of string matching.
package errors

import "errors"

// Sentinel error kinds. Wrap these with fmt.Errorf("...: %w", ErrX) or
// github.com/pkg/errors.Wrap at the point of failure so the sentinel survives
// errors.Is checks up the call stack.
var (
	ErrNotADirectory             = errors.New("not a directory")
	ErrNotAFile                  = errors.New("not a file")
	ErrUnsupportedEntryKind      = errors.New("unsupported directory entry kind")
	ErrStore                     = errors.New("store error")
	ErrIO                        = errors.New("io error")
	ErrApplicationNotFound       = errors.New("application not found")
	ErrApplicationNotInitialized = errors.New("application not initialized")
	ErrPathOutsideInstall        = errors.New("path outside install root")
	ErrMissingArgument           = errors.New("missing required argument")
	ErrDuplicateApplication      = errors.New("application already exists")
)

// Is reports whether err wraps target anywhere in its chain. Re-exported so
// callers only need to import this package, not also the stdlib errors
// package, when checking a patchkeeper sentinel.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
