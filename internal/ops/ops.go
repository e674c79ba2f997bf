// Package ops implements the operations façade: check, update, add,
// remove, and list, each orchestrating the store, the hasher, and (for
// update) the packager.
package ops

import (
	"context"
	"fmt"

	"golang.org/x/mod/semver"

	"patchkeeper/internal/appmanager"
	pkerrors "patchkeeper/internal/errors"
	"patchkeeper/internal/hashindex"
	"patchkeeper/internal/logging"
	"patchkeeper/internal/packager"
	"patchkeeper/internal/store"
)

// Facade wires the store, hasher and packager together behind the
// operations the CLI exposes.
type Facade struct {
	store  *store.Store
	log    *logging.Logger
	appmgr *appmanager.Manager
}

func New(s *store.Store, log *logging.Logger) *Facade {
	return &Facade{store: s, log: log, appmgr: appmanager.New(s, log)}
}

// ScanResult reports a completed scan's root digest and change set.
type ScanResult struct {
	App     store.Application
	Digest  string
	Changes []hashindex.FileChange
}

// Check runs a read-only scan (update_index=false) and reports what
// differs from the application's stored hash_code without mutating the
// index.
func (f *Facade) Check(ctx context.Context, name string) (ScanResult, error) {
	return f.scan(ctx, name, false)
}

// Add registers a new application and performs its first index-populating
// scan, delegating to the application manager.
func (f *Facade) Add(ctx context.Context, name, version, installPath string) (store.Application, error) {
	return f.appmgr.CreateApplication(ctx, name, version, installPath)
}

// Remove deletes an application and (via ON DELETE CASCADE) its indexed
// files. Store errors other than "not found" are logged and swallowed:
// removal is best-effort once the caller has already decided to drop the
// application.
func (f *Facade) Remove(ctx context.Context, name string) error {
	if err := f.store.RemoveApplication(ctx, name); err != nil {
		if pkerrors.Is(err, pkerrors.ErrApplicationNotFound) {
			return err
		}
		f.log.Warn("remove application: store error", logging.String("name", name), logging.Err(err))
		return nil
	}
	return nil
}

// List returns every registered application. Store errors are logged and
// swallowed: list is a best-effort, read-only path.
func (f *Facade) List(ctx context.Context) []store.Application {
	apps, err := f.store.ListApplications(ctx)
	if err != nil {
		f.log.Warn("list applications: store error", logging.Err(err))
		return nil
	}
	return apps
}

// Update runs an index-updating scan; if the resulting root digest differs
// from the stored one or the scan reported any change, it rewrites the
// application's version and hash_code, then packages the change set into an
// archive. A scan with the stored digest and an empty change set reports a
// clean, packager-free result.
func (f *Facade) Update(ctx context.Context, name, newVersion, outDir string) (ScanResult, *packager.Result, error) {
	app, err := f.store.GetApplicationByName(ctx, name)
	if err != nil {
		return ScanResult{}, nil, err
	}
	if !app.HashCode.Valid {
		return ScanResult{}, nil, fmt.Errorf("%w: %s", pkerrors.ErrApplicationNotInitialized, name)
	}

	result, err := f.runScan(ctx, app, true)
	if err != nil {
		return ScanResult{}, nil, err
	}

	if result.Digest == app.HashCode.String && len(result.Changes) == 0 {
		return result, nil, nil
	}

	f.warnIfVersionNotAdvancing(app.Version, newVersion)

	if err := f.store.UpdateApplicationHash(ctx, app.ID, newVersion, result.Digest); err != nil {
		return ScanResult{}, nil, err
	}

	pkg := packager.New(outDir)
	pkgResult, err := pkg.Package(app, newVersion, result.Changes)
	if err != nil {
		return ScanResult{}, nil, err
	}

	return result, &pkgResult, nil
}

// warnIfVersionNotAdvancing logs (but never fails the update on) a new
// version string that, by semver ordering, is not newer than the
// application's current version. Versions that aren't valid semver at all
// are left alone — many applications use non-semver version schemes.
func (f *Facade) warnIfVersionNotAdvancing(current, next string) {
	c, n := canonicalSemver(current), canonicalSemver(next)
	if !semver.IsValid(c) || !semver.IsValid(n) {
		return
	}
	if semver.Compare(n, c) <= 0 {
		f.log.Warn("new version does not advance semver ordering",
			logging.String("current_version", current), logging.String("new_version", next))
	}
}

// canonicalSemver prefixes a bare "1.2.3"-style version with "v" so it can
// be validated/compared by golang.org/x/mod/semver, which requires the
// leading "v".
func canonicalSemver(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}

func (f *Facade) scan(ctx context.Context, name string, updateIndex bool) (ScanResult, error) {
	app, err := f.store.GetApplicationByName(ctx, name)
	if err != nil {
		return ScanResult{}, err
	}
	if !app.HashCode.Valid {
		return ScanResult{}, fmt.Errorf("%w: %s", pkerrors.ErrApplicationNotInitialized, name)
	}
	return f.runScan(ctx, app, updateIndex)
}

func (f *Facade) runScan(ctx context.Context, app store.Application, updateIndex bool) (ScanResult, error) {
	adapter := store.NewHashIndexAdapter(ctx, f.store, app.ID)
	cfg := hashindex.Config{AppID: app.ID, Store: adapter, UpdateIndex: updateIndex, Log: f.log}

	root, err := hashindex.HashDirectory(app.InstallPath, cfg)
	if err != nil {
		return ScanResult{}, err
	}
	digest, changes, err := root.Finalize()
	if err != nil {
		return ScanResult{}, err
	}

	return ScanResult{App: app, Digest: digest, Changes: changes}, nil
}
