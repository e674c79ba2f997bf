// Package packager implements the patch packager: given a source
// application, a target version, and a change set, it produces a
// deterministic zip archive containing changed-file payloads plus an
// embedded manifest SQLite database describing every change.
package packager

import (
	"archive/zip"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	pkerrors "patchkeeper/internal/errors"
	"patchkeeper/internal/hashindex"
	"patchkeeper/internal/store"
)

// Packager writes patch archives into a configured output directory.
type Packager struct {
	outDir string
}

func New(outDir string) *Packager {
	return &Packager{outDir: outDir}
}

// Result reports the path of the produced archive and how many change
// rows it described.
type Result struct {
	ArchivePath string
	ChangeCount int
}

// Package runs the archive algorithm in one streaming pass: manifest rows
// and zip payload entries are written change-by-change in the order given,
// then the manifest database is embedded last. The archive is built at a
// temporary path and renamed into place only on success, so a failed or
// interrupted run never leaves a partial archive at the final path.
func (p *Packager) Package(app store.Application, targetVersion string, changes []hashindex.FileChange) (Result, error) {
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: create output dir: %v", pkerrors.ErrIO, err)
	}

	archiveName := sanitizeName(app.Name) + "_" + targetVersion + "_update.zip"
	finalArchivePath := filepath.Join(p.outDir, archiveName)
	tmpArchivePath := finalArchivePath + ".tmp-" + uuid.NewString()

	manifestPath := filepath.Join(p.outDir, "patch-"+uuid.NewString()+".db")
	_ = os.Remove(manifestPath)
	defer os.Remove(manifestPath)

	manifestDB, err := openManifest(manifestPath)
	if err != nil {
		return Result{}, err
	}
	defer manifestDB.Close()

	patchID, err := insertPatchInfo(manifestDB, app.Name, app.Version, targetVersion)
	if err != nil {
		return Result{}, err
	}

	if err := p.writeArchive(tmpArchivePath, manifestDB, manifestPath, patchID, app, changes); err != nil {
		os.Remove(tmpArchivePath)
		return Result{}, err
	}

	_ = os.Remove(finalArchivePath)
	if err := os.Rename(tmpArchivePath, finalArchivePath); err != nil {
		os.Remove(tmpArchivePath)
		return Result{}, fmt.Errorf("%w: rename archive into place: %v", pkerrors.ErrIO, err)
	}

	return Result{ArchivePath: finalArchivePath, ChangeCount: len(changes)}, nil
}

// writeArchive drives a single zip.Writer across the whole archive
// lifetime: payload entries in change-set order, then patch.db last. A
// single writer is mandatory — the zip central directory is only valid if
// every entry, including patch.db, was registered with the same writer
// before Close.
func (p *Packager) writeArchive(tmpArchivePath string, manifestDB *sql.DB, manifestPath string, patchID int64, app store.Application, changes []hashindex.FileChange) error {
	archiveFile, err := os.Create(tmpArchivePath)
	if err != nil {
		return fmt.Errorf("%w: create archive: %v", pkerrors.ErrIO, err)
	}
	defer archiveFile.Close()

	zw := zip.NewWriter(archiveFile)

	for _, change := range changes {
		if err := recordChange(manifestDB, patchID, change); err != nil {
			zw.Close()
			return err
		}

		if change.ChangeType == hashindex.ChangeDeleted {
			continue
		}
		if err := appendFilePayload(zw, app, change.FilePath); err != nil {
			zw.Close()
			return err
		}
	}

	// Close the manifest connection before embedding patch.db so every
	// committed row is flushed to the file this reads back from disk.
	if err := manifestDB.Close(); err != nil {
		zw.Close()
		return fmt.Errorf("%w: close manifest db: %v", pkerrors.ErrStore, err)
	}

	if err := addFileToZip(zw, manifestPath, app.Name+"/patch.db", zip.Store); err != nil {
		zw.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finalize archive: %v", pkerrors.ErrIO, err)
	}
	return archiveFile.Close()
}

func recordChange(manifestDB *sql.DB, patchID int64, change hashindex.FileChange) error {
	_, err := manifestDB.Exec(
		`INSERT INTO file_changes (patch_id, file_path, file_type, change_type) VALUES (?, ?, ?, ?)`,
		patchID, change.FilePath, string(change.FileType), strings.ToUpper(string(change.ChangeType)))
	if err != nil {
		return fmt.Errorf("%w: insert file_changes: %v", pkerrors.ErrStore, err)
	}
	return nil
}

// appendFilePayload streams a Created/Modified file's bytes into the
// archive under {app.name}/{path relative to install_path}. Entries for
// paths that vanished between scan and packaging, or that are no longer
// regular files, are silently skipped rather than failing the archive.
func appendFilePayload(zw *zip.Writer, app store.Application, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: stat %s: %v", pkerrors.ErrIO, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	rel, err := filepath.Rel(app.InstallPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: %s", pkerrors.ErrPathOutsideInstall, path)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("%w: build zip header for %s: %v", pkerrors.ErrIO, path, err)
	}
	header.Name = app.Name + "/" + filepath.ToSlash(rel)
	header.Method = zip.Deflate

	return appendPayload(zw, header, path)
}

func appendPayload(zw *zip.Writer, header *zip.FileHeader, path string) error {
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("%w: create zip entry %s: %v", pkerrors.ErrIO, header.Name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", pkerrors.ErrIO, path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: stream %s into archive: %v", pkerrors.ErrIO, path, err)
	}
	return nil
}

func addFileToZip(zw *zip.Writer, srcPath, entryName string, method uint16) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("%w: stat manifest db: %v", pkerrors.ErrIO, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("%w: build manifest zip header: %v", pkerrors.ErrIO, err)
	}
	header.Name = entryName
	header.Method = method
	return appendPayload(zw, header, srcPath)
}

func sanitizeName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

const manifestSchema = `
CREATE TABLE IF NOT EXISTS patch_info (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	app_name TEXT,
	base_version TEXT,
	patch_version TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS file_changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	patch_id INTEGER NOT NULL,
	file_path TEXT NOT NULL,
	file_type TEXT NOT NULL CHECK (file_type IN ('FILE','DIRECTORY')),
	change_type TEXT NOT NULL CHECK (change_type IN ('CREATED','MODIFIED','DELETED')),
	FOREIGN KEY (patch_id) REFERENCES patch_info(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_file_changes_file_path ON file_changes (file_path);
`

func openManifest(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open manifest db: %v", pkerrors.ErrStore, err)
	}
	if _, err := db.Exec(manifestSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate manifest schema: %v", pkerrors.ErrStore, err)
	}
	return db, nil
}

func insertPatchInfo(db *sql.DB, appName, baseVersion, patchVersion string) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO patch_info (app_name, base_version, patch_version) VALUES (?, ?, ?)`,
		appName, baseVersion, patchVersion)
	if err != nil {
		return 0, fmt.Errorf("%w: insert patch_info: %v", pkerrors.ErrStore, err)
	}
	return res.LastInsertId()
}
