package packager_test

import (
	"archive/zip"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchkeeper/internal/hashindex"
	"patchkeeper/internal/packager"
	"patchkeeper/internal/store"
)

// TestPackage_MixedChangeTypesProducesOrderedManifest checks that, given a
// change set mixing Modified/Deleted/Created entries, the archive contains
// payloads for the modified/created files only, no entry for the deleted
// file, and an embedded patch.db whose file_changes rows list the changes
// in order with the right change types.
func TestPackage_MixedChangeTypesProducesOrderedManifest(t *testing.T) {
	installDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(installDir, "subdir"), 0o755))

	outerPath := filepath.Join(installDir, "outer_file1.txt")
	inner3Path := filepath.Join(installDir, "subdir", "inner_file3.txt")
	inner2Path := filepath.Join(installDir, "subdir", "inner_file2.txt")

	require.NoError(t, os.WriteFile(outerPath, []byte("Outer file 1 updated content"), 0o644))
	require.NoError(t, os.WriteFile(inner3Path, []byte("Inner file 3 content"), 0o644))

	app := store.Application{ID: 1, Name: "Demo App", Version: "1.0.0", InstallPath: installDir}
	changes := []hashindex.FileChange{
		{FilePath: outerPath, FileType: hashindex.FileTypeFile, ChangeType: hashindex.ChangeModified},
		{FilePath: filepath.Join(installDir, "subdir"), FileType: hashindex.FileTypeDirectory, ChangeType: hashindex.ChangeModified},
		{FilePath: inner2Path, FileType: hashindex.FileTypeFile, ChangeType: hashindex.ChangeDeleted},
		{FilePath: inner3Path, FileType: hashindex.FileTypeFile, ChangeType: hashindex.ChangeCreated},
	}

	outDir := t.TempDir()
	pkg := packager.New(outDir)

	result, err := pkg.Package(app, "1.1.0", changes)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "Demo_App_1.1.0_update.zip"), result.ArchivePath)
	assert.Equal(t, 4, result.ChangeCount)

	zr, err := zip.OpenReader(result.ArchivePath)
	require.NoError(t, err)
	defer zr.Close()

	names := make(map[string]*zip.File)
	for _, f := range zr.File {
		names[f.Name] = f
	}

	assert.Contains(t, names, "Demo App/outer_file1.txt")
	assert.Contains(t, names, "Demo App/subdir/inner_file3.txt")
	assert.NotContains(t, names, "Demo App/subdir/inner_file2.txt")
	assert.Contains(t, names, "Demo App/patch.db")

	manifestFile := names["Demo App/patch.db"]
	rc, err := manifestFile.Open()
	require.NoError(t, err)
	defer rc.Close()

	tmpManifest := filepath.Join(t.TempDir(), "patch.db")
	out, err := os.Create(tmpManifest)
	require.NoError(t, err)
	_, err = io.Copy(out, rc)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	db, err := sql.Open("sqlite", tmpManifest)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT file_path, change_type FROM file_changes ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var gotTypes []string
	for rows.Next() {
		var path, changeType string
		require.NoError(t, rows.Scan(&path, &changeType))
		gotTypes = append(gotTypes, changeType)
	}
	assert.Equal(t, []string{"MODIFIED", "MODIFIED", "DELETED", "CREATED"}, gotTypes)

	var patchVersion, baseVersion string
	require.NoError(t, db.QueryRow(`SELECT base_version, patch_version FROM patch_info`).Scan(&baseVersion, &patchVersion))
	assert.Equal(t, "1.0.0", baseVersion)
	assert.Equal(t, "1.1.0", patchVersion)
}

func TestPackage_DeletedFileOutsideInstallPathDoesNotFailArchive(t *testing.T) {
	installDir := t.TempDir()
	app := store.Application{ID: 1, Name: "App", Version: "1.0.0", InstallPath: installDir}

	changes := []hashindex.FileChange{
		{FilePath: filepath.Join(t.TempDir(), "gone.txt"), FileType: hashindex.FileTypeFile, ChangeType: hashindex.ChangeDeleted},
	}

	pkg := packager.New(t.TempDir())
	result, err := pkg.Package(app, "1.0.1", changes)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChangeCount)
}

func TestPackage_CleansUpStaleArchiveFromPriorRun(t *testing.T) {
	outDir := t.TempDir()
	installDir := t.TempDir()
	app := store.Application{ID: 1, Name: "App", Version: "1.0.0", InstallPath: installDir}

	archivePath := filepath.Join(outDir, "App_1.0.1_update.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("stale"), 0o644))
	staleInfo, err := os.Stat(archivePath)
	require.NoError(t, err)

	pkg := packager.New(outDir)
	_, err = pkg.Package(app, "1.0.1", nil)
	require.NoError(t, err)

	freshInfo, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.NotEqual(t, staleInfo.Size(), freshInfo.Size())
}
