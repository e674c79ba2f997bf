package ops_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkerrors "patchkeeper/internal/errors"
	"patchkeeper/internal/logging"
	"patchkeeper/internal/ops"
	"patchkeeper/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patcher.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFacade_AddCheckList(t *testing.T) {
	s := openTestStore(t)
	f := ops.New(s, logging.Nop())
	ctx := context.Background()

	installDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "a.txt"), []byte("hello"), 0o644))

	app, err := f.Add(ctx, "demo", "1.0.0", installDir)
	require.NoError(t, err)
	require.True(t, app.HashCode.Valid)

	result, err := f.Check(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, app.HashCode.String, result.Digest)
	assert.Empty(t, result.Changes)

	apps := f.List(ctx)
	require.Len(t, apps, 1)
	assert.Equal(t, "demo", apps[0].Name)
}

func TestFacade_Check_NotInitialized(t *testing.T) {
	s := openTestStore(t)
	f := ops.New(s, logging.Nop())
	ctx := context.Background()

	_, err := s.CreateApplication(ctx, "raw", "1.0.0", t.TempDir())
	require.NoError(t, err)

	_, err = f.Check(ctx, "raw")
	assert.ErrorIs(t, err, pkerrors.ErrApplicationNotInitialized)
}

func TestFacade_Check_NotFound(t *testing.T) {
	s := openTestStore(t)
	f := ops.New(s, logging.Nop())

	_, err := f.Check(context.Background(), "missing")
	assert.ErrorIs(t, err, pkerrors.ErrApplicationNotFound)
}

func TestFacade_Update_UnchangedTreeSkipsPackaging(t *testing.T) {
	s := openTestStore(t)
	f := ops.New(s, logging.Nop())
	ctx := context.Background()

	installDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "a.txt"), []byte("hello"), 0o644))

	_, err := f.Add(ctx, "demo", "1.0.0", installDir)
	require.NoError(t, err)

	result, pkgResult, err := f.Update(ctx, "demo", "1.0.1", t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, pkgResult)
	assert.Empty(t, result.Changes)
}

func TestFacade_Update_ChangedTreeProducesArchive(t *testing.T) {
	s := openTestStore(t)
	f := ops.New(s, logging.Nop())
	ctx := context.Background()

	installDir := t.TempDir()
	filePath := filepath.Join(installDir, "a.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("hello"), 0o644))

	_, err := f.Add(ctx, "demo", "1.0.0", installDir)
	require.NoError(t, err)

	later := time.Now().Add(time.Second)
	require.NoError(t, os.WriteFile(filePath, []byte("hello, updated"), 0o644))
	require.NoError(t, os.Chtimes(filePath, later, later))

	outDir := t.TempDir()
	result, pkgResult, err := f.Update(ctx, "demo", "1.1.0", outDir)
	require.NoError(t, err)
	require.NotNil(t, pkgResult)
	assert.NotEmpty(t, result.Changes)

	_, statErr := os.Stat(pkgResult.ArchivePath)
	assert.NoError(t, statErr)

	fetched, err := s.GetApplicationByName(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", fetched.Version)
	assert.Equal(t, result.Digest, fetched.HashCode.String)
}

func TestFacade_Update_NotFound(t *testing.T) {
	s := openTestStore(t)
	f := ops.New(s, logging.Nop())

	_, _, err := f.Update(context.Background(), "missing", "1.0.1", t.TempDir())
	assert.ErrorIs(t, err, pkerrors.ErrApplicationNotFound)
}

func TestFacade_Remove(t *testing.T) {
	s := openTestStore(t)
	f := ops.New(s, logging.Nop())
	ctx := context.Background()

	_, err := f.Add(ctx, "demo", "1.0.0", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, f.Remove(ctx, "demo"))

	_, err = s.GetApplicationByName(ctx, "demo")
	assert.ErrorIs(t, err, pkerrors.ErrApplicationNotFound)
}

func TestFacade_Remove_NotFound(t *testing.T) {
	s := openTestStore(t)
	f := ops.New(s, logging.Nop())

	err := f.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, pkerrors.ErrApplicationNotFound)
}
