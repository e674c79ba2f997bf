// Package config resolves patchkeeper's data directory and other
// process-wide settings. Configuration is self-initializing: missing
// directories are created with sane defaults rather than treated as a
// fatal error.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// EnvDataDir overrides the default data directory location.
	EnvDataDir = "PATCHKEEPER_DATA_DIR"

	defaultDataDir = "patchkeeper-data"
	// StoreFileName is the SQLite file holding the applications/file_index
	// tables, relative to the data directory.
	StoreFileName = "patcher.db"
)

// Config holds resolved, validated process settings.
type Config struct {
	// DataDir is the directory holding patcher.db and is used as the
	// default output directory for packaged patches.
	DataDir string
}

// Load reads an optional .env file (silently ignored if absent, matching
// mutagen's and spok's local-dev convenience loading) and resolves the data
// directory, creating it if necessary.
func Load(dataDirFlag string) (*Config, error) {
	_ = godotenv.Load() // no .env file is a normal, not an error, condition

	dataDir := dataDirFlag
	if dataDir == "" {
		dataDir = os.Getenv(EnvDataDir)
	}
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return nil, err
	}

	return &Config{DataDir: absDataDir}, nil
}

// StorePath returns the absolute path to the applications/file_index SQLite
// database under the configured data directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, StoreFileName)
}
