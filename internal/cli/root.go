// Package cli builds the patchkeeper command tree: list, add-app,
// remove-app, check, update. Each command resolves configuration, opens
// the store, and delegates to internal/ops, returning any error to the
// entrypoint, which maps it to a process exit code via internal/errors.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"patchkeeper/internal/config"
	pkerrors "patchkeeper/internal/errors"
	"patchkeeper/internal/logging"
	"patchkeeper/internal/ops"
	"patchkeeper/internal/store"
)

var (
	dataDirFlag string
	outDirFlag  string
	debugFlag   bool
)

// BuildRootCmd assembles the root patchkeeper command and its subcommands.
func BuildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "patchkeeper",
		Short:         "Index application trees and package update patches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "directory holding the index database (default: $PATCHKEEPER_DATA_DIR or ./patchkeeper-data)")
	root.PersistentFlags().StringVar(&outDirFlag, "out-dir", "", "output directory for packaged patches (default: the data directory)")
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	root.AddCommand(
		newListCmd(),
		newAddAppCmd(),
		newRemoveAppCmd(),
		newCheckCmd(),
		newUpdateCmd(),
	)

	return root
}

// env bundles the resolved config, logger, store and façade a command
// needs, opened lazily so --help never touches the filesystem.
type env struct {
	cfg   *config.Config
	log   *logging.Logger
	store *store.Store
	ops   *ops.Facade
}

func newEnv() (*env, error) {
	cfg, err := config.Load(dataDirFlag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkerrors.ErrIO, err)
	}

	log, err := logging.New(logging.Config{LogDir: cfg.DataDir, Debug: debugFlag})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkerrors.ErrIO, err)
	}

	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, log: log, store: st, ops: ops.New(st, log)}, nil
}

func (e *env) close() {
	_ = e.log.Sync()
	_ = e.store.Close()
}

// outDir resolves the packager's output directory: the explicit flag, or
// the data directory if unset.
func (e *env) outDir() string {
	if outDirFlag != "" {
		return outDirFlag
	}
	return e.cfg.DataDir
}

// runCommand opens the command's env, runs fn against it and closes it
// afterwards. Any error is returned unchanged so the entrypoint can map it
// to a process exit code.
func runCommand(cmd *cobra.Command, fn func(e *env) error) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := fn(e); err != nil {
		cmd.SilenceUsage = true
		return err
	}
	return nil
}
