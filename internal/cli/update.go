package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	pkerrors "patchkeeper/internal/errors"
)

func newUpdateCmd() *cobra.Command {
	var name, version string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Scan an application, update its index, and package any changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || version == "" {
				return fmt.Errorf("%w: --app-name and --app-version are required", pkerrors.ErrMissingArgument)
			}
			return runCommand(cmd, func(e *env) error {
				result, pkg, err := e.ops.Update(cmd.Context(), name, version, e.outDir())
				if err != nil {
					return err
				}

				printChanges(cmd, result.Changes)

				if pkg == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already up to date (hash=%s)\n", name, result.Digest)
					return nil
				}

				size := "unknown size"
				if info, statErr := os.Stat(pkg.ArchivePath); statErr == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "packaged %d change(s) into %s (%s)\n", pkg.ChangeCount, pkg.ArchivePath, size)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "app-name", "", "application name")
	cmd.Flags().StringVar(&version, "app-version", "", "new application version")
	return cmd
}
