package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pkerrors "patchkeeper/internal/errors"
)

func newAddAppCmd() *cobra.Command {
	var name, version, path string

	cmd := &cobra.Command{
		Use:   "add-app",
		Short: "Register an application and run its first scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || version == "" || path == "" {
				return fmt.Errorf("%w: --app-name, --app-version and --app-path are required", pkerrors.ErrMissingArgument)
			}
			return runCommand(cmd, func(e *env) error {
				app, err := e.ops.Add(cmd.Context(), name, version, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s version=%s hash=%s\n", app.Name, app.Version, app.HashCode.String)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "app-name", "", "application name")
	cmd.Flags().StringVar(&version, "app-version", "", "application version")
	cmd.Flags().StringVar(&path, "app-path", "", "absolute path to the application's install root")
	return cmd
}
