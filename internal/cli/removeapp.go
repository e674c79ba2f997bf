package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pkerrors "patchkeeper/internal/errors"
)

func newRemoveAppCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "remove-app",
		Short: "Remove a registered application and its index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("%w: --app-name is required", pkerrors.ErrMissingArgument)
			}
			return runCommand(cmd, func(e *env) error {
				if err := e.ops.Remove(cmd.Context(), name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "app-name", "", "application name")
	return cmd
}
