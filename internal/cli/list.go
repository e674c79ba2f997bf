package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, func(e *env) error {
				apps := e.ops.List(cmd.Context())
				if len(apps) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no applications registered")
					return nil
				}

				bold := color.New(color.Bold)
				for _, app := range apps {
					hash := "(unscanned)"
					if app.HashCode.Valid {
						hash = app.HashCode.String
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  version=%s  install=%s  hash=%s\n",
						bold.Sprint(app.Name), app.Version, app.InstallPath, hash)
				}
				return nil
			})
		},
	}
}
