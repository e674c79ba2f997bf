package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pkerrors "patchkeeper/internal/errors"
	"patchkeeper/internal/hashindex"
)

func newCheckCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Scan an application and report changes without updating the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("%w: --app-name is required", pkerrors.ErrMissingArgument)
			}
			return runCommand(cmd, func(e *env) error {
				result, err := e.ops.Check(cmd.Context(), name)
				if err != nil {
					return err
				}
				printChanges(cmd, result.Changes)
				if len(result.Changes) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date (hash=%s)\n", name, result.Digest)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s has changed: new hash=%s\n", name, result.Digest)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "app-name", "", "application name")
	return cmd
}

func printChanges(cmd *cobra.Command, changes []hashindex.FileChange) {
	for _, c := range changes {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", changeColor(c.ChangeType), c.FilePath, c.FileType)
	}
}

func changeColor(t hashindex.ChangeType) string {
	switch t {
	case hashindex.ChangeCreated:
		return colorGreen.Sprint("Created")
	case hashindex.ChangeModified:
		return colorYellow.Sprint("Modified")
	case hashindex.ChangeDeleted:
		return colorRed.Sprint("Deleted")
	default:
		return string(t)
	}
}
