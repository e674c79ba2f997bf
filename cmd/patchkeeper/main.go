// Command patchkeeper indexes application install trees and packages
// update patches between scans.
package main

import (
	"context"
	"fmt"
	"os"

	"patchkeeper/internal/cli"
	pkerrors "patchkeeper/internal/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	root := cli.BuildRootCmd()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "patchkeeper:", err)
		return pkerrors.ExitCodeFor(err).Int()
	}
	return pkerrors.ExitSuccess.Int()
}
