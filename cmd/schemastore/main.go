// Command schemastore resolves $id and $ref across linked schema documents.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/schemastore/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Flag and argument errors from cobra itself.
			fmt.Fprintln(os.Stderr, err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
