// Command smartscript compiles, stores and simulates SmartScript rule sets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/smartscript/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
