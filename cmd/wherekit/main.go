// Command wherekit runs, compiles and evaluates WHERE clause scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/wherekit/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
