// Command gensweep removes stale build outputs between static-site builds.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gensweep/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
