// Command accountcell verifies account cell transitions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/accountcell/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
