// Command cqdecomp decomposes conjunctive queries into CPQ expressions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cqdecomp/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
