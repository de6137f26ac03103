// Command bookmind is the entry point for the BookMind multi-agent book
// recommendation assistant. It provides a CLI interface (via Cobra) and an
// optional HTTP server for programmatic use.
package main

import (
	"fmt"
	"os"

	"github.com/bookmind-ai/bookmind-go/cmd/bookmind/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
