// Package main provides the frpdur CLI.
package main

import (
	"os"

	"github.com/duralab/frpdur/internal/cli/commands"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	os.Exit(commands.Execute(Version))
}
