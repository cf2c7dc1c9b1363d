package main

import (
	"os"

	"github.com/mmcdole/lectio/internal/cli"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	// go-flags prints parse and command errors itself
	if err := cli.Run(Version); err != nil {
		os.Exit(1)
	}
}
