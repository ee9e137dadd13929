package main

import (
	"os"

	"github.com/cashsync-dev/cashsync/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
