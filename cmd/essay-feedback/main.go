package main

import (
	"os"

	"github.com/joseph-ayodele/essay-feedback/cmd/essay-feedback/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
