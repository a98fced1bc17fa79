package main

import (
	"os"

	"github.com/rcalvo/outbreaksim/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
