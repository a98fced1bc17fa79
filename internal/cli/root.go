// Package cli implements the outbreaksim CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rcalvo/outbreaksim/internal/store"
	"github.com/spf13/cobra"
)

var dbPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "outbreaksim",
	Short: "Multi-country epidemic simulator",
	Long:  "A concurrent, day-stepped epidemic simulator over multiple countries. Runs are recorded to SQLite for later analysis.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $OUTBREAK_DB or data/outbreak.db)")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("OUTBREAK_DB"); env != "" {
		return env
	}
	return "data/outbreak.db"
}

func openStore() (*store.Store, error) {
	return store.New(getDBPath())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
