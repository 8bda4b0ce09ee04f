// Command gitdocdb is a thin CLI façade over the gitdocdb library: it
// exists to exercise the public API end-to-end, not to carry the system's
// hard part (spec.md §1). Each subcommand opens one database, performs one
// operation, and closes it again.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbNameFlag string

var rootCmd = &cobra.Command{
	Use:   "gitdocdb",
	Short: "Git-backed JSON document store",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbNameFlag, "db", "", "database name (overrides configuration)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
