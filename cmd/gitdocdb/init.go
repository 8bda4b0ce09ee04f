package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gitdocdb/gitdocdb"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create (or open) the database and report what was found",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, info, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(gitdocdb.CloseOptions{})
		return printJSON(cmd, info)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
