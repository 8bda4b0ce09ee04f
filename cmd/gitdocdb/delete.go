package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gitdocdb/gitdocdb"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, _, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(gitdocdb.CloseOptions{})

		res, err := db.Delete(ctx, args[0], gitdocdb.DeleteOptions{})
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
