package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gitdocdb/gitdocdb"
)

var getBackNumber int

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Read a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, _, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(gitdocdb.CloseOptions{})

		doc, err := db.Get(ctx, args[0], getBackNumber)
		if err != nil {
			return err
		}
		if doc == nil {
			cmd.Println("null")
			return nil
		}
		return printJSON(cmd, doc)
	},
}

func init() {
	getCmd.Flags().IntVar(&getBackNumber, "back-number", 0, "read the document as it stood this many changes ago")
	rootCmd.AddCommand(getCmd)
}
