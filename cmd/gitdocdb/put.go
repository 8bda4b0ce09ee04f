package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitdocdb/gitdocdb"
)

var putCmd = &cobra.Command{
	Use:   "put <id> <json>",
	Short: "Create or replace a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var doc gitdocdb.Document
		if err := json.Unmarshal([]byte(args[1]), &doc); err != nil {
			return fmt.Errorf("parsing document: %w", err)
		}

		ctx := context.Background()
		db, _, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(gitdocdb.CloseOptions{})

		res, err := db.Put(ctx, args[0], doc, gitdocdb.PutOptions{})
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
