package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gitdocdb/gitdocdb"
)

var (
	allDocsIncludeDocs  bool
	allDocsDescending   bool
	allDocsRecursive    bool
	allDocsSubDirectory string
)

var allDocsCmd = &cobra.Command{
	Use:   "all-docs",
	Short: "List documents in the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, _, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(gitdocdb.CloseOptions{})

		res, err := db.AllDocs(ctx, gitdocdb.AllDocsOptions{
			IncludeDocs:  allDocsIncludeDocs,
			Descending:   allDocsDescending,
			Recursive:    allDocsRecursive,
			SubDirectory: allDocsSubDirectory,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	allDocsCmd.Flags().BoolVar(&allDocsIncludeDocs, "include-docs", false, "include parsed document bodies")
	allDocsCmd.Flags().BoolVar(&allDocsDescending, "descending", false, "list in descending id order")
	allDocsCmd.Flags().BoolVar(&allDocsRecursive, "recursive", false, "descend into subdirectories")
	allDocsCmd.Flags().StringVar(&allDocsSubDirectory, "directory", "", "list only this subdirectory")
	rootCmd.AddCommand(allDocsCmd)
}
