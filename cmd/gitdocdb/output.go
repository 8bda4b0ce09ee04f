package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormat string

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "json", "output format: json or yaml")
}

// printJSON renders v to the command's output in the format selected by
// --format. json is the default (two-space indent, matching
// internal/jsoncodec's own canonical style); yaml is offered via
// gopkg.in/yaml.v3, the same library viper uses for its config layer.
func printJSON(cmd *cobra.Command, v any) error {
	switch outputFormat {
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		cmd.Print(string(out))
		return nil
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}
}
