package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shift/web-spec/internal/registry"
	"github.com/shift/web-spec/internal/result"
)

var (
	listStepsCategory string
	schemaFormat      string
	schemaOutput      string
)

var listStepsCmd = &cobra.Command{
	Use:          "list-steps",
	Short:        "List every step pattern the runner understands",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.Default()
		if listStepsCategory != "" {
			patterns := reg.ByCategory(listStepsCategory)
			if len(patterns) == 0 {
				return exitErrf(ExitUsage, "unknown category %q", listStepsCategory)
			}
			printPatterns(cmd.OutOrStdout(), listStepsCategory, patterns)
			return nil
		}
		for _, cat := range reg.Categories() {
			printPatterns(cmd.OutOrStdout(), cat, reg.ByCategory(cat))
		}
		return nil
	},
}

var searchStepsCmd = &cobra.Command{
	Use:          "search-steps <query>",
	Short:        "Search step patterns by template, alias or description",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		matches := registry.Default().Search(args[0])
		if len(matches) == 0 {
			return exitErrf(ExitNotFound, "no step patterns match %q", args[0])
		}
		for _, p := range matches {
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", p.Category, p.Template)
		}
		return nil
	},
}

var exportSchemaCmd = &cobra.Command{
	Use:          "export-schema",
	Short:        "Export the step pattern catalog as a machine-readable schema",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema := registry.Default().ExportSchema()

		w, done, err := output(schemaOutput)
		if err != nil {
			return err
		}
		defer done()

		switch schemaFormat {
		case result.FormatJSON, "":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(schema)
		case result.FormatYAML:
			enc := yaml.NewEncoder(w)
			defer enc.Close()
			return enc.Encode(schema)
		default:
			return exitErrf(ExitUsage, "unsupported schema format %q", schemaFormat)
		}
	},
}

func printPatterns(w io.Writer, category string, patterns []*registry.Pattern) {
	fmt.Fprintf(w, "%s:\n", category)
	for _, p := range patterns {
		fmt.Fprintf(w, "  %s\n", p.Template)
		for _, a := range p.Aliases {
			fmt.Fprintf(w, "    (also: %s)\n", a)
		}
	}
}

func init() {
	listStepsCmd.Flags().StringVarP(&listStepsCategory, "category", "c", "", "Only list patterns in this category")
	exportSchemaCmd.Flags().StringVarP(&schemaFormat, "format", "f", "json", "Schema format: json, yaml")
	exportSchemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Write the schema to a file instead of stdout")
}
