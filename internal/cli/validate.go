package cli

import (
	"github.com/spf13/cobra"

	"github.com/shift/web-spec/internal/engine"
	"github.com/shift/web-spec/internal/registry"
)

var (
	validateFormat string
	validateOutput string
)

var validateCmd = &cobra.Command{
	Use:          "validate <feature-file>",
	Short:        "Check that every step in a feature matches a known pattern",
	Long:         `validate parses the feature and matches each step against the step registry without touching the browser.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		feat, err := parseFeature(args[0])
		if err != nil {
			return err
		}

		e := engine.New(registry.Default(), nil)
		report := e.DryRun(feat)

		w, done, err := output(validateOutput)
		if err != nil {
			return err
		}
		defer done()
		if err := report.Render(w, validateFormat); err != nil {
			return exitErrf(ExitUsage, "%v", err)
		}

		if !report.Valid {
			return exitErrf(ExitValidation, "%d of %d steps did not match any pattern",
				len(report.Unmatched), report.TotalSteps)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format: text, json")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "", "Write the report to a file instead of stdout")
}
