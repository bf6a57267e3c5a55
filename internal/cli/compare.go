package cli

import (
	"github.com/spf13/cobra"

	"github.com/shift/web-spec/internal/compare"
	"github.com/shift/web-spec/internal/result"
)

var (
	compareTolerance float64
	compareFormat    string
	compareOutput    string
)

var compareCmd = &cobra.Command{
	Use:          "compare <baseline.json> <current.json>",
	Short:        "Diff two saved result documents",
	Long:         `compare classifies the delta between two result documents saved with 'run --save' as regression, improvement or identical.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		baseline, err := loadResult(args[0])
		if err != nil {
			return err
		}
		current, err := loadResult(args[1])
		if err != nil {
			return err
		}

		tolerance := compareTolerance
		if !cmd.Flags().Changed("tolerance") {
			tolerance = cfg.Compare.TolerancePercent
		}
		report := compare.Compare(baseline, current, compare.Options{TolerancePercent: tolerance})

		w, done, err := output(compareOutput)
		if err != nil {
			return err
		}
		defer done()
		format := compareFormat
		if format == "" {
			format = cfg.DefaultFormat
		}
		if err := compare.Render(w, report, format); err != nil {
			return exitErrf(ExitUsage, "%v", err)
		}

		if report.Status == compare.StatusRegression {
			return exitErrf(ExitExecution, "comparison found %d regressions", len(report.Regressions))
		}
		return nil
	},
}

func loadResult(path string) (*result.FeatureResult, error) {
	res, err := result.Load(path)
	if err != nil {
		if isNotExist(err) {
			return nil, exitErrf(ExitNotFound, "result document not found: %s", path)
		}
		return nil, exitErrf(ExitGeneral, "loading result document %s: %v", path, err)
	}
	return res, nil
}

func init() {
	compareCmd.Flags().Float64VarP(&compareTolerance, "tolerance", "t", compare.DefaultTolerancePercent,
		"Duration-change percentage treated as noise")
	compareCmd.Flags().StringVarP(&compareFormat, "format", "f", "", "Output format: text, json, yaml")
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "Write the report to a file instead of stdout")
}
