package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/shift/web-spec/internal/result"
)

var (
	runFormat  string
	runOutput  string
	runSave    string
	runVerbose bool
)

var runCmd = &cobra.Command{
	Use:          "run <feature-file>",
	Short:        "Execute a feature file against the browser",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		feat, err := parseFeature(args[0])
		if err != nil {
			return err
		}

		format := runFormat
		if format == "" {
			format = cfg.DefaultFormat
		}
		if !result.ValidFormat(format) {
			return exitErrf(ExitUsage, "unknown format %q", format)
		}

		ctx := cmd.Context()
		if timeout, _ := cfg.RunTimeout(); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		b, err := dialBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.Close(context.Background())

		e := newEngine(b, runVerbose)
		res := e.Run(ctx, feat)
		afterRun(cmd.Context(), cfg, res)

		if runSave != "" {
			if err := res.Save(runSave); err != nil {
				return exitErrf(ExitGeneral, "saving result: %v", err)
			}
		}
		if runOutput != "" || format != result.FormatText {
			w, done, err := output(runOutput)
			if err != nil {
				return err
			}
			defer done()
			if err := result.Render(w, res, format); err != nil {
				return exitErrf(ExitGeneral, "rendering result: %v", err)
			}
		}

		if res.Status != result.StatusPassed {
			return exitErrf(ExitExecution, "feature %s: %s", feat.Name, res.Status)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "", "Output format: text, json, yaml, tap, html")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the report to a file instead of stdout")
	runCmd.Flags().StringVar(&runSave, "save", "", "Persist the result document as JSON for later comparison")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Show every step as it executes")
}
