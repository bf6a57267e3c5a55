package cli

import (
	"context"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/shift/web-spec/internal/batch"
	"github.com/shift/web-spec/internal/config"
	"github.com/shift/web-spec/internal/gherkin"
	"github.com/shift/web-spec/internal/log"
	"github.com/shift/web-spec/internal/result"
)

var (
	batchWorkers  int
	batchParallel bool
	batchContinue bool
	batchFormat   string
	batchOutput   string
	batchVerbose  bool
)

var batchCmd = &cobra.Command{
	Use:          "batch <directory>",
	Short:        "Run every feature file under a directory",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		files, err := batch.Discover(args[0])
		if err != nil {
			return exitErrf(ExitNotFound, "discovering features under %s: %v", args[0], err)
		}
		if len(files) == 0 {
			return exitErrf(ExitNotFound, "no .feature files under %s", args[0])
		}

		workers := resolveWorkers(batchParallel, cmd.Flags().Changed("workers"), batchWorkers, cfg.Batch.Workers)
		continueOn := batchContinue
		if !cmd.Flags().Changed("continue-on-failure") {
			continueOn = cfg.Batch.ContinueOnFailure
		}
		unitTimeout, _ := cfg.UnitTimeout()

		s := &batch.Scheduler{
			Workers:           workers,
			ContinueOnFailure: continueOn,
			Timeout:           unitTimeout,
			Run:               batchRunner(cfg),
		}
		sum := s.Execute(cmd.Context(), files)

		w, done, err := output(batchOutput)
		if err != nil {
			return err
		}
		defer done()
		format := batchFormat
		if format == "" {
			format = cfg.DefaultFormat
		}
		if err := batch.Render(w, sum, format); err != nil {
			return exitErrf(ExitUsage, "%v", err)
		}

		if !sum.Ok() {
			return exitErrf(ExitExecution, "batch finished with %d failed, %d errors", sum.Failed, len(sum.Errors))
		}
		return nil
	},
}

// resolveWorkers picks the pool size: an explicit --workers wins,
// --parallel without one uses every available CPU, otherwise the
// configured default applies.
func resolveWorkers(parallel, workersSet bool, flagWorkers, cfgWorkers int) int {
	if workersSet {
		return flagWorkers
	}
	if parallel {
		return runtime.NumCPU()
	}
	return cfgWorkers
}

// batchRunner gives every unit its own backend session and its own
// result accumulator, so workers never share mutable state.
func batchRunner(cfg *config.Config) batch.RunFunc {
	return func(ctx context.Context, feat *gherkin.Feature) *result.FeatureResult {
		b, err := dialBackend(ctx, cfg)
		if err != nil {
			log.Error("backend dial failed", "file", feat.File, "err", err)
			res := result.NewFeatureResult(result.FeatureInfo{Name: feat.Name, File: feat.File})
			res.Status = result.StatusFailed
			return res
		}
		defer b.Close(context.Background())

		e := newEngine(b, batchVerbose)
		if !batchVerbose {
			e.Display = nil
		}
		return e.Run(ctx, feat)
	}
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 1, "Number of features to run in parallel")
	batchCmd.Flags().BoolVar(&batchParallel, "parallel", false, "Run features concurrently, one worker per CPU unless --workers is set")
	batchCmd.Flags().BoolVar(&batchContinue, "continue-on-failure", false, "Keep dispatching files after one fails")
	batchCmd.Flags().StringVarP(&batchFormat, "format", "f", "", "Output format: text, json, yaml")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Write the summary to a file instead of stdout")
	batchCmd.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Show per-step progress for every unit")
}
