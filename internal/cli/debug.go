package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/shift/web-spec/internal/debugger"
	"github.com/shift/web-spec/internal/result"
)

var debugBreakpoints []string

var debugCmd = &cobra.Command{
	Use:          "debug <feature-file>",
	Short:        "Step through a feature interactively",
	Long:         `debug runs a feature under an interactive controller that pauses before each step. Type 'help' at the prompt for the command list.`,
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

		b, err := dialBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close(context.Background())

		e := newEngine(b, true)
		session := debugger.NewSession(os.Stdin, os.Stdout)
		for _, name := range debugBreakpoints {
			session.SetBreakpoint(name)
		}

		res := session.Run(cmd.Context(), e, feat)
		afterRun(cmd.Context(), cfg, res)

		if res.Status != result.StatusPassed {
			return exitErrf(ExitExecution, "feature %s: %s", feat.Name, res.Status)
		}
		return nil
	},
}

func init() {
	debugCmd.Flags().StringArrayVarP(&debugBreakpoints, "break", "b", nil, "Set a breakpoint on a scenario name (repeatable)")
}
