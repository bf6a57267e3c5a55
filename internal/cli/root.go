package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shift/web-spec/pkg/version"
)

// Exit codes reported by the webspec binary.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitNotFound   = 3
	ExitValidation = 4
	ExitExecution  = 5
)

// ExitError carries a specific process exit code up to main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func exitErrf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

var rootCmd = &cobra.Command{
	Use:   "webspec",
	Short: "BDD test runner for web applications",
	Long:  `webspec parses Gherkin feature files and executes them against a running browser over the DevTools protocol.`,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var ee *ExitError
		if errors.As(err, &ee) {
			return ee.Code
		}
		return ExitGeneral
	}
	return ExitOK
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(listStepsCmd)
	rootCmd.AddCommand(searchStepsCmd)
	rootCmd.AddCommand(exportSchemaCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("webspec %s\n", version.Version)
	},
}

// output returns the writer for a command's report, either stdout or
// the file named by --output.
func output(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, exitErrf(ExitGeneral, "creating output file: %v", err)
	}
	return f, func() { f.Close() }, nil
}
