package engine

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/shift/web-spec/internal/result"
)

// Display handles terminal progress output for a run. It is line-oriented
// so debugger prompts can interleave cleanly with step output.
type Display struct {
	w       io.Writer
	verbose bool
}

// NewDisplay creates a display that writes to stdout.
func NewDisplay(verbose bool) *Display {
	return &Display{w: os.Stdout, verbose: verbose}
}

// NewDisplayWriter creates a display with an explicit writer.
func NewDisplayWriter(w io.Writer, verbose bool) *Display {
	return &Display{w: w, verbose: verbose}
}

// stepColumnWidth is the display width reserved for the step text column.
const stepColumnWidth = 56

func truncateStep(text string) string {
	if utf8.RuneCountInString(text) <= stepColumnWidth {
		return text
	}
	runes := []rune(text)
	return string(runes[:stepColumnWidth-1]) + "…"
}

// FeatureStart prints the run header.
func (d *Display) FeatureStart(name string) {
	fmt.Fprintf(d.w, "\n🧪 web-spec — %s\n", name)
	fmt.Fprintln(d.w, strings.Repeat("─", 72))
}

// ScenarioStart prints a scenario header.
func (d *Display) ScenarioStart(name string) {
	fmt.Fprintf(d.w, "\nScenario: %s\n", name)
}

// ScenarioDone prints a scenario's terminal status line.
func (d *Display) ScenarioDone(name string, status result.Status, durationMS int64) {
	if !d.verbose {
		return
	}
	fmt.Fprintf(d.w, "  scenario %q %s in %dms\n", name, status, durationMS)
}

// StepStart announces a step dispatch in verbose mode; terse mode prints
// only terminal states.
func (d *Display) StepStart(keyword, text string) {
	if d.verbose {
		fmt.Fprintf(d.w, "  ⏳ %-5s %s\n", keyword, truncateStep(text))
	}
}

// StepDone prints a passed step line.
func (d *Display) StepDone(keyword, text, output string, durationMS int64) {
	fmt.Fprintf(d.w, "  ✅ %-5s %-*s %dms\n", keyword, stepColumnWidth, truncateStep(text), durationMS)
	if output != "" && d.verbose {
		fmt.Fprintf(d.w, "        → %s\n", output)
	}
}

// StepFailed prints a failed step line with its error detail.
func (d *Display) StepFailed(keyword, text string, errInfo *result.ErrorInfo) {
	fmt.Fprintf(d.w, "  ❌ %-5s %s\n", keyword, truncateStep(text))
	if errInfo != nil {
		fmt.Fprintf(d.w, "        %s: %s\n", errInfo.Code, errInfo.Message)
		for _, s := range errInfo.Suggestions {
			fmt.Fprintf(d.w, "        hint: %s\n", s)
		}
	}
}

// StepSkipped prints a skipped step line.
func (d *Display) StepSkipped(keyword, text string) {
	fmt.Fprintf(d.w, "  ⏭️  %-5s %s\n", keyword, truncateStep(text))
}

// Summary prints the final counters after a run.
func (d *Display) Summary(r *result.FeatureResult) {
	sum := r.Summary
	fmt.Fprintf(d.w, "\n%s\n", strings.Repeat("─", 72))
	fmt.Fprintf(d.w, "Scenarios: %d passed, %d failed, %d skipped • Steps: %d passed, %d failed, %d skipped • %dms\n",
		sum.PassedScenarios, sum.FailedScenarios, sum.SkippedScenarios,
		sum.PassedSteps, sum.FailedSteps, sum.SkippedSteps, r.DurationMS)
}
