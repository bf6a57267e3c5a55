package compare

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/shift/web-spec/internal/result"
)

// Render writes the comparison report in the requested format.
// Comparison output supports text, json and yaml.
func Render(w io.Writer, r *Report, format string) error {
	switch format {
	case result.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case result.FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case result.FormatText, "":
		renderText(w, r)
		return nil
	default:
		return fmt.Errorf("unsupported comparison format %q", format)
	}
}

func renderText(w io.Writer, r *Report) {
	mark := "⚖️"
	switch r.Status {
	case StatusRegression:
		mark = "❌"
	case StatusImprovement:
		mark = "✅"
	}
	fmt.Fprintf(w, "%s %s\n", mark, r.Status)

	if r.Metrics.DurationDeltaPercent != nil {
		fmt.Fprintf(w, "duration: %+dms (%+.1f%%)\n", r.Metrics.DurationDiffMS, *r.Metrics.DurationDeltaPercent)
	} else {
		fmt.Fprintf(w, "duration: %+dms (baseline had no duration)\n", r.Metrics.DurationDiffMS)
	}

	for _, sc := range r.Scenarios {
		if sc.Change == ChangeNone {
			continue
		}
		switch sc.Change {
		case ChangeAdded:
			fmt.Fprintf(w, "  + %s (%s)\n", sc.Name, sc.CurrentStatus)
		case ChangeRemoved:
			fmt.Fprintf(w, "  - %s (was %s)\n", sc.Name, sc.PreviousStatus)
		default:
			fmt.Fprintf(w, "  ~ %s: %s → %s, %dms → %dms\n",
				sc.Name, sc.PreviousStatus, sc.CurrentStatus, sc.PreviousDurationMS, sc.CurrentDurationMS)
		}
	}

	if len(r.Regressions) > 0 {
		fmt.Fprintln(w, "\nregressions:")
		for _, reg := range r.Regressions {
			fmt.Fprintf(w, "  [%s] %s\n", reg.Severity, reg.Description)
		}
	}
	if len(r.Improvements) > 0 {
		fmt.Fprintln(w, "\nimprovements:")
		for _, imp := range r.Improvements {
			fmt.Fprintf(w, "  %s\n", imp.Description)
		}
	}
	if len(r.Steps) > 0 {
		fmt.Fprintln(w, "\nstep timing changes:")
		for _, st := range r.Steps {
			fmt.Fprintf(w, "  %s: %.0fms → %.0fms (%+.1f%%)\n",
				st.Text, st.BaselineAvgMS, st.CurrentAvgMS, st.ChangePercent)
		}
	}
}
