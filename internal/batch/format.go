package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/shift/web-spec/internal/result"
)

// Render writes the batch summary in the requested format. Batch output
// supports text, json and yaml.
func Render(w io.Writer, s *Summary, format string) error {
	switch format {
	case result.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case result.FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(s)
	case result.FormatText, "":
		renderText(w, s)
		return nil
	default:
		return fmt.Errorf("unsupported batch format %q", format)
	}
}

func renderText(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "🧪 web-spec batch — %d files\n", s.Total)
	for _, u := range s.Units {
		switch {
		case u.Skipped:
			fmt.Fprintf(w, "  ⏭️  %s (not executed)\n", u.File)
		case u.Result.Status == result.StatusPassed:
			fmt.Fprintf(w, "  ✅ %s (%dms)\n", u.File, u.Result.DurationMS)
		default:
			fmt.Fprintf(w, "  ❌ %s (%dms)\n", u.File, u.Result.DurationMS)
		}
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  💥 %s: %s\n", e.Path, e.Err)
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped, %d errors (%dms)\n",
		s.Passed, s.Failed, s.Skipped, len(s.Errors), s.DurationMS)
}
