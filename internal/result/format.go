package result

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names accepted by Render and the CLI --format flag.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTAP  = "tap"
	FormatHTML = "html"
)

// ValidFormat reports whether name is a supported output format.
func ValidFormat(name string) bool {
	switch name {
	case FormatText, FormatJSON, FormatYAML, FormatTAP, FormatHTML:
		return true
	}
	return false
}

// Render writes the result document to w in the given format.
func Render(w io.Writer, r *FeatureResult, format string) error {
	switch format {
	case FormatText:
		return renderText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(r)
	case FormatTAP:
		return renderTAP(w, r)
	case FormatHTML:
		return renderHTML(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func statusMark(status Status) string {
	switch status {
	case StatusPassed:
		return "✅"
	case StatusFailed:
		return "❌"
	case StatusSkipped:
		return "⏭️"
	default:
		return "⏳"
	}
}

func renderText(w io.Writer, r *FeatureResult) error {
	fmt.Fprintf(w, "Feature: %s\n", r.Feature.Name)
	if r.Feature.File != "" {
		fmt.Fprintf(w, "File: %s\n", r.Feature.File)
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, s := range r.Scenarios {
		fmt.Fprintf(w, "\n%s Scenario: %s (%dms)\n", statusMark(s.Status), s.Name, s.DurationMS)
		for _, st := range s.Steps {
			fmt.Fprintf(w, "   %s %s %s", statusMark(st.Status), st.Keyword, st.Text)
			if st.Status != StatusSkipped {
				fmt.Fprintf(w, " (%dms)", st.DurationMS)
			}
			fmt.Fprintln(w)
			if st.Error != nil {
				fmt.Fprintf(w, "      %s: %s\n", st.Error.Code, st.Error.Message)
				for _, sug := range st.Error.Suggestions {
					fmt.Fprintf(w, "      hint: %s\n", sug)
				}
			}
			if st.Output != "" {
				fmt.Fprintf(w, "      → %s\n", st.Output)
			}
		}
	}

	sum := r.Summary
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("─", 60))
	fmt.Fprintf(w, "Scenarios: %d total, %d passed, %d failed, %d skipped\n",
		sum.TotalScenarios, sum.PassedScenarios, sum.FailedScenarios, sum.SkippedScenarios)
	fmt.Fprintf(w, "Steps:     %d total, %d passed, %d failed, %d skipped\n",
		sum.TotalSteps, sum.PassedSteps, sum.FailedSteps, sum.SkippedSteps)
	fmt.Fprintf(w, "Duration:  %dms\n", r.DurationMS)
	fmt.Fprintf(w, "Result:    %s\n", strings.ToUpper(string(r.Status)))
	return nil
}

func renderTAP(w io.Writer, r *FeatureResult) error {
	fmt.Fprintln(w, "TAP version 13")
	fmt.Fprintf(w, "1..%d\n", len(r.Scenarios))
	for i, s := range r.Scenarios {
		switch s.Status {
		case StatusPassed:
			fmt.Fprintf(w, "ok %d - %s\n", i+1, s.Name)
		case StatusSkipped:
			fmt.Fprintf(w, "ok %d - %s # SKIP\n", i+1, s.Name)
		default:
			fmt.Fprintf(w, "not ok %d - %s\n", i+1, s.Name)
		}
		for _, st := range s.Steps {
			if st.Status == StatusFailed && st.Error != nil {
				fmt.Fprintf(w, "# %s %s: [%s] %s\n", st.Keyword, st.Text, st.Error.Code, st.Error.Message)
			}
		}
	}
	fmt.Fprintf(w, "# scenarios %d passed %d failed %d skipped %d\n",
		r.Summary.TotalScenarios, r.Summary.PassedScenarios,
		r.Summary.FailedScenarios, r.Summary.SkippedScenarios)
	return nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Feature.Name}} — test report</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { border-bottom: 2px solid #ddd; padding-bottom: .3em; }
.scenario { margin: 1em 0; padding: .6em 1em; border-left: 4px solid #ccc; }
.scenario.passed { border-color: #2e7d32; }
.scenario.failed { border-color: #c62828; }
.scenario.skipped { border-color: #f9a825; }
.step { margin-left: 1em; font-family: monospace; }
.step.failed { color: #c62828; }
.step.skipped { color: #999; }
.error { margin-left: 2em; color: #c62828; font-size: .9em; }
.summary { margin-top: 2em; padding: 1em; background: #f5f5f5; }
</style>
</head>
<body>
<h1>{{.Feature.Name}}</h1>
<p>Status: <strong>{{.Status}}</strong> — {{.DurationMS}}ms — {{.Timestamp}}</p>
{{range .Scenarios}}
<div class="scenario {{.Status}}">
  <h3>{{.Name}} <small>({{.Status}}, {{.DurationMS}}ms)</small></h3>
  {{range .Steps}}
  <div class="step {{.Status}}">{{.Keyword}} {{.Text}} ({{.DurationMS}}ms)</div>
  {{if .Error}}<div class="error">{{.Error.Code}}: {{.Error.Message}}</div>{{end}}
  {{end}}
</div>
{{end}}
<div class="summary">
  Scenarios: {{.Summary.TotalScenarios}} total,
  {{.Summary.PassedScenarios}} passed,
  {{.Summary.FailedScenarios}} failed,
  {{.Summary.SkippedScenarios}} skipped.
  Steps: {{.Summary.TotalSteps}} total,
  {{.Summary.PassedSteps}} passed,
  {{.Summary.FailedSteps}} failed,
  {{.Summary.SkippedSteps}} skipped.
</div>
</body>
</html>
`))

func renderHTML(w io.Writer, r *FeatureResult) error {
	return htmlTemplate.Execute(w, r)
}
