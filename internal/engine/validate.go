package engine

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shift/web-spec/internal/gherkin"
)

// ValidationIssue is one step the registry cannot match, with its location.
type ValidationIssue struct {
	Scenario    string   `json:"scenario"`
	Line        int      `json:"line"`
	Step        string   `json:"step"`
	Keyword     string   `json:"keyword"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ValidationReport is the outcome of a dry run: matching and keyword
// resolution without any handler dispatch. The backend is never touched.
type ValidationReport struct {
	Feature      string            `json:"feature"`
	File         string            `json:"file,omitempty"`
	Valid        bool              `json:"valid"`
	TotalSteps   int               `json:"total_steps"`
	MatchedSteps int               `json:"matched_steps"`
	Unmatched    []ValidationIssue `json:"unmatched,omitempty"`
}

// DryRun validates every step of the feature against the registry without
// invoking handlers.
func (e *Engine) DryRun(feat *gherkin.Feature) *ValidationReport {
	report := &ValidationReport{Feature: feat.Name, File: feat.File, Valid: true}
	for _, sc := range feat.Scenarios {
		for _, step := range sc.Steps {
			report.TotalSteps++
			if _, ok := e.Registry.Match(step.Text); ok {
				report.MatchedSteps++
				continue
			}
			report.Valid = false
			report.Unmatched = append(report.Unmatched, ValidationIssue{
				Scenario:    sc.Name,
				Line:        step.Line,
				Step:        step.Text,
				Keyword:     step.Keyword,
				Suggestions: e.suggest(step.Text),
			})
		}
	}
	return report
}

// Render writes the validation report as text or JSON.
func (r *ValidationReport) Render(w io.Writer, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	if r.Valid {
		fmt.Fprintf(w, "✓ Feature %q is valid: all %d steps match a registered pattern\n",
			r.Feature, r.TotalSteps)
		return nil
	}
	fmt.Fprintf(w, "✗ Feature %q has %d unknown steps (%d/%d matched):\n",
		r.Feature, len(r.Unmatched), r.MatchedSteps, r.TotalSteps)
	for _, issue := range r.Unmatched {
		fmt.Fprintf(w, "  line %d (%s): %s %s\n", issue.Line, issue.Scenario, issue.Keyword, issue.Step)
		for _, s := range issue.Suggestions {
			fmt.Fprintf(w, "    did you mean: %s\n", s)
		}
	}
	return nil
}
