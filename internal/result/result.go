// Package result holds the execution result tree: the persisted, comparable
// document every run produces.
package result

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Status is the lifecycle state shared by steps, scenarios and features.
type Status string

const (
	StatusPending Status = "pending"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Error codes carried in step results. These are part of the persisted
// document contract.
const (
	CodeUnmatchedStep   = "UnmatchedStep"
	CodeBackendError    = "BackendError"
	CodeAssertionFailed = "AssertionFailed"
	CodeDebugAborted    = "DebugAborted"
)

// FeatureResult is the unit persisted to storage and compared across runs.
type FeatureResult struct {
	Status     Status           `json:"status" yaml:"status"`
	Timestamp  time.Time        `json:"timestamp" yaml:"timestamp"`
	DurationMS int64            `json:"duration_ms" yaml:"duration_ms"`
	Feature    FeatureInfo      `json:"feature" yaml:"feature"`
	Scenarios  []ScenarioResult `json:"scenarios" yaml:"scenarios"`
	Summary    Summary          `json:"summary" yaml:"summary"`
}

// FeatureInfo identifies the feature a result belongs to.
type FeatureInfo struct {
	Name        string `json:"name" yaml:"name"`
	File        string `json:"file,omitempty" yaml:"file,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ScenarioResult aggregates the ordered step results of one scenario.
// Duration is wall time from the first step's start to the last step's end,
// not the sum of step durations.
type ScenarioResult struct {
	Name       string       `json:"name" yaml:"name"`
	Status     Status       `json:"status" yaml:"status"`
	DurationMS int64        `json:"duration_ms" yaml:"duration_ms"`
	Steps      []StepResult `json:"steps" yaml:"steps"`
}

// StepResult records one step's terminal outcome.
type StepResult struct {
	Text       string     `json:"text" yaml:"text"`
	Keyword    string     `json:"keyword" yaml:"keyword"`
	Status     Status     `json:"status" yaml:"status"`
	DurationMS int64      `json:"duration_ms" yaml:"duration_ms"`
	Output     string     `json:"output,omitempty" yaml:"output,omitempty"`
	Error      *ErrorInfo `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrorInfo is the structured error detail on a failed step.
type ErrorInfo struct {
	Code        string   `json:"code" yaml:"code"`
	Message     string   `json:"message" yaml:"message"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// Summary counts outcomes at scenario and step granularity.
type Summary struct {
	TotalScenarios   int `json:"total_scenarios" yaml:"total_scenarios"`
	PassedScenarios  int `json:"passed_scenarios" yaml:"passed_scenarios"`
	FailedScenarios  int `json:"failed_scenarios" yaml:"failed_scenarios"`
	SkippedScenarios int `json:"skipped_scenarios" yaml:"skipped_scenarios"`
	TotalSteps       int `json:"total_steps" yaml:"total_steps"`
	PassedSteps      int `json:"passed_steps" yaml:"passed_steps"`
	FailedSteps      int `json:"failed_steps" yaml:"failed_steps"`
	SkippedSteps     int `json:"skipped_steps" yaml:"skipped_steps"`
}

// NewFeatureResult starts an empty result for the named feature.
func NewFeatureResult(info FeatureInfo) *FeatureResult {
	return &FeatureResult{
		Status:    StatusPending,
		Timestamp: time.Now().UTC(),
		Feature:   info,
	}
}

// AddScenario appends a sealed scenario result and folds it into the summary.
func (r *FeatureResult) AddScenario(s ScenarioResult) {
	r.Scenarios = append(r.Scenarios, s)
	r.Summary.addScenario(&s)
}

// Seal derives the feature status from its summary: failed if any scenario
// failed, skipped if nothing ran, else passed.
func (r *FeatureResult) Seal() {
	switch {
	case r.Summary.FailedScenarios > 0:
		r.Status = StatusFailed
	case r.Summary.PassedScenarios > 0:
		r.Status = StatusPassed
	default:
		r.Status = StatusSkipped
	}
}

// SealScenario derives a scenario status from its steps: failed if any step
// failed, skipped if no step ran, else passed.
func (s *ScenarioResult) Seal() {
	failed, passed := false, false
	for _, st := range s.Steps {
		switch st.Status {
		case StatusFailed:
			failed = true
		case StatusPassed:
			passed = true
		}
	}
	switch {
	case failed:
		s.Status = StatusFailed
	case passed:
		s.Status = StatusPassed
	default:
		s.Status = StatusSkipped
	}
}

func (sum *Summary) addScenario(s *ScenarioResult) {
	sum.TotalScenarios++
	switch s.Status {
	case StatusPassed:
		sum.PassedScenarios++
	case StatusFailed:
		sum.FailedScenarios++
	case StatusSkipped:
		sum.SkippedScenarios++
	}
	for _, st := range s.Steps {
		sum.TotalSteps++
		switch st.Status {
		case StatusPassed:
			sum.PassedSteps++
		case StatusFailed:
			sum.FailedSteps++
		case StatusSkipped:
			sum.SkippedSteps++
		}
	}
}

// Save writes the result document as indented JSON.
func (r *FeatureResult) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a previously persisted result document.
func Load(path string) (*FeatureResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file %s: %w", path, err)
	}
	var r FeatureResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing result file %s: %w", path, err)
	}
	return &r, nil
}
