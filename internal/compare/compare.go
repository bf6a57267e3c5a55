package compare

import (
	"fmt"
	"time"

	"github.com/shift/web-spec/internal/result"
)

// Status classifies the overall delta between two result documents.
type Status string

const (
	StatusRegression  Status = "regression"
	StatusImprovement Status = "improvement"
	StatusIdentical   Status = "identical"
)

// Severity grades a regression item.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// DefaultTolerancePercent is the duration-change tolerance below which a
// scenario is considered unchanged.
const DefaultTolerancePercent = 10.0

// stepSignificancePercent is the cutoff below which per-step timing
// changes are not worth tracking at all.
const stepSignificancePercent = 5.0

// highSeverityPercent upgrades a duration regression from medium to high.
const highSeverityPercent = 50.0

// Options tunes the comparison.
type Options struct {
	// TolerancePercent is the duration-change percentage below which a
	// change counts as noise. Zero means DefaultTolerancePercent.
	TolerancePercent float64
}

func (o Options) tolerance() float64 {
	if o.TolerancePercent <= 0 {
		return DefaultTolerancePercent
	}
	return o.TolerancePercent
}

// ChangeType labels what happened to a single scenario between runs.
type ChangeType string

const (
	ChangeStatus  ChangeType = "status_changed"
	ChangeFaster  ChangeType = "duration_improved"
	ChangeSlower  ChangeType = "duration_regressed"
	ChangeNone    ChangeType = "unchanged"
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
)

// ScenarioChange records the per-scenario delta. Added and removed
// scenarios are classified but never diffed.
type ScenarioChange struct {
	Name               string        `json:"name" yaml:"name"`
	PreviousStatus     result.Status `json:"previous_status" yaml:"previous_status"`
	CurrentStatus      result.Status `json:"current_status" yaml:"current_status"`
	PreviousDurationMS int64         `json:"previous_duration_ms" yaml:"previous_duration_ms"`
	CurrentDurationMS  int64         `json:"current_duration_ms" yaml:"current_duration_ms"`
	Change             ChangeType    `json:"change" yaml:"change"`
}

// Regression is one classified degradation.
type Regression struct {
	Description string   `json:"description" yaml:"description"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Scenario    string   `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Step        string   `json:"step,omitempty" yaml:"step,omitempty"`
	ImpactMS    float64  `json:"impact_ms" yaml:"impact_ms"`
}

// Improvement is one classified gain.
type Improvement struct {
	Description string  `json:"description" yaml:"description"`
	Scenario    string  `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Step        string  `json:"step,omitempty" yaml:"step,omitempty"`
	GainMS      float64 `json:"gain_ms" yaml:"gain_ms"`
}

// StepChange is a significant per-step-text timing change, averaged over
// all occurrences of that step text in each document.
type StepChange struct {
	Text          string  `json:"text" yaml:"text"`
	BaselineAvgMS float64 `json:"baseline_avg_ms" yaml:"baseline_avg_ms"`
	CurrentAvgMS  float64 `json:"current_avg_ms" yaml:"current_avg_ms"`
	ChangePercent float64 `json:"change_percent" yaml:"change_percent"`
	Regression    bool    `json:"regression" yaml:"regression"`
	Occurrences   int     `json:"occurrences" yaml:"occurrences"`
}

// MetricsDiff is the summary-counter delta between the two documents.
// DurationDeltaPercent is nil when the baseline duration is zero.
type MetricsDiff struct {
	PassedScenarios      int      `json:"passed_scenarios" yaml:"passed_scenarios"`
	FailedScenarios      int      `json:"failed_scenarios" yaml:"failed_scenarios"`
	SkippedScenarios     int      `json:"skipped_scenarios" yaml:"skipped_scenarios"`
	PassedSteps          int      `json:"passed_steps" yaml:"passed_steps"`
	FailedSteps          int      `json:"failed_steps" yaml:"failed_steps"`
	SkippedSteps         int      `json:"skipped_steps" yaml:"skipped_steps"`
	DurationDiffMS       int64    `json:"duration_diff_ms" yaml:"duration_diff_ms"`
	DurationDeltaPercent *float64 `json:"duration_delta_percent" yaml:"duration_delta_percent"`
}

// Report is the full comparison of two result documents.
type Report struct {
	Status            Status           `json:"status" yaml:"status"`
	BaselineTimestamp time.Time        `json:"baseline_timestamp" yaml:"baseline_timestamp"`
	CurrentTimestamp  time.Time        `json:"current_timestamp" yaml:"current_timestamp"`
	Metrics           MetricsDiff      `json:"metrics" yaml:"metrics"`
	Scenarios         []ScenarioChange `json:"scenarios" yaml:"scenarios"`
	Steps             []StepChange     `json:"steps,omitempty" yaml:"steps,omitempty"`
	Regressions       []Regression     `json:"regressions,omitempty" yaml:"regressions,omitempty"`
	Improvements      []Improvement    `json:"improvements,omitempty" yaml:"improvements,omitempty"`
}

// Compare diffs two result documents. Scenarios are matched across the
// trees by name, not position: renamed or reordered scenarios show up as
// removed plus added, never diffed against each other.
func Compare(baseline, current *result.FeatureResult, opts Options) *Report {
	tol := opts.tolerance()
	r := &Report{
		BaselineTimestamp: baseline.Timestamp,
		CurrentTimestamp:  current.Timestamp,
		Metrics:           metricsDiff(baseline, current),
	}

	currentByName := make(map[string]*result.ScenarioResult, len(current.Scenarios))
	for i := range current.Scenarios {
		currentByName[current.Scenarios[i].Name] = &current.Scenarios[i]
	}
	baselineNames := make(map[string]bool, len(baseline.Scenarios))

	for i := range baseline.Scenarios {
		bs := &baseline.Scenarios[i]
		baselineNames[bs.Name] = true
		cs, ok := currentByName[bs.Name]
		if !ok {
			r.Scenarios = append(r.Scenarios, ScenarioChange{
				Name:               bs.Name,
				PreviousStatus:     bs.Status,
				CurrentStatus:      "",
				PreviousDurationMS: bs.DurationMS,
				Change:             ChangeRemoved,
			})
			continue
		}
		r.Scenarios = append(r.Scenarios, diffScenario(bs, cs, tol, r))
	}
	for i := range current.Scenarios {
		cs := &current.Scenarios[i]
		if baselineNames[cs.Name] {
			continue
		}
		r.Scenarios = append(r.Scenarios, ScenarioChange{
			Name:              cs.Name,
			CurrentStatus:     cs.Status,
			CurrentDurationMS: cs.DurationMS,
			Change:            ChangeAdded,
		})
	}

	r.Steps = diffSteps(baseline, current, tol, r)

	switch {
	case len(r.Regressions) > 0:
		r.Status = StatusRegression
	case len(r.Improvements) > 0:
		r.Status = StatusImprovement
	default:
		r.Status = StatusIdentical
	}
	return r
}

func diffScenario(bs, cs *result.ScenarioResult, tol float64, r *Report) ScenarioChange {
	change := ScenarioChange{
		Name:               bs.Name,
		PreviousStatus:     bs.Status,
		CurrentStatus:      cs.Status,
		PreviousDurationMS: bs.DurationMS,
		CurrentDurationMS:  cs.DurationMS,
		Change:             ChangeNone,
	}

	if bs.Status != cs.Status {
		change.Change = ChangeStatus
		if bs.Status == result.StatusPassed && cs.Status == result.StatusFailed {
			r.Regressions = append(r.Regressions, Regression{
				Description: fmt.Sprintf("scenario %q changed from passed to failed", bs.Name),
				Severity:    SeverityCritical,
				Scenario:    bs.Name,
				ImpactMS:    float64(cs.DurationMS),
			})
		}
		if bs.Status == result.StatusFailed && cs.Status == result.StatusPassed {
			r.Improvements = append(r.Improvements, Improvement{
				Description: fmt.Sprintf("scenario %q changed from failed to passed", bs.Name),
				Scenario:    bs.Name,
				GainMS:      float64(bs.DurationMS),
			})
		}
		return change
	}

	if bs.DurationMS == 0 {
		return change
	}
	deltaMS := cs.DurationMS - bs.DurationMS
	percent := float64(deltaMS) / float64(bs.DurationMS) * 100

	switch {
	case deltaMS < 0:
		change.Change = ChangeFaster
		if -percent > tol {
			r.Improvements = append(r.Improvements, Improvement{
				Description: fmt.Sprintf("scenario %q duration improved by %.1f%%", bs.Name, -percent),
				Scenario:    bs.Name,
				GainMS:      float64(-deltaMS),
			})
		}
	case deltaMS > 0:
		change.Change = ChangeSlower
		if percent > tol {
			sev := SeverityMedium
			if percent > highSeverityPercent {
				sev = SeverityHigh
			}
			r.Regressions = append(r.Regressions, Regression{
				Description: fmt.Sprintf("scenario %q duration regressed by %.1f%%", bs.Name, percent),
				Severity:    sev,
				Scenario:    bs.Name,
				ImpactMS:    float64(deltaMS),
			})
		}
	}
	return change
}

// diffSteps averages timings per step text across each document and
// reports the significant movers. Only steps present in both documents
// are considered.
func diffSteps(baseline, current *result.FeatureResult, tol float64, r *Report) []StepChange {
	order, baseTimes := collectStepTimes(baseline)
	_, curTimes := collectStepTimes(current)

	var changes []StepChange
	for _, text := range order {
		cur, ok := curTimes[text]
		if !ok {
			continue
		}
		base := baseTimes[text]
		baseAvg := avg(base)
		if baseAvg == 0 {
			continue
		}
		curAvg := avg(cur)
		percent := (curAvg - baseAvg) / baseAvg * 100
		if abs(percent) <= stepSignificancePercent {
			continue
		}
		regressed := curAvg > baseAvg
		changes = append(changes, StepChange{
			Text:          text,
			BaselineAvgMS: baseAvg,
			CurrentAvgMS:  curAvg,
			ChangePercent: percent,
			Regression:    regressed,
			Occurrences:   len(cur),
		})

		if abs(percent) <= tol {
			continue
		}
		if regressed {
			sev := SeverityMedium
			if percent > highSeverityPercent {
				sev = SeverityHigh
			}
			r.Regressions = append(r.Regressions, Regression{
				Description: fmt.Sprintf("step %q duration regressed by %.1f%%", text, percent),
				Severity:    sev,
				Step:        text,
				ImpactMS:    curAvg - baseAvg,
			})
		} else {
			r.Improvements = append(r.Improvements, Improvement{
				Description: fmt.Sprintf("step %q duration improved by %.1f%%", text, -percent),
				Step:        text,
				GainMS:      baseAvg - curAvg,
			})
		}
	}
	return changes
}

func collectStepTimes(fr *result.FeatureResult) ([]string, map[string][]int64) {
	var order []string
	times := map[string][]int64{}
	for _, sc := range fr.Scenarios {
		for _, step := range sc.Steps {
			if _, seen := times[step.Text]; !seen {
				order = append(order, step.Text)
			}
			times[step.Text] = append(times[step.Text], step.DurationMS)
		}
	}
	return order, times
}

func metricsDiff(baseline, current *result.FeatureResult) MetricsDiff {
	d := MetricsDiff{
		PassedScenarios:  current.Summary.PassedScenarios - baseline.Summary.PassedScenarios,
		FailedScenarios:  current.Summary.FailedScenarios - baseline.Summary.FailedScenarios,
		SkippedScenarios: current.Summary.SkippedScenarios - baseline.Summary.SkippedScenarios,
		PassedSteps:      current.Summary.PassedSteps - baseline.Summary.PassedSteps,
		FailedSteps:      current.Summary.FailedSteps - baseline.Summary.FailedSteps,
		SkippedSteps:     current.Summary.SkippedSteps - baseline.Summary.SkippedSteps,
		DurationDiffMS:   current.DurationMS - baseline.DurationMS,
	}
	if baseline.DurationMS > 0 {
		p := float64(d.DurationDiffMS) / float64(baseline.DurationMS) * 100
		d.DurationDeltaPercent = &p
	}
	return d
}

func avg(xs []int64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum int64
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
