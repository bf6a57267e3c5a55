package webhook

import (
	"fmt"

	"github.com/shift/web-spec/internal/result"
)

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is one threshold violation found in a result document.
type Alert struct {
	Name     string        `json:"name" yaml:"name"`
	Severity AlertSeverity `json:"severity" yaml:"severity"`
	Message  string        `json:"message" yaml:"message"`
	Value    float64       `json:"value" yaml:"value"`
	Limit    float64       `json:"limit" yaml:"limit"`
}

func (a Alert) String() string {
	return fmt.Sprintf("[%s] %s: %s (value %.1f, limit %.1f)", a.Severity, a.Name, a.Message, a.Value, a.Limit)
}

// Thresholds holds the performance limits checked after every run.
// Zero values fall back to the defaults.
type Thresholds struct {
	SlowScenarioMS        int64   `yaml:"slow_scenario_ms" json:"slow_scenario_ms"`
	VerySlowScenarioMS    int64   `yaml:"very_slow_scenario_ms" json:"very_slow_scenario_ms"`
	SlowStepMS            int64   `yaml:"slow_step_ms" json:"slow_step_ms"`
	MaxFailureRatePercent float64 `yaml:"max_failure_rate_percent" json:"max_failure_rate_percent"`
}

// DefaultThresholds returns the stock limits: 30s scenario warning, 60s
// scenario critical, 10s step warning, 10% failure rate warning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SlowScenarioMS:        30_000,
		VerySlowScenarioMS:    60_000,
		SlowStepMS:            10_000,
		MaxFailureRatePercent: 10,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.SlowScenarioMS <= 0 {
		t.SlowScenarioMS = d.SlowScenarioMS
	}
	if t.VerySlowScenarioMS <= 0 {
		t.VerySlowScenarioMS = d.VerySlowScenarioMS
	}
	if t.SlowStepMS <= 0 {
		t.SlowStepMS = d.SlowStepMS
	}
	if t.MaxFailureRatePercent <= 0 {
		t.MaxFailureRatePercent = d.MaxFailureRatePercent
	}
	return t
}

// Evaluate checks a sealed result document against the thresholds. A
// scenario above the critical limit produces only the critical alert,
// not a duplicate warning.
func Evaluate(res *result.FeatureResult, t Thresholds) []Alert {
	t = t.withDefaults()
	var alerts []Alert

	for _, sc := range res.Scenarios {
		switch {
		case sc.DurationMS > t.VerySlowScenarioMS:
			alerts = append(alerts, Alert{
				Name:     "very_slow_scenario",
				Severity: SeverityCritical,
				Message:  fmt.Sprintf("scenario %q exceeded %.1fs duration", sc.Name, float64(t.VerySlowScenarioMS)/1000),
				Value:    float64(sc.DurationMS),
				Limit:    float64(t.VerySlowScenarioMS),
			})
		case sc.DurationMS > t.SlowScenarioMS:
			alerts = append(alerts, Alert{
				Name:     "slow_scenario",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("scenario %q exceeded %.1fs duration", sc.Name, float64(t.SlowScenarioMS)/1000),
				Value:    float64(sc.DurationMS),
				Limit:    float64(t.SlowScenarioMS),
			})
		}
		for _, step := range sc.Steps {
			if step.DurationMS > t.SlowStepMS {
				alerts = append(alerts, Alert{
					Name:     "slow_step",
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("step %q exceeded %.1fs duration", step.Text, float64(t.SlowStepMS)/1000),
					Value:    float64(step.DurationMS),
					Limit:    float64(t.SlowStepMS),
				})
			}
		}
	}

	if res.Summary.TotalScenarios > 0 {
		rate := float64(res.Summary.FailedScenarios) / float64(res.Summary.TotalScenarios) * 100
		if rate > t.MaxFailureRatePercent {
			alerts = append(alerts, Alert{
				Name:     "high_failure_rate",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("failure rate exceeded %.1f%%", t.MaxFailureRatePercent),
				Value:    rate,
				Limit:    t.MaxFailureRatePercent,
			})
		}
	}
	return alerts
}
