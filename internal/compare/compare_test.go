package compare

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shift/web-spec/internal/result"
)

func doc(status result.Status, durationMS int64, scenarios ...result.ScenarioResult) *result.FeatureResult {
	fr := &result.FeatureResult{
		Status:     status,
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		DurationMS: durationMS,
		Feature:    result.FeatureInfo{Name: "Checkout", File: "checkout.feature"},
		Scenarios:  scenarios,
	}
	for _, sc := range scenarios {
		fr.Summary.TotalScenarios++
		switch sc.Status {
		case result.StatusPassed:
			fr.Summary.PassedScenarios++
		case result.StatusFailed:
			fr.Summary.FailedScenarios++
		case result.StatusSkipped:
			fr.Summary.SkippedScenarios++
		}
		for _, st := range sc.Steps {
			fr.Summary.TotalSteps++
			switch st.Status {
			case result.StatusPassed:
				fr.Summary.PassedSteps++
			case result.StatusFailed:
				fr.Summary.FailedSteps++
			case result.StatusSkipped:
				fr.Summary.SkippedSteps++
			}
		}
	}
	return fr
}

func scenario(name string, status result.Status, durationMS int64, steps ...result.StepResult) result.ScenarioResult {
	return result.ScenarioResult{Name: name, Status: status, DurationMS: durationMS, Steps: steps}
}

func TestCompareIdenticalDocuments(t *testing.T) {
	r := doc(result.StatusPassed, 1000,
		scenario("Pay", result.StatusPassed, 1000,
			result.StepResult{Text: "I click on \"pay\"", Status: result.StatusPassed, DurationMS: 1000}))

	rep := Compare(r, r, Options{})
	assert.Equal(t, StatusIdentical, rep.Status)
	require.NotNil(t, rep.Metrics.DurationDeltaPercent)
	assert.Zero(t, *rep.Metrics.DurationDeltaPercent)
	assert.Empty(t, rep.Regressions)
	assert.Empty(t, rep.Improvements)
	assert.Empty(t, rep.Steps)
}

func TestPassedToFailedIsRegression(t *testing.T) {
	baseline := doc(result.StatusPassed, 1000, scenario("Pay", result.StatusPassed, 1000))
	current := doc(result.StatusFailed, 2000, scenario("Pay", result.StatusFailed, 2000))

	rep := Compare(baseline, current, Options{})
	assert.Equal(t, StatusRegression, rep.Status)
	require.Len(t, rep.Regressions, 1)
	assert.Equal(t, SeverityCritical, rep.Regressions[0].Severity)
	assert.Equal(t, "Pay", rep.Regressions[0].Scenario)
	require.Len(t, rep.Scenarios, 1)
	assert.Equal(t, ChangeStatus, rep.Scenarios[0].Change)
}

func TestFasterPassingRunIsImprovement(t *testing.T) {
	baseline := doc(result.StatusPassed, 2000, scenario("Pay", result.StatusPassed, 2000))
	current := doc(result.StatusPassed, 1000, scenario("Pay", result.StatusPassed, 1000))

	rep := Compare(baseline, current, Options{})
	assert.Equal(t, StatusImprovement, rep.Status)
	require.Len(t, rep.Improvements, 1)
	assert.Equal(t, "Pay", rep.Improvements[0].Scenario)
	require.NotNil(t, rep.Metrics.DurationDeltaPercent)
	assert.InDelta(t, -50.0, *rep.Metrics.DurationDeltaPercent, 0.01)
}

func TestFailedToPassedIsImprovement(t *testing.T) {
	baseline := doc(result.StatusFailed, 500, scenario("Pay", result.StatusFailed, 500))
	current := doc(result.StatusPassed, 500, scenario("Pay", result.StatusPassed, 500))

	rep := Compare(baseline, current, Options{})
	assert.Equal(t, StatusImprovement, rep.Status)
	require.Len(t, rep.Improvements, 1)
}

func TestDurationChangeWithinToleranceIsIdentical(t *testing.T) {
	baseline := doc(result.StatusPassed, 1000, scenario("Pay", result.StatusPassed, 1000))
	current := doc(result.StatusPassed, 1050, scenario("Pay", result.StatusPassed, 1050))

	rep := Compare(baseline, current, Options{})
	assert.Equal(t, StatusIdentical, rep.Status)
	// The raw change is still visible on the scenario delta.
	require.Len(t, rep.Scenarios, 1)
	assert.Equal(t, ChangeSlower, rep.Scenarios[0].Change)
}

func TestToleranceIsConfigurable(t *testing.T) {
	baseline := doc(result.StatusPassed, 1000, scenario("Pay", result.StatusPassed, 1000))
	current := doc(result.StatusPassed, 1080, scenario("Pay", result.StatusPassed, 1080))

	// 8% is below the default tolerance but above a custom 5%.
	assert.Equal(t, StatusIdentical, Compare(baseline, current, Options{}).Status)
	rep := Compare(baseline, current, Options{TolerancePercent: 5})
	assert.Equal(t, StatusRegression, rep.Status)
	require.Len(t, rep.Regressions, 1)
	assert.Equal(t, SeverityMedium, rep.Regressions[0].Severity)
}

func TestLargeDurationRegressionIsHighSeverity(t *testing.T) {
	baseline := doc(result.StatusPassed, 1000, scenario("Pay", result.StatusPassed, 1000))
	current := doc(result.StatusPassed, 1600, scenario("Pay", result.StatusPassed, 1600))

	rep := Compare(baseline, current, Options{})
	require.Len(t, rep.Regressions, 1)
	assert.Equal(t, SeverityHigh, rep.Regressions[0].Severity)
}

func TestRenamedScenarioIsRemovedPlusAdded(t *testing.T) {
	baseline := doc(result.StatusPassed, 1000, scenario("Old name", result.StatusPassed, 1000))
	current := doc(result.StatusPassed, 1000, scenario("New name", result.StatusPassed, 1000))

	rep := Compare(baseline, current, Options{})
	require.Len(t, rep.Scenarios, 2)
	assert.Equal(t, ChangeRemoved, rep.Scenarios[0].Change)
	assert.Equal(t, "Old name", rep.Scenarios[0].Name)
	assert.Equal(t, ChangeAdded, rep.Scenarios[1].Change)
	assert.Equal(t, "New name", rep.Scenarios[1].Name)
	// Added/removed never count as regressions on their own.
	assert.Equal(t, StatusIdentical, rep.Status)
}

func TestZeroBaselineDurationYieldsNilDelta(t *testing.T) {
	baseline := doc(result.StatusPassed, 0, scenario("Pay", result.StatusPassed, 0))
	current := doc(result.StatusPassed, 100, scenario("Pay", result.StatusPassed, 100))

	rep := Compare(baseline, current, Options{})
	assert.Nil(t, rep.Metrics.DurationDeltaPercent)
	assert.Equal(t, int64(100), rep.Metrics.DurationDiffMS)
}

func TestStepPerformanceAnalysis(t *testing.T) {
	step := func(ms int64) result.StepResult {
		return result.StepResult{Text: "I click on \"pay\"", Status: result.StatusPassed, DurationMS: ms}
	}
	baseline := doc(result.StatusPassed, 1000,
		scenario("A", result.StatusPassed, 200, step(100)),
		scenario("B", result.StatusPassed, 200, step(100)))
	current := doc(result.StatusPassed, 1000,
		scenario("A", result.StatusPassed, 200, step(200)),
		scenario("B", result.StatusPassed, 200, step(200)))

	rep := Compare(baseline, current, Options{})
	require.Len(t, rep.Steps, 1)
	st := rep.Steps[0]
	assert.Equal(t, "I click on \"pay\"", st.Text)
	assert.InDelta(t, 100, st.BaselineAvgMS, 0.01)
	assert.InDelta(t, 200, st.CurrentAvgMS, 0.01)
	assert.InDelta(t, 100, st.ChangePercent, 0.01)
	assert.True(t, st.Regression)
	assert.Equal(t, 2, st.Occurrences)
	// 100% regression on a step is reported as a high severity item.
	found := false
	for _, reg := range rep.Regressions {
		if reg.Step == st.Text {
			found = true
			assert.Equal(t, SeverityHigh, reg.Severity)
		}
	}
	assert.True(t, found)
}

func TestSmallStepChangeIsIgnored(t *testing.T) {
	step := func(ms int64) result.StepResult {
		return result.StepResult{Text: "I click on \"pay\"", Status: result.StatusPassed, DurationMS: ms}
	}
	baseline := doc(result.StatusPassed, 1000, scenario("A", result.StatusPassed, 200, step(100)))
	current := doc(result.StatusPassed, 1000, scenario("A", result.StatusPassed, 200, step(103)))

	rep := Compare(baseline, current, Options{})
	assert.Empty(t, rep.Steps)
}

func TestMetricsDiffCounts(t *testing.T) {
	baseline := doc(result.StatusPassed, 1000,
		scenario("A", result.StatusPassed, 500),
		scenario("B", result.StatusPassed, 500))
	current := doc(result.StatusFailed, 1000,
		scenario("A", result.StatusPassed, 500),
		scenario("B", result.StatusFailed, 500))

	rep := Compare(baseline, current, Options{})
	assert.Equal(t, -1, rep.Metrics.PassedScenarios)
	assert.Equal(t, 1, rep.Metrics.FailedScenarios)
}

func TestRenderTextAndJSON(t *testing.T) {
	baseline := doc(result.StatusPassed, 1000, scenario("Pay", result.StatusPassed, 1000))
	current := doc(result.StatusFailed, 2000, scenario("Pay", result.StatusFailed, 2000))
	rep := Compare(baseline, current, Options{})

	var text bytes.Buffer
	require.NoError(t, Render(&text, rep, result.FormatText))
	assert.Contains(t, text.String(), "❌ regression")
	assert.Contains(t, text.String(), "[critical]")

	var js bytes.Buffer
	require.NoError(t, Render(&js, rep, result.FormatJSON))
	assert.Contains(t, js.String(), `"status": "regression"`)

	require.Error(t, Render(&js, rep, "html"))
}
