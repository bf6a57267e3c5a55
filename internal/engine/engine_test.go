package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shift/web-spec/internal/backend"
	"github.com/shift/web-spec/internal/gherkin"
	"github.com/shift/web-spec/internal/registry"
	"github.com/shift/web-spec/internal/result"
)

func parseFeature(t *testing.T, src string) *gherkin.Feature {
	t.Helper()
	feat, err := gherkin.Parse("test.feature", []byte(src))
	require.NoError(t, err)
	return feat
}

func TestRunAllPassing(t *testing.T) {
	fake := backend.NewFake()
	fake.Body = "Welcome"
	e := New(registry.Default(), fake)

	feat := parseFeature(t, `Feature: Smoke
  Scenario: Happy path
    Given I navigate to "https://example.com"
    When I click on "button.go"
    Then I should see "Welcome"
`)
	res := e.Run(context.Background(), feat)

	assert.Equal(t, result.StatusPassed, res.Status)
	require.Len(t, res.Scenarios, 1)
	require.Len(t, res.Scenarios[0].Steps, 3)
	for _, st := range res.Scenarios[0].Steps {
		assert.Equal(t, result.StatusPassed, st.Status)
	}
	assert.Equal(t, []string{
		"navigate https://example.com",
		"click button.go",
		`wait Welcome text`,
	}, fake.Calls)
}

func TestUnmatchedStepShortCircuitsScenario(t *testing.T) {
	fake := backend.NewFake()
	fake.Body = "fine"
	e := New(registry.Default(), fake)

	feat := parseFeature(t, `Feature: Short circuit
  Scenario: Breaks in the middle
    Given I navigate to "https://example.com"
    When I do something undefined
    Then I should see "fine"

  Scenario: Sibling still runs
    Given I navigate to "https://example.com"
    Then I should see "fine"
`)
	res := e.Run(context.Background(), feat)

	assert.Equal(t, result.StatusFailed, res.Status)
	require.Len(t, res.Scenarios, 2)

	broken := res.Scenarios[0]
	assert.Equal(t, result.StatusFailed, broken.Status)
	require.Len(t, broken.Steps, 3)
	assert.Equal(t, result.StatusPassed, broken.Steps[0].Status)
	assert.Equal(t, result.StatusFailed, broken.Steps[1].Status)
	require.NotNil(t, broken.Steps[1].Error)
	assert.Equal(t, result.CodeUnmatchedStep, broken.Steps[1].Error.Code)
	assert.Equal(t, result.StatusSkipped, broken.Steps[2].Status)

	sibling := res.Scenarios[1]
	assert.Equal(t, result.StatusPassed, sibling.Status)
}

func TestBackendErrorShortCircuits(t *testing.T) {
	fake := backend.NewFake()
	fake.Missing["#gone"] = true
	e := New(registry.Default(), fake)

	feat := parseFeature(t, `Feature: Backend failure
  Scenario: Click missing
    Given I navigate to "https://example.com"
    When I click on "#gone"
    And I click on "#other"
`)
	res := e.Run(context.Background(), feat)

	steps := res.Scenarios[0].Steps
	require.Len(t, steps, 3)
	assert.Equal(t, result.StatusFailed, steps[1].Status)
	assert.Equal(t, result.CodeBackendError, steps[1].Error.Code)
	assert.NotEmpty(t, steps[1].Error.Suggestions)
	assert.Equal(t, result.StatusSkipped, steps[2].Status)
	// The failed click is the last backend call; nothing after it dispatches.
	assert.Equal(t, "click #gone", fake.Calls[len(fake.Calls)-1])
}

func TestEveryStepReachesTerminalStatus(t *testing.T) {
	fake := backend.NewFake()
	e := New(registry.Default(), fake)

	feat := parseFeature(t, `Feature: Conservation
  Scenario: One
    Given I navigate to "https://example.com"
    When I do something undefined
    Then I should see "never"
    And I click on "#x"

  Scenario: Two
    Given I wait 0 seconds
`)
	res := e.Run(context.Background(), feat)

	parsed := 0
	for _, sc := range feat.Scenarios {
		parsed += len(sc.Steps)
	}
	sealed := 0
	for _, sc := range res.Scenarios {
		for _, st := range sc.Steps {
			assert.NotEqual(t, result.StatusPending, st.Status)
			sealed++
		}
	}
	assert.Equal(t, parsed, sealed)
}

func TestAssertionFailure(t *testing.T) {
	fake := backend.NewFake()
	fake.Title = "Actual Title"
	e := New(registry.Default(), fake)

	feat := parseFeature(t, `Feature: Assertions
  Scenario: Wrong title
    Then the page title should be "Expected Title"
`)
	res := e.Run(context.Background(), feat)

	st := res.Scenarios[0].Steps[0]
	assert.Equal(t, result.StatusFailed, st.Status)
	assert.Equal(t, result.CodeAssertionFailed, st.Error.Code)
	assert.Contains(t, st.Error.Message, "Actual Title")
}

func TestExtractionCapturesOutputAndStore(t *testing.T) {
	fake := backend.NewFake()
	fake.Page["#price"] = "42.00"
	e := New(registry.Default(), fake)

	feat := parseFeature(t, `Feature: Extraction
  Scenario: Store and recall
    Given I navigate to "https://example.com"
    When I store the text of "#price" as price
    Then the stored value price should be "42.00"
`)
	res := e.Run(context.Background(), feat)

	assert.Equal(t, result.StatusPassed, res.Status)
	assert.Equal(t, "42.00", res.Scenarios[0].Steps[1].Output)
}

func TestDryRunNeverTouchesBackend(t *testing.T) {
	fake := backend.NewFake()
	e := New(registry.Default(), fake)

	feat := parseFeature(t, `Feature: Validation
  Scenario: Mixed
    Given I navigate to "https://example.com"
    When I do something undefined
`)
	report := e.DryRun(feat)

	assert.False(t, report.Valid)
	assert.Equal(t, 2, report.TotalSteps)
	assert.Equal(t, 1, report.MatchedSteps)
	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, "I do something undefined", report.Unmatched[0].Step)
	assert.Equal(t, 4, report.Unmatched[0].Line)
	assert.Empty(t, fake.Calls, "dry run must not call the backend")
}

func TestDryRunValid(t *testing.T) {
	e := New(registry.Default(), nil)
	feat := parseFeature(t, `Feature: Valid
  Scenario: Fine
    Given I navigate to "https://example.com"
    Then I should see "ok"
`)
	report := e.DryRun(feat)
	assert.True(t, report.Valid)
	assert.Equal(t, 2, report.MatchedSteps)
}

func TestCancelledContextSkipsRemainingSteps(t *testing.T) {
	fake := backend.NewFake()
	e := New(registry.Default(), fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feat := parseFeature(t, `Feature: Cancelled
  Scenario: Never starts
    Given I navigate to "https://example.com"
    Then I should see "nothing"
`)
	res := e.Run(ctx, feat)

	assert.Equal(t, result.StatusSkipped, res.Status)
	for _, st := range res.Scenarios[0].Steps {
		assert.Equal(t, result.StatusSkipped, st.Status)
	}
	assert.Empty(t, fake.Calls)
}

func TestResolveKeywords(t *testing.T) {
	steps := []gherkin.Step{
		{Keyword: "Given"}, {Keyword: "And"}, {Keyword: "When"},
		{Keyword: "But"}, {Keyword: "Then"}, {Keyword: "And"},
	}
	assert.Equal(t,
		[]string{"Given", "Given", "When", "When", "Then", "Then"},
		resolveKeywords(steps))
}

// repeatOnce asks the engine to re-dispatch the step at the given
// position a single time, then proceeds everywhere.
type repeatOnce struct {
	at   Position
	done bool
}

func (h *repeatOnce) BeforeStep(pos Position, _ *gherkin.Scenario, _ gherkin.Step) Directive {
	if pos == h.at && !h.done {
		h.done = true
		return Repeat
	}
	return Proceed
}

func (h *repeatOnce) AfterStep(Position, result.StepResult) {}

func TestRepeatedStepFailurePreservesError(t *testing.T) {
	fake := backend.NewFake()
	fake.Missing["#gone"] = true
	e := New(registry.Default(), fake)
	e.Hook = &repeatOnce{at: Position{Scenario: 0, Step: 1}}

	feat := parseFeature(t, `Feature: Repeat
  Scenario: Fails on the repeated step
    Given I navigate to "https://example.com"
    When I click on "#gone"
    Then I should see "never"
`)
	res := e.Run(context.Background(), feat)

	require.Len(t, res.Scenarios, 1)
	sc := res.Scenarios[0]
	assert.Equal(t, result.StatusFailed, sc.Status)
	assert.Equal(t, result.StatusFailed, res.Status)

	steps := sc.Steps
	require.Len(t, steps, 3)
	assert.Equal(t, result.StatusPassed, steps[0].Status)
	assert.Equal(t, result.StatusFailed, steps[1].Status)
	require.NotNil(t, steps[1].Error)
	assert.Equal(t, result.CodeBackendError, steps[1].Error.Code)
	assert.Equal(t, result.StatusSkipped, steps[2].Status)
}

func TestRepeatedStepSuccessAdvances(t *testing.T) {
	fake := backend.NewFake()
	e := New(registry.Default(), fake)
	e.Hook = &repeatOnce{at: Position{Scenario: 0, Step: 0}}

	feat := parseFeature(t, `Feature: Repeat
  Scenario: Repeats then passes
    Given I navigate to "https://example.com"
    When I click on "#ok"
`)
	res := e.Run(context.Background(), feat)

	assert.Equal(t, result.StatusPassed, res.Status)
	// The repeated step dispatched twice, its successor once.
	assert.Equal(t, []string{
		"navigate https://example.com",
		"navigate https://example.com",
		"click #ok",
	}, fake.Calls)
}
