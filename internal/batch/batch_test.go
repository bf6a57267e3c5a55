package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shift/web-spec/internal/backend"
	"github.com/shift/web-spec/internal/engine"
	"github.com/shift/web-spec/internal/gherkin"
	"github.com/shift/web-spec/internal/registry"
	"github.com/shift/web-spec/internal/result"
)

const failingFeature = `Feature: Broken
  Scenario: Breaks
    Given I navigate to "https://example.com"
`

func writeFeature(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeRunner executes features against a fresh in-memory backend per
// unit and records which files ran.
type fakeRunner struct {
	mu      sync.Mutex
	ran     []string
	failAll bool
}

func (f *fakeRunner) run(ctx context.Context, feat *gherkin.Feature) *result.FeatureResult {
	f.mu.Lock()
	f.ran = append(f.ran, feat.File)
	f.mu.Unlock()

	fake := backend.NewFake()
	if f.failAll || feat.Name == "Broken" {
		fake.FailNav = &backend.Error{Kind: backend.KindProtocol, Op: "navigate", Msg: "connection reset"}
	}
	e := engine.New(registry.Default(), fake)
	return e.Run(ctx, feat)
}

func TestDiscoverFindsSortedFeatures(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "b/two.feature", "Feature: Two\n")
	writeFeature(t, dir, "a/one.feature", "Feature: One\n")
	writeFeature(t, dir, "a/readme.md", "not a feature\n")

	files, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a", "one.feature"), files[0])
	assert.Equal(t, filepath.Join(dir, "b", "two.feature"), files[1])
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestSequentialAllPassing(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.feature", "b.feature", "c.feature"} {
		writeFeature(t, dir, name, "Feature: OK\n  Scenario: S\n    Given I navigate to \"https://example.com\"\n")
	}
	files, err := Discover(dir)
	require.NoError(t, err)

	r := &fakeRunner{}
	s := &Scheduler{Workers: 1, Run: r.run}
	sum := s.Execute(context.Background(), files)

	assert.True(t, sum.Ok())
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 3, sum.Passed)
	assert.Equal(t, files, r.ran)
}

func TestSequentialStopsAfterFailure(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFeature(t, dir, "1.feature", "Feature: OK\n  Scenario: S\n    Given I navigate to \"https://example.com\"\n")
	f2 := writeFeature(t, dir, "2.feature", failingFeature)
	writeFeature(t, dir, "3.feature", "Feature: Later\n  Scenario: S\n    Given I navigate to \"https://example.com\"\n")
	files, err := Discover(dir)
	require.NoError(t, err)

	r := &fakeRunner{}
	s := &Scheduler{Workers: 1, ContinueOnFailure: false, Run: r.run}
	sum := s.Execute(context.Background(), files)

	// The third file was never executed.
	assert.Equal(t, []string{f1, f2}, r.ran)
	require.Len(t, sum.Units, 3)
	assert.True(t, sum.Units[2].Skipped)
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Skipped)
	assert.False(t, sum.Ok())
}

func TestContinueOnFailureRunsEverything(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "1.feature", failingFeature)
	writeFeature(t, dir, "2.feature", "Feature: OK\n  Scenario: S\n    Given I navigate to \"https://example.com\"\n")
	files, err := Discover(dir)
	require.NoError(t, err)

	r := &fakeRunner{}
	s := &Scheduler{Workers: 1, ContinueOnFailure: true, Run: r.run}
	sum := s.Execute(context.Background(), files)

	assert.Len(t, r.ran, 2)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Passed)
}

func TestUnparsableUnitBecomesError(t *testing.T) {
	dir := t.TempDir()
	writeFeature(t, dir, "bad.feature", "Scenario: no header\n")
	writeFeature(t, dir, "good.feature", "Feature: OK\n  Scenario: S\n    Given I navigate to \"https://example.com\"\n")
	files, err := Discover(dir)
	require.NoError(t, err)

	r := &fakeRunner{}
	s := &Scheduler{Workers: 1, ContinueOnFailure: true, Run: r.run}
	sum := s.Execute(context.Background(), files)

	require.Len(t, sum.Errors, 1)
	assert.Equal(t, filepath.Join(dir, "bad.feature"), sum.Errors[0].Path)
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 2, sum.Total)
}

func TestParallelSummaryInDiscoveryOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.feature", "b.feature", "c.feature", "d.feature"} {
		files = append(files, writeFeature(t, dir, name,
			"Feature: OK\n  Scenario: S\n    Given I navigate to \"https://example.com\"\n"))
	}

	r := &fakeRunner{}
	s := &Scheduler{Workers: 3, ContinueOnFailure: true, Run: r.run}
	sum := s.Execute(context.Background(), files)

	require.Len(t, sum.Units, 4)
	for i, u := range sum.Units {
		assert.Equal(t, files[i], u.File)
	}
	assert.Equal(t, 4, sum.Passed)
}

func TestParallelMatchesSequentialTotals(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.feature", "b.feature", "fail.feature", "z.feature"} {
		content := "Feature: OK\n  Scenario: S\n    Given I navigate to \"https://example.com\"\n"
		if name == "fail.feature" {
			content = failingFeature
		}
		files = append(files, writeFeature(t, dir, name, content))
	}

	seq := &Scheduler{Workers: 1, ContinueOnFailure: true, Run: (&fakeRunner{}).run}
	par := &Scheduler{Workers: 4, ContinueOnFailure: true, Run: (&fakeRunner{}).run}

	a := seq.Execute(context.Background(), files)
	b := par.Execute(context.Background(), files)

	assert.Equal(t, a.Passed, b.Passed)
	assert.Equal(t, a.Failed, b.Failed)
	assert.Equal(t, a.Total, b.Total)
}

func TestUnitTimeoutSkipsRemainingSteps(t *testing.T) {
	dir := t.TempDir()
	f := writeFeature(t, dir, "slow.feature",
		"Feature: Slow\n  Scenario: S\n    Given I wait for 5 seconds\n    Then I take a screenshot \"out.png\"\n")

	r := &fakeRunner{}
	s := &Scheduler{Workers: 1, Timeout: 50 * time.Millisecond, Run: r.run}
	sum := s.Execute(context.Background(), []string{f})

	require.Len(t, sum.Units, 1)
	assert.Equal(t, result.StatusFailed, sum.Units[0].Result.Status)
}

func TestRenderTextSummary(t *testing.T) {
	sum := &Summary{
		Units: []Unit{
			{File: "a.feature", Result: &result.FeatureResult{Status: result.StatusPassed}},
			{File: "b.feature", Skipped: true},
		},
		Errors:  []UnitError{{Path: "c.feature", Err: "line 1: feature header missing"}},
		Total:   3,
		Passed:  1,
		Skipped: 1,
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sum, result.FormatText))
	out := buf.String()
	assert.Contains(t, out, "✅ a.feature")
	assert.Contains(t, out, "⏭️  b.feature")
	assert.Contains(t, out, "💥 c.feature")
	assert.Contains(t, out, "1 passed, 0 failed, 1 skipped, 1 errors")
}

func TestRenderJSONSummary(t *testing.T) {
	sum := &Summary{Total: 1, Passed: 1, Units: []Unit{{File: "a.feature"}}}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sum, result.FormatJSON))
	assert.Contains(t, buf.String(), `"total": 1`)
	require.Error(t, Render(&buf, sum, "tap"))
}
