// Package engine matches parsed steps against the registry and dispatches
// them to handlers driving the automation backend, building the result tree.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shift/web-spec/internal/backend"
	"github.com/shift/web-spec/internal/gherkin"
	"github.com/shift/web-spec/internal/log"
	"github.com/shift/web-spec/internal/registry"
	"github.com/shift/web-spec/internal/result"
)

// Directive tells the engine what to do at a suspension point.
type Directive int

const (
	// Proceed dispatches the current step and advances.
	Proceed Directive = iota
	// Skip marks the current step skipped without dispatching and advances.
	Skip
	// Repeat dispatches the current step without advancing; the engine
	// pauses at the same position again.
	Repeat
	// Abort seals the current step failed and stops the run.
	Abort
)

// Position is the engine's cursor inside a feature.
type Position struct {
	Scenario int
	Step     int
}

// Hook receives control before every step dispatch. The engine blocks until
// it returns; this is the debugger's cooperative suspension point.
type Hook interface {
	BeforeStep(pos Position, scenario *gherkin.Scenario, step gherkin.Step) Directive
	AfterStep(pos Position, res result.StepResult)
}

// Engine executes one feature at a time. The registry is shared and
// read-only; everything else (backend session, store, result accumulation)
// is owned by this instance, so each batch worker builds its own Engine.
type Engine struct {
	Registry *registry.Registry
	Handlers HandlerMap
	Backend  backend.Backend
	Display  *Display
	Hook     Hook
}

// New builds an engine with the default handler set.
func New(reg *registry.Registry, b backend.Backend) *Engine {
	return &Engine{Registry: reg, Handlers: DefaultHandlers(), Backend: b}
}

// Run executes every scenario of the feature in document order and returns
// the sealed result tree. Step and scenario failures are recovered locally;
// they never abort sibling scenarios.
func (e *Engine) Run(ctx context.Context, feat *gherkin.Feature) *result.FeatureResult {
	res := result.NewFeatureResult(result.FeatureInfo{
		Name:        feat.Name,
		File:        feat.File,
		Description: feat.Description,
	})
	start := time.Now()
	store := map[string]string{}
	aborted := false

	if e.Display != nil {
		e.Display.FeatureStart(feat.Name)
	}

	for si := range feat.Scenarios {
		sc := &feat.Scenarios[si]
		if aborted || ctx.Err() != nil {
			res.AddScenario(skippedScenario(sc))
			continue
		}
		sres := e.runScenario(ctx, si, sc, store, &aborted)
		res.AddScenario(sres)
	}

	res.DurationMS = time.Since(start).Milliseconds()
	res.Seal()
	if e.Display != nil {
		e.Display.Summary(res)
	}
	return res
}

func (e *Engine) runScenario(ctx context.Context, si int, sc *gherkin.Scenario, store map[string]string, aborted *bool) result.ScenarioResult {
	if e.Display != nil {
		e.Display.ScenarioStart(sc.Name)
	}

	keywords := resolveKeywords(sc.Steps)
	results := make([]result.StepResult, len(sc.Steps))
	for i, step := range sc.Steps {
		results[i] = result.StepResult{Text: step.Text, Keyword: step.Keyword, Status: result.StatusPending}
	}

	start := time.Now()
	failed := false
	i := 0
	for i < len(sc.Steps) {
		step := sc.Steps[i]

		if failed || *aborted {
			results[i].Status = result.StatusSkipped
			if e.Display != nil {
				e.Display.StepSkipped(step.Keyword, step.Text)
			}
			i++
			continue
		}
		if ctx.Err() != nil {
			// External cancellation: seal the current step skipped, never
			// leave it pending.
			*aborted = true
			continue
		}

		directive := Proceed
		if e.Hook != nil {
			directive = e.Hook.BeforeStep(Position{Scenario: si, Step: i}, sc, step)
		}
		switch directive {
		case Skip:
			results[i].Status = result.StatusSkipped
			if e.Display != nil {
				e.Display.StepSkipped(step.Keyword, step.Text)
			}
			if e.Hook != nil {
				e.Hook.AfterStep(Position{Scenario: si, Step: i}, results[i])
			}
			i++
			continue
		case Abort:
			results[i].Status = result.StatusFailed
			results[i].Error = &result.ErrorInfo{
				Code:    result.CodeDebugAborted,
				Message: "execution aborted by debugger",
			}
			failed = true
			*aborted = true
			i++
			continue
		}

		results[i] = e.dispatch(ctx, step, keywords[i], store)
		if e.Hook != nil {
			e.Hook.AfterStep(Position{Scenario: si, Step: i}, results[i])
		}
		if results[i].Status == result.StatusFailed {
			failed = true
		}
		// A failed repeat must advance, or the failed branch above would
		// re-seal this slot skipped and erase the error.
		if directive != Repeat || failed {
			i++
		}
	}

	sres := result.ScenarioResult{
		Name:       sc.Name,
		DurationMS: time.Since(start).Milliseconds(),
		Steps:      results,
	}
	sres.Seal()
	if e.Display != nil {
		e.Display.ScenarioDone(sc.Name, sres.Status, sres.DurationMS)
	}
	return sres
}

// dispatch matches and executes a single step, returning its sealed result.
func (e *Engine) dispatch(ctx context.Context, step gherkin.Step, resolved string, store map[string]string) result.StepResult {
	sres := result.StepResult{Text: step.Text, Keyword: step.Keyword}

	m, ok := e.Registry.Match(step.Text)
	if !ok {
		sres.Status = result.StatusFailed
		sres.Error = &result.ErrorInfo{
			Code:        result.CodeUnmatchedStep,
			Message:     "no registered step pattern matches this text",
			Suggestions: e.suggest(step.Text),
		}
		if e.Display != nil {
			e.Display.StepFailed(step.Keyword, step.Text, sres.Error)
		}
		return sres
	}

	handler, ok := e.Handlers[m.Pattern.ID]
	if !ok {
		sres.Status = result.StatusFailed
		sres.Error = &result.ErrorInfo{
			Code:    result.CodeUnmatchedStep,
			Message: "pattern " + m.Pattern.ID + " has no registered handler",
		}
		return sres
	}

	if e.Display != nil {
		e.Display.StepStart(step.Keyword, step.Text)
	}
	start := time.Now()
	output, err := handler(ctx, &StepContext{
		Backend: e.Backend,
		Match:   m,
		Step:    step,
		Keyword: resolved,
		Store:   store,
	})
	sres.DurationMS = time.Since(start).Milliseconds()
	sres.Output = output

	if err != nil {
		sres.Status = result.StatusFailed
		sres.Error = stepError(err)
		log.Debug("step failed", "step", step.Text, "code", sres.Error.Code, "err", err)
		if e.Display != nil {
			e.Display.StepFailed(step.Keyword, step.Text, sres.Error)
		}
		return sres
	}

	sres.Status = result.StatusPassed
	if e.Display != nil {
		e.Display.StepDone(step.Keyword, step.Text, output, sres.DurationMS)
	}
	return sres
}

// stepError maps a handler failure onto the persisted error taxonomy.
func stepError(err error) *result.ErrorInfo {
	var berr *backend.Error
	if errors.As(err, &berr) {
		info := &result.ErrorInfo{
			Code:    result.CodeBackendError,
			Message: berr.Error(),
		}
		switch berr.Kind {
		case backend.KindTimeout:
			info.Suggestions = append(info.Suggestions,
				"increase the wait timeout or check that the page actually reaches this state")
		case backend.KindNotFound:
			info.Suggestions = append(info.Suggestions,
				"verify the selector against the live page")
		}
		return info
	}
	var aerr *AssertionError
	if errors.As(err, &aerr) {
		return &result.ErrorInfo{Code: result.CodeAssertionFailed, Message: aerr.Error()}
	}
	return &result.ErrorInfo{Code: result.CodeBackendError, Message: err.Error()}
}

// suggest proposes catalog entries for an unmatched step.
func (e *Engine) suggest(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	seen := map[string]bool{}
	var out []string
	for _, w := range words {
		if len(w) < 4 {
			continue
		}
		for _, p := range e.Registry.Search(w) {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p.Template)
			if len(out) == 3 {
				return out
			}
		}
	}
	return out
}

// resolveKeywords maps And/But to the nearest preceding primary keyword.
func resolveKeywords(steps []gherkin.Step) []string {
	out := make([]string, len(steps))
	last := "Given"
	for i, s := range steps {
		if gherkin.Primary(s.Keyword) {
			last = s.Keyword
		}
		out[i] = last
	}
	return out
}

func skippedScenario(sc *gherkin.Scenario) result.ScenarioResult {
	steps := make([]result.StepResult, len(sc.Steps))
	for i, st := range sc.Steps {
		steps[i] = result.StepResult{Text: st.Text, Keyword: st.Keyword, Status: result.StatusSkipped}
	}
	return result.ScenarioResult{Name: sc.Name, Status: result.StatusSkipped, Steps: steps}
}
