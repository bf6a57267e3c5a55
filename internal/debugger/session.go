package debugger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shift/web-spec/internal/engine"
	"github.com/shift/web-spec/internal/gherkin"
	"github.com/shift/web-spec/internal/result"
)

// Mode is the session state. Transitions: Idle → Running → Paused ⇄ Running
// → Terminated; AutoStep behaves like continue re-issued after every pause.
type Mode int

const (
	ModeIdle Mode = iota
	ModeRunning
	ModePaused
	ModeAutoStep
	ModeTerminated
)

// autoStepDelay is the observable pause between dispatches in auto-step
// mode. It exists for tracing, not for altering outcomes.
const autoStepDelay = 500 * time.Millisecond

// Session is the debugger controller. It implements engine.Hook, so the
// engine blocks inside BeforeStep while the session reads commands; the
// suspension is cooperative and never interrupts a step mid-flight.
type Session struct {
	in  *bufio.Scanner
	out io.Writer

	mode Mode
	// breakpoints hold scenario names and step texts alike; a hit is a
	// scenario-name match before its first step, or a step-text match
	// before that step.
	breakpoints map[string]bool

	pos      engine.Position
	scenario string
	lastStep *result.StepResult
}

// NewSession creates a session reading commands from in and prompting on
// out. The session starts paused: the first step of the feature prompts
// before dispatch.
func NewSession(in io.Reader, out io.Writer) *Session {
	return &Session{
		in:          bufio.NewScanner(in),
		out:         out,
		mode:        ModeIdle,
		breakpoints: map[string]bool{},
	}
}

// Mode reports the current session state.
func (s *Session) Mode() Mode { return s.mode }

// SetBreakpoint registers a breakpoint on a scenario name or step text
// before the run starts.
func (s *Session) SetBreakpoint(name string) {
	s.breakpoints[name] = true
}

// Run executes the feature under this session's control.
func (s *Session) Run(ctx context.Context, e *engine.Engine, feat *gherkin.Feature) *result.FeatureResult {
	e.Hook = s
	s.mode = ModePaused
	fmt.Fprintf(s.out, "Debugging feature %q — %d scenarios. Type 'help' for commands.\n",
		feat.Name, len(feat.Scenarios))
	res := e.Run(ctx, feat)
	if s.mode != ModeTerminated {
		s.mode = ModeIdle
	}
	return res
}

// BeforeStep is the engine's suspension point before every dispatch.
func (s *Session) BeforeStep(pos engine.Position, sc *gherkin.Scenario, step gherkin.Step) engine.Directive {
	s.pos = pos
	s.scenario = sc.Name

	switch s.mode {
	case ModeTerminated:
		return engine.Abort
	case ModeAutoStep:
		fmt.Fprintf(s.out, "  [auto] %s %s\n", step.Keyword, step.Text)
		time.Sleep(autoStepDelay)
		return engine.Proceed
	case ModeRunning:
		if !s.hitsBreakpoint(pos, sc, step) {
			return engine.Proceed
		}
		fmt.Fprintf(s.out, "Breakpoint hit.\n")
		s.mode = ModePaused
	}
	return s.repl(sc, step)
}

// AfterStep records the last sealed result for the info command.
func (s *Session) AfterStep(pos engine.Position, res result.StepResult) {
	s.pos = pos
	s.lastStep = &res
}

func (s *Session) hitsBreakpoint(pos engine.Position, sc *gherkin.Scenario, step gherkin.Step) bool {
	if pos.Step == 0 && s.breakpoints[sc.Name] {
		return true
	}
	return s.breakpoints[step.Text]
}

// repl blocks reading commands until one of them resumes or ends execution.
func (s *Session) repl(sc *gherkin.Scenario, step gherkin.Step) engine.Directive {
	fmt.Fprintf(s.out, "\n📍 %s — step %d/%d: %s %s\n",
		sc.Name, s.pos.Step+1, len(sc.Steps), step.Keyword, step.Text)

	for {
		fmt.Fprint(s.out, "(webspec) > ")
		if !s.in.Scan() {
			// Input closed: treat as quit so the run terminates cleanly.
			s.mode = ModeTerminated
			return engine.Abort
		}
		cmd, arg := ParseCommand(s.in.Text())
		switch cmd {
		case CmdContinue:
			s.mode = ModeRunning
			return engine.Proceed
		case CmdStep:
			// Stay paused; the next BeforeStep prompts again.
			return engine.Proceed
		case CmdRepeat:
			return engine.Repeat
		case CmdSkip:
			return engine.Skip
		case CmdAuto:
			s.mode = ModeAutoStep
			return engine.Proceed
		case CmdQuit:
			s.mode = ModeTerminated
			return engine.Abort
		case CmdInfo:
			s.printInfo(sc, step)
		case CmdBreakpoints:
			s.printBreakpoints()
		case CmdSetBreak:
			s.breakpoints[arg] = true
			fmt.Fprintf(s.out, "breakpoint set: %s\n", arg)
		case CmdClearBreak:
			delete(s.breakpoints, arg)
			fmt.Fprintf(s.out, "breakpoint cleared: %s\n", arg)
		case CmdHelp:
			fmt.Fprint(s.out, helpText)
		default:
			fmt.Fprintln(s.out, "unknown command, type 'help'")
		}
	}
}

func (s *Session) printInfo(sc *gherkin.Scenario, step gherkin.Step) {
	fmt.Fprintf(s.out, "scenario: %s (index %d)\n", sc.Name, s.pos.Scenario)
	fmt.Fprintf(s.out, "step:     %d/%d [%s] %s\n", s.pos.Step+1, len(sc.Steps), step.Keyword, step.Text)
	if s.lastStep != nil {
		fmt.Fprintf(s.out, "last:     %s %s (%s, %dms)\n",
			s.lastStep.Keyword, s.lastStep.Text, s.lastStep.Status, s.lastStep.DurationMS)
	}
}

func (s *Session) printBreakpoints() {
	if len(s.breakpoints) == 0 {
		fmt.Fprintln(s.out, "no breakpoints")
		return
	}
	names := make([]string, 0, len(s.breakpoints))
	for name := range s.breakpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(s.out, "breakpoints: %s\n", strings.Join(names, ", "))
}
