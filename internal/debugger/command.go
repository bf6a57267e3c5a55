// Package debugger layers an interactive pause/resume controller over the
// execution engine: breakpoints, single-stepping, repeat, skip and
// introspection between step dispatches.
package debugger

import "strings"

// Command is one parsed debugger instruction.
type Command int

const (
	CmdUnknown Command = iota
	CmdContinue
	CmdStep
	CmdRepeat
	CmdSkip
	CmdInfo
	CmdBreakpoints
	CmdSetBreak
	CmdClearBreak
	CmdAuto
	CmdHelp
	CmdQuit
)

// ParseCommand turns one input line into a command plus optional argument.
func ParseCommand(line string) (Command, string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return CmdUnknown, ""
	}
	arg := strings.Join(parts[1:], " ")
	switch parts[0] {
	case "c", "continue":
		return CmdContinue, ""
	case "n", "next", "step":
		return CmdStep, ""
	case "r", "repeat":
		return CmdRepeat, ""
	case "s", "skip":
		return CmdSkip, ""
	case "i", "info":
		return CmdInfo, ""
	case "b", "breakpoints":
		return CmdBreakpoints, ""
	case "break":
		if arg == "" {
			return CmdUnknown, ""
		}
		return CmdSetBreak, arg
	case "clear":
		if arg == "" {
			return CmdUnknown, ""
		}
		return CmdClearBreak, arg
	case "a", "auto":
		return CmdAuto, ""
	case "h", "help":
		return CmdHelp, ""
	case "q", "quit":
		return CmdQuit, ""
	}
	return CmdUnknown, ""
}

const helpText = `Debugger commands:
  c, continue    resume until the next breakpoint or end of feature
  n, next, step  dispatch exactly one step, then pause
  r, repeat      re-dispatch the current step without advancing
  s, skip        mark the current step skipped without dispatching
  i, info        show the current position and last status
  b, breakpoints list breakpoints
  break <name>   set a breakpoint on a scenario name or step text
  clear <name>   remove a breakpoint
  a, auto        step automatically with a visible pause between steps
  h, help        show this help
  q, quit        abort the run
`
