// Package backend defines the automation backend boundary: the primitive
// browser operations step handlers invoke, and the error shape every
// implementation reports through.
package backend

import (
	"context"
	"fmt"
	"time"
)

// Condition is what WaitFor waits for.
type Condition string

const (
	CondVisible Condition = "visible"
	CondHidden  Condition = "hidden"
	CondPresent Condition = "present"
	// CondText waits for the selector argument, interpreted as literal
	// text, to appear anywhere in the document body.
	CondText Condition = "text"
)

// TargetKind selects what Extract reads from the page.
type TargetKind string

const (
	TargetText      TargetKind = "text"
	TargetTitle     TargetKind = "title"
	TargetURL       TargetKind = "url"
	TargetCount     TargetKind = "count"
	TargetAttribute TargetKind = "attribute"
)

// Target describes one extraction.
type Target struct {
	Kind      TargetKind
	Selector  string
	Attribute string
}

// Backend exposes the primitive operations the execution engine's handlers
// drive. Implementations are not safe for concurrent use; each batch worker
// owns its own session.
type Backend interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	WaitFor(ctx context.Context, selector string, cond Condition, timeout time.Duration) error
	Extract(ctx context.Context, target Target) (string, error)
	Screenshot(ctx context.Context, path string) error
	ExecuteScript(ctx context.Context, code string) (string, error)
	Close(ctx context.Context) error
}

// ErrorKind classifies a backend failure.
type ErrorKind string

const (
	KindNotFound ErrorKind = "not_found"
	KindTimeout  ErrorKind = "timeout"
	KindScript   ErrorKind = "script"
	KindProtocol ErrorKind = "protocol"
	KindSession  ErrorKind = "session"
)

// Error is the uniform failure shape for every primitive. The engine wraps
// it into a step result without inspecting backend specifics beyond Kind.
type Error struct {
	Kind     ErrorKind
	Op       string
	Selector string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("backend %s: %s", e.Op, e.Kind)
	if e.Selector != "" {
		s += fmt.Sprintf(" (selector %q)", e.Selector)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(op, selector string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Selector: selector, Msg: "no matching element"}
}

func timeout(op, selector string, d time.Duration) *Error {
	return &Error{Kind: KindTimeout, Op: op, Selector: selector,
		Msg: fmt.Sprintf("condition not met within %s", d)}
}
