package backend

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Fake is an in-memory Backend for tests and dry wiring. It records every
// call and serves canned page state; selectors listed in Missing fail with
// a not-found error, matching how a real backend reports them.
type Fake struct {
	Calls    []string
	Page     map[string]string // selector -> text content
	Attrs    map[string]string // selector\x00attr -> value
	Counts   map[string]int
	Title    string
	Body     string
	Location string
	Missing  map[string]bool
	FailNav  error
}

// NewFake returns a Fake with empty page state.
func NewFake() *Fake {
	return &Fake{
		Page:    map[string]string{},
		Attrs:   map[string]string{},
		Counts:  map[string]int{},
		Missing: map[string]bool{},
	}
}

func (f *Fake) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	f.record("navigate %s", url)
	if f.FailNav != nil {
		return f.FailNav
	}
	f.Location = url
	return nil
}

func (f *Fake) Click(_ context.Context, selector string) error {
	f.record("click %s", selector)
	if f.Missing[selector] {
		return notFound("click", selector)
	}
	return nil
}

func (f *Fake) Type(_ context.Context, selector, text string) error {
	f.record("type %s %s", selector, text)
	if f.Missing[selector] {
		return notFound("type", selector)
	}
	f.Page[selector] = text
	return nil
}

func (f *Fake) WaitFor(_ context.Context, selector string, cond Condition, d time.Duration) error {
	f.record("wait %s %s", selector, cond)
	switch cond {
	case CondText:
		if strings.Contains(f.Body, selector) {
			return nil
		}
		return timeout("wait-for", selector, d)
	case CondHidden:
		if f.Missing[selector] {
			return nil
		}
		return timeout("wait-for", selector, d)
	default:
		if f.Missing[selector] {
			return timeout("wait-for", selector, d)
		}
		return nil
	}
}

func (f *Fake) Extract(_ context.Context, target Target) (string, error) {
	f.record("extract %s %s", target.Kind, target.Selector)
	switch target.Kind {
	case TargetTitle:
		return f.Title, nil
	case TargetURL:
		return f.Location, nil
	case TargetCount:
		return fmt.Sprintf("%d", f.Counts[target.Selector]), nil
	case TargetAttribute:
		if v, ok := f.Attrs[target.Selector+"\x00"+target.Attribute]; ok {
			return v, nil
		}
		return "", notFound("extract", target.Selector)
	default:
		if target.Selector == "" {
			return f.Body, nil
		}
		if f.Missing[target.Selector] {
			return "", notFound("extract", target.Selector)
		}
		return f.Page[target.Selector], nil
	}
}

func (f *Fake) Screenshot(_ context.Context, path string) error {
	f.record("screenshot %s", path)
	return os.WriteFile(path, []byte("fake-png"), 0644)
}

func (f *Fake) ExecuteScript(_ context.Context, code string) (string, error) {
	f.record("script %s", firstLine(code))
	return "", nil
}

func (f *Fake) Close(context.Context) error {
	f.record("close")
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
