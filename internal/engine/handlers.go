package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shift/web-spec/internal/backend"
	"github.com/shift/web-spec/internal/gherkin"
	"github.com/shift/web-spec/internal/registry"
)

// waitTimeout bounds explicit wait steps; assertTimeout bounds the implicit
// settle window verification steps allow before failing.
const (
	waitTimeout   = 10 * time.Second
	assertTimeout = 2 * time.Second
)

// StepContext carries everything a handler needs for one dispatch: the
// backend session, the matched parameters, the raw step (for tables and doc
// strings), and the per-run value store extraction steps write into.
type StepContext struct {
	Backend backend.Backend
	Match   *registry.Match
	Step    gherkin.Step
	Keyword string
	Store   map[string]string
}

// String returns the i-th extracted parameter as a string.
func (sc *StepContext) String(i int) string {
	return sc.Match.Params[i].Raw
}

// Int returns the i-th extracted parameter as an integer.
func (sc *StepContext) Int(i int) int64 {
	v, _ := sc.Match.Params[i].Value.(int64)
	return v
}

// Float returns the i-th extracted parameter as a float.
func (sc *StepContext) Float(i int) float64 {
	v, _ := sc.Match.Params[i].Value.(float64)
	return v
}

// HandlerFunc executes one matched step. The returned output is recorded on
// the step result and feeds extraction steps.
type HandlerFunc func(ctx context.Context, sc *StepContext) (string, error)

// HandlerMap binds pattern ids to handlers. Registration happens once at
// process start; the engine never dispatches through reflection.
type HandlerMap map[string]HandlerFunc

// AssertionError is a verification step failing on page state, as opposed to
// a backend primitive failing to execute.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string { return e.Msg }

func assertf(format string, args ...any) error {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// DefaultHandlers binds every pattern of the built-in catalog.
func DefaultHandlers() HandlerMap {
	h := HandlerMap{}

	// navigation
	h["navigate_to"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.Navigate(ctx, sc.String(0))
	}
	h["go_back"] = script(`history.back()`)
	h["go_forward"] = script(`history.forward()`)
	h["refresh_page"] = script(`location.reload()`)

	// waiting
	h["wait_for_load"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.WaitFor(ctx, "", backend.CondPresent, waitTimeout)
	}
	h["wait_seconds"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sleep(ctx, time.Duration(sc.Int(0))*time.Second)
	}
	h["wait_millis"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sleep(ctx, time.Duration(sc.Int(0))*time.Millisecond)
	}
	h["wait_visible"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.WaitFor(ctx, sc.String(0), backend.CondVisible, waitTimeout)
	}
	h["wait_hidden"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.WaitFor(ctx, sc.String(0), backend.CondHidden, waitTimeout)
	}
	h["wait_for_text"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.WaitFor(ctx, sc.String(0), backend.CondText, waitTimeout)
	}

	// interaction
	h["click_on"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.Click(ctx, sc.String(0))
	}
	h["click_link"] = func(ctx context.Context, sc *StepContext) (string, error) {
		out, err := sc.Backend.ExecuteScript(ctx, fmt.Sprintf(
			`(function(){var links=document.querySelectorAll("a");`+
				`for(var i=0;i<links.length;i++){if(links[i].textContent.trim()===%q){links[i].click();return "ok";}}`+
				`return "missing";})()`, sc.String(0)))
		if err != nil {
			return "", err
		}
		if out == "missing" {
			return "", &backend.Error{Kind: backend.KindNotFound, Op: "click-link",
				Selector: sc.String(0), Msg: "no link with that text"}
		}
		return "", nil
	}
	h["type_into"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.Type(ctx, sc.String(1), sc.String(0))
	}
	h["clear_field"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.Type(ctx, sc.String(0), "")
	}
	h["select_option"] = func(ctx context.Context, sc *StepContext) (string, error) {
		code := fmt.Sprintf(
			`(function(){var el=document.querySelector(%q);if(!el)return "missing";`+
				`var opts=el.options;for(var i=0;i<opts.length;i++){if(opts[i].text===%q){el.selectedIndex=i;`+
				`el.dispatchEvent(new Event("change",{bubbles:true}));return "ok";}}return "missing";})()`,
			sc.String(1), sc.String(0))
		out, err := sc.Backend.ExecuteScript(ctx, code)
		if err != nil {
			return "", err
		}
		if out == "missing" {
			return "", &backend.Error{Kind: backend.KindNotFound, Op: "select",
				Selector: sc.String(1), Msg: "no matching element or option"}
		}
		return "", nil
	}
	h["check_box"] = selectorScript(0, `el.checked=true;el.dispatchEvent(new Event("change",{bubbles:true}));return "ok";`)
	h["uncheck_box"] = selectorScript(0, `el.checked=false;el.dispatchEvent(new Event("change",{bubbles:true}));return "ok";`)
	h["hover_over"] = selectorScript(0, `el.dispatchEvent(new MouseEvent("mouseover",{bubbles:true}));return "ok";`)
	h["scroll_to"] = selectorScript(0, `el.scrollIntoView();return "ok";`)
	h["submit_form"] = selectorScript(0, `el.submit();return "ok";`)

	// extraction
	h["extract_text"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetText, Selector: sc.String(0)})
	}
	h["extract_title"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetTitle})
	}
	h["extract_url"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetURL})
	}
	h["store_text"] = func(ctx context.Context, sc *StepContext) (string, error) {
		text, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetText, Selector: sc.String(0)})
		if err != nil {
			return "", err
		}
		sc.Store[sc.String(1)] = text
		return text, nil
	}
	h["count_elements"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetCount, Selector: sc.String(0)})
	}

	// verification
	h["should_see"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.WaitFor(ctx, sc.String(0), backend.CondText, assertTimeout)
	}
	h["should_not_see"] = func(ctx context.Context, sc *StepContext) (string, error) {
		body, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetText})
		if err != nil {
			return "", err
		}
		if strings.Contains(body, sc.String(0)) {
			return "", assertf("page unexpectedly contains %q", sc.String(0))
		}
		return "", nil
	}
	h["element_exists"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return "", sc.Backend.WaitFor(ctx, sc.String(0), backend.CondPresent, assertTimeout)
	}
	h["element_not_exists"] = func(ctx context.Context, sc *StepContext) (string, error) {
		n, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetCount, Selector: sc.String(0)})
		if err != nil {
			return "", err
		}
		if n != "0" {
			return "", assertf("expected no elements matching %q, found %s", sc.String(0), n)
		}
		return "", nil
	}
	h["element_text_is"] = func(ctx context.Context, sc *StepContext) (string, error) {
		text, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetText, Selector: sc.String(0)})
		if err != nil {
			return "", err
		}
		if text != sc.String(1) {
			return text, assertf("text of %q is %q, expected %q", sc.String(0), text, sc.String(1))
		}
		return text, nil
	}
	h["element_text_contains"] = func(ctx context.Context, sc *StepContext) (string, error) {
		text, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetText, Selector: sc.String(0)})
		if err != nil {
			return "", err
		}
		if !strings.Contains(text, sc.String(1)) {
			return text, assertf("text of %q does not contain %q", sc.String(0), sc.String(1))
		}
		return text, nil
	}
	h["attribute_is"] = func(ctx context.Context, sc *StepContext) (string, error) {
		attr, selector, want := sc.String(0), sc.String(1), sc.String(2)
		if sc.Template() != sc.Match.Pattern.Template {
			// Alias phrasing puts the selector first.
			selector, attr = sc.String(0), sc.String(1)
		}
		got, err := sc.Backend.Extract(ctx, backend.Target{
			Kind: backend.TargetAttribute, Selector: selector, Attribute: attr,
		})
		if err != nil {
			return "", err
		}
		if got != want {
			return got, assertf("attribute %q of %q is %q, expected %q", attr, selector, got, want)
		}
		return got, nil
	}
	h["title_is"] = func(ctx context.Context, sc *StepContext) (string, error) {
		title, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetTitle})
		if err != nil {
			return "", err
		}
		if title != sc.String(0) {
			return title, assertf("page title is %q, expected %q", title, sc.String(0))
		}
		return title, nil
	}
	h["title_contains"] = func(ctx context.Context, sc *StepContext) (string, error) {
		title, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetTitle})
		if err != nil {
			return "", err
		}
		if !strings.Contains(title, sc.String(0)) {
			return title, assertf("page title %q does not contain %q", title, sc.String(0))
		}
		return title, nil
	}
	h["url_is"] = func(ctx context.Context, sc *StepContext) (string, error) {
		url, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetURL})
		if err != nil {
			return "", err
		}
		if url != sc.String(0) {
			return url, assertf("URL is %q, expected %q", url, sc.String(0))
		}
		return url, nil
	}
	h["url_contains"] = func(ctx context.Context, sc *StepContext) (string, error) {
		url, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetURL})
		if err != nil {
			return "", err
		}
		if !strings.Contains(url, sc.String(0)) {
			return url, assertf("URL %q does not contain %q", url, sc.String(0))
		}
		return url, nil
	}
	h["element_count_is"] = func(ctx context.Context, sc *StepContext) (string, error) {
		n, err := sc.Backend.Extract(ctx, backend.Target{Kind: backend.TargetCount, Selector: sc.String(1)})
		if err != nil {
			return "", err
		}
		want := fmt.Sprintf("%d", sc.Int(0))
		if n != want {
			return n, assertf("%s elements match %q, expected %s", n, sc.String(1), want)
		}
		return n, nil
	}
	h["stored_value_is"] = func(ctx context.Context, sc *StepContext) (string, error) {
		got, ok := sc.Store[sc.String(0)]
		if !ok {
			return "", assertf("nothing stored under %q", sc.String(0))
		}
		if got != sc.String(1) {
			return got, assertf("stored value %q is %q, expected %q", sc.String(0), got, sc.String(1))
		}
		return got, nil
	}

	// utility
	h["take_screenshot"] = func(ctx context.Context, sc *StepContext) (string, error) {
		if err := sc.Backend.Screenshot(ctx, sc.String(0)); err != nil {
			return "", err
		}
		return sc.String(0), nil
	}
	h["execute_script"] = func(ctx context.Context, sc *StepContext) (string, error) {
		return sc.Backend.ExecuteScript(ctx, sc.String(0))
	}
	h["execute_script_block"] = func(ctx context.Context, sc *StepContext) (string, error) {
		if sc.Step.DocString == "" {
			return "", assertf("step has no attached script block")
		}
		return sc.Backend.ExecuteScript(ctx, sc.Step.DocString)
	}

	return h
}

// Template returns the template variant the step actually matched.
func (sc *StepContext) Template() string {
	return sc.Match.Template
}

func script(code string) HandlerFunc {
	return func(ctx context.Context, sc *StepContext) (string, error) {
		_, err := sc.Backend.ExecuteScript(ctx, code)
		return "", err
	}
}

// selectorScript builds a handler that runs a fixed script against the
// element selected by parameter selIdx.
func selectorScript(selIdx int, body string) HandlerFunc {
	return func(ctx context.Context, sc *StepContext) (string, error) {
		selector := sc.String(selIdx)
		code := fmt.Sprintf(
			`(function(){var el=document.querySelector(%q);if(!el)return "missing";`+body+`})()`,
			selector)
		out, err := sc.Backend.ExecuteScript(ctx, code)
		if err != nil {
			return "", err
		}
		if out == "missing" {
			return "", &backend.Error{Kind: backend.KindNotFound, Op: "script",
				Selector: selector, Msg: "no matching element"}
		}
		return "", nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
