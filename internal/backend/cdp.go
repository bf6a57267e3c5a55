package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shift/web-spec/internal/log"
)

// CDP drives a Chromium-family browser over the DevTools websocket protocol.
// One CDP value owns one page session and must not be shared across workers.
type CDP struct {
	id   string
	conn *websocket.Conn

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan cdpReply

	readDone chan struct{}
	readErr  error
}

type cdpMessage struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type cdpReply struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *cdpError       `json:"error"`
}

type cdpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DialCDP connects to a DevTools endpoint. Accepts either a ws:// page
// debugger URL or an http:// DevTools base (in which case a fresh page
// target is created via /json/new).
func DialCDP(ctx context.Context, endpoint string) (*CDP, error) {
	wsURL := endpoint
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		resolved, err := newPageTarget(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		wsURL = resolved
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindSession, Op: "dial", Msg: wsURL, Err: err}
	}

	c := &CDP{
		id:       uuid.NewString(),
		conn:     conn,
		pending:  make(map[int64]chan cdpReply),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	log.Debug("cdp session opened", "session", c.id, "url", wsURL)

	if _, err := c.call(ctx, "Page.enable", nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := c.call(ctx, "Runtime.enable", nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func newPageTarget(ctx context.Context, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "PUT",
		strings.TrimRight(base, "/")+"/json/new?about:blank", nil)
	if err != nil {
		return "", &Error{Kind: KindSession, Op: "new-target", Err: err}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindSession, Op: "new-target", Err: err}
	}
	defer resp.Body.Close()

	var target struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&target); err != nil {
		return "", &Error{Kind: KindProtocol, Op: "new-target", Err: err}
	}
	if target.WebSocketDebuggerURL == "" {
		return "", &Error{Kind: KindSession, Op: "new-target", Msg: "target has no debugger URL"}
	}
	return target.WebSocketDebuggerURL, nil
}

func (c *CDP) readLoop() {
	defer close(c.readDone)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			c.failPending()
			return
		}
		var reply cdpReply
		if err := json.Unmarshal(data, &reply); err != nil || reply.ID == 0 {
			// Protocol event, not a command reply.
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[reply.ID]
		delete(c.pending, reply.ID)
		c.mu.Unlock()
		if ok {
			ch <- reply
		}
	}
}

func (c *CDP) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
}

func (c *CDP) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, &Error{Kind: KindProtocol, Op: method, Err: err}
		}
		raw = data
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan cdpReply, 1)
	c.pending[id] = ch
	err := c.conn.WriteJSON(cdpMessage{ID: id, Method: method, Params: raw})
	c.mu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, &Error{Kind: KindSession, Op: method, Err: err}
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, &Error{Kind: KindTimeout, Op: method, Err: ctx.Err()}
	case reply, ok := <-ch:
		if !ok {
			return nil, &Error{Kind: KindSession, Op: method, Msg: "connection closed", Err: c.readErr}
		}
		if reply.Error != nil {
			return nil, &Error{Kind: KindProtocol, Op: method, Msg: reply.Error.Message}
		}
		return reply.Result, nil
	}
}

// evaluate runs a JavaScript expression and returns its value serialized as
// a string. Expressions signal element lookup failures by returning the
// sentinel below so the engine can classify them uniformly.
const notFoundSentinel = "__webspec_not_found__"

func (c *CDP) evaluate(ctx context.Context, expr string) (string, error) {
	params := map[string]any{"expression": expr, "returnByValue": true}
	result, err := c.call(ctx, "Runtime.evaluate", params)
	if err != nil {
		return "", err
	}
	var out struct {
		Result struct {
			Value any `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return "", &Error{Kind: KindProtocol, Op: "evaluate", Err: err}
	}
	if out.ExceptionDetails != nil {
		return "", &Error{Kind: KindScript, Op: "evaluate", Msg: out.ExceptionDetails.Text}
	}
	switch v := out.Result.Value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", v), ".0"), nil
	default:
		data, _ := json.Marshal(v)
		return string(data), nil
	}
}

func (c *CDP) Navigate(ctx context.Context, url string) error {
	if _, err := c.call(ctx, "Page.navigate", map[string]string{"url": url}); err != nil {
		return err
	}
	// Wait for the document to settle; Page.navigate returns on commit.
	return c.WaitFor(ctx, "", CondPresent, 30*time.Second)
}

func (c *CDP) Click(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(
		`(function(){var el=document.querySelector(%q);if(!el)return %q;el.click();return "ok";})()`,
		selector, notFoundSentinel)
	out, err := c.evaluate(ctx, expr)
	if err != nil {
		return err
	}
	if out == notFoundSentinel {
		return notFound("click", selector)
	}
	return nil
}

func (c *CDP) Type(ctx context.Context, selector, text string) error {
	expr := fmt.Sprintf(
		`(function(){var el=document.querySelector(%q);if(!el)return %q;`+
			`el.focus();el.value=%q;`+
			`el.dispatchEvent(new Event("input",{bubbles:true}));`+
			`el.dispatchEvent(new Event("change",{bubbles:true}));return "ok";})()`,
		selector, notFoundSentinel, text)
	out, err := c.evaluate(ctx, expr)
	if err != nil {
		return err
	}
	if out == notFoundSentinel {
		return notFound("type", selector)
	}
	return nil
}

func (c *CDP) WaitFor(ctx context.Context, selector string, cond Condition, d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		ok, err := c.checkCondition(ctx, selector, cond)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return timeout("wait-for", selector, d)
		}
		select {
		case <-ctx.Done():
			return &Error{Kind: KindTimeout, Op: "wait-for", Selector: selector, Err: ctx.Err()}
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (c *CDP) checkCondition(ctx context.Context, selector string, cond Condition) (bool, error) {
	var expr string
	switch cond {
	case CondVisible:
		expr = fmt.Sprintf(
			`(function(){var el=document.querySelector(%q);`+
				`return !!(el&&el.offsetParent!==null);})()`, selector)
	case CondHidden:
		expr = fmt.Sprintf(
			`(function(){var el=document.querySelector(%q);`+
				`return !el||el.offsetParent===null;})()`, selector)
	case CondText:
		expr = fmt.Sprintf(`document.body&&document.body.innerText.includes(%q)`, selector)
	case CondPresent:
		if selector == "" {
			expr = `document.readyState==="complete"`
		} else {
			expr = fmt.Sprintf(`!!document.querySelector(%q)`, selector)
		}
	default:
		return false, &Error{Kind: KindProtocol, Op: "wait-for",
			Msg: fmt.Sprintf("unknown condition %q", cond)}
	}
	out, err := c.evaluate(ctx, expr)
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

func (c *CDP) Extract(ctx context.Context, target Target) (string, error) {
	var expr string
	switch target.Kind {
	case TargetTitle:
		expr = `document.title`
	case TargetURL:
		expr = `window.location.href`
	case TargetCount:
		expr = fmt.Sprintf(`String(document.querySelectorAll(%q).length)`, target.Selector)
	case TargetAttribute:
		expr = fmt.Sprintf(
			`(function(){var el=document.querySelector(%q);if(!el)return %q;`+
				`return el.getAttribute(%q)||"";})()`,
			target.Selector, notFoundSentinel, target.Attribute)
	case TargetText:
		if target.Selector == "" {
			expr = `document.body?document.body.innerText:""`
			break
		}
		expr = fmt.Sprintf(
			`(function(){var el=document.querySelector(%q);if(!el)return %q;`+
				`return el.textContent.trim();})()`,
			target.Selector, notFoundSentinel)
	default:
		return "", &Error{Kind: KindProtocol, Op: "extract",
			Msg: fmt.Sprintf("unknown target kind %q", target.Kind)}
	}
	out, err := c.evaluate(ctx, expr)
	if err != nil {
		return "", err
	}
	if out == notFoundSentinel {
		return "", notFound("extract", target.Selector)
	}
	return out, nil
}

func (c *CDP) Screenshot(ctx context.Context, path string) error {
	result, err := c.call(ctx, "Page.captureScreenshot", map[string]string{"format": "png"})
	if err != nil {
		return err
	}
	var out struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return &Error{Kind: KindProtocol, Op: "screenshot", Err: err}
	}
	data, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		return &Error{Kind: KindProtocol, Op: "screenshot", Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &Error{Kind: KindSession, Op: "screenshot", Msg: path, Err: err}
	}
	return nil
}

func (c *CDP) ExecuteScript(ctx context.Context, code string) (string, error) {
	return c.evaluate(ctx, code)
}

func (c *CDP) Close(ctx context.Context) error {
	err := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
	select {
	case <-c.readDone:
	case <-time.After(time.Second):
	case <-ctx.Done():
	}
	log.Debug("cdp session closed", "session", c.id)
	return err
}
