package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevTools answers DevTools commands with canned evaluate results,
// keyed by a substring of the expression.
type fakeDevTools struct {
	upgrader websocket.Upgrader
	answers  map[string]any // expression substring -> returned value

	mu      sync.Mutex
	methods []string
}

func (f *fakeDevTools) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func (f *fakeDevTools) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		var msg struct {
			ID     int64          `json:"id"`
			Method string         `json:"method"`
			Params map[string]any `json:"params"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		f.mu.Lock()
		f.methods = append(f.methods, msg.Method)
		f.mu.Unlock()

		result := map[string]any{}
		if msg.Method == "Runtime.evaluate" {
			expr, _ := msg.Params["expression"].(string)
			var value any = true
			for needle, v := range f.answers {
				if strings.Contains(expr, needle) {
					value = v
					break
				}
			}
			result["result"] = map[string]any{"value": value}
		}
		reply := map[string]any{"id": msg.ID, "result": result}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func startFakeDevTools(t *testing.T, answers map[string]any) (*fakeDevTools, string) {
	t.Helper()
	f := &fakeDevTools{answers: answers}
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)
	return f, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestCDPNavigateAndExtract(t *testing.T) {
	f, url := startFakeDevTools(t, map[string]any{
		"document.title": "Example Domain",
		"readyState":     true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := DialCDP(ctx, url)
	require.NoError(t, err)
	defer c.Close(ctx)

	require.NoError(t, c.Navigate(ctx, "https://example.com"))
	title, err := c.Extract(ctx, Target{Kind: TargetTitle})
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", title)

	methods := f.seen()
	assert.Contains(t, methods, "Page.enable")
	assert.Contains(t, methods, "Runtime.enable")
	assert.Contains(t, methods, "Page.navigate")
}

func TestCDPClickMissingElement(t *testing.T) {
	_, url := startFakeDevTools(t, map[string]any{
		"querySelector": notFoundSentinel,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := DialCDP(ctx, url)
	require.NoError(t, err)
	defer c.Close(ctx)

	err = c.Click(ctx, "#missing")
	var berr *Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, KindNotFound, berr.Kind)
	assert.Equal(t, "#missing", berr.Selector)
}

func TestCDPWaitForTimesOut(t *testing.T) {
	_, url := startFakeDevTools(t, map[string]any{
		"offsetParent": false,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := DialCDP(ctx, url)
	require.NoError(t, err)
	defer c.Close(ctx)

	err = c.WaitFor(ctx, "#slow", CondVisible, 150*time.Millisecond)
	var berr *Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, KindTimeout, berr.Kind)
}

func TestCDPEvaluateNumbers(t *testing.T) {
	_, url := startFakeDevTools(t, map[string]any{
		"querySelectorAll": "30",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := DialCDP(ctx, url)
	require.NoError(t, err)
	defer c.Close(ctx)

	n, err := c.Extract(ctx, Target{Kind: TargetCount, Selector: "tr.athing"})
	require.NoError(t, err)
	assert.Equal(t, "30", n)
}

func TestDialCDPRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := DialCDP(ctx, "ws://127.0.0.1:1/devtools/page/x")
	var berr *Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, KindSession, berr.Kind)
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Kind: KindTimeout, Op: "wait-for", Selector: "#x", Msg: "condition not met within 1s"}
	assert.Equal(t, `backend wait-for: timeout (selector "#x"): condition not met within 1s`, err.Error())

	data, merr := json.Marshal(map[string]string{"kind": string(err.Kind)})
	require.NoError(t, merr)
	assert.JSONEq(t, `{"kind":"timeout"}`, string(data))
}
