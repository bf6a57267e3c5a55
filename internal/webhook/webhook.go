// Package webhook delivers result documents to external HTTP endpoints
// and evaluates performance alert thresholds after a run. Delivery is
// fire-and-report: a webhook failure never fails the run that produced
// the result.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shift/web-spec/internal/log"
	"github.com/shift/web-spec/internal/result"
)

// Event names the run lifecycle points a notifier can subscribe to.
type Event string

const (
	EventStart      Event = "start"
	EventCompletion Event = "completion"
	EventFailure    Event = "failure"
	EventSuccess    Event = "success"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
)

// Payload is the JSON document POSTed to the endpoint.
type Payload struct {
	Event     Event          `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Feature   string         `json:"feature"`
	Status    result.Status  `json:"status"`
	Summary   PayloadSummary `json:"summary"`
}

// PayloadSummary is the condensed counter block carried in the payload.
type PayloadSummary struct {
	TotalScenarios  int   `json:"total_scenarios"`
	PassedScenarios int   `json:"passed_scenarios"`
	FailedScenarios int   `json:"failed_scenarios"`
	TotalSteps      int   `json:"total_steps"`
	DurationMS      int64 `json:"duration_ms"`
}

// Notifier POSTs run results to one endpoint.
type Notifier struct {
	URL string
	// Events filters deliveries. Empty means completion and failure,
	// the defaults most receivers want.
	Events  []Event
	Headers map[string]string
	// Retries is the number of delivery attempts. Zero means 3.
	Retries int
	// Client defaults to an http.Client with a 30s timeout.
	Client *http.Client
}

// Notify delivers the result for the given event if the notifier is
// subscribed to it. Each delivery carries a unique X-Webspec-Delivery id
// so receivers can deduplicate retries.
func (n *Notifier) Notify(ctx context.Context, event Event, res *result.FeatureResult) error {
	if n.URL == "" || !n.subscribed(event) {
		return nil
	}

	body, err := json.Marshal(Payload{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Feature:   res.Feature.Name,
		Status:    res.Status,
		Summary: PayloadSummary{
			TotalScenarios:  res.Summary.TotalScenarios,
			PassedScenarios: res.Summary.PassedScenarios,
			FailedScenarios: res.Summary.FailedScenarios,
			TotalSteps:      res.Summary.TotalSteps,
			DurationMS:      res.DurationMS,
		},
	})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	delivery := uuid.NewString()
	retries := n.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("building webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Webspec-Delivery", delivery)
		req.Header.Set("X-Webspec-Event", string(event))
		for k, v := range n.Headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			if resp.StatusCode < 300 {
				log.Debug("webhook delivered", "url", n.URL, "event", event, "delivery", delivery)
				return nil
			}
			lastErr = fmt.Errorf("webhook endpoint returned %s", resp.Status)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("webhook delivery %s failed after %d attempts: %w", delivery, retries, lastErr)
}

func (n *Notifier) subscribed(event Event) bool {
	if len(n.Events) == 0 {
		return event == EventCompletion || event == EventFailure
	}
	for _, e := range n.Events {
		if e == event {
			return true
		}
	}
	return false
}

// EventFor maps a sealed result status to its lifecycle event.
func EventFor(res *result.FeatureResult) Event {
	if res.Status == result.StatusPassed {
		return EventSuccess
	}
	return EventFailure
}
