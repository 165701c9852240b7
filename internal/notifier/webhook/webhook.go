// Package webhook posts run summaries to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/strategylab/internal/notifier"
)

// Webhook implements notifier.Notifier for HTTP webhooks.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a webhook notifier. Headers are added to every request.
func New(url string, headers map[string]string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

// Notify posts {"type":"run", ...summary} as JSON.
func (w *Webhook) Notify(ctx context.Context, s notifier.Summary) error {
	body, err := json.Marshal(struct {
		Type string `json:"type"`
		notifier.Summary
	}{Type: "run", Summary: s})
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}
	return nil
}
