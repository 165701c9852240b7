package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/strategylab/internal/notifier"
)

func TestWebhook_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Webhook)(nil)
}

func TestWebhook_RequiresURL(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestWebhook_Notify(t *testing.T) {
	var payload map[string]any
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w, err := New(server.URL, map[string]string{"Authorization": "Bearer abc"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.Name() != "webhook" {
		t.Errorf("expected 'webhook', got %s", w.Name())
	}

	err = w.Notify(context.Background(), notifier.Summary{
		RunID:    "run-1",
		Symbol:   "EURUSD",
		Strategy: "momentum",
		Mode:     "binary",
		Status:   notifier.StatusComplete,
		Trades:   3,
		ROI:      12.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payload["type"] != "run" {
		t.Errorf("expected type run, got %v", payload["type"])
	}
	if payload["symbol"] != "EURUSD" {
		t.Errorf("expected symbol EURUSD, got %v", payload["symbol"])
	}
	if payload["trades"] != float64(3) {
		t.Errorf("expected 3 trades, got %v", payload["trades"])
	}
	if auth != "Bearer abc" {
		t.Errorf("expected custom header, got %q", auth)
	}
}

func TestWebhook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w, _ := New(server.URL, nil)
	if err := w.Notify(context.Background(), notifier.Summary{}); err == nil {
		t.Error("expected error for 500 response")
	}
}
