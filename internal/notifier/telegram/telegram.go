// Package telegram sends run summaries through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/strategylab/internal/notifier"
)

const defaultBaseURL = "https://api.telegram.org"

// Telegram implements notifier.Notifier for the Telegram Bot API.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// New creates a Telegram notifier.
func New(botToken, chatID string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Notify(ctx context.Context, s notifier.Summary) error {
	return t.sendMessage(ctx, formatSummary(s))
}

func formatSummary(s notifier.Summary) string {
	var sb strings.Builder

	if s.Status == notifier.StatusFailed {
		fmt.Fprintf(&sb, "❌ *%s* %s backtest failed\n", s.Symbol, s.Strategy)
		fmt.Fprintf(&sb, "%s", s.Error)
		return sb.String()
	}

	emoji := "📈"
	if s.TotalReturn < 0 {
		emoji = "📉"
	}
	fmt.Fprintf(&sb, "%s *%s* %s (%s, %s)\n", emoji, s.Symbol, s.Strategy, s.Mode, s.Interval)
	if s.Trades == 0 {
		sb.WriteString("No trades generated.")
		return sb.String()
	}
	fmt.Fprintf(&sb, "🎯 Trades: %d, win rate %.1f%%\n", s.Trades, s.WinRate)
	fmt.Fprintf(&sb, "💰 Total return: %.4f", s.TotalReturn)
	if s.Mode == "binary" {
		fmt.Fprintf(&sb, "\n💵 Net benefit: %.2f, ROI %.2f%%", s.NetBenefit, s.ROI)
	}
	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	body, err := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}
	return nil
}
