package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"EventsDigest/internal/ports"
)

// DefaultAPIURL is the public Bot API root.
const DefaultAPIURL = "https://api.telegram.org"

// Notifier sends Markdown messages to Telegram chats via the Bot API.
type Notifier struct {
	apiURL   string
	botToken string
	client   *http.Client
	limiter  *rate.Limiter
}

var _ ports.Notifier = (*Notifier)(nil)

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewNotifier registers the bot token. Consecutive sends are spaced by at least interval.
func NewNotifier(apiURL, botToken string, interval time.Duration) *Notifier {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Notifier{
		apiURL:   strings.TrimSuffix(apiURL, "/"),
		botToken: botToken,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Send posts one message to chatID with link previews disabled.
func (n *Notifier) Send(ctx context.Context, chatID, text string) error {
	if n.botToken == "" || chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait send slot: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.botToken)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body apiResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &body) == nil && body.Description != "" {
			return fmt.Errorf("telegram error %s: %s", resp.Status, body.Description)
		}
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
