package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook payload formats.
const (
	FormatJSON    = "json"
	FormatDiscord = "discord"
)

// ErrWebhookRateLimited is returned when the webhook answers 429.
var ErrWebhookRateLimited = errors.New("webhook rate limited (429)")

// WebhookNotifier posts events to an HTTP endpoint, either as the raw event
// JSON or as a Discord message.
type WebhookNotifier struct {
	url    string
	format string
	client *http.Client
}

// WebhookOption configures a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookNotifier) {
		w.client = c
	}
}

// WithFormat selects the payload format, FormatJSON (default) or
// FormatDiscord.
func WithFormat(format string) WebhookOption {
	return func(w *WebhookNotifier) {
		w.format = format
	}
}

// NewWebhookNotifier returns a notifier posting to url.
func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	w := &WebhookNotifier{
		url:    url,
		format: FormatJSON,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type discordPayload struct {
	Content string `json:"content"`
}

// Notify posts ev.
func (w *WebhookNotifier) Notify(ctx context.Context, ev Event) error {
	var payload any = ev
	if w.format == FormatDiscord {
		payload = discordPayload{Content: discordContent(ev)}
	}
	return w.post(ctx, payload)
}

func discordContent(ev Event) string {
	switch ev.Name {
	case EventQuerySent:
		return fmt.Sprintf("Query sent: **%s**", ev.Term)
	case EventSuggestionsRetrieved:
		return fmt.Sprintf("%d suggestions for **%s**", ev.Count, ev.Term)
	default:
		return fmt.Sprintf("%s: %s", ev.Name, ev.Term)
	}
}

func (w *WebhookNotifier) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrWebhookRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		if readErr != nil {
			return fmt.Errorf("webhook returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
