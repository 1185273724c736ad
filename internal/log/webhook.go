package log

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"imagebot/internal/core"
	"imagebot/internal/util"
)

// WebhookSink posts refresh events to a Discord-compatible webhook.
// Deliveries run in the background and never block the caller.
type WebhookSink struct {
	url        string
	httpClient *http.Client
	logger     core.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type webhookPayload struct {
	Content string `json:"content"`
}

// NewWebhookSink creates a webhook sink
func NewWebhookSink(url string, httpClient *http.Client, logger core.Logger) *WebhookSink {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: core.WebhookTimeout}
	}
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &WebhookSink{url: url, httpClient: httpClient, logger: logger}
}

// HandleRefreshEvent queues delivery of event. Events arriving after Close
// are dropped.
func (w *WebhookSink) HandleRefreshEvent(event core.RefreshEvent) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("Webhook sink closed, dropping event %s", event.ID)
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), core.WebhookTimeout)
		defer cancel()

		if err := w.Send(ctx, event); err != nil {
			w.logger.Warn("Failed to deliver event %s to webhook: %v", event.ID, err)
		}
	}()
}

// Send delivers event synchronously.
func (w *WebhookSink) Send(ctx context.Context, event core.RefreshEvent) error {
	req, err := util.CreateJSONRequest(ctx, http.MethodPost, w.url, webhookPayload{Content: FormatWebhookContent(event)}, "")
	if err != nil {
		return err
	}

	resp, err := w.httpClient.Do(req) //nolint:gosec // G107: webhook URL comes from operator config
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, core.MaxErrorBodyExcerpt))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close stops accepting events and waits for queued deliveries to finish.
func (w *WebhookSink) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

// FormatWebhookContent renders an event as a chat message.
func FormatWebhookContent(event core.RefreshEvent) string {
	var b strings.Builder

	if event.IsError() {
		fmt.Fprintf(&b, "❌ **%s**\n```\n%s\n```", event.ErrorType, event.ErrorMessage)
		for _, k := range slices.Sorted(maps.Keys(event.Context)) {
			fmt.Fprintf(&b, "\n%s: `%v`", k, event.Context[k])
		}
	} else {
		fmt.Fprintf(&b, "✅ **%s** (%s)\n%s", event.Action, event.Status, event.Details)
	}

	content := []rune(b.String())
	if len(content) > core.WebhookMaxContentLength {
		return string(content[:core.WebhookMaxContentLength-3]) + "..."
	}
	return string(content)
}
