package log

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"imagebot/internal/core"

	"github.com/bytedance/sonic"
)

func TestWebhookSink_Delivers(t *testing.T) {
	var (
		mu      sync.Mutex
		payload webhookPayload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		_ = sonic.Unmarshal(body, &payload)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, srv.Client(), nil)
	sink.HandleRefreshEvent(core.RefreshEvent{
		ID:           "ev-1",
		Status:       core.StatusError,
		ErrorType:    "model_refresh_error",
		ErrorMessage: "catalog down",
		Context:      map[string]any{core.ContextKeyFallbackModel: "flux-schnell"},
	})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, want := range []string{"model_refresh_error", "catalog down", "fallback_model", "flux-schnell"} {
		if !strings.Contains(payload.Content, want) {
			t.Errorf("webhook content %q missing %q", payload.Content, want)
		}
	}
}

func TestWebhookSink_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, srv.Client(), nil)
	err := sink.Send(context.Background(), core.RefreshEvent{Action: "model_refresh", Status: core.StatusSuccess})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestFormatWebhookContent(t *testing.T) {
	content := FormatWebhookContent(core.RefreshEvent{
		Action:  core.ActionModelRefresh,
		Status:  core.StatusSuccess,
		Details: `Models model refresh: ["sdxl"]`,
	})
	if !strings.Contains(content, "model_refresh") || !strings.Contains(content, `["sdxl"]`) {
		t.Errorf("unexpected content %q", content)
	}

	long := FormatWebhookContent(core.RefreshEvent{
		Action:  core.ActionModelRefresh,
		Status:  core.StatusSuccess,
		Details: strings.Repeat("模", core.WebhookMaxContentLength),
	})
	if n := utf8.RuneCountInString(long); n != core.WebhookMaxContentLength {
		t.Errorf("content should be truncated to %d runes, got %d", core.WebhookMaxContentLength, n)
	}
	if !utf8.ValidString(long) {
		t.Error("truncation produced invalid UTF-8")
	}
}

func TestWebhookSink_DropsEventsAfterClose(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, srv.Client(), nil)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sink.HandleRefreshEvent(core.RefreshEvent{ID: "late", Action: "model_refresh", Status: core.StatusSuccess})
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("关闭后的事件不应投递, got %d deliveries", n)
	}
}

func TestWebhookSink_CloseConcurrentWithEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL, srv.Client(), nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.HandleRefreshEvent(core.RefreshEvent{ID: strings.Repeat("e", i+1), Status: core.StatusSuccess})
		}()
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	wg.Wait()
	if err := sink.Close(); err != nil {
		t.Fatalf("Close after late events failed: %v", err)
	}
}
