package models

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"imagebot/internal/config"
	"imagebot/internal/core"
)

// Fetcher yields candidate model IDs from the upstream catalog.
type Fetcher interface {
	FetchModels(ctx context.Context, cfg *config.BotConfig) ([]string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, cfg *config.BotConfig) ([]string, error)

// FetchModels calls f(ctx, cfg).
func (f FetcherFunc) FetchModels(ctx context.Context, cfg *config.BotConfig) ([]string, error) {
	return f(ctx, cfg)
}

// RefresherConfig refresher dependencies
type RefresherConfig struct {
	Fetcher   Fetcher
	AllowList core.AllowList
	Events    core.EventLogger
}

// Refresher replaces the advertised model list with a filtered catalog
// snapshot, or with the fallback model when the catalog cannot be used.
type Refresher struct {
	fetcher Fetcher
	allow   core.AllowList
	events  core.EventLogger
}

// NewRefresher creates a new refresher
func NewRefresher(config RefresherConfig) (*Refresher, error) {
	if config.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required in RefresherConfig")
	}

	events := config.Events
	if events == nil {
		events = &core.NopEventLogger{}
	}

	return &Refresher{
		fetcher: config.Fetcher,
		allow:   config.AllowList,
		events:  events,
	}, nil
}

// Refresh fetches the catalog, keeps the allow-listed IDs and installs them
// in cfg.Models, then reports exactly one event. Any failure before the
// event, including cancellation of ctx during the fetch, installs the
// fallback model and is reported through the error hook instead. Refresh
// never panics and never returns an error.
//
// Overlapping calls are not serialized; the last commit wins.
func (r *Refresher) Refresh(ctx context.Context, cfg *config.BotConfig, action string) {
	defer func() {
		// an event logger that panics must not escape either
		_ = recover()
	}()

	filtered, err := r.commit(ctx, cfg)
	if err != nil {
		r.fallback(cfg, action, err)
		return
	}

	r.events.LogBotEvent(action, core.StatusSuccess, FormatDetails(action, filtered))
}

func (r *Refresher) commit(ctx context.Context, cfg *config.BotConfig) (filtered []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during refresh: %v", p)
		}
	}()

	candidates, err := r.fetcher.FetchModels(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh cancelled during fetch: %w", err)
	}

	filtered = FilterAllowed(candidates, r.allow)
	if len(filtered) > 0 {
		cfg.Models.Replace(filtered)
	} else {
		cfg.Models.Replace([]string{cfg.ImageGeneration.FallbackModel})
	}
	return filtered, nil
}

func (r *Refresher) fallback(cfg *config.BotConfig, action string, cause error) {
	fallback := cfg.ImageGeneration.FallbackModel
	cfg.Models.Replace([]string{fallback})

	r.events.LogError(
		action+core.ErrorTypeSuffix,
		cause.Error(),
		"",
		map[string]any{core.ContextKeyFallbackModel: fallback},
	)
}

// FilterAllowed keeps the candidates present in allow, preserving order and
// duplicates.
func FilterAllowed(candidates []string, allow core.AllowList) []string {
	filtered := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if allow.Contains(id) {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// FormatDetails renders the success detail line, e.g.
// `Models model refresh: ["flux-dev", "sdxl"]`.
func FormatDetails(action string, filtered []string) string {
	quoted := make([]string, len(filtered))
	for i, id := range filtered {
		quoted[i] = strconv.Quote(id)
	}
	return fmt.Sprintf("Models %s: [%s]", strings.ReplaceAll(action, "_", " "), strings.Join(quoted, ", "))
}
