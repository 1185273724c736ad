package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"

	"imagebot/internal/config"
	"imagebot/internal/core"
	"imagebot/internal/util"

	"github.com/bytedance/sonic"
)

// HTTPFetcher reads model IDs from the upstream catalog endpoint
type HTTPFetcher struct {
	httpClient *http.Client
	logger     core.Logger
}

// NewHTTPFetcher creates a catalog fetcher
func NewHTTPFetcher(httpClient *http.Client, logger core.Logger) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: core.HTTPRequestTimeout}
	}
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &HTTPFetcher{httpClient: httpClient, logger: logger}
}

// FetchModels fetches the catalog configured in cfg.ImageGeneration.
func (f *HTTPFetcher) FetchModels(ctx context.Context, cfg *config.BotConfig) ([]string, error) {
	url := cfg.ImageGeneration.CatalogURL
	if url == "" {
		return nil, core.ErrCatalogNotConfigured
	}

	req, err := util.CreateJSONRequest(ctx, http.MethodGet, url, nil, cfg.ImageGeneration.CatalogAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := f.httpClient.Do(req) //nolint:gosec // G107: catalog URL comes from operator config
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, core.MaxErrorBodyExcerpt))
		return nil, fmt.Errorf("%w: %d: %s", core.ErrCatalogStatus, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog: %w", err)
	}

	ids, err := ParseCatalog(body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched %d catalog models from %s", len(ids), url)
	return ids, nil
}

// ParseCatalog extracts model IDs from a catalog body. Accepted shapes:
//
//	{"data": [{"id": "..."}]}        OpenAI-style list
//	{"models": [...]} / {"models": {"id": ...}}
//	["id", {"id": "..."}, {"name": "..."}]
//
// Entries without a usable ID are skipped; an empty list is valid.
func ParseCatalog(body []byte) ([]string, error) {
	var raw any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedCatalog, err)
	}

	switch v := raw.(type) {
	case []any:
		return collectIDs(v), nil
	case map[string]any:
		for _, key := range []string{"data", "models"} {
			switch entries := v[key].(type) {
			case []any:
				return collectIDs(entries), nil
			case map[string]any:
				ids := make([]string, 0, len(entries))
				for id := range entries {
					ids = append(ids, id)
				}
				slices.Sort(ids)
				return ids, nil
			}
		}
		return nil, fmt.Errorf("%w: no data or models field", core.ErrMalformedCatalog)
	default:
		return nil, fmt.Errorf("%w: unexpected JSON %T", core.ErrMalformedCatalog, raw)
	}
}

func collectIDs(entries []any) []string {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			ids = append(ids, e)
		case map[string]any:
			for _, field := range []string{"id", "name", "model_name"} {
				if id, ok := e[field].(string); ok && id != "" {
					ids = append(ids, id)
					break
				}
			}
		}
	}
	return ids
}
