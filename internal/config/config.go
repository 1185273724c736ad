package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"imagebot/internal/core"
	"imagebot/internal/util"

	"github.com/bytedance/sonic"
)

// ServerConfig server configuration
type ServerConfig struct {
	Port               string
	GinMode            string
	ClientAPIKeys      []string
	AllowedModels      []string
	AllowedModelsPath  string
	RefreshSchedule    string
	CatalogCacheTTL    time.Duration
	DiscordWebhookURL  string
	RateLimitPerMinute int
	ImageGeneration    ImageGenerationSettings
	HTTPClientSettings HTTPClientSettings
	Storage            core.StorageInterface
	Logger             core.Logger
}

// ImageGenerationSettings image-generation settings group
type ImageGenerationSettings struct {
	FallbackModel string
	CatalogURL    string
	CatalogAPIKey string
}

// BotConfig is the runtime configuration shared with request handlers.
// Models keeps its identity for the process lifetime; refreshes only
// replace its contents.
type BotConfig struct {
	Models          *core.ModelList
	ImageGeneration ImageGenerationSettings
}

// HTTPClientSettings HTTP client configuration
type HTTPClientSettings struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	RequestTimeout      time.Duration
}

// DefaultHTTPClientSettings default HTTP client settings
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		MaxIdleConns:        core.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: core.HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:     core.HTTPMaxConnsPerHost,
		IdleConnTimeout:     core.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: core.HTTPTLSHandshakeTimeout,
		RequestTimeout:      core.HTTPRequestTimeout,
	}
}

// NewBotConfig builds the runtime configuration. The fallback model must be
// allow-listed; the model list starts out holding only the fallback.
func NewBotConfig(settings ImageGenerationSettings, allow core.AllowList) (*BotConfig, error) {
	if settings.FallbackModel == "" {
		return nil, fmt.Errorf("%w: fallback model is empty", core.ErrFallbackNotAllowed)
	}
	if !allow.Contains(settings.FallbackModel) {
		return nil, fmt.Errorf("%w: %q", core.ErrFallbackNotAllowed, settings.FallbackModel)
	}

	return &BotConfig{
		Models:          core.NewModelList(settings.FallbackModel),
		ImageGeneration: settings,
	}, nil
}

// LoadModelsConfig loads the allow-list file. Both {"models":{...}} and a
// plain JSON array of IDs are accepted.
func LoadModelsConfig(path string) (core.ModelsConfig, error) {
	var config core.ModelsConfig

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from config, not user input
	if err != nil {
		return config, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := sonic.Unmarshal(data, &config); err != nil {
		var modelIDs []string
		if err := sonic.Unmarshal(data, &modelIDs); err != nil {
			return config, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		config.Models = make(map[string]string)
		for _, modelID := range modelIDs {
			config.Models[modelID] = modelID
		}
	}

	if config.Models == nil {
		config.Models = make(map[string]string)
	}

	return config, nil
}

// LoadAllowList resolves the allow-list: explicit IDs win, then the file at
// path, then the built-in defaults. A missing file is not an error.
func LoadAllowList(path string, explicit []string, logger core.Logger) (core.AllowList, error) {
	if len(explicit) > 0 {
		logger.Info("Loaded %d allowed models from ALLOWED_MODELS", len(explicit))
		return core.NewAllowList(explicit...), nil
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := LoadModelsConfig(path)
			if err != nil {
				return core.AllowList{}, err
			}
			ids := make([]string, 0, len(config.Models))
			for modelID := range config.Models {
				ids = append(ids, modelID)
			}
			logger.Info("Loaded %d allowed models from %s", len(ids), path)
			return core.NewAllowList(ids...), nil
		} else if !os.IsNotExist(err) {
			return core.AllowList{}, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		logger.Warn("Allow-list file %s not found, using built-in defaults", path)
	}

	return core.NewAllowList(core.DefaultAllowedModels...), nil
}

// LoadServerConfigFromEnv loads server config from environment variables
func LoadServerConfigFromEnv(logger core.Logger) (ServerConfig, error) {
	clientAPIKeys := util.ParseEnvList(os.Getenv("CLIENT_API_KEYS"))
	if len(clientAPIKeys) == 0 {
		logger.Warn("CLIENT_API_KEYS environment variable is empty")
	} else {
		logger.Info("Loaded %d client API keys", len(clientAPIKeys))
	}

	catalogURL := os.Getenv("MODEL_CATALOG_URL")
	if catalogURL == "" {
		logger.Warn("MODEL_CATALOG_URL is empty, refreshes will install the fallback model")
	}

	catalogAPIKey := os.Getenv("MODEL_CATALOG_API_KEY")
	if catalogAPIKey != "" {
		logger.Debug("Using catalog API key %s", util.TruncateString(catalogAPIKey, 4, 4, "..."))
	}

	cacheTTL, ok := util.GetDurationEnv("CATALOG_CACHE_TTL", core.DefaultCatalogCacheTTL)
	if !ok {
		return ServerConfig{}, fmt.Errorf("invalid CATALOG_CACHE_TTL value %q", os.Getenv("CATALOG_CACHE_TTL"))
	}

	rateLimit := core.DefaultRateLimitPerMinute
	if envRate := os.Getenv("RATE_LIMIT"); envRate != "" {
		parsed, err := strconv.Atoi(envRate)
		if err != nil || parsed <= 0 {
			logger.Warn("Invalid RATE_LIMIT value '%s', using default %d", envRate, core.DefaultRateLimitPerMinute)
		} else {
			rateLimit = parsed
		}
	}

	config := ServerConfig{
		Port:               util.GetEnvWithDefault("PORT", core.DefaultPort),
		GinMode:            util.GetEnvWithDefault("GIN_MODE", core.DefaultGinMode),
		ClientAPIKeys:      clientAPIKeys,
		AllowedModels:      util.ParseEnvList(os.Getenv("ALLOWED_MODELS")),
		AllowedModelsPath:  util.GetEnvWithDefault("ALLOWED_MODELS_PATH", core.DefaultAllowedModelsPath),
		RefreshSchedule:    util.GetEnvWithDefault("MODEL_REFRESH_SCHEDULE", core.DefaultRefreshSchedule),
		CatalogCacheTTL:    cacheTTL,
		DiscordWebhookURL:  os.Getenv("DISCORD_WEBHOOK_URL"),
		RateLimitPerMinute: rateLimit,
		ImageGeneration: ImageGenerationSettings{
			FallbackModel: util.GetEnvWithDefault("IMAGE_FALLBACK_MODEL", core.DefaultFallbackModel),
			CatalogURL:    catalogURL,
			CatalogAPIKey: catalogAPIKey,
		},
		HTTPClientSettings: DefaultHTTPClientSettings(),
	}

	return config, nil
}

// LoadBotConfig builds the runtime BotConfig and the allow-list it was
// validated against.
func LoadBotConfig(cfg ServerConfig) (*BotConfig, core.AllowList, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}

	allow, err := LoadAllowList(cfg.AllowedModelsPath, cfg.AllowedModels, logger)
	if err != nil {
		return nil, core.AllowList{}, fmt.Errorf("failed to load allow-list: %w", err)
	}

	botConfig, err := NewBotConfig(cfg.ImageGeneration, allow)
	if err != nil {
		return nil, core.AllowList{}, err
	}
	return botConfig, allow, nil
}
