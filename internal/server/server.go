package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagebot/internal/catalog"
	"imagebot/internal/config"
	"imagebot/internal/core"
	logpkg "imagebot/internal/log"
	"imagebot/internal/metrics"
	"imagebot/internal/models"
	"imagebot/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// Server application server
type Server struct {
	port    string
	ginMode string

	httpClient *http.Client
	router     *gin.Engine

	botConfig *config.BotConfig
	allow     core.AllowList

	fetcher   *catalog.CachedFetcher
	metrics   *metrics.RefreshMetrics
	webhook   *logpkg.WebhookSink
	scheduler *scheduler.Scheduler

	validClientKeys map[string]bool
	rateLimiter     *rateLimiter

	config config.ServerConfig

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	closed         bool
}

// NewServer wires the refresh pipeline and the HTTP routes
func NewServer(cfg config.ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required in ServerConfig")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required in ServerConfig")
	}

	botConfig, allow, err := config.LoadBotConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load bot config: %w", err)
	}
	cfg.Logger.Info("Allow-list has %d model(s), fallback model %s", allow.Len(), botConfig.ImageGeneration.FallbackModel)

	httpClient := createOptimizedHTTPClient(cfg.HTTPClientSettings)

	refreshMetrics := metrics.NewRefreshMetrics(metrics.MetricsConfig{
		SaveInterval: core.MinSaveInterval,
		HistorySize:  core.HistoryBufferSize,
		Storage:      cfg.Storage,
		Logger:       cfg.Logger,
	})
	if err := refreshMetrics.LoadStats(); err != nil {
		cfg.Logger.Warn("Failed to load historical refresh stats: %v", err)
	}

	sinks := []core.EventSink{refreshMetrics}
	var webhook *logpkg.WebhookSink
	if cfg.DiscordWebhookURL != "" {
		webhook = logpkg.NewWebhookSink(cfg.DiscordWebhookURL, httpClient, cfg.Logger)
		sinks = append(sinks, webhook)
		cfg.Logger.Info("Refresh events will be posted to the configured webhook")
	}
	events := logpkg.NewEventLogger(cfg.Logger, sinks...)

	fetcher := catalog.NewCachedFetcher(catalog.NewHTTPFetcher(httpClient, cfg.Logger), cfg.CatalogCacheTTL, cfg.Logger)

	refresher, err := models.NewRefresher(models.RefresherConfig{
		Fetcher:   fetcher,
		AllowList: allow,
		Events:    events,
	})
	if err != nil {
		_ = fetcher.Close()
		return nil, fmt.Errorf("failed to create refresher: %w", err)
	}

	sched, err := scheduler.New(scheduler.Config{
		Refresher: refresher,
		BotConfig: botConfig,
		Spec:      cfg.RefreshSchedule,
		Logger:    cfg.Logger,
	})
	if err != nil {
		_ = fetcher.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	validClientKeys := make(map[string]bool)
	for _, key := range cfg.ClientAPIKeys {
		validClientKeys[key] = true
	}
	if len(validClientKeys) == 0 {
		cfg.Logger.Warn("No client API keys configured")
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	server := &Server{
		port:            cfg.Port,
		ginMode:         cfg.GinMode,
		httpClient:      httpClient,
		botConfig:       botConfig,
		allow:           allow,
		fetcher:         fetcher,
		metrics:         refreshMetrics,
		webhook:         webhook,
		scheduler:       sched,
		validClientKeys: validClientKeys,
		rateLimiter:     newRateLimiter(cfg.RateLimitPerMinute),
		config:          cfg,
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
	}

	server.setupRoutes()
	go server.rateLimiter.cleanupLoop(shutdownCtx)

	return server, nil
}

func createOptimizedHTTPClient(settings config.HTTPClientSettings) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          settings.MaxIdleConns,
		MaxIdleConnsPerHost:   settings.MaxIdleConnsPerHost,
		MaxConnsPerHost:       settings.MaxConnsPerHost,
		IdleConnTimeout:       settings.IdleConnTimeout,
		TLSHandshakeTimeout:   settings.TLSHandshakeTimeout,
		ExpectContinueTimeout: core.HTTPExpectContinueTimeout,
		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: core.HTTPResponseHeaderTimeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   settings.RequestTimeout,
	}
}

// Run starts the refresh scheduler and serves HTTP until shutdown
func (s *Server) Run() error {
	s.setupGracefulShutdown()

	if err := s.scheduler.Start(s.shutdownCtx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
	}

	go func() {
		<-s.shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.config.Logger.Error("Server shutdown error: %v", err)
		}
	}()

	s.config.Logger.Info("Server starting on port %s", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) setupGracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-quit:
			s.config.Logger.Info("Shutdown signal received, shutting down gracefully...")
			s.shutdownCancel()
		case <-s.shutdownCtx.Done():
		}
		signal.Stop(quit)
	}()
}

// Close stops the scheduler and flushes every component
func (s *Server) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.shutdownCancel != nil {
		s.shutdownCancel()
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	var closeErr error

	if s.webhook != nil {
		if err := s.webhook.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close webhook sink: %w", err))
		}
	}

	if s.metrics != nil {
		if err := s.metrics.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close refresh metrics: %w", err))
		}
	}

	if s.fetcher != nil {
		if err := s.fetcher.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close catalog cache: %w", err))
		}
	}

	return closeErr
}
