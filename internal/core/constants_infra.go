package core

import "time"

// HTTP client config constants
const (
	HTTPMaxIdleConns          = 50
	HTTPMaxIdleConnsPerHost   = 10
	HTTPMaxConnsPerHost       = 20
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 10 * time.Second
	HTTPResponseHeaderTimeout = 30 * time.Second
	HTTPExpectContinueTimeout = 5 * time.Second
	HTTPRequestTimeout        = 60 * time.Second
)

// Cache config constants
const (
	CacheDefaultCapacity   = 64
	CacheCleanupInterval   = 5 * time.Minute
	DefaultCatalogCacheTTL = 30 * time.Second
	CacheKeyVersion        = "v1"
)

// Stats and monitoring constants
const (
	StatsFilePath     = "refresh_stats.json"
	StatsRedisKey     = "imagebot:refresh_stats"
	MinSaveInterval   = 5 * time.Second
	HistoryBufferSize = 500
)

// Refresh scheduling constants
const (
	DefaultRefreshSchedule = "@every 1h"
	SchedulerStopTimeout   = 30 * time.Second
)

// HTTP rate limit constants
const (
	DefaultRateLimitPerMinute = 120
	RateLimitVisitorTTL       = 3 * time.Minute
	RateLimitCleanupInterval  = 5 * time.Minute
)

// Webhook constants
const (
	WebhookTimeout          = 10 * time.Second
	WebhookMaxContentLength = 2000
)

// Response body size limits
const (
	MaxResponseBodySize = 4 * 1024 * 1024
	MaxErrorBodyExcerpt = 512
)

// Logging config constants
const (
	MaxDebugFilePathLength = 260
)

// File permission constants
const (
	FilePermissionReadWrite = 0644
)

// Time format constants
const (
	TimeFormatDateTime = "2006-01-02 15:04:05"
)
