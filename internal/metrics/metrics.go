package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"imagebot/internal/core"

	"github.com/gin-gonic/gin"
)

// AtomicRefreshStats thread-safe refresh counters
type AtomicRefreshStats struct {
	TotalRefreshes      atomic.Int64
	SuccessfulRefreshes atomic.Int64
	FailedRefreshes     atomic.Int64
}

// MetricsConfig configuration for RefreshMetrics
type MetricsConfig struct {
	SaveInterval time.Duration
	HistorySize  int
	Storage      core.StorageInterface
	Logger       core.Logger
}

// RefreshMetrics records refresh events forwarded by the event logger
type RefreshMetrics struct {
	atomicStats     AtomicRefreshStats
	history         []core.RefreshEvent
	historyMu       sync.RWMutex
	lastRefreshTime time.Time
	maxHistorySize  int
	storage         core.StorageInterface
	logger          core.Logger
	lastSaveTime    time.Time
	minSaveInterval time.Duration
	prom            *promCollectors
}

// NewRefreshMetrics creates a new RefreshMetrics
func NewRefreshMetrics(config MetricsConfig) *RefreshMetrics {
	logger := config.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}

	historySize := config.HistorySize
	if historySize <= 0 {
		historySize = core.HistoryBufferSize
	}

	return &RefreshMetrics{
		maxHistorySize:  historySize,
		storage:         config.Storage,
		logger:          logger,
		minSaveInterval: config.SaveInterval,
		prom:            newPromCollectors(),
	}
}

// HandleRefreshEvent records one refresh outcome.
func (m *RefreshMetrics) HandleRefreshEvent(event core.RefreshEvent) {
	m.atomicStats.TotalRefreshes.Add(1)
	if event.IsError() {
		m.atomicStats.FailedRefreshes.Add(1)
	} else {
		m.atomicStats.SuccessfulRefreshes.Add(1)
	}
	m.prom.observe(event)

	m.historyMu.Lock()
	m.lastRefreshTime = event.Timestamp
	m.history = append(m.history, event)
	if len(m.history) > m.maxHistorySize {
		m.history = m.history[len(m.history)-m.maxHistorySize:]
	}
	m.historyMu.Unlock()

	m.SaveStatsDebounced()
}

// GetRefreshStats returns current stats snapshot
func (m *RefreshMetrics) GetRefreshStats() core.RefreshStats {
	m.historyMu.RLock()
	defer m.historyMu.RUnlock()

	history := make([]core.RefreshEvent, len(m.history))
	for i, event := range m.history {
		history[i] = event.Clone()
	}

	return core.RefreshStats{
		TotalRefreshes:      m.atomicStats.TotalRefreshes.Load(),
		SuccessfulRefreshes: m.atomicStats.SuccessfulRefreshes.Load(),
		FailedRefreshes:     m.atomicStats.FailedRefreshes.Load(),
		LastRefreshTime:     m.lastRefreshTime,
		History:             history,
	}
}

// LastEvent returns the most recent event, if any.
func (m *RefreshMetrics) LastEvent() (core.RefreshEvent, bool) {
	m.historyMu.RLock()
	defer m.historyMu.RUnlock()

	if len(m.history) == 0 {
		return core.RefreshEvent{}, false
	}
	return m.history[len(m.history)-1].Clone(), true
}

// LoadStats loads stats from storage
func (m *RefreshMetrics) LoadStats() error {
	if m.storage == nil {
		return nil
	}
	stats, err := m.storage.LoadStats()
	if err != nil {
		return err
	}

	m.atomicStats.TotalRefreshes.Store(stats.TotalRefreshes)
	m.atomicStats.SuccessfulRefreshes.Store(stats.SuccessfulRefreshes)
	m.atomicStats.FailedRefreshes.Store(stats.FailedRefreshes)

	m.historyMu.Lock()
	m.lastRefreshTime = stats.LastRefreshTime
	m.history = stats.History
	if len(m.history) > m.maxHistorySize {
		m.history = m.history[len(m.history)-m.maxHistorySize:]
	}
	m.historyMu.Unlock()

	return nil
}

// SaveStatsDebounced saves stats with debounce
func (m *RefreshMetrics) SaveStatsDebounced() {
	now := time.Now()
	m.historyMu.Lock()
	if now.Sub(m.lastSaveTime) < m.minSaveInterval {
		m.historyMu.Unlock()
		return
	}
	m.lastSaveTime = now
	m.historyMu.Unlock()

	if m.storage == nil {
		return
	}

	stats := m.GetRefreshStats()
	if err := m.storage.SaveStats(&stats); err != nil {
		m.logger.Warn("Failed to save refresh stats: %v", err)
	}
}

// Close saves final stats
func (m *RefreshMetrics) Close() error {
	if m.storage == nil {
		return nil
	}
	stats := m.GetRefreshStats()
	return m.storage.SaveStats(&stats)
}

// StatsHandler serves the refresh stats as JSON
func (m *RefreshMetrics) StatsHandler(c *gin.Context) {
	stats := m.GetRefreshStats()

	var successRate float64
	if stats.TotalRefreshes > 0 {
		successRate = float64(stats.SuccessfulRefreshes) / float64(stats.TotalRefreshes) * 100
	}

	lastRefresh := ""
	if !stats.LastRefreshTime.IsZero() {
		lastRefresh = stats.LastRefreshTime.Format(core.TimeFormatDateTime)
	}

	c.JSON(http.StatusOK, gin.H{
		"currentTime":         time.Now().Format(core.TimeFormatDateTime),
		"totalRefreshes":      stats.TotalRefreshes,
		"successfulRefreshes": stats.SuccessfulRefreshes,
		"failedRefreshes":     stats.FailedRefreshes,
		"successRate":         successRate,
		"lastRefreshTime":     lastRefresh,
		"history":             stats.History,
	})
}
