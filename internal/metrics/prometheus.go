package metrics

import (
	"net/http"
	"strings"

	"imagebot/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promCollectors exports refresh outcomes on a registry owned by one RefreshMetrics.
type promCollectors struct {
	registry *prometheus.Registry

	// refreshTotal counts refreshes by action and status
	refreshTotal *prometheus.CounterVec

	// refreshErrors counts fallback installs by error type
	refreshErrors *prometheus.CounterVec

	lastRefresh prometheus.Gauge
}

func newPromCollectors() *promCollectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &promCollectors{
		registry: reg,
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imagebot_model_refresh_total",
			Help: "Total model list refreshes by action and status",
		}, []string{"action", "status"}),
		refreshErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imagebot_model_refresh_errors_total",
			Help: "Refreshes that installed the fallback model, by error type",
		}, []string{"error_type"}),
		lastRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Name: "imagebot_model_refresh_last_timestamp_seconds",
			Help: "Unix time of the most recent refresh event",
		}),
	}
}

func (p *promCollectors) observe(event core.RefreshEvent) {
	action := event.Action
	if event.IsError() {
		action = strings.TrimSuffix(event.ErrorType, core.ErrorTypeSuffix)
		p.refreshErrors.WithLabelValues(event.ErrorType).Inc()
	}
	p.refreshTotal.WithLabelValues(action, event.Status).Inc()
	if !event.Timestamp.IsZero() {
		p.lastRefresh.Set(float64(event.Timestamp.UnixNano()) / 1e9)
	}
}

// PrometheusHandler serves the refresh collectors in the Prometheus text format.
func (m *RefreshMetrics) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(m.prom.registry, promhttp.HandlerOpts{})
}
