// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers request and agent-call metrics.
type Collector struct {
	httpRequests    *prometheus.CounterVec
	agentLatency    prometheus.Histogram
	agentFallbacks  prometheus.Counter
	quotaRejections prometheus.Counter
}

// NewCollector registers the metrics against the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentboard_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		agentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentboard_agent_call_seconds",
			Help:    "Latency of calls to the agent runtime.",
			Buckets: prometheus.DefBuckets,
		}),
		agentFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentboard_agent_fallbacks_total",
			Help: "Assistant replies served from the static fallback.",
		}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentboard_quota_rejections_total",
			Help: "Messages rejected by the daily quota.",
		}),
	}

	reg.MustRegister(c.httpRequests, c.agentLatency, c.agentFallbacks, c.quotaRejections)
	return c
}

func (c *Collector) RecordHTTPRequest(route string, status int) {
	c.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (c *Collector) RecordAgentLatency(d time.Duration) {
	c.agentLatency.Observe(d.Seconds())
}

func (c *Collector) RecordAgentFallback() {
	c.agentFallbacks.Inc()
}

func (c *Collector) RecordQuotaRejection() {
	c.quotaRejections.Inc()
}

// Handler serves the registry over HTTP for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
