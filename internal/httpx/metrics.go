package httpx

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

type metrics struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimitHits  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "negotiator",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "negotiator",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers.",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "negotiator",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses by route.",
		}, []string{"route"}),
	}

	for _, c := range []prometheus.Collector{m.requestTotal, m.requestLatency, m.rateLimitHits} {
		if err := prometheus.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch existing := are.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if c == m.requestTotal {
						m.requestTotal = existing
					} else {
						m.rateLimitHits = existing
					}
				case *prometheus.HistogramVec:
					m.requestLatency = existing
				}
			}
		}
	}
	return m
}

func (m *metrics) observe(method, route string, status int, d time.Duration) {
	labels := prometheus.Labels{"method": method, "route": route, "status": strconv.Itoa(status)}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(d.Seconds())
}

func (r *Router) recordRateLimitHit(route string) {
	if r.metrics != nil {
		r.metrics.rateLimitHits.With(prometheus.Labels{"route": route}).Inc()
	}
}

// metricsHandler serves the Prometheus exposition format.
var metricsHandler = promhttp.Handler()
