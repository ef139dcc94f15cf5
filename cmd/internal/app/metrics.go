package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cardbox_http_requests_total",
		Help: "HTTP requests by method, route pattern and status class.",
	}, []string{"method", "route", "class"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cardbox_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

func observeRequest(method, route, class string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, class).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
