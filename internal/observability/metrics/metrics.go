// Package metrics exposes prometheus instruments for the HTTP layer and the
// upload pipeline.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics instruments inbound requests.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insightdeck_http_requests_total",
			Help: "Count of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "insightdeck_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Observe records one completed request.
func (m *HTTPMetrics) Observe(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	route = normalizeRoute(route)
	m.requests.WithLabelValues(route, method, status).Inc()
	m.duration.WithLabelValues(route, method).Observe(seconds)
}

// IngestMetrics instruments the upload pipeline.
type IngestMetrics struct {
	rows    *prometheus.CounterVec
	batches *prometheus.CounterVec
	uploads *prometheus.CounterVec
}

func NewIngestMetrics() *IngestMetrics {
	return &IngestMetrics{
		rows: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insightdeck_upload_rows_total",
			Help: "Count of ingested rows by source and outcome.",
		}, []string{"source", "outcome"}),
		batches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insightdeck_upload_batches_total",
			Help: "Count of batch commits by source and outcome.",
		}, []string{"source", "outcome"}),
		uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insightdeck_uploads_total",
			Help: "Count of uploads by source and final status.",
		}, []string{"source", "status"}),
	}
}

func (m *IngestMetrics) AddRows(source, outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rows.WithLabelValues(source, outcome).Add(float64(count))
}

func (m *IngestMetrics) IncBatch(source, outcome string) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(source, outcome).Inc()
}

func (m *IngestMetrics) IncUpload(source, status string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(source, status).Inc()
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "unknown"
	}
	return route
}
