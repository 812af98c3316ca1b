package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	auditEntriesTotal    *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	wsConnections        prometheus.Gauge
	wsDroppedFramesTotal prometheus.Counter
	uploadsTotal         *prometheus.CounterVec
	exportsTotal         *prometheus.CounterVec
	reportCacheTotal     *prometheus.CounterVec
	searchRequestsTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "led_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "led_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "led_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		auditEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "led_audit_entries_total",
			Help: "Audit entries by outcome (written, dropped, failed).",
		}, []string{"outcome"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "led_notifications_published_total",
			Help: "Notifications published by type.",
		}, []string{"type"})

		wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "led_ws_connections",
			Help: "Currently open notification websocket connections.",
		})

		wsDroppedFramesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "led_ws_dropped_frames_total",
			Help: "Frames dropped because a websocket client was too slow.",
		})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "led_document_uploads_total",
			Help: "Document uploads by outcome.",
		}, []string{"outcome"})

		exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "led_report_exports_total",
			Help: "Report exports by dataset and format.",
		}, []string{"dataset", "format"})

		reportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "led_report_cache_total",
			Help: "Report cache lookups by result.",
		}, []string{"result"})

		searchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "led_search_requests_total",
			Help: "Search requests by backend.",
		}, []string{"backend"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			auditEntriesTotal, notificationsTotal,
			wsConnections, wsDroppedFramesTotal,
			uploadsTotal, exportsTotal, reportCacheTotal, searchRequestsTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AuditEntries counts audit entries by outcome.
func AuditEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return auditEntriesTotal
}

// NotificationsPublished counts notifications by type.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// WSConnections tracks open websocket connections.
func WSConnections() prometheus.Gauge {
	RegisterMetrics()
	return wsConnections
}

// WSDroppedFrames counts frames dropped for slow consumers.
func WSDroppedFrames() prometheus.Counter {
	RegisterMetrics()
	return wsDroppedFramesTotal
}

// Uploads counts document uploads by outcome.
func Uploads() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// Exports counts report exports.
func Exports() *prometheus.CounterVec {
	RegisterMetrics()
	return exportsTotal
}

// ReportCache counts report cache hits and misses.
func ReportCache() *prometheus.CounterVec {
	RegisterMetrics()
	return reportCacheTotal
}

// SearchRequests counts search requests by backend.
func SearchRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return searchRequestsTotal
}
