// Package metrics provides Prometheus metrics for the filedeck backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedeck_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	fileOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_file_operations_total",
			Help: "Total copy/move/delete batches",
		},
		[]string{"op", "status"},
	)

	fileOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filedeck_file_operation_duration_seconds",
			Help:    "File operation batch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	listingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_directory_listings_total",
			Help: "Total directory listings served",
		},
	)

	listingEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filedeck_directory_listing_entries",
			Help:    "Entries returned per directory listing",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000},
		},
	)

	wsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_ws_connections_active",
			Help: "Number of active websocket connections",
		},
	)

	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_events_published_total",
			Help: "Total change events published",
		},
		[]string{"type"},
	)

	eventSubscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_event_subscribers_active",
			Help: "Number of active event subscribers",
		},
	)

	indexScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filedeck_index_scan_duration_seconds",
			Help:    "Index scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	indexEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filedeck_index_entries",
			Help: "Rows currently in the metadata index",
		},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_upload_bytes_total",
			Help: "Total bytes received through the upload service",
		},
	)

	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filedeck_uploads_total",
			Help: "Total uploads",
		},
		[]string{"status"},
	)

	syncCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filedeck_sync_cycles_total",
			Help: "Total simulated sync cycles completed",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and duration for every route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordFileOp records one copy/move/delete batch.
func RecordFileOp(op string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	fileOpsTotal.WithLabelValues(op, status).Inc()
	fileOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordListing records one directory listing.
func RecordListing(entries int) {
	listingsTotal.Inc()
	listingEntries.Observe(float64(entries))
}

// AddWSConnection adjusts the active websocket connection gauge.
func AddWSConnection(delta int) {
	wsConnectionsActive.Add(float64(delta))
}

// RecordEvent records a published change event.
func RecordEvent(eventType string) {
	eventsPublishedTotal.WithLabelValues(eventType).Inc()
}

// SetEventSubscribers sets the active subscriber gauge.
func SetEventSubscribers(count int) {
	eventSubscribersActive.Set(float64(count))
}

// RecordIndexScan records one index scan.
func RecordIndexScan(duration time.Duration, entries int64) {
	indexScanDuration.Observe(duration.Seconds())
	indexEntriesTotal.Set(float64(entries))
}

// RecordUploadChunk counts received upload bytes.
func RecordUploadChunk(bytes int) {
	uploadBytesTotal.Add(float64(bytes))
}

// RecordUpload records a finished upload.
func RecordUpload(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	uploadsTotal.WithLabelValues(status).Inc()
}

// RecordSyncCycle counts one completed simulated sync cycle.
func RecordSyncCycle() {
	syncCyclesTotal.Inc()
}
