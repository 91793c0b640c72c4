// Package metrics exposes Prometheus metrics for the storage engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_uploads_total",
		Help: "Total number of successful uploads by file category",
	}, []string{"category"})

	uploadsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_uploads_rejected_total",
		Help: "Total number of rejected uploads by reason",
	}, []string{"reason"})

	uploadSizeBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storage_upload_size_bytes",
		Help:    "Histogram of uploaded file sizes in bytes",
		Buckets: []float64{1024, 10240, 102400, 1048576, 10485760, 104857600}, // 1KB .. 100MB
	})

	downloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storage_downloads_total",
		Help: "Total number of successful downloads",
	})

	deletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_deletes_total",
		Help: "Total number of deletions by mode (soft, permanent)",
	}, []string{"mode"})

	quotaRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storage_quota_rejections_total",
		Help: "Total number of operations rejected because the organization quota was exceeded",
	})

	bulkItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_bulk_items_total",
		Help: "Total number of bulk operation items processed by outcome",
	}, []string{"operation", "outcome"})
)

// RecordUpload records a successful upload
func RecordUpload(category string, sizeBytes int64) {
	uploadsTotal.WithLabelValues(category).Inc()
	uploadSizeBytes.Observe(float64(sizeBytes))
}

// RecordUploadRejected records a rejected upload with the rejection reason
func RecordUploadRejected(reason string) {
	uploadsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordDownload records a successful download
func RecordDownload() {
	downloadsTotal.Inc()
}

// RecordDelete records a deletion; mode is "soft" or "permanent"
func RecordDelete(mode string) {
	deletesTotal.WithLabelValues(mode).Inc()
}

// RecordQuotaRejection records a quota-exceeded rejection
func RecordQuotaRejection() {
	quotaRejectionsTotal.Inc()
}

// RecordBulkItem records one processed bulk item; outcome is "success" or "failure"
func RecordBulkItem(operation, outcome string) {
	bulkItemsTotal.WithLabelValues(operation, outcome).Inc()
}
