package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StorageOperations counts object storage calls by operation and bucket.
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interhub_storage_operations_total",
		Help: "Total number of object storage operations by operation and bucket",
	}, []string{"operation", "bucket"})

	// StorageOperationErrors counts failed object storage calls by operation and bucket.
	StorageOperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interhub_storage_operation_errors_total",
		Help: "Total number of failed object storage operations by operation and bucket",
	}, []string{"operation", "bucket"})

	// FeedAssemblyDuration records how long assembling signed image URLs for a feed takes.
	FeedAssemblyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interhub_feed_assembly_duration_seconds",
		Help:    "Duration of content feed signed URL assembly",
		Buckets: prometheus.DefBuckets,
	})

	// FeedImageFailures counts cards whose signed URL could not be produced.
	FeedImageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interhub_feed_image_failures_total",
		Help: "Total number of content cards whose signed image URL failed to resolve",
	})

	// ProfileImageRefreshes counts profile image URL refreshes by outcome.
	ProfileImageRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interhub_profile_image_refreshes_total",
		Help: "Total number of profile image URL refreshes by outcome (hit, refreshed, error)",
	}, []string{"outcome"})
)

// ObserveFeedAssembly records the duration of a feed assembly batch.
func ObserveFeedAssembly(start time.Time) {
	FeedAssemblyDuration.Observe(time.Since(start).Seconds())
}
