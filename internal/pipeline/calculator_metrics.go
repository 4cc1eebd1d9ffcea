package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	segmentsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "physiolens_segments_received_total",
			Help: "Total number of raw segments read from the source.",
		},
	)
	segmentParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "physiolens_segment_parse_failures_total",
			Help: "Total number of segments skipped because they could not be decoded.",
		},
	)
	segmentsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "physiolens_segments_processed_total",
			Help: "Total number of segments run through the feature assembler.",
		},
	)
	segmentsWithoutFeatures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "physiolens_segments_without_features_total",
			Help: "Total number of segments for which every feature family was unavailable.",
		},
	)
	featureRowsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "physiolens_feature_rows_computed_total",
			Help: "Total number of feature rows computed, by family.",
		},
		[]string{"family"},
	)
	segmentComputeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "physiolens_segment_compute_seconds",
			Help:    "Time spent computing all feature families of one segment.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)
	sinkRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "physiolens_sink_rows_written_total",
			Help: "Total number of feature rows written, by sink.",
		},
		[]string{"sink"},
	)
	sinkWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "physiolens_sink_write_errors_total",
			Help: "Total number of failed sink writes, by sink.",
		},
		[]string{"sink"},
	)
)

// recordResult updates the calculator counters for one finished segment.
func recordResult(result SegmentResult) {
	segmentsProcessed.Inc()
	segmentComputeSeconds.Observe(result.Duration.Seconds())
	if result.Empty() {
		segmentsWithoutFeatures.Inc()
		return
	}
	for _, r := range result.Rows {
		featureRowsComputed.WithLabelValues(r.Family).Inc()
	}
}
