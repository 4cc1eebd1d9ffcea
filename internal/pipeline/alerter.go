package pipeline

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/config"
)

// Prometheus Metrics Definition
var (
	featureLastValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "physiolens_feature_last_value",
			Help: "Most recent value of a monitored feature.",
		},
		[]string{"family", "feature_name"},
	)
	featureWindowCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "physiolens_feature_segment_window_count",
			Help: "Number of rows of a monitored feature in the last segment.",
		},
		[]string{"family", "feature_name"},
	)
	featureAvailability = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "physiolens_feature_availability_ratio",
			Help: "Fraction of processed segments that produced a monitored feature.",
		},
		[]string{"family", "feature_name"},
	)
	featureThresholdViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "physiolens_feature_threshold_violations_total",
			Help: "Total number of threshold violations detected for a feature and specific check.",
		},
		[]string{"family", "feature_name", "check_type", "comparison"},
	)
)

// featureKey identifies a monitored feature; the same name can be emitted by several
// families (breath_rate by both rip and rip_ecg_window).
type featureKey struct {
	family string
	name   string
}

// Alerter receives segment results and checks monitored features against configured
// thresholds: a per-row value range and the fraction of segments producing the feature.
type Alerter struct {
	features map[featureKey]config.FeatureConfig
	input    <-chan SegmentResult
	logger   *zap.Logger

	segments  int
	available map[featureKey]int
}

// NewAlerter creates a new Alerter instance.
func NewAlerter(features []config.FeatureConfig, input <-chan SegmentResult, logger *zap.Logger) *Alerter {
	featureMap := make(map[featureKey]config.FeatureConfig)
	for _, f := range features {
		featureMap[featureKey{family: f.Family, name: f.Name}] = f
	}

	logger.Debug("Alerter initialized", zap.Int("feature_count", len(featureMap)))

	return &Alerter{
		features:  featureMap,
		input:     input,
		logger:    logger,
		available: make(map[featureKey]int),
	}
}

// Run starts the alerter's processing loop, checking results against thresholds.
func (a *Alerter) Run(ctx context.Context) error {
	sugar := a.logger.Sugar()
	sugar.Info("Starting alerter loop...")
	defer sugar.Info("Alerter loop stopped.")

	for {
		select {
		case result, ok := <-a.input:
			if !ok {
				sugar.Info("Alerter input channel closed.")
				return nil
			}
			a.processResult(result)

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping alerter.")
			return ctx.Err()
		}
	}
}

// processResult checks thresholds, logs alerts, and updates Prometheus metrics.
func (a *Alerter) processResult(result SegmentResult) {
	sugar := a.logger.Sugar()
	a.segments++

	byFeature := make(map[featureKey][]float64)
	for _, r := range result.Rows {
		key := featureKey{family: r.Family, name: r.Feature}
		if _, monitored := a.features[key]; monitored {
			byFeature[key] = append(byFeature[key], r.Value)
		}
	}

	for key, featureCfg := range a.features {
		values := byFeature[key]
		if len(values) > 0 {
			a.available[key]++
			featureLastValue.WithLabelValues(key.family, key.name).Set(values[len(values)-1])
		}
		featureWindowCount.WithLabelValues(key.family, key.name).Set(float64(len(values)))

		ratio := float64(a.available[key]) / float64(a.segments)
		featureAvailability.WithLabelValues(key.family, key.name).Set(ratio)

		thresholds := featureCfg.Thresholds
		a.checkRange(sugar, result.SegmentID, key, values, thresholds.Min, thresholds.Max)
		a.checkAvailability(sugar, key, ratio, thresholds.MinAvailable)
	}

	sugar.Infow("Segment features processed",
		zap.String("subject_id", result.SubjectID),
		zap.String("segment_id", result.SegmentID),
		zap.Int("rows", len(result.Rows)),
		zap.Strings("families", result.Families),
		zap.Duration("compute_time", result.Duration),
	)
}

// checkRange reports every value outside [min, max].
func (a *Alerter) checkRange(sugar *zap.SugaredLogger, segmentID string, key featureKey, values []float64, minThreshold, maxThreshold *float64) {
	for _, v := range values {
		if minThreshold != nil && v < *minThreshold {
			sugar.Warnw("Value violation (Min)",
				zap.String("family", key.family),
				zap.String("feature_name", key.name),
				zap.String("segment_id", segmentID),
				zap.Float64("actual", v),
				zap.Float64("threshold", *minThreshold),
				zap.String("comparison", "<"),
			)
			featureThresholdViolations.WithLabelValues(key.family, key.name, "value", "<").Inc()
		}
		if maxThreshold != nil && v > *maxThreshold {
			sugar.Warnw("Value violation (Max)",
				zap.String("family", key.family),
				zap.String("feature_name", key.name),
				zap.String("segment_id", segmentID),
				zap.Float64("actual", v),
				zap.Float64("threshold", *maxThreshold),
				zap.String("comparison", ">"),
			)
			featureThresholdViolations.WithLabelValues(key.family, key.name, "value", ">").Inc()
		}
	}
}

func (a *Alerter) checkAvailability(sugar *zap.SugaredLogger, key featureKey, ratio float64, threshold *float64) {
	if threshold == nil || ratio >= *threshold {
		return
	}
	sugar.Warnw("Availability violation",
		zap.String("family", key.family),
		zap.String("feature_name", key.name),
		zap.Float64("actual", ratio),
		zap.Float64("threshold", *threshold),
		zap.Int("segments", a.segments),
		zap.String("comparison", "<"),
	)
	featureThresholdViolations.WithLabelValues(key.family, key.name, "availability", "<").Inc()
}
