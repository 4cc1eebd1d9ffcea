package pipeline

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/config"
	"github.com/sanspareilsmyn/physiolens/internal/message"
)

func ptr(v float64) *float64 { return &v }

func rowsOf(family, feature string, values ...float64) []message.FeatureRow {
	rows := make([]message.FeatureRow, len(values))
	for i, v := range values {
		rows[i] = message.FeatureRow{SubjectID: "SI01", SegmentID: "s", Family: family, Feature: feature, WindowStart: t0, WindowEnd: t0, Value: v}
	}
	return rows
}

func TestAlerterRangeChecks(t *testing.T) {
	const name = "alerter_range_test_feature"
	a := NewAlerter([]config.FeatureConfig{
		{Family: "rip", Name: name, Thresholds: config.Thresholds{Min: ptr(2), Max: ptr(10)}},
	}, nil, zap.NewNop())

	below := featureThresholdViolations.WithLabelValues("rip", name, "value", "<")
	above := featureThresholdViolations.WithLabelValues("rip", name, "value", ">")
	belowBefore, aboveBefore := testutil.ToFloat64(below), testutil.ToFloat64(above)

	a.processResult(SegmentResult{SegmentID: "s", Rows: rowsOf("rip", name, 1, 5, 11, 12)})

	assert.Equal(t, belowBefore+1, testutil.ToFloat64(below))
	assert.Equal(t, aboveBefore+2, testutil.ToFloat64(above))
	assert.Equal(t, 12.0, testutil.ToFloat64(featureLastValue.WithLabelValues("rip", name)))
	assert.Equal(t, 4.0, testutil.ToFloat64(featureWindowCount.WithLabelValues("rip", name)))
}

func TestAlerterAvailability(t *testing.T) {
	const name = "alerter_availability_test_feature"
	a := NewAlerter([]config.FeatureConfig{
		{Family: "rip", Name: name, Thresholds: config.Thresholds{MinAvailable: ptr(0.75)}},
	}, nil, zap.NewNop())

	violations := featureThresholdViolations.WithLabelValues("rip", name, "availability", "<")
	before := testutil.ToFloat64(violations)

	a.processResult(SegmentResult{SegmentID: "s1", Rows: rowsOf("rip", name, 1)})
	assert.Equal(t, 1.0, testutil.ToFloat64(featureAvailability.WithLabelValues("rip", name)))
	assert.Equal(t, before, testutil.ToFloat64(violations))

	// unmonitored rows do not count
	a.processResult(SegmentResult{SegmentID: "s2", Rows: rowsOf("rip", "other_feature", 1)})
	assert.Equal(t, 0.5, testutil.ToFloat64(featureAvailability.WithLabelValues("rip", name)))
	assert.Equal(t, before+1, testutil.ToFloat64(violations))
	assert.Equal(t, 0.0, testutil.ToFloat64(featureWindowCount.WithLabelValues("rip", name)))
}

func TestAlerterSeparatesFamilies(t *testing.T) {
	const name = "alerter_family_test_feature"
	a := NewAlerter([]config.FeatureConfig{
		{Family: "rip", Name: name, Thresholds: config.Thresholds{Max: ptr(10)}},
	}, nil, zap.NewNop())

	ripAbove := featureThresholdViolations.WithLabelValues("rip", name, "value", ">")
	jointAbove := featureThresholdViolations.WithLabelValues("rip_ecg_window", name, "value", ">")
	ripBefore, jointBefore := testutil.ToFloat64(ripAbove), testutil.ToFloat64(jointAbove)

	rows := append(rowsOf("rip", name, 4, 5), rowsOf("rip_ecg_window", name, 20, 30, 40)...)
	a.processResult(SegmentResult{SegmentID: "s", Rows: rows})

	assert.Equal(t, 2.0, testutil.ToFloat64(featureWindowCount.WithLabelValues("rip", name)))
	assert.Equal(t, 5.0, testutil.ToFloat64(featureLastValue.WithLabelValues("rip", name)))
	assert.Equal(t, ripBefore, testutil.ToFloat64(ripAbove))
	assert.Equal(t, jointBefore, testutil.ToFloat64(jointAbove))
}

func TestAlerterRunStopsWhenInputCloses(t *testing.T) {
	in := make(chan SegmentResult, 1)
	a := NewAlerter(nil, in, zap.NewNop())
	in <- SegmentResult{SegmentID: "s"}
	close(in)

	assert.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 1, a.segments)
}

func TestAlerterRunCancelled(t *testing.T) {
	a := NewAlerter(nil, make(chan SegmentResult), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Run(ctx), context.Canceled)
}
