package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

func TestReduceOneToTen(t *testing.T) {
	values := []float64{7, 3, 10, 1, 5, 2, 9, 4, 8, 6}

	s, err := Reduce(values)
	require.NoError(t, err)

	assert.Equal(t, 5.5, s.Mean)
	assert.Equal(t, 5.5, s.Median)
	assert.Equal(t, 2.25, s.QuantileDeviation) // 0.5 * (7.75 - 3.25)
	assert.Equal(t, 8.2, s.P80)

	// numpy.percentile(numpy.arange(1, 11), [25, 75, 80]) -> [3.25, 7.75, 8.2]
	for p, want := range map[float64]float64{25: 3.25, 75: 7.75, 80: 8.2} {
		got, err := Percentile(values, p)
		require.NoError(t, err)
		assert.Equal(t, want, got, "P%v", p)
	}

	assert.Equal(t, []float64{7, 3, 10, 1, 5, 2, 9, 4, 8, 6}, values, "input must not be reordered")
}

func TestReduceSingleValue(t *testing.T) {
	s, err := Reduce([]float64{0.8})
	require.NoError(t, err)
	assert.Equal(t, Summary{QuantileDeviation: 0, Mean: 0.8, Median: 0.8, P80: 0.8}, s)
}

func TestReduceEmptyWindow(t *testing.T) {
	_, err := Reduce(nil)
	assert.ErrorIs(t, err, ErrEmptyWindow)

	_, err = ReduceSequence(datastream.Sequence{})
	assert.ErrorIs(t, err, ErrEmptyWindow)

	_, err = Percentile(nil, 50)
	assert.ErrorIs(t, err, ErrEmptyWindow)

	_, err = Variance(nil)
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestPercentile(t *testing.T) {
	values := []float64{0.61, 0.585, 0.6, 1.2, 0.95}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 0.585},
		{100, 1.2},
		{50, 0.61},
		{20, 0.597},
		{80, 1.0},
	}
	for _, tt := range tests {
		got, err := Percentile(values, tt.p)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "p%g", tt.p)
	}

	_, err := Percentile(values, 101)
	assert.ErrorIs(t, err, ErrInvalidPercentile)
	_, err = Percentile(values, -1)
	assert.ErrorIs(t, err, ErrInvalidPercentile)
}

func TestVarianceIsPopulationVariance(t *testing.T) {
	v, err := Variance([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)
}

func TestQuantileDeviation(t *testing.T) {
	q, err := QuantileDeviation([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, q) // 0.5 * (4 - 2)
}

var t0 = time.Date(2017, 6, 13, 10, 0, 0, 0, time.UTC)

func events(t *testing.T, pairs ...float64) datastream.Sequence {
	t.Helper()
	var points []datastream.Point
	for i := 0; i+1 < len(pairs); i += 2 {
		points = append(points, datastream.NewPoint(t0.Add(time.Duration(pairs[i]*float64(time.Second))), pairs[i+1]))
	}
	seq, err := datastream.New("events", points)
	require.NoError(t, err)
	return seq
}

func TestBreathRate(t *testing.T) {
	assert.Equal(t, 3.0, BreathRate(events(t, 0, 1, 4, 1, 8, 1)))
	assert.Equal(t, 0.0, BreathRate(datastream.Sequence{}))
}

func TestInspirationMinuteVolume(t *testing.T) {
	valleys := events(t, 0, 1, 4, 2, 8, 1)
	peaks := events(t, 2, 5, 6, 4)

	// (2-0)*(5-1)/2 + (6-4)*(4-2)/2
	assert.InDelta(t, 6.0, InspirationMinuteVolume(peaks, valleys), 1e-12)
}

func TestInspirationMinuteVolumeSkipsPeakBeforeValley(t *testing.T) {
	valleys := events(t, 1, 1, 4, 2)
	peaks := events(t, 0.5, 5, 6, 4)

	// the first pair has its peak before the valley and adds nothing
	assert.InDelta(t, 2.0, InspirationMinuteVolume(peaks, valleys), 1e-12)
}
