package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

var t0 = time.Date(2017, 6, 13, 10, 0, 0, 0, time.UTC)

// events builds a sequence from (seconds, sample) pairs.
func events(t *testing.T, name string, pairs ...float64) datastream.Sequence {
	t.Helper()
	var points []datastream.Point
	for i := 0; i+1 < len(pairs); i += 2 {
		points = append(points, datastream.NewPoint(t0.Add(time.Duration(pairs[i]*float64(time.Second))), pairs[i+1]))
	}
	seq, err := datastream.New(name, points)
	require.NoError(t, err)
	return seq
}

func TestExtractBreathCycles(t *testing.T) {
	peaks := events(t, "peaks", 1, 5, 3, 6)
	valleys := events(t, "valleys", 0, 1, 2, 1, 4, 1)

	c, err := ExtractBreathCycles(peaks, valleys)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	assert.Equal(t, []float64{1, 1}, c.Inspiration.Samples())
	assert.Equal(t, []float64{1, 1}, c.Expiration.Samples())
	assert.Equal(t, []float64{2, 2}, c.Respiration.Samples())
	assert.Equal(t, []float64{1, 1}, c.IERatio.Samples())
	// |peak[i] - valley[i+1]|
	assert.Equal(t, []float64{4, 5}, c.Stretch.Samples())

	for i, seq := range []datastream.Sequence{c.Inspiration, c.Expiration, c.Respiration, c.IERatio, c.Stretch} {
		assert.True(t, seq.At(0).Start.Equal(t0), "sequence %d keyed by valley", i)
		assert.True(t, seq.At(1).Start.Equal(t0.Add(2*time.Second)))
		assert.Equal(t, []string{"peaks", "valleys"}, seq.Sources())
	}
}

func TestExtractBreathCyclesTruncation(t *testing.T) {
	valleys := events(t, "valleys", 0, 0, 4, 0, 8, 0)

	// a trailing peak after the last valley is never paired
	withTrailing := events(t, "peaks", 1.5, 3, 5, 2, 9, 1)
	c, err := ExtractBreathCycles(withTrailing, valleys)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []float64{1.5, 1}, c.Inspiration.Samples())
	assert.Equal(t, []float64{2.5, 3}, c.Expiration.Samples())
	assert.InDelta(t, 0.6, c.IERatio.At(0).Sample, 1e-12)

	// fewer peaks than valley pairs bounds the cycle count by the peaks
	short := events(t, "peaks", 1.5, 3)
	c, err = ExtractBreathCycles(short, valleys)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	single, err := ExtractBreathCycles(short, events(t, "valleys", 0, 0))
	require.NoError(t, err)
	assert.Zero(t, single.Len())
}

func TestExtractBreathCyclesSkipsLeadingPeaks(t *testing.T) {
	valleys := events(t, "valleys", 0, 0, 4, 0, 8, 0)
	peaks := events(t, "peaks", -2.5, 1, 0, 1, 1.5, 1, 5.5, 1)

	c, err := ExtractBreathCycles(peaks, valleys)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, []float64{1.5, 1.5}, c.Inspiration.Samples())
	assert.True(t, c.Cycles[0].Peak.Start.Equal(t0.Add(1500*time.Millisecond)))
	assert.Equal(t, []string{"peaks", "valleys"}, c.Inspiration.Sources())

	// every peak precedes the first valley
	none, err := ExtractBreathCycles(events(t, "peaks", -1, 1), valleys)
	require.NoError(t, err)
	assert.Zero(t, none.Len())
}

func TestExtractBreathCyclesErrors(t *testing.T) {
	valleys := events(t, "valleys", 0, 0, 4, 0)

	_, err := ExtractBreathCycles(datastream.Sequence{}, valleys)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ExtractBreathCycles(events(t, "peaks", 5, 1), valleys)
	assert.ErrorIs(t, err, ErrMisalignedCycle)

	// a peak on the closing valley would make expiration zero
	_, err = ExtractBreathCycles(events(t, "peaks", 4, 1), valleys)
	assert.ErrorIs(t, err, ErrMisalignedCycle)
}

func TestDeltas(t *testing.T) {
	seq := events(t, "insp", 0, 1.0, 4, 1.5, 8, 0.5)

	prev := DeltaPrevious(seq)
	assert.Equal(t, []float64{0, 0.5, -1}, prev.Samples())
	assert.Equal(t, "delta_previous_insp", prev.Name())

	next := DeltaNext(seq)
	assert.Equal(t, []float64{-0.5, 1, 0}, next.Samples())

	for i := 0; i < seq.Len(); i++ {
		assert.Equal(t, seq.At(i).Start, prev.At(i).Start)
		assert.Equal(t, seq.At(i).Start, next.At(i).Start)
	}
}

func TestNeighborRatioNormalisesByAvailableNeighbours(t *testing.T) {
	seq := events(t, "stretch", 0, 2, 4, 4, 8, 8)

	ratio, err := NeighborRatio(seq)
	require.NoError(t, err)

	// index 0 averages indices 1 and 2 only: 2 / ((4+8)/2)
	assert.InDelta(t, 2.0/6.0, ratio.At(0).Sample, 1e-12)
	// index 1 averages indices 0 and 2: 4 / ((2+8)/2)
	assert.InDelta(t, 0.8, ratio.At(1).Sample, 1e-12)
	// index 2 averages indices 0 and 1: 8 / 3
	assert.InDelta(t, 8.0/3.0, ratio.At(2).Sample, 1e-12)
}

func TestNeighborRatioUsesFourNeighboursInside(t *testing.T) {
	seq := events(t, "exp", 0, 1, 1, 2, 2, 3, 3, 4, 4, 5)

	ratio, err := NeighborRatio(seq)
	require.NoError(t, err)
	assert.InDelta(t, 3.0/3.0, ratio.At(2).Sample, 1e-12) // (1+2+4+5)/4 = 3
}

func TestNeighborRatioErrors(t *testing.T) {
	_, err := NeighborRatio(events(t, "exp", 0, 1))
	assert.ErrorIs(t, err, ErrInsufficientNeighbor)

	_, err = NeighborRatio(events(t, "stretch", 0, 1, 1, 0, 2, 0))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}
