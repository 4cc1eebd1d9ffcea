package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

func TestExtractRRIntervals(t *testing.T) {
	rPeaks := events(t, "r_peaks", 0, 900, 0.8, 910, 1.7, 905, 2.4, 920)

	rr, err := ExtractRRIntervals(rPeaks)
	require.NoError(t, err)
	require.Equal(t, 3, rr.Len())

	for i, want := range []float64{0.8, 0.9, 0.7} {
		assert.InDelta(t, want, rr.At(i).Sample, 1e-9)
		assert.Equal(t, rPeaks.At(i+1).Start, rr.At(i).Start)
	}
	assert.Equal(t, RRInterval, rr.Name())
	assert.Equal(t, []string{"r_peaks"}, rr.Sources())

	_, err = ExtractRRIntervals(datastream.Sequence{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRSAInCycle(t *testing.T) {
	rr := events(t, "rr", 0.5, 0.80, 1.0, 0.95, 2.0, 0.70, 4.0, 1.20, 5.0, 0.60)

	rsa, ok := RSAInCycle(t0, t0.Add(4*time.Second), rr)
	require.True(t, ok)
	assert.InDelta(t, 0.25, rsa, 1e-12) // 0.95 - 0.70, the point at 4s sits on the boundary

	_, ok = RSAInCycle(t0.Add(6*time.Second), t0.Add(8*time.Second), rr)
	assert.False(t, ok)
}

func TestExtractRSASkipsUncoveredCycles(t *testing.T) {
	peaks := events(t, "peaks", 1, 5, 5, 6, 9, 5)
	valleys := events(t, "valleys", 0, 1, 4, 1, 8, 1, 12, 1)
	rr := events(t, "rr", 0.5, 0.8, 1.5, 1.0, 9, 0.9, 10, 0.7, 11, 0.75)

	cycles, err := ExtractBreathCycles(peaks, valleys)
	require.NoError(t, err)

	rsa := ExtractRSA(cycles.Cycles, rr)
	require.Equal(t, 2, rsa.Len())
	assert.True(t, rsa.At(0).Start.Equal(t0))
	assert.InDelta(t, 0.2, rsa.At(0).Sample, 1e-12)
	assert.True(t, rsa.At(1).Start.Equal(t0.Add(8*time.Second)))
	assert.InDelta(t, 0.2, rsa.At(1).Sample, 1e-12)
}
