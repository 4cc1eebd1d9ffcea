package stats

import (
	"github.com/sanspareilsmyn/physiolens/internal/datastream"
)

// BreathRate is the number of valleys inside one window.
func BreathRate(valleys datastream.Sequence) float64 {
	return float64(valleys.Len())
}

// InspirationMinuteVolume sums the triangular area (peak_time - valley_time) *
// (peak - valley) / 2 over the peak/valley pairs of one window, pairing by index.
// Pairs whose peak does not come after its valley contribute nothing.
func InspirationMinuteVolume(peaks, valleys datastream.Sequence) float64 {
	n := min(peaks.Len(), valleys.Len())
	volume := 0.0
	for i := 0; i < n; i++ {
		peak, valley := peaks.At(i), valleys.At(i)
		if !peak.Start.After(valley.Start) {
			continue
		}
		dt := peak.Start.Sub(valley.Start).Seconds()
		volume += dt * (peak.Sample - valley.Sample) / 2
	}
	return volume
}
