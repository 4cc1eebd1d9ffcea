// Package synth generates synthetic detector output: breathing peaks and valleys plus
// R-peaks whose spacing follows the breathing rhythm.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/sanspareilsmyn/physiolens/internal/message"
)

// Profile shapes a generated segment.
type Profile struct {
	BreathPeriod        time.Duration
	InspirationFraction float64 // share of each breath spent inhaling, in (0, 1)
	HeartPeriod         time.Duration
	RSADepth            float64 // relative RR modulation over one breath
	Jitter              float64 // relative standard deviation applied to periods and amplitudes
	Baseline            float64
	Amplitude           float64
}

func DefaultProfile() Profile {
	return Profile{
		BreathPeriod:        4 * time.Second,
		InspirationFraction: 0.4,
		HeartPeriod:         850 * time.Millisecond,
		RSADepth:            0.05,
		Jitter:              0.05,
		Baseline:            700,
		Amplitude:           120,
	}
}

// Segment builds one segment of length starting at start. Timestamps are written in UTC.
func Segment(rng *rand.Rand, subjectID, segmentID string, start time.Time, length time.Duration, p Profile) message.Segment {
	seg := message.Segment{SubjectID: subjectID, SegmentID: segmentID, Timezone: "UTC"}
	end := start.Add(length)

	// breaths: valley, peak, valley, ...
	t := start
	for t.Before(end) {
		period := jitter(rng, p.BreathPeriod, p.Jitter)
		seg.Valleys = append(seg.Valleys, event(t, p.Baseline+scale(rng, 0, p.Jitter*p.Amplitude)))
		peak := t.Add(time.Duration(float64(period) * p.InspirationFraction))
		if peak.Before(end) {
			seg.Peaks = append(seg.Peaks, event(peak, p.Baseline+p.Amplitude*(1+scale(rng, 0, p.Jitter))))
		}
		t = t.Add(period)
	}

	// heartbeats, stretched during expiration and shortened during inspiration
	breath := p.BreathPeriod.Seconds()
	t = start
	for t.Before(end) {
		seg.RPeaks = append(seg.RPeaks, event(t, 1))
		phase := 2 * math.Pi * t.Sub(start).Seconds() / breath
		rr := p.HeartPeriod.Seconds() * (1 - p.RSADepth*math.Sin(phase))
		rr = math.Max(rr*(1+scale(rng, 0, p.Jitter)), 0.3)
		t = t.Add(time.Duration(rr * float64(time.Second)))
	}
	return seg
}

func event(t time.Time, v float64) message.Event {
	return message.Event{T: t.UTC().Format(time.RFC3339Nano), V: v}
}

// jitter perturbs d by a normal factor, kept within [0.5d, 1.5d] so breaths stay ordered.
func jitter(rng *rand.Rand, d time.Duration, rel float64) time.Duration {
	f := 1 + scale(rng, 0, rel)
	f = math.Min(math.Max(f, 0.5), 1.5)
	return time.Duration(float64(d) * f).Round(time.Microsecond)
}

func scale(rng *rand.Rand, mean, stddev float64) float64 {
	if stddev == 0 {
		return mean
	}
	return mean + rng.NormFloat64()*stddev
}
