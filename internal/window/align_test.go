package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2017, 6, 13, 10, 0, 0, 0, time.UTC)

func TestAlign(t *testing.T) {
	tests := []struct {
		name   string
		ts     time.Time
		period time.Duration
		after  bool
		want   time.Time
	}{
		{
			name:   "already on grid",
			ts:     t0.Add(10 * time.Second),
			period: 5 * time.Second,
			want:   t0.Add(10 * time.Second),
		},
		{
			name:   "floors to previous grid line",
			ts:     t0.Add(7300 * time.Millisecond),
			period: 5 * time.Second,
			want:   t0.Add(5 * time.Second),
		},
		{
			name:   "after rounds to next grid line",
			ts:     t0.Add(7300 * time.Millisecond),
			period: 5 * time.Second,
			after:  true,
			want:   t0.Add(10 * time.Second),
		},
		{
			name:   "after on grid advances one period",
			ts:     t0.Add(5 * time.Second),
			period: 5 * time.Second,
			after:  true,
			want:   t0.Add(10 * time.Second),
		},
		{
			name:   "microsecond before boundary stays in previous period",
			ts:     t0.Add(time.Second - time.Microsecond),
			period: time.Second,
			want:   t0,
		},
		{
			name:   "sub-microsecond part is discarded",
			ts:     t0.Add(time.Second - 1),
			period: time.Second,
			want:   t0,
		},
		{
			name:   "fractional period",
			ts:     t0.Add(1700 * time.Millisecond),
			period: 250 * time.Millisecond,
			want:   t0.Add(1500 * time.Millisecond),
		},
		{
			name:   "before the unix epoch floors downwards",
			ts:     time.Unix(-7, 0),
			period: 5 * time.Second,
			want:   time.Unix(-10, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Align(tt.ts, tt.period, tt.after, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestAlignLocation(t *testing.T) {
	central := time.FixedZone("CST", -6*60*60)

	got, err := Align(t0.Add(90*time.Second), time.Minute, false, central)
	require.NoError(t, err)
	assert.Equal(t, central, got.Location())
	assert.True(t, got.Equal(t0.Add(time.Minute)))

	kept, err := Align(t0.In(central).Add(90*time.Second), time.Minute, false, nil)
	require.NoError(t, err)
	assert.Equal(t, central, kept.Location())
}

func TestAlignInvalidPeriod(t *testing.T) {
	for _, period := range []time.Duration{0, -time.Second, 1500 * time.Nanosecond} {
		_, err := Align(t0, period, false, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidArgument, "period %s", period)
	}
}
