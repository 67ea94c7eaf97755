package history

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregor-nelson/spx/internal/calendar"
)

// fakeSource holds canned volumes keyed by lookup tier.
type fakeSource struct {
	nearHour   map[string]int64 // ticker -> volume on the near-time date
	daily      map[string]int64 // "YYYY-MM-DD/ticker" -> volume
	latestAny  map[string]int64 // ticker -> volume
	nearCalls  []time.Time
	dailyCalls []time.Time
}

func dayKey(day time.Time, ticker string) string {
	return day.Format("2006-01-02") + "/" + ticker
}

func (f *fakeSource) IntradayVolumeNear(_ context.Context, ticker string, _, center time.Time, _ time.Duration) (int64, bool, error) {
	f.nearCalls = append(f.nearCalls, center)
	v, ok := f.nearHour[ticker]
	return v, ok, nil
}

func (f *fakeSource) DailyVolume(_ context.Context, day time.Time, ticker string) (int64, bool, error) {
	f.dailyCalls = append(f.dailyCalls, day)
	v, ok := f.daily[dayKey(day, ticker)]
	return v, ok, nil
}

func (f *fakeSource) LatestIntradayVolume(_ context.Context, ticker string, _ time.Time) (int64, bool, error) {
	v, ok := f.latestAny[ticker]
	return v, ok, nil
}

// Wednesday 2025-12-03 10:45 ET; previous trading days are Dec 2 and Dec 1.
var capturedAt = time.Date(2025, 12, 3, 10, 45, 0, 0, calendar.Location())

func newComparator(src *fakeSource) *Comparator {
	return New(src, time.Hour, zerolog.Nop())
}

func TestReferencePrefersSameHourIntraday(t *testing.T) {
	src := &fakeSource{
		nearHour:  map[string]int64{"SPX251219P05000000": 4583},
		daily:     map[string]int64{dayKey(time.Date(2025, 12, 2, 0, 0, 0, 0, calendar.Location()), "SPX251219P05000000"): 9999},
		latestAny: map[string]int64{"SPX251219P05000000": 8888},
	}

	ref, err := newComparator(src).Reference(context.Background(), "SPX251219P05000000", capturedAt)
	require.NoError(t, err)
	assert.Equal(t, SourceYesterdayHour, ref.Source)
	assert.Equal(t, int64(4583), ref.Volume)

	// The same-hour window centers on yesterday at today's time-of-day.
	require.Len(t, src.nearCalls, 1)
	assert.Equal(t, 10, src.nearCalls[0].Hour())
	assert.Equal(t, 45, src.nearCalls[0].Minute())
	assert.Equal(t, 2, src.nearCalls[0].Day())
}

func TestReferenceFallsBackToYesterdayEOD(t *testing.T) {
	yesterday := time.Date(2025, 12, 2, 0, 0, 0, 0, calendar.Location())
	src := &fakeSource{
		daily: map[string]int64{dayKey(yesterday, "X"): 1200},
	}

	ref, err := newComparator(src).Reference(context.Background(), "X", capturedAt)
	require.NoError(t, err)
	assert.Equal(t, SourceYesterdayEOD, ref.Source)
	assert.Equal(t, int64(1200), ref.Volume)
}

func TestReferenceFallsBackToYesterdayAnyHour(t *testing.T) {
	src := &fakeSource{
		latestAny: map[string]int64{"X": 300},
	}

	ref, err := newComparator(src).Reference(context.Background(), "X", capturedAt)
	require.NoError(t, err)
	assert.Equal(t, SourceYesterdayAny, ref.Source)
	assert.Equal(t, int64(300), ref.Volume)
}

func TestReferenceFallsBackToTwoTradingDaysAgo(t *testing.T) {
	twoBack := time.Date(2025, 12, 1, 0, 0, 0, 0, calendar.Location())
	src := &fakeSource{
		daily: map[string]int64{dayKey(twoBack, "X"): 750},
	}

	ref, err := newComparator(src).Reference(context.Background(), "X", capturedAt)
	require.NoError(t, err)
	assert.Equal(t, SourceTwoDaysAgoEOD, ref.Source)
	assert.Equal(t, int64(750), ref.Volume)
}

func TestReferenceNoDataAnywhere(t *testing.T) {
	ref, err := newComparator(&fakeSource{}).Reference(context.Background(), "X", capturedAt)
	require.NoError(t, err)
	assert.Equal(t, SourceNone, ref.Source)
	assert.False(t, ref.Found())
}

func TestReferenceSkipsWeekend(t *testing.T) {
	// Monday 2025-12-08: the previous trading day is Friday Dec 5, and two
	// back is Thursday Dec 4; Saturday and Sunday are never queried.
	monday := time.Date(2025, 12, 8, 11, 0, 0, 0, calendar.Location())
	friday := time.Date(2025, 12, 5, 0, 0, 0, 0, calendar.Location())
	src := &fakeSource{
		daily: map[string]int64{dayKey(friday, "X"): 450},
	}

	ref, err := newComparator(src).Reference(context.Background(), "X", monday)
	require.NoError(t, err)
	assert.Equal(t, SourceYesterdayEOD, ref.Source)
	assert.Equal(t, int64(450), ref.Volume)
	for _, d := range src.dailyCalls {
		wd := d.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
	}
}
