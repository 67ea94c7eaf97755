package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregor-nelson/spx/internal/calendar"
	"github.com/gregor-nelson/spx/internal/poller"
)

type fakePoll struct {
	calls int
	err   error
}

func (p *fakePoll) Run(ctx context.Context) (poller.Summary, error) {
	p.calls++
	return poller.Summary{Contracts: 2, Written: 2}, p.err
}

type fakeEOD struct {
	dates []time.Time
	err   error
}

func (e *fakeEOD) RunEOD(ctx context.Context, tradeDate time.Time) error {
	e.dates = append(e.dates, tradeDate)
	return e.err
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) set(year int, month time.Month, day, hour, minute int) {
	c.t = time.Date(year, month, day, hour, minute, 0, 0, calendar.Location())
}

func testTiming() Timing {
	return Timing{
		PollInterval:   15 * time.Minute,
		FirstPollDelay: 15 * time.Minute,
		EODDelay:       30 * time.Minute,
	}
}

func newTestController(clk *fakeClock) (*Controller, *fakePoll, *fakeEOD) {
	poll := &fakePoll{}
	eod := &fakeEOD{}
	ctrl := New(poll, eod, testTiming(), clk.Now, zerolog.Nop())
	return ctrl, poll, eod
}

func TestHolidayNeverPolls(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.November, 27, 8, 0) // Thanksgiving
	ctrl, poll, eod := newTestController(clk)

	wait := ctrl.step(context.Background())

	assert.Equal(t, StateHoliday, ctrl.State())
	assert.Zero(t, poll.calls)
	assert.Empty(t, eod.dates)
	assert.Positive(t, wait)
}

func TestWeekendIdles(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 6, 12, 0) // Saturday
	ctrl, poll, _ := newTestController(clk)

	wait := ctrl.step(context.Background())

	assert.Equal(t, StateWeekend, ctrl.State())
	assert.Zero(t, poll.calls)
	// Next session is Monday Dec 8; first poll 09:45.
	wake := clk.t.Add(wait)
	assert.Equal(t, time.Date(2025, time.December, 8, 9, 45, 0, 0, calendar.Location()), wake)
}

func TestWaitingForOpen(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 3, 9, 0)
	ctrl, poll, _ := newTestController(clk)

	wait := ctrl.step(context.Background())

	assert.Equal(t, StateWaitingOpen, ctrl.State())
	assert.Zero(t, poll.calls)
	assert.Equal(t, 45*time.Minute, wait)
}

func TestMarketOpenPollsAtInterval(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 3, 10, 0)
	ctrl, poll, _ := newTestController(clk)

	ctrl.step(context.Background())
	assert.Equal(t, StateMarketOpen, ctrl.State())
	assert.Equal(t, 1, poll.calls)

	// Same instant again: no second capture until the interval passes.
	wait := ctrl.step(context.Background())
	assert.Equal(t, 1, poll.calls)
	assert.Equal(t, 15*time.Minute, wait)

	clk.set(2025, time.December, 3, 10, 15)
	ctrl.step(context.Background())
	assert.Equal(t, 2, poll.calls)
}

func TestPollFailureKeepsSessionAlive(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 3, 10, 0)
	poll := &fakePoll{err: errors.New("upstream down")}
	ctrl := New(poll, &fakeEOD{}, testTiming(), clk.Now, zerolog.Nop())

	wait := ctrl.step(context.Background())

	assert.Equal(t, StateMarketOpen, ctrl.State())
	assert.Equal(t, 1, poll.calls)
	assert.Positive(t, wait)

	clk.set(2025, time.December, 3, 10, 15)
	ctrl.step(context.Background())
	assert.Equal(t, 2, poll.calls, "failed capture must not stop the cadence")
}

func TestEODPendingThenRuns(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 3, 16, 10)
	ctrl, poll, eod := newTestController(clk)

	wait := ctrl.step(context.Background())
	assert.Equal(t, StateEODPending, ctrl.State())
	assert.Equal(t, 20*time.Minute, wait)
	assert.Empty(t, eod.dates)

	clk.set(2025, time.December, 3, 16, 45)
	ctrl.step(context.Background())
	assert.Equal(t, StateMarketClosed, ctrl.State())
	require.Len(t, eod.dates, 1)
	assert.Equal(t, time.Date(2025, time.December, 3, 0, 0, 0, 0, calendar.Location()), eod.dates[0])
	assert.Zero(t, poll.calls)

	// EOD runs once per day; the closed state holds until date rollover.
	wait = ctrl.step(context.Background())
	assert.Len(t, eod.dates, 1)
	wake := clk.t.Add(wait)
	assert.Equal(t, time.Date(2025, time.December, 4, 0, 0, 0, 0, calendar.Location()), wake)
}

func TestEODFailureStillMarksDayDone(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 3, 16, 45)
	eod := &fakeEOD{err: errors.New("db unavailable")}
	ctrl := New(&fakePoll{}, eod, testTiming(), clk.Now, zerolog.Nop())

	ctrl.step(context.Background())
	assert.Equal(t, StateMarketClosed, ctrl.State())
	require.Len(t, eod.dates, 1)

	ctrl.step(context.Background())
	assert.Len(t, eod.dates, 1, "failed consolidation must not retry in a loop")
}

func TestEarlyCloseShiftsEOD(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 24, 13, 10) // half day, closes 13:00
	ctrl, _, _ := newTestController(clk)

	wait := ctrl.step(context.Background())
	assert.Equal(t, StateEODPending, ctrl.State())
	assert.Equal(t, 20*time.Minute, wait)
}

func TestDayRolloverResetsState(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 3, 16, 45)
	ctrl, poll, eod := newTestController(clk)

	ctrl.step(context.Background())
	require.Len(t, eod.dates, 1)

	clk.set(2025, time.December, 4, 10, 0)
	ctrl.step(context.Background())
	assert.Equal(t, StateMarketOpen, ctrl.State())
	assert.Equal(t, 1, poll.calls)

	clk.set(2025, time.December, 4, 16, 45)
	ctrl.step(context.Background())
	assert.Len(t, eod.dates, 2, "new day gets its own consolidation")
}

func TestRunStopsOnCancel(t *testing.T) {
	clk := &fakeClock{}
	clk.set(2025, time.December, 6, 12, 0)
	ctrl, _, _ := newTestController(clk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ctrl.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
