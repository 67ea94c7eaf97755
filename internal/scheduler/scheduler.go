package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gregor-nelson/spx/internal/calendar"
	"github.com/gregor-nelson/spx/internal/logging"
	"github.com/gregor-nelson/spx/internal/poller"
	"github.com/gregor-nelson/spx/internal/retry"
)

// State names the scheduler's position in the trading day.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateWeekend      State = "WEEKEND"
	StateHoliday      State = "HOLIDAY"
	StateWaitingOpen  State = "WAITING_FOR_OPEN"
	StateMarketOpen   State = "MARKET_OPEN"
	StateEODPending   State = "EOD_PENDING"
	StateEODRunning   State = "EOD_RUNNING"
	StateMarketClosed State = "MARKET_CLOSED"
)

// PollRunner executes one capture cycle.
type PollRunner interface {
	Run(ctx context.Context) (poller.Summary, error)
}

// EODRunner consolidates a finished trading day and prunes old rows.
type EODRunner interface {
	RunEOD(ctx context.Context, tradeDate time.Time) error
}

// Timing holds the cadence knobs for a trading session.
type Timing struct {
	PollInterval   time.Duration
	FirstPollDelay time.Duration
	EODDelay       time.Duration
}

// dayState tracks per-day progress and resets on date rollover.
type dayState struct {
	date     time.Time
	polls    int
	lastPoll time.Time
	eodDone  bool
}

// Controller drives capture and end-of-day work around the market
// session. It never exits on poll or EOD failures, only on context
// cancellation.
type Controller struct {
	poll   PollRunner
	eod    EODRunner
	timing Timing
	clock  func() time.Time
	logger zerolog.Logger

	state State
	day   dayState
}

// New constructs a scheduler controller. clock may be nil, in which
// case wall time in the market's timezone is used.
func New(poll PollRunner, eod EODRunner, timing Timing, clock func() time.Time, logger zerolog.Logger) *Controller {
	if clock == nil {
		clock = calendar.Now
	}
	return &Controller{
		poll:   poll,
		eod:    eod,
		timing: timing,
		clock:  clock,
		logger: logging.Component(logger, "scheduler"),
		state:  StateInitializing,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return c.state
}

// Run executes the scheduling loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info().Msg("scheduler starting")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait := c.step(ctx)
		if wait > 0 {
			if err := retry.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
}

// step evaluates the clock once, performs any due work, and returns how
// long to sleep before the next evaluation.
func (c *Controller) step(ctx context.Context) time.Duration {
	now := c.clock()
	today := calendar.DateOf(now)

	if !today.Equal(c.day.date) {
		c.day = dayState{date: today}
	}

	if calendar.IsWeekend(now) {
		return c.idleUntilNextSession(now, StateWeekend)
	}
	if calendar.IsHoliday(now) {
		return c.idleUntilNextSession(now, StateHoliday)
	}

	firstPoll := calendar.FirstPollTime(today, c.timing.FirstPollDelay)
	sessionClose := calendar.SessionClose(today)
	eodAt := calendar.EODTime(today, c.timing.EODDelay)

	switch {
	case now.Before(firstPoll):
		c.setState(StateWaitingOpen)
		return firstPoll.Sub(now)

	case now.Before(sessionClose):
		c.setState(StateMarketOpen)
		return c.maybePoll(ctx, now, sessionClose)

	case !c.day.eodDone && now.Before(eodAt):
		c.setState(StateEODPending)
		return eodAt.Sub(now)

	case !c.day.eodDone:
		c.runEOD(ctx, today)
		c.setState(StateMarketClosed)
		return untilMidnight(now)

	default:
		c.setState(StateMarketClosed)
		return untilMidnight(now)
	}
}

// maybePoll runs a capture when one is due and returns the wait until
// the next one. Poll failures are logged; the session continues.
func (c *Controller) maybePoll(ctx context.Context, now, sessionClose time.Time) time.Duration {
	next := c.day.lastPoll.Add(c.timing.PollInterval)
	if c.day.polls > 0 && now.Before(next) {
		return minDuration(next.Sub(now), sessionClose.Sub(now))
	}

	summary, err := c.poll.Run(ctx)
	c.day.polls++
	c.day.lastPoll = now
	if err != nil {
		c.logger.Error().Err(err).Int("polls_today", c.day.polls).Msg("capture cycle failed")
	} else {
		c.logger.Info().
			Int("polls_today", c.day.polls).
			Int("contracts", summary.Contracts).
			Int("alerts", summary.Alerts).
			Msg("capture cycle done")
	}

	return minDuration(c.timing.PollInterval, sessionClose.Sub(c.clock()))
}

// runEOD consolidates the day exactly once. The day is marked done even
// on failure so a broken consolidation cannot loop hot until midnight.
func (c *Controller) runEOD(ctx context.Context, tradeDate time.Time) {
	c.setState(StateEODRunning)
	c.day.eodDone = true

	if err := c.eod.RunEOD(ctx, tradeDate); err != nil {
		c.logger.Error().Err(err).Str("trade_date", calendar.DateString(tradeDate)).Msg("end-of-day run failed")
		return
	}
	c.logger.Info().Str("trade_date", calendar.DateString(tradeDate)).Msg("end-of-day run complete")
}

func (c *Controller) idleUntilNextSession(now time.Time, state State) time.Duration {
	c.setState(state)
	return c.untilNextSession(now)
}

func (c *Controller) untilNextSession(now time.Time) time.Duration {
	next := calendar.NextTradingDay(calendar.DateOf(now))
	wake := calendar.FirstPollTime(next, c.timing.FirstPollDelay)
	d := wake.Sub(now)
	if d < time.Minute {
		d = time.Minute
	}
	return d
}

// untilMidnight holds MARKET_CLOSED until the date rolls over, so the next
// evaluation recomputes weekend/holiday/early-close status from scratch.
func untilMidnight(now time.Time) time.Duration {
	next := calendar.DateOf(now).AddDate(0, 0, 1)
	d := next.Sub(now)
	if d < time.Minute {
		d = time.Minute
	}
	return d
}

func (c *Controller) setState(next State) {
	if c.state == next {
		return
	}
	c.logger.Info().Str("from", string(c.state)).Str("to", string(next)).Msg("state transition")
	c.state = next
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
