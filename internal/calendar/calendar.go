package calendar

import (
	"math"
	"time"
)

// Session time constants (Eastern Time).
const (
	openHour         = 9
	openMinute       = 30
	closeHour        = 16
	closeMinute      = 0
	earlyCloseHour   = 13
	earlyCloseMinute = 0
)

// marketHolidays lists full closure days. Dates outside the covered years are
// treated as having no holidays; weekends are still recognised.
var marketHolidays = map[string]struct{}{
	// 2025
	"2025-01-01": {}, // New Year's Day
	"2025-01-20": {}, // MLK Day
	"2025-02-17": {}, // Washington's Birthday
	"2025-04-18": {}, // Good Friday
	"2025-05-26": {}, // Memorial Day
	"2025-06-19": {}, // Juneteenth
	"2025-07-04": {}, // Independence Day
	"2025-09-01": {}, // Labor Day
	"2025-11-27": {}, // Thanksgiving
	"2025-12-25": {}, // Christmas

	// 2026
	"2026-01-01": {},
	"2026-01-19": {},
	"2026-02-16": {},
	"2026-04-03": {},
	"2026-05-25": {},
	"2026-06-19": {},
	"2026-07-03": {},
	"2026-09-07": {},
	"2026-11-26": {},
	"2026-12-25": {},

	// 2027
	"2027-01-01": {},
	"2027-01-18": {},
	"2027-02-15": {},
	"2027-03-26": {},
	"2027-05-31": {},
	"2027-06-18": {},
	"2027-07-05": {},
	"2027-09-06": {},
	"2027-11-25": {},
	"2027-12-24": {},
}

// earlyCloseDays lists 1:00 PM ET close days.
var earlyCloseDays = map[string]struct{}{
	"2025-07-03": {}, // Day before Independence Day
	"2025-11-28": {}, // Day after Thanksgiving
	"2025-12-24": {}, // Christmas Eve
	"2026-11-27": {},
	"2026-12-24": {},
	"2027-11-26": {},
}

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("calendar: load America/New_York: " + err.Error())
	}
	eastern = loc
}

// Location returns the exchange timezone (America/New_York).
func Location() *time.Location {
	return eastern
}

// Now returns the current time in Eastern Time.
func Now() time.Time {
	return time.Now().In(eastern)
}

// DateOf truncates a time to its Eastern calendar date at midnight.
func DateOf(t time.Time) time.Time {
	et := t.In(eastern)
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, eastern)
}

// At builds an Eastern wall-clock time on the given date.
func At(d time.Time, hour, minute int) time.Time {
	et := d.In(eastern)
	return time.Date(et.Year(), et.Month(), et.Day(), hour, minute, 0, 0, eastern)
}

// DateString formats a date as YYYY-MM-DD in Eastern Time.
func DateString(t time.Time) string {
	return t.In(eastern).Format("2006-01-02")
}

// DaysBetween returns the calendar-day difference between two Eastern dates.
// Midnight-to-midnight spans are 24h give or take an hour across DST
// transitions, so rounding recovers the exact day count.
func DaysBetween(from, to time.Time) int {
	hours := DateOf(to).Sub(DateOf(from)).Hours()
	return int(math.Round(hours / 24))
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.In(eastern).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether the date is a full market closure day.
func IsHoliday(d time.Time) bool {
	_, ok := marketHolidays[DateString(d)]
	return ok
}

// IsEarlyClose reports whether the session closes at 1:00 PM ET.
func IsEarlyClose(d time.Time) bool {
	_, ok := earlyCloseDays[DateString(d)]
	return ok
}

// IsTradingDay reports whether the market is open at all on the date.
func IsTradingDay(d time.Time) bool {
	return !IsWeekend(d) && !IsHoliday(d)
}

// SessionOpen returns the scheduled open time for the date.
func SessionOpen(d time.Time) time.Time {
	return At(d, openHour, openMinute)
}

// SessionClose returns the scheduled close time, honouring early closes.
func SessionClose(d time.Time) time.Time {
	if IsEarlyClose(d) {
		return At(d, earlyCloseHour, earlyCloseMinute)
	}
	return At(d, closeHour, closeMinute)
}

// FirstPollTime returns session open plus the provider data delay.
func FirstPollTime(d time.Time, dataDelay time.Duration) time.Time {
	return SessionOpen(d).Add(dataDelay)
}

// EODTime returns session close plus the settlement delay.
func EODTime(d time.Time, settleDelay time.Duration) time.Time {
	return SessionClose(d).Add(settleDelay)
}

// NextTradingDay advances one day at a time until a trading day is found.
func NextTradingDay(d time.Time) time.Time {
	candidate := DateOf(d).AddDate(0, 0, 1)
	for i := 0; i < 10; i++ {
		if IsTradingDay(candidate) {
			return candidate
		}
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// PrevTradingDay walks backwards until a trading day is found.
func PrevTradingDay(d time.Time) time.Time {
	candidate := DateOf(d).AddDate(0, 0, -1)
	for i := 0; i < 10; i++ {
		if IsTradingDay(candidate) {
			return candidate
		}
		candidate = candidate.AddDate(0, 0, -1)
	}
	return candidate
}
