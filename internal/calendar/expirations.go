package calendar

import (
	"sort"
	"time"
)

// Expiration pairs a monthly expiration date with its days-to-expiration
// relative to a reference date.
type Expiration struct {
	Date time.Time
	DTE  int
}

// ThirdFriday returns the standard monthly expiration for a month.
func ThirdFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, eastern)
	daysUntilFriday := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, daysUntilFriday+14)
}

// MonthlyExpirations lists the next N monthly expirations on or after start.
func MonthlyExpirations(start time.Time, monthsAhead int) []time.Time {
	start = DateOf(start)
	year, month := start.Year(), start.Month()

	expirations := make([]time.Time, 0, monthsAhead)
	for i := 0; i < monthsAhead; i++ {
		exp := ThirdFriday(year, month)
		if !exp.Before(start) {
			expirations = append(expirations, exp)
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	if len(expirations) < monthsAhead {
		expirations = append(expirations, ThirdFriday(year, month))
	}
	return expirations
}

// TargetExpirations returns all monthly expirations inside the DTE window,
// sorted nearest first. When the window is empty it falls back to the nearest
// future expiration so a poll always has at least one target.
func TargetExpirations(reference time.Time, minDTE, maxDTE int) []Expiration {
	reference = DateOf(reference)
	candidates := MonthlyExpirations(reference, 6)

	var inWindow []Expiration
	var nearest *Expiration
	for _, exp := range candidates {
		dte := DaysBetween(reference, exp)
		switch {
		case dte >= minDTE && dte <= maxDTE:
			inWindow = append(inWindow, Expiration{Date: exp, DTE: dte})
		case dte > 0 && nearest == nil:
			nearest = &Expiration{Date: exp, DTE: dte}
		}
	}

	if len(inWindow) > 0 {
		sort.Slice(inWindow, func(i, j int) bool { return inWindow[i].DTE < inWindow[j].DTE })
		return inWindow
	}
	if nearest != nil {
		return []Expiration{*nearest}
	}
	if len(candidates) > 0 {
		dte := DaysBetween(reference, candidates[0])
		return []Expiration{{Date: candidates[0], DTE: dte}}
	}
	return nil
}
