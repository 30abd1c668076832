package core

import "time"

// BillingPeriod is the billing-cycle window a usage record covers.
type BillingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarMonth returns the local calendar month containing now: the first
// day at 00:00 through the last day at 23:59:59. The account's real
// subscription anniversary is not used.
func CalendarMonth(now time.Time) BillingPeriod {
	loc := now.Location()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return BillingPeriod{Start: start, End: end}
}

// Today returns [start of local day, now].
func Today(now time.Time) BillingPeriod {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return BillingPeriod{Start: start, End: now}
}

func (p BillingPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// DaysRemaining counts whole days left in the period, including today.
func (p BillingPeriod) DaysRemaining(now time.Time) int {
	if now.After(p.End) {
		return 0
	}
	return int(p.End.Sub(now).Hours()/24) + 1
}

func (p BillingPeriod) Label() string {
	if p.Start.IsZero() {
		return ""
	}
	return p.Start.Format("Jan 2") + " – " + p.End.Format("Jan 2, 2006")
}
