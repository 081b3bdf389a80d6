// Package recurrence computes when a recurring task comes due next.
package recurrence

import (
	"time"

	"github.com/existflow/irontodo/internal/model"
)

// maxSkips bounds how many exception dates NextOccurrence steps over
const maxSkips = 366

// Next returns base advanced by one interval of the rule's pattern.
// Months and years use calendar arithmetic, so Jan 31 + 1 month
// overflows into early March the same way time.AddDate does. Custom and
// unknown patterns have no built-in calculation and return false.
func Next(base time.Time, rule model.RecurrenceRule) (time.Time, bool) {
	n := rule.Interval
	if n < 1 {
		return time.Time{}, false
	}

	switch rule.Pattern {
	case model.PatternDaily:
		return base.AddDate(0, 0, n), true
	case model.PatternWeekly:
		return base.AddDate(0, 0, 7*n), true
	case model.PatternMonthly:
		return base.AddDate(0, n, 0), true
	case model.PatternYearly:
		return base.AddDate(n, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// NextOccurrence is Next plus the rule's limits: dates falling on an
// exception day are skipped, and nothing past EndDate is returned.
func NextOccurrence(base time.Time, rule model.RecurrenceRule) (time.Time, bool) {
	next, ok := Next(base, rule)
	for skips := 0; ok && isException(next, rule.Exceptions); skips++ {
		if skips >= maxSkips {
			return time.Time{}, false
		}
		next, ok = Next(next, rule)
	}
	if !ok {
		return time.Time{}, false
	}
	if rule.EndDate != nil && next.After(*rule.EndDate) {
		return time.Time{}, false
	}
	return next, true
}

func isException(t time.Time, exceptions []time.Time) bool {
	for _, ex := range exceptions {
		if sameDay(t, ex.In(t.Location())) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
