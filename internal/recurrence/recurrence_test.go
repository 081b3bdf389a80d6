package recurrence

import (
	"testing"
	"time"

	"github.com/existflow/irontodo/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestNext(t *testing.T) {
	tests := []struct {
		name   string
		base   time.Time
		rule   model.RecurrenceRule
		want   time.Time
		wantOK bool
	}{
		{"daily", date(2024, 3, 1), model.RecurrenceRule{Pattern: model.PatternDaily, Interval: 1}, date(2024, 3, 2), true},
		{"every 3 days", date(2024, 3, 30), model.RecurrenceRule{Pattern: model.PatternDaily, Interval: 3}, date(2024, 4, 2), true},
		{"weekly", date(2024, 3, 1), model.RecurrenceRule{Pattern: model.PatternWeekly, Interval: 1}, date(2024, 3, 8), true},
		{"biweekly", date(2024, 3, 1), model.RecurrenceRule{Pattern: model.PatternWeekly, Interval: 2}, date(2024, 3, 15), true},
		{"monthly", date(2024, 3, 15), model.RecurrenceRule{Pattern: model.PatternMonthly, Interval: 1}, date(2024, 4, 15), true},
		{"monthly overflow", date(2024, 1, 31), model.RecurrenceRule{Pattern: model.PatternMonthly, Interval: 1}, date(2024, 3, 2), true},
		{"yearly", date(2023, 6, 1), model.RecurrenceRule{Pattern: model.PatternYearly, Interval: 1}, date(2024, 6, 1), true},
		{"leap day yearly", date(2024, 2, 29), model.RecurrenceRule{Pattern: model.PatternYearly, Interval: 1}, date(2025, 3, 1), true},
		{"custom", date(2024, 3, 1), model.RecurrenceRule{Pattern: model.PatternCustom, Interval: 1, CustomRule: "x"}, time.Time{}, false},
		{"zero interval", date(2024, 3, 1), model.RecurrenceRule{Pattern: model.PatternDaily}, time.Time{}, false},
		{"unknown pattern", date(2024, 3, 1), model.RecurrenceRule{Pattern: "hourly", Interval: 1}, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Next(tt.base, tt.rule)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNextOccurrenceSkipsExceptions(t *testing.T) {
	rule := model.RecurrenceRule{
		Pattern:  model.PatternDaily,
		Interval: 1,
		// Exceptions match by calendar day, not instant
		Exceptions: []time.Time{
			time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC),
		},
	}

	got, ok := NextOccurrence(date(2024, 3, 1), rule)
	if !ok {
		t.Fatal("Expected an occurrence")
	}
	if want := date(2024, 3, 4); !got.Equal(want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestNextOccurrenceEndDate(t *testing.T) {
	end := date(2024, 3, 10)
	rule := model.RecurrenceRule{Pattern: model.PatternWeekly, Interval: 1, EndDate: &end}

	got, ok := NextOccurrence(date(2024, 3, 1), rule)
	if !ok || !got.Equal(date(2024, 3, 8)) {
		t.Errorf("Expected Mar 8 inside the end date, got %s (ok=%v)", got, ok)
	}

	if _, ok := NextOccurrence(date(2024, 3, 8), rule); ok {
		t.Error("Expected no occurrence past the end date")
	}

	// The end date itself is still allowed
	rule.EndDate = ptr(date(2024, 3, 15))
	if _, ok := NextOccurrence(date(2024, 3, 8), rule); !ok {
		t.Error("Expected an occurrence on the end date")
	}
}

func TestNextOccurrenceAllExcepted(t *testing.T) {
	base := date(2024, 1, 1)
	rule := model.RecurrenceRule{Pattern: model.PatternDaily, Interval: 1}
	for d := 1; d <= maxSkips+2; d++ {
		rule.Exceptions = append(rule.Exceptions, base.AddDate(0, 0, d))
	}

	if _, ok := NextOccurrence(base, rule); ok {
		t.Error("Expected no occurrence when every candidate is an exception")
	}
}

func ptr(t time.Time) *time.Time { return &t }
