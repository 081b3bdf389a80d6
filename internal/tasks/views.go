package tasks

import (
	"time"

	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/query"
	"github.com/existflow/irontodo/internal/store"
)

// Each view reads the clock once so every task is judged against the same
// instant.

// GetOverdue returns open tasks due strictly before now, earliest first
func (m *Manager) GetOverdue() []model.Task {
	yes := true
	return query.Apply(m.FindAll(),
		&query.Filter{IsOverdue: &yes},
		&query.Sort{Field: query.FieldDueDate, Direction: query.Asc},
		nil, m.now()).Items
}

// GetToday returns non-archived tasks due on the current calendar day
func (m *Manager) GetToday() []model.Task {
	now := m.now()
	start := startOfDay(now)
	return m.dueBetween(now, start, start.AddDate(0, 0, 1))
}

// GetThisWeek returns non-archived tasks due within the next seven days,
// today included
func (m *Manager) GetThisWeek() []model.Task {
	now := m.now()
	start := startOfDay(now)
	return m.dueBetween(now, start, start.AddDate(0, 0, 7))
}

// dueBetween returns tasks with from <= due < to
func (m *Manager) dueBetween(now, from, to time.Time) []model.Task {
	before := to.Add(-time.Nanosecond)
	f := &query.Filter{
		Status:    []model.Status{model.StatusActive, model.StatusPending, model.StatusCompleted},
		DueAfter:  &from,
		DueBefore: &before,
	}
	return query.Apply(m.FindAll(), f,
		&query.Sort{Field: query.FieldDueDate, Direction: query.Asc},
		nil, now).Items
}

// CountByStatus returns a count for every status, zero included
func (m *Manager) CountByStatus() map[model.Status]int {
	counts := make(map[model.Status]int, len(model.Statuses))
	for _, s := range model.Statuses {
		counts[s] = 0
	}
	for _, t := range m.FindAll() {
		counts[t.Status]++
	}
	return counts
}

// ArchiveOldCompleted archives tasks completed more than days ago and
// returns how many changed
func (m *Manager) ArchiveOldCompleted(days int) (int, error) {
	now := m.now()
	cutoff := now.AddDate(0, 0, -days)

	var archived []string
	err := m.store.Update(func(tx *store.Tx) error {
		for _, t := range tx.Tasks() {
			if t.Status != model.StatusCompleted || t.CompletedAt == nil || !t.CompletedAt.Before(cutoff) {
				continue
			}
			t.Status = model.StatusArchived
			t.CompletedAt = nil
			t.UpdatedAt = advance(t.UpdatedAt, now)
			if err := tx.UpdateTask(t); err != nil {
				return err
			}
			archived = append(archived, t.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(archived) > 0 {
		m.log.Info("Archived old completed tasks", logger.F("count", len(archived)), logger.F("days", days))
	}
	for _, id := range archived {
		m.notify(model.Change{Entity: "task", Op: model.OpUpdated, ID: id})
	}
	return len(archived), nil
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
