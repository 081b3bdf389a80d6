package tasks

import (
	"time"

	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/recurrence"
)

// nextOccurrence builds the task that replaces a completed recurring one.
// Dates are computed from done's due and reminder dates;
// a task without a due date recurs from its completion time. Nothing is
// spawned past the rule's end date or for patterns without a calculator.
func (m *Manager) nextOccurrence(done model.Task, completedAt time.Time) (model.Task, bool) {
	rule := *done.Recurrence

	base := completedAt
	if done.DueDate != nil {
		base = *done.DueDate
	}
	due, ok := recurrence.NextOccurrence(base, rule)
	if !ok {
		return model.Task{}, false
	}

	var reminder *time.Time
	if done.ReminderDate != nil {
		if r, ok := recurrence.Next(*done.ReminderDate, rule); ok {
			if r.After(due) {
				r = due
			}
			reminder = &r
		}
	}

	r := rule.Clone()
	t := model.Task{
		ID:           m.newID(),
		Title:        done.Title,
		Description:  done.Description,
		Status:       model.StatusActive,
		Priority:     done.Priority,
		ProjectID:    done.ProjectID,
		Tags:         append([]string{}, done.Tags...),
		DueDate:      &due,
		ReminderDate: reminder,
		CreatedAt:    completedAt,
		UpdatedAt:    completedAt,
		Subtasks:     []model.Subtask{},
		Attachments:  []model.Attachment{},
		Recurrence:   &r,
	}

	if err := m.validator.Task(&t); err != nil {
		m.log.Warn("Skipping invalid recurrence", logger.F("from", done.ID), logger.F("error", err))
		return model.Task{}, false
	}
	return t, true
}
