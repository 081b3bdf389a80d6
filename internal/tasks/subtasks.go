package tasks

import (
	"slices"
	"strings"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/model"
)

// AddSubtask appends a subtask at the end of the list
func (m *Manager) AddSubtask(id, title string) (model.Task, error) {
	return m.mutate(id, func(cur model.Task) (Patch, error) {
		subs := slices.Clone(cur.Subtasks)
		subs = append(subs, model.Subtask{
			ID:    m.newID(),
			Title: strings.TrimSpace(title),
			Order: len(subs),
		})
		return Patch{Subtasks: subs}, nil
	})
}

// ToggleSubtask flips a subtask's completion and stamps its own timestamp
func (m *Manager) ToggleSubtask(id, subtaskID string) (model.Task, error) {
	return m.mutate(id, func(cur model.Task) (Patch, error) {
		subs := slices.Clone(cur.Subtasks)
		i := slices.IndexFunc(subs, func(s model.Subtask) bool { return s.ID == subtaskID })
		if i < 0 {
			return Patch{}, errs.NotFound("subtask", subtaskID)
		}
		subs[i].Completed = !subs[i].Completed
		if subs[i].Completed {
			now := m.now()
			subs[i].CompletedAt = &now
		} else {
			subs[i].CompletedAt = nil
		}
		return Patch{Subtasks: subs}, nil
	})
}

// RemoveSubtask deletes a subtask and renumbers the rest from 0
func (m *Manager) RemoveSubtask(id, subtaskID string) (model.Task, error) {
	return m.mutate(id, func(cur model.Task) (Patch, error) {
		subs := slices.DeleteFunc(slices.Clone(cur.Subtasks), func(s model.Subtask) bool {
			return s.ID == subtaskID
		})
		if len(subs) == len(cur.Subtasks) {
			return Patch{}, errs.NotFound("subtask", subtaskID)
		}
		for i := range subs {
			subs[i].Order = i
		}
		return Patch{Subtasks: subs}, nil
	})
}
