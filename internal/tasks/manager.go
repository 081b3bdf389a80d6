// Package tasks implements the task manager: validated creation and
// mutation of tasks, recurrence spawning and tag reference counting.
package tasks

import (
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/query"
	"github.com/existflow/irontodo/internal/store"
	"github.com/existflow/irontodo/internal/validate"
	"github.com/google/uuid"
)

// Draft is the input to Create
type Draft struct {
	Title        string
	Description  string
	Priority     model.Priority // empty uses the project's or manager's default
	ProjectID    string
	Tags         []string // empty uses the project's default tags
	DueDate      *time.Time
	ReminderDate *time.Time
	Subtasks     []string // titles, ordered
	Attachments  []model.Attachment
	Recurrence   *model.RecurrenceRule
}

// Patch lists the fields to change; nil fields are left alone
type Patch struct {
	Title       *string
	Description *string
	Status      *model.Status
	Priority    *model.Priority
	ProjectID   *string // points at "" to detach from the project
	Tags        []string // nil leaves tags unchanged, empty clears them

	DueDate           *time.Time
	ClearDueDate      bool
	ReminderDate      *time.Time
	ClearReminderDate bool

	Subtasks    []model.Subtask    // nil leaves subtasks unchanged
	Attachments []model.Attachment // nil leaves attachments unchanged

	Recurrence      *model.RecurrenceRule
	ClearRecurrence bool
}

// Options configures a Manager
type Options struct {
	Logger          *logger.Logger
	Validator       *validate.Validator
	DefaultPriority model.Priority
	Now             func() time.Time
	NewID           func() string
	OnChange        func(model.Change) // called after each committed mutation
}

// Manager holds no task state; the store is the single source of truth
type Manager struct {
	store           *store.Store
	log             *logger.Logger
	validator       *validate.Validator
	defaultPriority model.Priority
	now             func() time.Time
	newID           func() string
	onChange        func(model.Change)
}

// New creates a task manager over s
func New(s *store.Store, opts Options) *Manager {
	m := &Manager{
		store:           s,
		log:             opts.Logger,
		validator:       opts.Validator,
		defaultPriority: opts.DefaultPriority,
		now:             opts.Now,
		newID:           opts.NewID,
		onChange:        opts.OnChange,
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	m.log = m.log.WithFields(logger.F("component", "tasks"))
	if m.validator == nil {
		m.validator = validate.New()
	}
	if m.defaultPriority.Rank() < 0 {
		if m.defaultPriority != "" {
			m.log.Warn("Unknown default priority, using medium", logger.F("priority", m.defaultPriority))
		}
		m.defaultPriority = model.PriorityMedium
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = func() string { return uuid.New().String() }
	}
	return m
}

// Create validates the draft and stores a new active task
func (m *Manager) Create(d Draft) (model.Task, error) {
	now := m.now()
	t := model.Task{
		ID:           m.newID(),
		Title:        strings.TrimSpace(d.Title),
		Description:  d.Description,
		Status:       model.StatusActive,
		Priority:     d.Priority,
		ProjectID:    d.ProjectID,
		Tags:         normalizeTags(d.Tags),
		DueDate:      cloneTime(d.DueDate),
		ReminderDate: cloneTime(d.ReminderDate),
		CreatedAt:    now,
		UpdatedAt:    now,
		Subtasks:     make([]model.Subtask, 0, len(d.Subtasks)),
		Attachments:  m.prepareAttachments(d.Attachments, now),
	}
	for i, title := range d.Subtasks {
		t.Subtasks = append(t.Subtasks, model.Subtask{
			ID:    m.newID(),
			Title: strings.TrimSpace(title),
			Order: i,
		})
	}
	if d.Recurrence != nil {
		r := d.Recurrence.Clone()
		t.Recurrence = &r
	}

	err := m.store.Update(func(tx *store.Tx) error {
		verr := &errs.ValidationError{}
		if t.ProjectID != "" {
			if p, ok := tx.Project(t.ProjectID); ok {
				if t.Priority == "" {
					t.Priority = p.Settings.DefaultPriority
				}
				if len(t.Tags) == 0 {
					t.Tags = normalizeTags(p.Settings.DefaultTags)
				}
			} else {
				verr.Add("projectId", "project does not exist", t.ProjectID)
			}
		}
		if t.Priority == "" {
			t.Priority = m.defaultPriority
		}
		t.Normalize()

		verr.Errors = append(verr.Errors, m.validator.CheckTask(&t).Errors...)
		if err := verr.OrNil(); err != nil {
			return err
		}

		if err := tx.CreateTask(t); err != nil {
			return err
		}
		return retainTags(tx, t.Tags, now)
	})
	if err != nil {
		m.log.Debug("Task rejected", logger.F("title", t.Title), logger.F("error", err))
		return model.Task{}, err
	}

	m.log.Info("Task created", logger.F("id", t.ID), logger.F("title", t.Title))
	m.notify(model.Change{Entity: "task", Op: model.OpCreated, ID: t.ID})
	return t, nil
}

// Update merges p over the task. Completing a recurring task spawns its
// next occurrence in the same commit.
func (m *Manager) Update(id string, p Patch) (model.Task, error) {
	return m.mutate(id, func(model.Task) (Patch, error) { return p, nil })
}

// mutate derives a patch from the current record and applies it inside one
// store transaction, so read-modify-write helpers cannot interleave
func (m *Manager) mutate(id string, derive func(cur model.Task) (Patch, error)) (model.Task, error) {
	var (
		updated model.Task
		spawned *model.Task
	)

	err := m.store.Update(func(tx *store.Tx) error {
		cur, ok := tx.Task(id)
		if !ok {
			return errs.NotFound("task", id)
		}
		p, err := derive(cur)
		if err != nil {
			return err
		}

		now := m.now()
		next := cur.Clone()
		m.apply(&next, p, now)
		next.UpdatedAt = advance(cur.UpdatedAt, now)

		wasDone := cur.Status == model.StatusCompleted
		isDone := next.Status == model.StatusCompleted
		switch {
		case isDone && !wasDone:
			next.CompletedAt = &now
		case !isDone:
			next.CompletedAt = nil
		}

		verr := m.validator.CheckTask(&next)
		if next.ProjectID != "" && next.ProjectID != cur.ProjectID {
			if _, ok := tx.Project(next.ProjectID); !ok {
				verr.Add("projectId", "project does not exist", next.ProjectID)
			}
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		if err := tx.UpdateTask(next); err != nil {
			return err
		}

		added, removed := diffTags(cur.Tags, next.Tags)
		if err := retainTags(tx, added, now); err != nil {
			return err
		}
		if err := releaseTags(tx, removed); err != nil {
			return err
		}

		if isDone && !wasDone && next.Recurrence != nil {
			// The schedule continues from the dates the task had before
			// this patch, not from dates moved in the same call
			basis := next
			basis.DueDate, basis.ReminderDate = cur.DueDate, cur.ReminderDate
			if s, ok := m.nextOccurrence(basis, now); ok {
				if err := tx.CreateTask(s); err != nil {
					return err
				}
				if err := retainTags(tx, s.Tags, now); err != nil {
					return err
				}
				spawned = &s
			}
		}

		updated = next
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}

	m.log.Info("Task updated", logger.F("id", id), logger.F("status", updated.Status))
	m.notify(model.Change{Entity: "task", Op: model.OpUpdated, ID: id})
	if spawned != nil {
		m.log.Info("Recurring task spawned",
			logger.F("from", id),
			logger.F("id", spawned.ID),
			logger.F("due", spawned.DueDate))
		m.notify(model.Change{Entity: "task", Op: model.OpCreated, ID: spawned.ID})
	}
	return updated, nil
}

func (m *Manager) apply(t *model.Task, p Patch, now time.Time) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.Tags != nil {
		t.Tags = normalizeTags(p.Tags)
	}

	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = cloneTime(p.DueDate)
	}
	if p.ClearReminderDate {
		t.ReminderDate = nil
	} else if p.ReminderDate != nil {
		t.ReminderDate = cloneTime(p.ReminderDate)
	}

	if p.Subtasks != nil {
		subs := make([]model.Subtask, len(p.Subtasks))
		for i, s := range p.Subtasks {
			if s.ID == "" {
				s.ID = m.newID()
			}
			s.Title = strings.TrimSpace(s.Title)
			s.CompletedAt = cloneTime(s.CompletedAt)
			subs[i] = s
		}
		t.Subtasks = subs
	}
	if p.Attachments != nil {
		t.Attachments = m.prepareAttachments(p.Attachments, now)
	}

	if p.ClearRecurrence {
		t.Recurrence = nil
	} else if p.Recurrence != nil {
		r := p.Recurrence.Clone()
		t.Recurrence = &r
	}
	t.Normalize()
}

func (m *Manager) prepareAttachments(in []model.Attachment, now time.Time) []model.Attachment {
	out := make([]model.Attachment, len(in))
	for i, a := range in {
		if a.ID == "" {
			a.ID = m.newID()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		out[i] = a
	}
	return out
}

// Delete removes the task and releases its tags; false when id is unknown
func (m *Manager) Delete(id string) (bool, error) {
	var found bool
	err := m.store.Update(func(tx *store.Tx) error {
		cur, ok := tx.Task(id)
		if !ok {
			return nil
		}
		found = tx.DeleteTask(id)
		return releaseTags(tx, cur.Tags)
	})
	if err != nil || !found {
		return false, err
	}

	m.log.Info("Task deleted", logger.F("id", id))
	m.notify(model.Change{Entity: "task", Op: model.OpDeleted, ID: id})
	return true, nil
}

// FindByID returns a copy of the task
func (m *Manager) FindByID(id string) (model.Task, bool) {
	return m.store.GetTask(id)
}

// FindAll returns copies of every task in storage order
func (m *Manager) FindAll() []model.Task {
	return m.store.ListTasks()
}

// Count returns the number of tasks
func (m *Manager) Count() int {
	var n int
	_ = m.store.View(func(r store.Reader) error {
		n = len(r.Tasks())
		return nil
	})
	return n
}

// Find filters, sorts and paginates tasks
func (m *Manager) Find(f *query.Filter, s *query.Sort, p *query.Pagination) query.Page {
	return query.Apply(m.FindAll(), f, s, p, m.now())
}

// ToggleComplete flips between completed and active
func (m *Manager) ToggleComplete(id string) (model.Task, error) {
	return m.mutate(id, func(cur model.Task) (Patch, error) {
		status := model.StatusCompleted
		if cur.Status == model.StatusCompleted {
			status = model.StatusActive
		}
		return Patch{Status: &status}, nil
	})
}

func (m *Manager) notify(c model.Change) {
	if m.onChange != nil {
		m.onChange(c)
	}
}

// advance keeps UpdatedAt strictly increasing even when the clock does not
func advance(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
