package model

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusActive, StatusPending, StatusCompleted, StatusArchived}

// Priority levels for tasks
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities from low (0) to critical (3); unknown values rank -1
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return -1
	}
}

// Pattern is the unit of a recurrence rule
type Pattern string

const (
	PatternDaily   Pattern = "daily"
	PatternWeekly  Pattern = "weekly"
	PatternMonthly Pattern = "monthly"
	PatternYearly  Pattern = "yearly"
	PatternCustom  Pattern = "custom"
)

// RecurrenceRule regenerates a task every Interval units after completion
type RecurrenceRule struct {
	Pattern    Pattern     `json:"pattern" validate:"required,oneof=daily weekly monthly yearly custom"`
	Interval   int         `json:"interval" validate:"min=1,max=365"`
	EndDate    *time.Time  `json:"endDate,omitempty"`
	Exceptions []time.Time `json:"exceptions"`
	CustomRule string      `json:"customRule,omitempty" validate:"required_if=Pattern custom,max=500"`
}

// Subtask is a checklist item inside a task
type Subtask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required,max=255"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Order       int        `json:"order"`
}

// Attachment references a file associated with a task
type Attachment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=255"`
	Path      string    `json:"path" validate:"required"`
	Size      int64     `json:"size" validate:"min=0"`
	MimeType  string    `json:"mimeType,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task represents a single todo item
type Task struct {
	ID           string          `json:"id"`
	Title        string          `json:"title" validate:"required,max=255"`
	Description  string          `json:"description,omitempty" validate:"max=5000"`
	Status       Status          `json:"status" validate:"required,oneof=active pending completed archived"`
	Priority     Priority        `json:"priority" validate:"required,oneof=low medium high critical"`
	ProjectID    string          `json:"projectId,omitempty"`
	Tags         []string        `json:"tags" validate:"max=20,dive,tagname"`
	DueDate      *time.Time      `json:"dueDate,omitempty"`
	ReminderDate *time.Time      `json:"reminderDate,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	Subtasks     []Subtask       `json:"subtasks" validate:"dive"`
	Attachments  []Attachment    `json:"attachments" validate:"dive"`
	Recurrence   *RecurrenceRule `json:"recurrence,omitempty"`
}

// IsOverdue reports whether the task is due strictly before now and still open
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == StatusCompleted || t.Status == StatusArchived {
		return false
	}
	return t.DueDate.Before(now)
}

// IsRecurring reports whether the task carries a recurrence rule
func (t *Task) IsRecurring() bool {
	return t.Recurrence != nil
}

// HasTag reports whether name is in the tag set
func (t *Task) HasTag(name string) bool {
	return slices.Contains(t.Tags, name)
}

// Clone returns a deep copy
func (t Task) Clone() Task {
	out := t
	out.Tags = cloneSlice(t.Tags)
	out.DueDate = cloneTime(t.DueDate)
	out.ReminderDate = cloneTime(t.ReminderDate)
	out.CompletedAt = cloneTime(t.CompletedAt)
	out.Subtasks = make([]Subtask, len(t.Subtasks))
	for i, s := range t.Subtasks {
		s.CompletedAt = cloneTime(s.CompletedAt)
		out.Subtasks[i] = s
	}
	out.Attachments = cloneSlice(t.Attachments)
	if t.Recurrence != nil {
		r := t.Recurrence.Clone()
		out.Recurrence = &r
	}
	return out
}

// Normalize replaces nil containers with empty ones so older documents
// load with the current shape
func (t *Task) Normalize() {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}
	if t.Recurrence != nil && t.Recurrence.Exceptions == nil {
		t.Recurrence.Exceptions = []time.Time{}
	}
}

// Clone returns a deep copy
func (r RecurrenceRule) Clone() RecurrenceRule {
	out := r
	out.EndDate = cloneTime(r.EndDate)
	out.Exceptions = cloneSlice(r.Exceptions)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// cloneSlice copies s, keeping a non-nil empty slice for empty input
func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
