package validate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/model"
)

func validTask() model.Task {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	return model.Task{
		ID:          "t1",
		Title:       "Valid",
		Status:      model.StatusActive,
		Priority:    model.PriorityMedium,
		Tags:        []string{"ok_tag", "also-ok"},
		CreatedAt:   now,
		UpdatedAt:   now,
		Subtasks:    []model.Subtask{},
		Attachments: []model.Attachment{},
	}
}

func TestTask(t *testing.T) {
	v := New()
	day := func(d int) *time.Time {
		t := time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC)
		return &t
	}

	tests := []struct {
		name   string
		mutate func(*model.Task)
		fields []string
	}{
		{"valid", func(*model.Task) {}, nil},
		{"missing title", func(t *model.Task) { t.Title = "" }, []string{"title"}},
		{"long title", func(t *model.Task) { t.Title = strings.Repeat("x", 256) }, []string{"title"}},
		{"bad status", func(t *model.Task) { t.Status = "done" }, []string{"status"}},
		{"bad priority", func(t *model.Task) { t.Priority = "urgent" }, []string{"priority"}},
		{"bad tag", func(t *model.Task) { t.Tags = []string{"ok", "no spaces"} }, []string{"tags[1]"}},
		{"too many tags", func(t *model.Task) {
			t.Tags = make([]string, 21)
			for i := range t.Tags {
				t.Tags[i] = "t" + strings.Repeat("x", i)
			}
		}, []string{"tags"}},
		{"reminder after due", func(t *model.Task) {
			t.DueDate, t.ReminderDate = day(10), day(11)
		}, []string{"reminderDate"}},
		{"reminder equal to due", func(t *model.Task) {
			t.DueDate, t.ReminderDate = day(10), day(10)
		}, nil},
		{"completedAt without completed", func(t *model.Task) { t.CompletedAt = day(9) }, []string{"completedAt"}},
		{"completed without completedAt", func(t *model.Task) { t.Status = model.StatusCompleted }, []string{"completedAt"}},
		{"subtask without title", func(t *model.Task) {
			t.Subtasks = []model.Subtask{{ID: "s1"}}
		}, []string{"subtasks[0].title"}},
		{"zero interval", func(t *model.Task) {
			t.Recurrence = &model.RecurrenceRule{Pattern: model.PatternDaily}
		}, []string{"recurrence.interval"}},
		{"custom without rule", func(t *model.Task) {
			t.Recurrence = &model.RecurrenceRule{Pattern: model.PatternCustom, Interval: 1}
		}, []string{"recurrence.customRule"}},
		{"end before due", func(t *model.Task) {
			t.DueDate = day(10)
			t.Recurrence = &model.RecurrenceRule{Pattern: model.PatternDaily, Interval: 1, EndDate: day(9)}
		}, nil},
		{"several at once", func(t *model.Task) {
			t.Title = ""
			t.Priority = ""
			t.DueDate, t.ReminderDate = day(10), day(12)
		}, []string{"title", "priority", "reminderDate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(&task)

			err := v.Task(&task)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			var verr *errs.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if len(verr.Errors) != len(tt.fields) {
				t.Errorf("Expected %d violations, got %v", len(tt.fields), verr.Errors)
			}
			for _, f := range tt.fields {
				if !verr.Has(f) {
					t.Errorf("Expected violation on %s, got %v", f, verr.Errors)
				}
			}
		})
	}
}

func TestProject(t *testing.T) {
	v := New()
	valid := model.Project{ID: "p1", Name: "Work", Color: "#ABC", Settings: model.DefaultProjectSettings()}

	tests := []struct {
		name   string
		mutate func(*model.Project)
		field  string
	}{
		{"valid", func(*model.Project) {}, ""},
		{"six digit color", func(p *model.Project) { p.Color = "#a1b2c3" }, ""},
		{"missing name", func(p *model.Project) { p.Name = "" }, "name"},
		{"named color", func(p *model.Project) { p.Color = "blue" }, "color"},
		{"four digit color", func(p *model.Project) { p.Color = "#abcd" }, "color"},
		{"long icon", func(p *model.Project) { p.Icon = "abc" }, "icon"},
		{"bad default tag", func(p *model.Project) { p.Settings.DefaultTags = []string{"a b"} }, "settings.defaultTags[0]"},
		{"bad default priority", func(p *model.Project) { p.Settings.DefaultPriority = "asap" }, "settings.defaultPriority"},
		{"bad sort order", func(p *model.Project) { p.Settings.SortOrder = "random" }, "settings.sortOrder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid.Clone()
			tt.mutate(&p)

			verr := v.CheckProject(&p)
			if tt.field == "" {
				if err := verr.OrNil(); err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if !verr.Has(tt.field) {
				t.Errorf("Expected violation on %s, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestMessages(t *testing.T) {
	v := New()
	task := validTask()
	task.Title = ""
	task.Status = "nope"

	verr := v.CheckTask(&task)
	want := map[string]string{
		"title":  "is required",
		"status": "must be one of: active pending completed archived",
	}
	for _, fe := range verr.Errors {
		if msg, ok := want[fe.Field]; ok && fe.Message != msg {
			t.Errorf("Expected %s message %q, got %q", fe.Field, msg, fe.Message)
		}
	}
}
