package tasks

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/query"
	"github.com/existflow/irontodo/internal/store"
)

// clock is a manually advanced time source
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store   *store.Store
	tasks   *Manager
	clock   *clock
	changes []model.Change
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{clock: &clock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}}
	f.store = store.New(store.Options{Dir: t.TempDir(), SaveDebounce: time.Hour, Now: f.clock.Now})
	if err := f.store.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { _ = f.store.Destroy() })

	n := 0
	f.tasks = New(f.store, Options{
		Now: f.clock.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		},
		OnChange: func(c model.Change) { f.changes = append(f.changes, c) },
	})
	return f
}

func (f *fixture) create(t *testing.T, d Draft) model.Task {
	t.Helper()
	task, err := f.tasks.Create(d)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", d.Title, err)
	}
	return task
}

func (f *fixture) tagCount(name string) int {
	tag, ok := f.store.GetTag(name)
	if !ok {
		return 0
	}
	return tag.UsageCount
}

func (f *fixture) days(n int) *time.Time {
	t := f.clock.Now().AddDate(0, 0, n)
	return &t
}

func checkCompletedAt(t *testing.T, task model.Task) {
	t.Helper()
	if (task.CompletedAt != nil) != (task.Status == model.StatusCompleted) {
		t.Errorf("Expected completedAt set iff completed; status=%s completedAt=%v", task.Status, task.CompletedAt)
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	task := f.create(t, Draft{
		Title:    "  Write report  ",
		Priority: model.PriorityHigh,
		Tags:     []string{"work", "writing", "work", " "},
		Subtasks: []string{"Outline", "Draft"},
		DueDate:  f.days(2),
	})

	got, ok := f.tasks.FindByID(task.ID)
	if !ok {
		t.Fatal("Expected to find created task")
	}
	if got.Title != "Write report" {
		t.Errorf("Expected trimmed title, got %q", got.Title)
	}
	if got.Status != model.StatusActive {
		t.Errorf("Expected status active, got %s", got.Status)
	}
	if got.Priority != model.PriorityHigh {
		t.Errorf("Expected priority high, got %s", got.Priority)
	}
	if fmt.Sprint(got.Tags) != "[work writing]" {
		t.Errorf("Expected deduplicated tags [work writing], got %v", got.Tags)
	}
	if len(got.Subtasks) != 2 || got.Subtasks[1].Order != 1 || got.Subtasks[1].Title != "Draft" {
		t.Errorf("Expected ordered subtasks, got %+v", got.Subtasks)
	}
	if !got.CreatedAt.Equal(f.clock.Now()) || !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("Expected timestamps at now, got created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
	if f.tagCount("work") != 1 || f.tagCount("writing") != 1 {
		t.Errorf("Expected tags counted once, got work=%d writing=%d", f.tagCount("work"), f.tagCount("writing"))
	}
	if len(f.changes) != 1 || f.changes[0].Op != model.OpCreated {
		t.Errorf("Expected one created notification, got %+v", f.changes)
	}
}

func TestCreateDefaultsPriority(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, Draft{Title: "Plain"})
	if task.Priority != model.PriorityMedium {
		t.Errorf("Expected default priority medium, got %s", task.Priority)
	}
}

func TestCreateCollectsAllViolations(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.Create(Draft{
		Title:        "",
		Tags:         []string{"has space"},
		DueDate:      f.days(1),
		ReminderDate: f.days(2),
		ProjectID:    "missing",
	})
	if !errs.IsValidation(err) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	verr := err.(*errs.ValidationError)
	for _, field := range []string{"title", "tags[0]", "reminderDate", "projectId"} {
		if !verr.Has(field) {
			t.Errorf("Expected a violation on %s, got %v", field, verr.Errors)
		}
	}
	if n := f.tasks.Count(); n != 0 {
		t.Errorf("Expected nothing stored, got %d tasks", n)
	}
	if f.tagCount("has space") != 0 {
		t.Error("Expected no tag created for a rejected task")
	}
}

func TestCreateUsesProjectDefaults(t *testing.T) {
	f := newFixture(t)
	settings := model.DefaultProjectSettings()
	settings.DefaultPriority = model.PriorityCritical
	settings.DefaultTags = []string{"ops"}
	if _, err := f.store.CreateProject(model.Project{ID: "p1", Name: "Ops", Color: "#000", Settings: settings}); err != nil {
		t.Fatal(err)
	}

	task := f.create(t, Draft{Title: "Rotate keys", ProjectID: "p1"})
	if task.Priority != model.PriorityCritical {
		t.Errorf("Expected project default priority, got %s", task.Priority)
	}
	if fmt.Sprint(task.Tags) != "[ops]" {
		t.Errorf("Expected project default tags, got %v", task.Tags)
	}

	explicit := f.create(t, Draft{Title: "Explicit", ProjectID: "p1", Priority: model.PriorityLow, Tags: []string{"mine"}})
	if explicit.Priority != model.PriorityLow || fmt.Sprint(explicit.Tags) != "[mine]" {
		t.Errorf("Expected explicit values to win, got %s %v", explicit.Priority, explicit.Tags)
	}
}

func TestNoOpUpdateAdvancesUpdatedAt(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, Draft{Title: "Stable", Tags: []string{"a"}})

	// The clock is frozen; updatedAt must still move forward
	first, err := f.tasks.Update(task.ID, Patch{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.tasks.Update(task.ID, Patch{})
	if err != nil {
		t.Fatal(err)
	}

	if !first.UpdatedAt.After(task.UpdatedAt) || !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("Expected updatedAt to advance: %v, %v, %v", task.UpdatedAt, first.UpdatedAt, second.UpdatedAt)
	}
	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical records apart from updatedAt:\n%+v\n%+v", first, second)
	}
	if f.tagCount("a") != 1 {
		t.Errorf("Expected tag count unchanged, got %d", f.tagCount("a"))
	}
}

func TestUpdateFields(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, Draft{Title: "Old", DueDate: f.days(3), ReminderDate: f.days(2)})

	title := "New"
	prio := model.PriorityCritical
	got, err := f.tasks.Update(task.ID, Patch{Title: &title, Priority: &prio, ClearReminderDate: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "New" || got.Priority != model.PriorityCritical {
		t.Errorf("Expected title and priority updated, got %q %s", got.Title, got.Priority)
	}
	if got.ReminderDate != nil {
		t.Errorf("Expected reminder cleared, got %v", got.ReminderDate)
	}
	if got.DueDate == nil || !got.DueDate.Equal(*task.DueDate) {
		t.Errorf("Expected due date untouched, got %v", got.DueDate)
	}
}

func TestUpdateRevalidatesMergedRecord(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, Draft{Title: "Remind me", DueDate: f.days(5), ReminderDate: f.days(4)})

	// Moving only the due date below the existing reminder must fail
	_, err := f.tasks.Update(task.ID, Patch{DueDate: f.days(1)})
	if !errs.IsValidation(err) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	got, _ := f.tasks.FindByID(task.ID)
	if !got.DueDate.Equal(*task.DueDate) {
		t.Errorf("Expected due date unchanged after rejection, got %v", got.DueDate)
	}
}

func TestUpdateUnknownTask(t *testing.T) {
	f := newFixture(t)
	if _, err := f.tasks.Update("nope", Patch{}); !errs.IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
	ok, err := f.tasks.Delete("nope")
	if ok || err != nil {
		t.Errorf("Expected (false, nil) deleting unknown task, got (%v, %v)", ok, err)
	}
}

func TestCompletedAtInvariant(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, Draft{Title: "Finish"})
	checkCompletedAt(t, task)

	statuses := []model.Status{
		model.StatusCompleted,
		model.StatusCompleted,
		model.StatusPending,
		model.StatusCompleted,
		model.StatusArchived,
		model.StatusActive,
	}
	var completedAt *time.Time
	for _, st := range statuses {
		f.clock.Advance(time.Minute)
		got, err := f.tasks.Update(task.ID, Patch{Status: &st})
		if err != nil {
			t.Fatalf("Update to %s failed: %v", st, err)
		}
		checkCompletedAt(t, got)

		// Re-completing an already completed task keeps the original stamp
		if st == model.StatusCompleted && completedAt != nil && got.CompletedAt != nil && !got.CompletedAt.Equal(*completedAt) {
			t.Errorf("Expected completedAt %v kept, got %v", completedAt, got.CompletedAt)
		}
		completedAt = got.CompletedAt
	}

	toggled, err := f.tasks.ToggleComplete(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if toggled.Status != model.StatusCompleted || toggled.CompletedAt == nil {
		t.Errorf("Expected toggle to complete, got %s", toggled.Status)
	}
	toggled, _ = f.tasks.ToggleComplete(task.ID)
	if toggled.Status != model.StatusActive || toggled.CompletedAt != nil {
		t.Errorf("Expected toggle back to active, got %s", toggled.Status)
	}
}

func TestTagCounters(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, Draft{Title: "A", Tags: []string{"work", "urgent"}})
	b := f.create(t, Draft{Title: "B", Tags: []string{"work"}})

	if got := f.tagCount("work"); got != 2 {
		t.Errorf("Expected work=2, got %d", got)
	}

	if _, err := f.tasks.Update(a.ID, Patch{Tags: []string{"home", "urgent"}}); err != nil {
		t.Fatal(err)
	}
	if f.tagCount("work") != 1 || f.tagCount("home") != 1 || f.tagCount("urgent") != 1 {
		t.Errorf("Expected work=1 home=1 urgent=1, got %d %d %d",
			f.tagCount("work"), f.tagCount("home"), f.tagCount("urgent"))
	}

	if _, err := f.tasks.Delete(b.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.store.GetTag("work"); ok {
		t.Error("Expected tag removed with its last task")
	}

	if _, err := f.tasks.Update(a.ID, Patch{Tags: []string{}}); err != nil {
		t.Fatal(err)
	}
	if n := len(f.store.ListTags()); n != 0 {
		t.Errorf("Expected no tags left, got %d", n)
	}
}

func TestCompletingRecurringTaskSpawnsNext(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, 5, 12, 17, 0, 0, 0, time.UTC)
	reminder := due.Add(-2 * time.Hour)
	task := f.create(t, Draft{
		Title:        "Water plants",
		Tags:         []string{"home"},
		DueDate:      &due,
		ReminderDate: &reminder,
		Subtasks:     []string{"Balcony"},
		Recurrence:   &model.RecurrenceRule{Pattern: model.PatternDaily, Interval: 2},
	})

	done := model.StatusCompleted
	if _, err := f.tasks.Update(task.ID, Patch{Status: &done}); err != nil {
		t.Fatal(err)
	}

	all := f.tasks.FindAll()
	if len(all) != 2 {
		t.Fatalf("Expected a spawned task, got %d tasks", len(all))
	}
	next := all[1]
	if next.Status != model.StatusActive || next.CompletedAt != nil {
		t.Errorf("Expected spawned task active, got %s", next.Status)
	}
	if want := due.AddDate(0, 0, 2); next.DueDate == nil || !next.DueDate.Equal(want) {
		t.Errorf("Expected due %v, got %v", want, next.DueDate)
	}
	if want := reminder.AddDate(0, 0, 2); next.ReminderDate == nil || !next.ReminderDate.Equal(want) {
		t.Errorf("Expected reminder %v, got %v", want, next.ReminderDate)
	}
	if len(next.Subtasks) != 0 {
		t.Errorf("Expected fresh checklist, got %d subtasks", len(next.Subtasks))
	}
	if next.Recurrence == nil || next.Recurrence.Interval != 2 {
		t.Errorf("Expected recurrence carried over, got %+v", next.Recurrence)
	}
	if f.tagCount("home") != 2 {
		t.Errorf("Expected spawned task to count its tags, got %d", f.tagCount("home"))
	}

	// Saving the already completed task again must not spawn a second copy
	if _, err := f.tasks.Update(task.ID, Patch{Status: &done}); err != nil {
		t.Fatal(err)
	}
	if n := f.tasks.Count(); n != 2 {
		t.Errorf("Expected 2 tasks after re-saving, got %d", n)
	}
}

func TestRecurrenceStopsAtEndDate(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, 5, 12, 17, 0, 0, 0, time.UTC)
	end := due.AddDate(0, 0, 1)
	task := f.create(t, Draft{
		Title:      "Last one",
		DueDate:    &due,
		Recurrence: &model.RecurrenceRule{Pattern: model.PatternDaily, Interval: 2, EndDate: &end},
	})

	if _, err := f.tasks.ToggleComplete(task.ID); err != nil {
		t.Fatal(err)
	}
	if n := f.tasks.Count(); n != 1 {
		t.Errorf("Expected no spawn past the end date, got %d tasks", n)
	}
}

func TestRecurrenceUsesDatesBeforeThePatch(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, 5, 12, 17, 0, 0, 0, time.UTC)
	reminder := due.Add(-time.Hour)
	task := f.create(t, Draft{
		Title:        "Take out bins",
		DueDate:      &due,
		ReminderDate: &reminder,
		Recurrence:   &model.RecurrenceRule{Pattern: model.PatternDaily, Interval: 1},
	})

	done := model.StatusCompleted
	moved := due.AddDate(0, 0, 10)
	movedReminder := moved.Add(-time.Hour)
	updated, err := f.tasks.Update(task.ID, Patch{Status: &done, DueDate: &moved, ReminderDate: &movedReminder})
	if err != nil {
		t.Fatal(err)
	}
	if !updated.DueDate.Equal(moved) {
		t.Errorf("Expected completed task due %v, got %v", moved, updated.DueDate)
	}

	all := f.tasks.FindAll()
	if len(all) != 2 {
		t.Fatalf("Expected a spawned task, got %d tasks", len(all))
	}
	next := all[1]
	if want := due.AddDate(0, 0, 1); next.DueDate == nil || !next.DueDate.Equal(want) {
		t.Errorf("Expected due %v, got %v", want, next.DueDate)
	}
	if want := reminder.AddDate(0, 0, 1); next.ReminderDate == nil || !next.ReminderDate.Equal(want) {
		t.Errorf("Expected reminder %v, got %v", want, next.ReminderDate)
	}
}

func TestEndDateBeforeDueDate(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, 5, 12, 17, 0, 0, 0, time.UTC)
	end := due.AddDate(0, 0, -1)
	task := f.create(t, Draft{
		Title:      "Ended already",
		DueDate:    &due,
		Recurrence: &model.RecurrenceRule{Pattern: model.PatternDaily, Interval: 1, EndDate: &end},
	})

	updated, err := f.tasks.ToggleComplete(task.ID)
	if err != nil {
		t.Fatalf("Expected completion to succeed, got %v", err)
	}
	if updated.Status != model.StatusCompleted {
		t.Errorf("Expected completed, got %s", updated.Status)
	}
	if n := f.tasks.Count(); n != 1 {
		t.Errorf("Expected no spawn past the end date, got %d tasks", n)
	}
}

func TestUnknownDefaultPriorityFallsBackToMedium(t *testing.T) {
	f := newFixture(t)
	m := New(f.store, Options{DefaultPriority: "urgent", Now: f.clock.Now})

	task, err := m.Create(Draft{Title: "Plain"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("Expected medium, got %s", task.Priority)
	}
}

func TestRecurrenceWithoutDueDateUsesCompletionTime(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, Draft{
		Title:      "Stretch",
		Recurrence: &model.RecurrenceRule{Pattern: model.PatternWeekly, Interval: 1},
	})

	f.clock.Advance(time.Hour)
	completedAt := f.clock.Now()
	if _, err := f.tasks.ToggleComplete(task.ID); err != nil {
		t.Fatal(err)
	}

	all := f.tasks.FindAll()
	if len(all) != 2 {
		t.Fatalf("Expected a spawned task, got %d", len(all))
	}
	if want := completedAt.AddDate(0, 0, 7); !all[1].DueDate.Equal(want) {
		t.Errorf("Expected due %v, got %v", want, all[1].DueDate)
	}
}

func TestDeleteReleasesTags(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, Draft{Title: "Temp", Tags: []string{"x"}})

	ok, err := f.tasks.Delete(task.ID)
	if !ok || err != nil {
		t.Fatalf("Expected delete to succeed, got (%v, %v)", ok, err)
	}
	if _, found := f.tasks.FindByID(task.ID); found {
		t.Error("Expected task gone")
	}
	if f.tagCount("x") != 0 {
		t.Error("Expected tag released")
	}
	if last := f.changes[len(f.changes)-1]; last.Op != model.OpDeleted || last.ID != task.ID {
		t.Errorf("Expected delete notification, got %+v", last)
	}
}

func TestFind(t *testing.T) {
	f := newFixture(t)
	f.create(t, Draft{Title: "one", Priority: model.PriorityLow, Tags: []string{"a"}})
	f.create(t, Draft{Title: "two", Priority: model.PriorityCritical, Tags: []string{"a", "b"}})
	f.create(t, Draft{Title: "three", Priority: model.PriorityHigh})

	page := f.tasks.Find(
		&query.Filter{Tags: []string{"a"}},
		&query.Sort{Field: query.FieldPriority, Direction: query.Desc},
		nil)
	if page.Total != 2 {
		t.Fatalf("Expected 2 tagged tasks, got %d", page.Total)
	}
	if page.Items[0].Title != "two" || page.Items[1].Title != "one" {
		t.Errorf("Expected [two one], got [%s %s]", page.Items[0].Title, page.Items[1].Title)
	}
}
