package export

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/store"
)

func sampleDocument() store.Document {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	return store.Document{
		Projects: []model.Project{
			{ID: "p1", Name: "Work", Color: "#4ECDC4", CreatedAt: now, UpdatedAt: now},
			{ID: "p2", Name: "Backend", Color: "#FF6B6B", ParentID: "p1", Order: 1, CreatedAt: now, UpdatedAt: now},
		},
		Tags: []model.Tag{
			{Name: "go", UsageCount: 2, LastUsed: now, CreatedAt: now},
			{Name: "ops", UsageCount: 1, CreatedAt: now},
		},
		Todos: []model.Task{
			{
				ID: "t1", Title: "Ship it", Status: model.StatusActive, Priority: model.PriorityHigh,
				ProjectID: "p2", Tags: []string{"go", "ops"}, DueDate: &due,
				Subtasks: []model.Subtask{
					{ID: "s1", Title: "Build", Completed: true, CompletedAt: &now},
					{ID: "s2", Title: "Deploy", Order: 1},
				},
				Recurrence: &model.RecurrenceRule{Pattern: model.PatternWeekly, Interval: 1},
				CreatedAt: now, UpdatedAt: now,
			},
			{
				ID: "t2", Title: "Inbox item", Status: model.StatusCompleted, Priority: model.PriorityLow,
				Tags: []string{"go"}, CompletedAt: &now, CreatedAt: now, UpdatedAt: now,
			},
		},
	}
}

func TestToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "todos.db")

	st, err := ToSQLite(sampleDocument(), path)
	if err != nil {
		t.Fatalf("ToSQLite failed: %v", err)
	}
	want := Stats{Projects: 2, Tasks: 2, Tags: 2, TaskTags: 3, Subtasks: 2}
	if st != want {
		t.Errorf("Expected %+v, got %+v", want, st)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	counts := map[string]int{"projects": 2, "tasks": 2, "tags": 2, "task_tags": 3, "subtasks": 2}
	for table, n := range counts {
		var got int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != n {
			t.Errorf("Expected %d rows in %s, got %d", n, table, got)
		}
	}

	var project sql.NullString
	var pattern sql.NullString
	if err := db.QueryRow(`SELECT project_id, recurrence_pattern FROM tasks WHERE id = 't1'`).Scan(&project, &pattern); err != nil {
		t.Fatal(err)
	}
	if project.String != "p2" || pattern.String != "weekly" {
		t.Errorf("Expected p2/weekly, got %v/%v", project, pattern)
	}

	var inboxProject sql.NullString
	if err := db.QueryRow(`SELECT project_id FROM tasks WHERE id = 't2'`).Scan(&inboxProject); err != nil {
		t.Fatal(err)
	}
	if inboxProject.Valid {
		t.Errorf("Expected NULL project for inbox task, got %q", inboxProject.String)
	}

	var overdueCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE due_date IS NOT NULL`).Scan(&overdueCount); err != nil {
		t.Fatal(err)
	}
	if overdueCount != 1 {
		t.Errorf("Expected 1 task with a due date, got %d", overdueCount)
	}
}

func TestToSQLiteReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.db")

	if _, err := ToSQLite(sampleDocument(), path); err != nil {
		t.Fatal(err)
	}
	st, err := ToSQLite(store.Document{}, path)
	if err != nil {
		t.Fatalf("second export failed: %v", err)
	}
	if st != (Stats{}) {
		t.Errorf("Expected empty stats, got %+v", st)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Expected previous rows gone, got %d", n)
	}
}
