// Package export writes a snapshot of the store into a SQLite database for
// ad-hoc SQL querying.
package export

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/store"
)

// Stats counts the rows written per table
type Stats struct {
	Projects int
	Tasks    int
	Tags     int
	TaskTags int
	Subtasks int
}

// ToSQLite recreates the database at path from doc in one transaction
func ToSQLite(doc store.Document, path string) (Stats, error) {
	db, err := Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to begin export: %w", err)
	}
	defer tx.Rollback()

	var st Stats
	for i := range doc.Projects {
		if err := insertProject(tx, &doc.Projects[i]); err != nil {
			return Stats{}, err
		}
		st.Projects++
	}
	for i := range doc.Tags {
		if err := insertTag(tx, &doc.Tags[i]); err != nil {
			return Stats{}, err
		}
		st.Tags++
	}
	for i := range doc.Todos {
		t := &doc.Todos[i]
		if err := insertTask(tx, t); err != nil {
			return Stats{}, err
		}
		st.Tasks++

		for _, name := range t.Tags {
			if _, err := tx.Exec(`INSERT INTO task_tags (task_id, tag_name) VALUES (?, ?)`, t.ID, name); err != nil {
				return Stats{}, fmt.Errorf("failed to insert tag %q for task %s: %w", name, t.ID, err)
			}
			st.TaskTags++
		}
		for j := range t.Subtasks {
			if err := insertSubtask(tx, t.ID, &t.Subtasks[j]); err != nil {
				return Stats{}, err
			}
			st.Subtasks++
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("failed to commit export: %w", err)
	}
	return st, nil
}

func insertProject(tx *sql.Tx, p *model.Project) error {
	_, err := tx.Exec(`
		INSERT INTO projects (id, name, description, color, icon, parent_id, sort_order, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Color, p.Icon, nullString(p.ParentID),
		p.Order, p.Archived, timestamp(p.CreatedAt), timestamp(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
	}
	return nil
}

func insertTag(tx *sql.Tx, t *model.Tag) error {
	var lastUsed any
	if !t.LastUsed.IsZero() {
		lastUsed = timestamp(t.LastUsed)
	}
	_, err := tx.Exec(`
		INSERT INTO tags (name, color, usage_count, last_used, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Color, t.UsageCount, lastUsed, timestamp(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert tag %q: %w", t.Name, err)
	}
	return nil
}

func insertTask(tx *sql.Tx, t *model.Task) error {
	var pattern, interval any
	if t.Recurrence != nil {
		pattern, interval = string(t.Recurrence.Pattern), t.Recurrence.Interval
	}
	_, err := tx.Exec(`
		INSERT INTO tasks (id, project_id, title, description, status, priority, due_date, reminder_date,
			completed_at, recurrence_pattern, recurrence_interval, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullString(t.ProjectID), t.Title, t.Description, string(t.Status), string(t.Priority),
		nullTime(t.DueDate), nullTime(t.ReminderDate), nullTime(t.CompletedAt),
		pattern, interval, timestamp(t.CreatedAt), timestamp(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
	}
	return nil
}

func insertSubtask(tx *sql.Tx, taskID string, s *model.Subtask) error {
	_, err := tx.Exec(`
		INSERT INTO subtasks (id, task_id, title, completed, completed_at, sort_order)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, taskID, s.Title, s.Completed, nullTime(s.CompletedAt), s.Order)
	if err != nil {
		return fmt.Errorf("failed to insert subtask %s: %w", s.ID, err)
	}
	return nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timestamp(*t)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
