package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/irontodo/internal/config"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/projects"
	"github.com/existflow/irontodo/internal/tasks"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.BackupInterval = 0
	cfg.DefaultPriority = "high"
	return cfg
}

func TestOpenWiresManagers(t *testing.T) {
	cfg := testConfig(t)

	var changes []model.Change
	a, err := Open(cfg, Options{OnChange: func(c model.Change) { changes = append(changes, c) }})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	p, err := a.Projects.Create(projects.Draft{Name: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	task, err := a.Tasks.Create(tasks.Draft{Title: "Ship", ProjectID: p.ID})
	if err != nil {
		t.Fatal(err)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("Expected project default priority, got %s", task.Priority)
	}
	inbox, err := a.Tasks.Create(tasks.Draft{Title: "Inbox"})
	if err != nil {
		t.Fatal(err)
	}
	if inbox.Priority != model.PriorityHigh {
		t.Errorf("Expected configured default priority, got %s", inbox.Priority)
	}

	n, err := a.Importer.Import("tasks:\n  - title: Imported\n    project: Work\n")
	if err != nil || n != 1 {
		t.Fatalf("Expected 1 imported task, got %d, %v", n, err)
	}
	if len(changes) != 4 {
		t.Errorf("Expected 4 change notifications, got %d", len(changes))
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, "todos.json")); err != nil {
		t.Errorf("Expected document flushed on close: %v", err)
	}
}

func TestReopenSeesPersistedData(t *testing.T) {
	cfg := testConfig(t)
	cfg.SaveDebounce = time.Hour

	a, err := Open(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Tasks.Create(tasks.Draft{Title: "Persist me", Tags: []string{"keep"}}); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := Open(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	all := b.Tasks.FindAll()
	if len(all) != 1 || all[0].Title != "Persist me" {
		t.Errorf("Expected persisted task, got %+v", all)
	}
	if tag, ok := b.Store.GetTag("keep"); !ok || tag.UsageCount != 1 {
		t.Errorf("Expected persisted tag count, got %+v", tag)
	}
}
