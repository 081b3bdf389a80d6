package projects

import (
	"fmt"
	"testing"
	"time"

	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/tasks"
)

func TestReorder(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", "")
	b := f.create(t, "B", "")
	c := f.create(t, "C", "")

	ok, err := f.projects.Reorder([]string{c.ID, a.ID, b.ID})
	if !ok || err != nil {
		t.Fatalf("Expected reorder to succeed, got (%v, %v)", ok, err)
	}
	if got := fmt.Sprint(names(f.projects.FindAll())); got != "[C A B]" {
		t.Errorf("Expected [C A B], got %s", got)
	}

	ok, err = f.projects.Reorder([]string{a.ID, "missing", c.ID})
	if ok || err != nil {
		t.Errorf("Expected (false, nil) with an unknown id, got (%v, %v)", ok, err)
	}
	if got := fmt.Sprint(names(f.projects.FindAll())); got != "[C A B]" {
		t.Errorf("Expected order unchanged after failed reorder, got %s", got)
	}
}

func TestHierarchy(t *testing.T) {
	f := newFixture(t)
	work := f.create(t, "Work", "")
	home := f.create(t, "Home", "")
	f.create(t, "Backend", work.ID)
	frontend := f.create(t, "Frontend", work.ID)
	f.create(t, "Widgets", frontend.ID)
	f.create(t, "Garden", home.ID)

	if got := fmt.Sprint(names(f.projects.FindChildren(work.ID))); got != "[Backend Frontend]" {
		t.Errorf("Expected [Backend Frontend], got %s", got)
	}
	if got := fmt.Sprint(names(f.projects.FindChildren(""))); got != "[Work Home]" {
		t.Errorf("Expected roots [Work Home], got %s", got)
	}

	tree := f.projects.GetHierarchy()
	if len(tree) != 2 {
		t.Fatalf("Expected 2 roots, got %d", len(tree))
	}
	if tree[0].Project.Name != "Work" || len(tree[0].Children) != 2 {
		t.Fatalf("Expected Work with 2 children, got %+v", tree[0])
	}
	fe := tree[0].Children[1]
	if fe.Project.Name != "Frontend" || len(fe.Children) != 1 || fe.Children[0].Project.Name != "Widgets" {
		t.Errorf("Expected Frontend > Widgets, got %+v", fe)
	}
	if len(tree[1].Children) != 1 || tree[1].Children[0].Project.Name != "Garden" {
		t.Errorf("Expected Home > Garden, got %+v", tree[1])
	}
}

func TestHierarchyTreatsOrphansAsRoots(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Root", "")
	if _, err := f.store.CreateProject(model.Project{ID: "orphan", Name: "Orphan", Color: "#000", ParentID: "gone", Order: 5}); err != nil {
		t.Fatal(err)
	}

	tree := f.projects.GetHierarchy()
	if len(tree) != 2 || tree[1].Project.ID != "orphan" {
		t.Errorf("Expected orphan listed as a root, got %+v", tree)
	}
}

func TestArchive(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Old", "")

	got, err := f.projects.Archive(p.ID)
	if err != nil || got == nil || !got.Archived {
		t.Fatalf("Expected archived project, got %+v, %v", got, err)
	}
	got, err = f.projects.Unarchive(p.ID)
	if err != nil || got == nil || got.Archived {
		t.Errorf("Expected unarchived project, got %+v, %v", got, err)
	}
}

func TestGetStatistics(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Stats", "")
	other := f.create(t, "Other", "")

	yesterday := f.now.Add(-24 * time.Hour)
	drafts := []tasks.Draft{
		{Title: "late", ProjectID: p.ID, DueDate: &yesterday},
		{Title: "open", ProjectID: p.ID},
		{Title: "done", ProjectID: p.ID},
		{Title: "shelved", ProjectID: p.ID},
		{Title: "elsewhere", ProjectID: other.ID},
	}
	ids := make(map[string]string)
	for _, d := range drafts {
		task, err := f.tasks.Create(d)
		if err != nil {
			t.Fatal(err)
		}
		ids[d.Title] = task.ID
	}
	if _, err := f.tasks.ToggleComplete(ids["done"]); err != nil {
		t.Fatal(err)
	}
	archived := model.StatusArchived
	if _, err := f.tasks.Update(ids["shelved"], tasks.Patch{Status: &archived}); err != nil {
		t.Fatal(err)
	}

	s, err := f.projects.GetStatistics(p.ID)
	if err != nil || s == nil {
		t.Fatalf("Expected statistics, got %v, %v", s, err)
	}
	want := Statistics{ProjectID: p.ID, Total: 4, Active: 2, Completed: 1, Archived: 1, Overdue: 1, CompletionRate: 0.5}
	if *s != want {
		t.Errorf("Expected %+v, got %+v", want, *s)
	}

	empty, _ := f.projects.GetStatistics(f.create(t, "Empty", "").ID)
	if empty.Total != 0 || empty.CompletionRate != 0 {
		t.Errorf("Expected empty statistics, got %+v", empty)
	}
}
