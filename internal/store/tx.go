package store

import (
	"slices"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/model"
)

// Reader is the read-only view handed to View callbacks
type Reader interface {
	Task(id string) (model.Task, bool)
	Tasks() []model.Task
	Project(id string) (model.Project, bool)
	Projects() []model.Project
	Tag(name string) (model.Tag, bool)
	Tags() []model.Tag
}

// Tx exposes the CRUD primitives against a working copy of the document.
// Every value in or out is copied, so callers never alias store state.
type Tx struct {
	doc     *Document
	changed bool
}

var _ Reader = (*Tx)(nil)

// Tasks

func (tx *Tx) Task(id string) (model.Task, bool) {
	i, ok := tx.doc.taskIdx[id]
	if !ok {
		return model.Task{}, false
	}
	return tx.doc.Todos[i].Clone(), true
}

func (tx *Tx) Tasks() []model.Task {
	out := make([]model.Task, len(tx.doc.Todos))
	for i, t := range tx.doc.Todos {
		out[i] = t.Clone()
	}
	return out
}

func (tx *Tx) CreateTask(t model.Task) error {
	if _, exists := tx.doc.taskIdx[t.ID]; exists {
		return errs.Constraint("task", "identifier %s already exists", t.ID)
	}
	tx.doc.Todos = append(tx.doc.Todos, t.Clone())
	tx.doc.taskIdx[t.ID] = len(tx.doc.Todos) - 1
	tx.changed = true
	return nil
}

func (tx *Tx) UpdateTask(t model.Task) error {
	i, ok := tx.doc.taskIdx[t.ID]
	if !ok {
		return errs.NotFound("task", t.ID)
	}
	tx.doc.Todos[i] = t.Clone()
	tx.changed = true
	return nil
}

func (tx *Tx) DeleteTask(id string) bool {
	i, ok := tx.doc.taskIdx[id]
	if !ok {
		return false
	}
	tx.doc.Todos = slices.Delete(tx.doc.Todos, i, i+1)
	tx.doc.taskIdx = buildIndex(tx.doc.Todos, taskKey)
	tx.changed = true
	return true
}

// Projects

func (tx *Tx) Project(id string) (model.Project, bool) {
	i, ok := tx.doc.projectIdx[id]
	if !ok {
		return model.Project{}, false
	}
	return tx.doc.Projects[i].Clone(), true
}

func (tx *Tx) Projects() []model.Project {
	out := make([]model.Project, len(tx.doc.Projects))
	for i, p := range tx.doc.Projects {
		out[i] = p.Clone()
	}
	return out
}

func (tx *Tx) CreateProject(p model.Project) error {
	if _, exists := tx.doc.projectIdx[p.ID]; exists {
		return errs.Constraint("project", "identifier %s already exists", p.ID)
	}
	tx.doc.Projects = append(tx.doc.Projects, p.Clone())
	tx.doc.projectIdx[p.ID] = len(tx.doc.Projects) - 1
	tx.changed = true
	return nil
}

func (tx *Tx) UpdateProject(p model.Project) error {
	i, ok := tx.doc.projectIdx[p.ID]
	if !ok {
		return errs.NotFound("project", p.ID)
	}
	tx.doc.Projects[i] = p.Clone()
	tx.changed = true
	return nil
}

func (tx *Tx) DeleteProject(id string) bool {
	i, ok := tx.doc.projectIdx[id]
	if !ok {
		return false
	}
	tx.doc.Projects = slices.Delete(tx.doc.Projects, i, i+1)
	tx.doc.projectIdx = buildIndex(tx.doc.Projects, projectKey)
	tx.changed = true
	return true
}

// Tags

func (tx *Tx) Tag(name string) (model.Tag, bool) {
	i, ok := tx.doc.tagIdx[name]
	if !ok {
		return model.Tag{}, false
	}
	return tx.doc.Tags[i], true
}

func (tx *Tx) Tags() []model.Tag {
	return slices.Clone(tx.doc.Tags)
}

func (tx *Tx) CreateTag(t model.Tag) error {
	if _, exists := tx.doc.tagIdx[t.Name]; exists {
		return errs.Constraint("tag", "tag %s already exists", t.Name)
	}
	tx.doc.Tags = append(tx.doc.Tags, t)
	tx.doc.tagIdx[t.Name] = len(tx.doc.Tags) - 1
	tx.changed = true
	return nil
}

func (tx *Tx) UpdateTag(t model.Tag) error {
	i, ok := tx.doc.tagIdx[t.Name]
	if !ok {
		return errs.NotFound("tag", t.Name)
	}
	tx.doc.Tags[i] = t
	tx.changed = true
	return nil
}

func (tx *Tx) DeleteTag(name string) bool {
	i, ok := tx.doc.tagIdx[name]
	if !ok {
		return false
	}
	tx.doc.Tags = slices.Delete(tx.doc.Tags, i, i+1)
	tx.doc.tagIdx = buildIndex(tx.doc.Tags, tagKey)
	tx.changed = true
	return true
}
