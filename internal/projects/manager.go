// Package projects implements the project manager: validated CRUD plus the
// acyclic parent hierarchy, ordering and per-project statistics.
package projects

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/errs"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/store"
	"github.com/existflow/irontodo/internal/validate"
	"github.com/google/uuid"
)

// Draft is the input to Create
type Draft struct {
	Name        string
	Description string
	Color       string // empty picks from model.Palette
	Icon        string
	ParentID    string
	Settings    *model.ProjectSettings // nil uses model.DefaultProjectSettings
}

// Patch lists the fields to change; nil fields are left alone
type Patch struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
	ParentID    *string // points at "" to make the project a root
	Archived    *bool
	Settings    *model.ProjectSettings
}

// Options configures a Manager
type Options struct {
	Logger    *logger.Logger
	Validator *validate.Validator
	Now       func() time.Time
	NewID     func() string
	PickColor func(n int) int // index into model.Palette; defaults to math/rand
	OnChange  func(model.Change)
}

// Manager holds no project state; every call goes through the store
type Manager struct {
	store     *store.Store
	log       *logger.Logger
	validator *validate.Validator
	now       func() time.Time
	newID     func() string
	pickColor func(n int) int
	onChange  func(model.Change)
}

// New creates a project manager over s
func New(s *store.Store, opts Options) *Manager {
	m := &Manager{
		store:     s,
		log:       opts.Logger,
		validator: opts.Validator,
		now:       opts.Now,
		newID:     opts.NewID,
		pickColor: opts.PickColor,
		onChange:  opts.OnChange,
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	m.log = m.log.WithFields(logger.F("component", "projects"))
	if m.validator == nil {
		m.validator = validate.New()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = func() string { return uuid.New().String() }
	}
	if m.pickColor == nil {
		m.pickColor = rand.IntN
	}
	return m
}

// Create validates the draft and appends the project at the end of the
// display order
func (m *Manager) Create(d Draft) (model.Project, error) {
	now := m.now()
	p := model.Project{
		ID:          m.newID(),
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
		Color:       d.Color,
		Icon:        d.Icon,
		ParentID:    d.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Settings:    model.DefaultProjectSettings(),
	}
	if p.Color == "" {
		p.Color = model.Palette[m.pickColor(len(model.Palette))]
	}
	if d.Settings != nil {
		p.Settings = *d.Settings
		p.Settings.DefaultTags = append([]string{}, d.Settings.DefaultTags...)
	}

	err := m.store.Update(func(tx *store.Tx) error {
		all := tx.Projects()
		if err := m.check(tx, &p); err != nil {
			return err
		}
		p.Order = len(all)
		return tx.CreateProject(p)
	})
	if err != nil {
		m.log.Debug("Project rejected", logger.F("name", p.Name), logger.F("error", err))
		return model.Project{}, err
	}

	m.log.Info("Project created", logger.F("id", p.ID), logger.F("name", p.Name))
	m.notify(model.Change{Entity: "project", Op: model.OpCreated, ID: p.ID})
	return p, nil
}

// Update merges patch over the project. An unknown id yields nil and no
// error; callers must check.
func (m *Manager) Update(id string, patch Patch) (*model.Project, error) {
	var (
		updated model.Project
		found   bool
	)

	err := m.store.Update(func(tx *store.Tx) error {
		cur, ok := tx.Project(id)
		if !ok {
			return nil
		}
		found = true

		next := cur.Clone()
		patch.apply(&next)
		next.UpdatedAt = m.now()
		if !next.UpdatedAt.After(cur.UpdatedAt) {
			next.UpdatedAt = cur.UpdatedAt.Add(time.Nanosecond)
		}

		if err := m.check(tx, &next); err != nil {
			return err
		}
		updated = next
		return tx.UpdateProject(next)
	})
	if err != nil || !found {
		return nil, err
	}

	m.log.Info("Project updated", logger.F("id", id))
	m.notify(model.Change{Entity: "project", Op: model.OpUpdated, ID: id})
	return &updated, nil
}

func (p Patch) apply(dst *model.Project) {
	if p.Name != nil {
		dst.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Color != nil {
		dst.Color = *p.Color
	}
	if p.Icon != nil {
		dst.Icon = *p.Icon
	}
	if p.ParentID != nil {
		dst.ParentID = *p.ParentID
	}
	if p.Archived != nil {
		dst.Archived = *p.Archived
	}
	if p.Settings != nil {
		dst.Settings = *p.Settings
		dst.Settings.DefaultTags = append([]string{}, p.Settings.DefaultTags...)
	}
	dst.Normalize()
}

// check runs field validation, then the cross-record rules: unique name,
// existing parent, no cycle
func (m *Manager) check(tx *store.Tx, p *model.Project) error {
	if err := m.validator.Project(p); err != nil {
		return err
	}

	for _, other := range tx.Projects() {
		if other.ID != p.ID && strings.EqualFold(strings.TrimSpace(other.Name), p.Name) {
			return errs.Constraint("project", "a project named %q already exists", other.Name)
		}
	}

	if p.ParentID == "" {
		return nil
	}
	if _, ok := tx.Project(p.ParentID); !ok {
		return errs.Constraint("project", "parent project %s does not exist", p.ParentID)
	}
	if createsCycle(tx, p.ID, p.ParentID) {
		return errs.Constraint("project", "moving %s under %s would create a cycle", p.ID, p.ParentID)
	}
	return nil
}

// createsCycle reports whether id appears among parentID's ancestors
// (parentID itself included)
func createsCycle(r store.Reader, id, parentID string) bool {
	seen := make(map[string]bool)
	for cur := parentID; cur != ""; {
		if cur == id || seen[cur] {
			return true
		}
		seen[cur] = true
		p, ok := r.Project(cur)
		if !ok {
			return false
		}
		cur = p.ParentID
	}
	return false
}

// Delete removes a leaf project that no task references. Unknown ids
// return false.
func (m *Manager) Delete(id string) (bool, error) {
	var found bool
	err := m.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.Project(id); !ok {
			return nil
		}
		for _, p := range tx.Projects() {
			if p.ParentID == id {
				return errs.Constraint("project", "project %s has child projects", id)
			}
		}
		for _, t := range tx.Tasks() {
			if t.ProjectID == id {
				return errs.Constraint("project", "project %s is referenced by tasks", id)
			}
		}
		found = tx.DeleteProject(id)
		return nil
	})
	if err != nil || !found {
		return false, err
	}

	m.log.Info("Project deleted", logger.F("id", id))
	m.notify(model.Change{Entity: "project", Op: model.OpDeleted, ID: id})
	return true, nil
}

// FindByID returns a copy of the project
func (m *Manager) FindByID(id string) (model.Project, bool) {
	return m.store.GetProject(id)
}

// FindByName resolves a project by case-insensitive name
func (m *Manager) FindByName(name string) (model.Project, bool) {
	name = strings.TrimSpace(name)
	for _, p := range m.store.ListProjects() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return model.Project{}, false
}

// FindAll returns every project in display order
func (m *Manager) FindAll() []model.Project {
	all := m.store.ListProjects()
	sortByOrder(all)
	return all
}

// Count returns the number of projects
func (m *Manager) Count() int {
	return len(m.store.ListProjects())
}

func (m *Manager) notify(c model.Change) {
	if m.onChange != nil {
		m.onChange(c)
	}
}
