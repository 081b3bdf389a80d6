package projects

import (
	"cmp"
	"errors"
	"slices"

	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/query"
	"github.com/existflow/irontodo/internal/store"
)

// Node is a project with its descendants
type Node struct {
	Project  model.Project `json:"project"`
	Children []Node        `json:"children"`
}

// Statistics summarizes the tasks directly assigned to a project
type Statistics struct {
	ProjectID      string  `json:"projectId"`
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Pending        int     `json:"pending"`
	Completed      int     `json:"completed"`
	Archived       int     `json:"archived"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completionRate"` // completed+archived over total, 0..1
}

// errAbort rolls back a transaction without surfacing an error
var errAbort = errors.New("projects: abort")

func sortByOrder(ps []model.Project) {
	slices.SortStableFunc(ps, func(a, b model.Project) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.Name, b.Name))
	})
}

// FindChildren returns the direct children of parentID in display order;
// "" returns the root projects
func (m *Manager) FindChildren(parentID string) []model.Project {
	var out []model.Project
	for _, p := range m.store.ListProjects() {
		if p.ParentID == parentID {
			out = append(out, p)
		}
	}
	sortByOrder(out)
	return out
}

// GetHierarchy returns the project forest, each level in display order.
// Projects whose parent is missing are treated as roots.
func (m *Manager) GetHierarchy() []Node {
	all := m.store.ListProjects()
	sortByOrder(all)

	known := make(map[string]bool, len(all))
	for _, p := range all {
		known[p.ID] = true
	}
	byParent := make(map[string][]model.Project)
	for _, p := range all {
		parent := p.ParentID
		if !known[parent] {
			parent = ""
		}
		byParent[parent] = append(byParent[parent], p)
	}

	var build func(parent string, seen map[string]bool) []Node
	build = func(parent string, seen map[string]bool) []Node {
		nodes := make([]Node, 0, len(byParent[parent]))
		for _, p := range byParent[parent] {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			nodes = append(nodes, Node{Project: p, Children: build(p.ID, seen)})
		}
		return nodes
	}
	return build("", make(map[string]bool, len(all)))
}

// Move re-parents a project; "" makes it a root. Unknown ids yield nil.
func (m *Manager) Move(id, newParentID string) (*model.Project, error) {
	return m.Update(id, Patch{ParentID: &newParentID})
}

// Reorder assigns display order by position in ids. It returns false and
// changes nothing if any id is unknown.
func (m *Manager) Reorder(ids []string) (bool, error) {
	ok := true
	err := m.store.Update(func(tx *store.Tx) error {
		now := m.now()
		for i, id := range ids {
			p, found := tx.Project(id)
			if !found {
				ok = false
				return errAbort
			}
			if p.Order == i {
				continue
			}
			p.Order = i
			p.UpdatedAt = now
			if err := tx.UpdateProject(p); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errAbort) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	m.log.Info("Projects reordered", logger.F("count", len(ids)))
	for _, id := range ids {
		m.notify(model.Change{Entity: "project", Op: model.OpUpdated, ID: id})
	}
	return ok, nil
}

// Archive hides a project from default listings. Unknown ids yield nil.
func (m *Manager) Archive(id string) (*model.Project, error) {
	archived := true
	return m.Update(id, Patch{Archived: &archived})
}

// Unarchive reverses Archive. Unknown ids yield nil.
func (m *Manager) Unarchive(id string) (*model.Project, error) {
	archived := false
	return m.Update(id, Patch{Archived: &archived})
}

// GetStatistics counts the project's tasks by status. Unknown ids yield nil.
func (m *Manager) GetStatistics(id string) (*Statistics, error) {
	var stats *Statistics
	err := m.store.View(func(r store.Reader) error {
		if _, ok := r.Project(id); !ok {
			return nil
		}

		now := m.now()
		page := query.Apply(r.Tasks(), &query.Filter{ProjectID: []string{id}}, nil, nil, now)
		s := &Statistics{ProjectID: id, Total: page.Total}
		for i := range page.Items {
			t := &page.Items[i]
			switch t.Status {
			case model.StatusActive:
				s.Active++
			case model.StatusPending:
				s.Pending++
			case model.StatusCompleted:
				s.Completed++
			case model.StatusArchived:
				s.Archived++
			}
			if t.IsOverdue(now) {
				s.Overdue++
			}
		}
		if s.Total > 0 {
			s.CompletionRate = float64(s.Completed+s.Archived) / float64(s.Total)
		}
		stats = s
		return nil
	})
	return stats, err
}
