// Package query filters, sorts and paginates task collections.
package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/model"
)

// Filter clauses are ANDed; a nil or empty clause imposes no constraint
type Filter struct {
	Status      []model.Status
	Priority    []model.Priority
	ProjectID   []string
	Tags        []string // every listed tag must be present
	DueBefore   *time.Time
	DueAfter    *time.Time
	SearchTerm  string
	HasSubtasks *bool
	IsOverdue   *bool
	IsRecurring *bool
}

// Field is a sortable task attribute
type Field string

const (
	FieldPriority  Field = "priority"
	FieldDueDate   Field = "dueDate"
	FieldCreatedAt Field = "createdAt"
	FieldUpdatedAt Field = "updatedAt"
	FieldTitle     Field = "title"
)

// Direction is the sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders by a single field
type Sort struct {
	Field     Field
	Direction Direction
}

// Pagination is 1-indexed
type Pagination struct {
	Page     int
	PageSize int
}

// Page is one slice of a query result
type Page struct {
	Items      []model.Task `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

// Apply filters items, sorts the survivors stably and returns the
// requested page. items is not modified. now anchors the overdue clause.
func Apply(items []model.Task, f *Filter, s *Sort, p *Pagination, now time.Time) Page {
	matched := make([]model.Task, 0, len(items))
	for i := range items {
		if f == nil || f.Match(&items[i], now) {
			matched = append(matched, items[i])
		}
	}

	if s != nil && s.Field != "" {
		slices.SortStableFunc(matched, comparator(*s))
	}

	total := len(matched)
	if p == nil || p.PageSize <= 0 {
		pages := 0
		if total > 0 {
			pages = 1
		}
		return Page{Items: matched, Total: total, Page: 1, TotalPages: pages}
	}

	page := max(p.Page, 1)
	start := min((page-1)*p.PageSize, total)
	end := min(start+p.PageSize, total)
	return Page{
		Items:      matched[start:end],
		Total:      total,
		Page:       page,
		TotalPages: (total + p.PageSize - 1) / p.PageSize,
	}
}

// Match evaluates every supplied clause against t
func (f *Filter) Match(t *model.Task, now time.Time) bool {
	if len(f.Status) > 0 && !slices.Contains(f.Status, t.Status) {
		return false
	}
	if len(f.Priority) > 0 && !slices.Contains(f.Priority, t.Priority) {
		return false
	}
	if len(f.ProjectID) > 0 && !slices.Contains(f.ProjectID, t.ProjectID) {
		return false
	}
	for _, tag := range f.Tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	if f.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(*f.DueBefore)) {
		return false
	}
	if f.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueAfter)) {
		return false
	}
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	if f.HasSubtasks != nil && *f.HasSubtasks != (len(t.Subtasks) > 0) {
		return false
	}
	if f.IsOverdue != nil && *f.IsOverdue != t.IsOverdue(now) {
		return false
	}
	if f.IsRecurring != nil && *f.IsRecurring != t.IsRecurring() {
		return false
	}
	return true
}

// comparator places missing values last in ascending order; descending
// negates the whole result, which moves them first.
func comparator(s Sort) func(a, b model.Task) int {
	var c func(a, b *model.Task) int
	switch s.Field {
	case FieldPriority:
		c = func(a, b *model.Task) int {
			return nilsLast(a.Priority == "", b.Priority == "", func() int {
				return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
			})
		}
	case FieldDueDate:
		c = func(a, b *model.Task) int {
			return nilsLast(a.DueDate == nil, b.DueDate == nil, func() int {
				return a.DueDate.Compare(*b.DueDate)
			})
		}
	case FieldCreatedAt:
		c = func(a, b *model.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case FieldUpdatedAt:
		c = func(a, b *model.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case FieldTitle:
		c = func(a, b *model.Task) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	default:
		c = func(a, b *model.Task) int { return 0 }
	}

	if s.Direction == Desc {
		return func(a, b model.Task) int { return -c(&a, &b) }
	}
	return func(a, b model.Task) int { return c(&a, &b) }
}

func nilsLast(aMissing, bMissing bool, both func() int) int {
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	case bMissing:
		return -1
	default:
		return both()
	}
}
