package model

import "time"

// Palette holds the colors a new project picks from when none is given
var Palette = []string{
	"#4ECDC4", "#FF6B6B", "#FFD93D", "#6C5CE7",
	"#00B894", "#E17055", "#0984E3", "#FD79A8",
}

// ProjectSettings holds per-project defaults
type ProjectSettings struct {
	DefaultPriority        Priority `json:"defaultPriority" validate:"omitempty,oneof=low medium high critical"`
	DefaultTags            []string `json:"defaultTags" validate:"max=20,dive,tagname"`
	SortOrder              string   `json:"sortOrder" validate:"omitempty,oneof=priority dueDate createdAt updatedAt title"`
	ShowCompleted          bool     `json:"showCompleted"`
	CompletedRetentionDays int      `json:"completedRetentionDays" validate:"min=0,max=3650"`
}

// DefaultProjectSettings returns settings for a newly created project
func DefaultProjectSettings() ProjectSettings {
	return ProjectSettings{
		DefaultPriority:        PriorityMedium,
		DefaultTags:            []string{},
		SortOrder:              "createdAt",
		ShowCompleted:          true,
		CompletedRetentionDays: 30,
	}
}

// Project represents a collection of tasks, optionally nested under a parent
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description,omitempty" validate:"max=1000"`
	Color       string          `json:"color" validate:"required,color"`
	Icon        string          `json:"icon,omitempty" validate:"max=2"`
	ParentID    string          `json:"parentId,omitempty"`
	Order       int             `json:"order"`
	Archived    bool            `json:"archived"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Settings    ProjectSettings `json:"settings"`
}

// Clone returns a deep copy
func (p Project) Clone() Project {
	out := p
	out.Settings.DefaultTags = cloneSlice(p.Settings.DefaultTags)
	return out
}

// Normalize fills containers missing from older documents
func (p *Project) Normalize() {
	if p.Settings.DefaultTags == nil {
		p.Settings.DefaultTags = []string{}
	}
}
