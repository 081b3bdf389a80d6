package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/projects"
	"github.com/existflow/irontodo/internal/tasks"
	"gopkg.in/yaml.v3"
)

// YAMLRecurrence is the recurrence block of a task
type YAMLRecurrence struct {
	Pattern    string   `yaml:"pattern"`
	Interval   int      `yaml:"interval,omitempty"`
	EndDate    string   `yaml:"end_date,omitempty"`
	Exceptions []string `yaml:"exceptions,omitempty"`
}

// YAMLTask represents a single task in the YAML input.
type YAMLTask struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description,omitempty"`
	Priority    string          `yaml:"priority,omitempty"`
	Project     string          `yaml:"project,omitempty"`
	DueDate     string          `yaml:"due_date,omitempty"`
	Reminder    string          `yaml:"reminder,omitempty"`
	Tags        []string        `yaml:"tags,omitempty"`
	Subtasks    []string        `yaml:"subtasks,omitempty"`
	Recurrence  *YAMLRecurrence `yaml:"recurrence,omitempty"`
}

// YAMLInput represents the root structure of the YAML input.
type YAMLInput struct {
	Tasks []YAMLTask `yaml:"tasks"`
}

// TaskCreator is the part of the task manager the importer needs
type TaskCreator interface {
	Create(d tasks.Draft) (model.Task, error)
}

// ProjectResolver finds projects by name, creating missing ones
type ProjectResolver interface {
	FindByName(name string) (model.Project, bool)
	Create(d projects.Draft) (model.Project, error)
}

// Importer creates tasks from YAML documents
type Importer struct {
	tasks    TaskCreator
	projects ProjectResolver
	loc      *time.Location
}

// New creates an importer. projects may be nil, in which case a task naming
// a project is rejected.
func New(t TaskCreator, p ProjectResolver) *Importer {
	return &Importer{tasks: t, projects: p, loc: time.Local}
}

// Import parses a YAML string and creates its tasks in order.
// Returns the number of tasks created; on error the tasks before the
// failing one remain.
func (im *Importer) Import(yamlStr string) (int, error) {
	var input YAMLInput
	if err := yaml.Unmarshal([]byte(yamlStr), &input); err != nil {
		return 0, fmt.Errorf("YAML parse error: %w", err)
	}

	if len(input.Tasks) == 0 {
		return 0, fmt.Errorf("no tasks found in YAML")
	}

	count := 0
	for i, yt := range input.Tasks {
		if err := im.importTask(yt); err != nil {
			return count, fmt.Errorf("task %d (%q): %w", i+1, yt.Title, err)
		}
		count++
	}
	return count, nil
}

func (im *Importer) importTask(yt YAMLTask) error {
	d := tasks.Draft{
		Title:       yt.Title,
		Description: yt.Description,
		Priority:    model.Priority(strings.ToLower(strings.TrimSpace(yt.Priority))),
		Tags:        yt.Tags,
		Subtasks:    yt.Subtasks,
	}

	var err error
	if d.DueDate, err = im.parseDate(yt.DueDate); err != nil {
		return fmt.Errorf("due_date: %w", err)
	}
	if d.ReminderDate, err = im.parseDate(yt.Reminder); err != nil {
		return fmt.Errorf("reminder: %w", err)
	}
	if yt.Recurrence != nil {
		if d.Recurrence, err = im.recurrence(yt.Recurrence); err != nil {
			return fmt.Errorf("recurrence: %w", err)
		}
	}
	if yt.Project != "" {
		if d.ProjectID, err = im.resolveProject(yt.Project); err != nil {
			return err
		}
	}

	_, err = im.tasks.Create(d)
	return err
}

func (im *Importer) resolveProject(name string) (string, error) {
	if im.projects == nil {
		return "", fmt.Errorf("project %q: projects are not available", name)
	}
	if p, ok := im.projects.FindByName(name); ok {
		return p.ID, nil
	}
	p, err := im.projects.Create(projects.Draft{Name: name})
	if err != nil {
		return "", fmt.Errorf("create project %q: %w", name, err)
	}
	return p.ID, nil
}

func (im *Importer) recurrence(yr *YAMLRecurrence) (*model.RecurrenceRule, error) {
	rule := &model.RecurrenceRule{
		Pattern:    model.Pattern(strings.ToLower(yr.Pattern)),
		Interval:   yr.Interval,
		Exceptions: []time.Time{},
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	end, err := im.parseDate(yr.EndDate)
	if err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}
	rule.EndDate = end
	for _, s := range yr.Exceptions {
		ex, err := im.parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("exception: %w", err)
		}
		if ex != nil {
			rule.Exceptions = append(rule.Exceptions, *ex)
		}
	}
	return rule, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

// parseDate accepts RFC 3339, "YYYY-MM-DD HH:MM" or "YYYY-MM-DD" in local
// time. Empty input yields nil.
func (im *Importer) parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, im.loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}
