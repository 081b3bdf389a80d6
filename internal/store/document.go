package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/existflow/irontodo/internal/model"
)

// DocumentVersion is written into every new document
const DocumentVersion = "1.0.0"

// Document is the single persisted unit holding all three collections
type Document struct {
	Todos      []model.Task    `json:"todos"`
	Projects   []model.Project `json:"projects"`
	Tags       []model.Tag     `json:"tags"`
	Version    string          `json:"version"`
	LastBackup *time.Time      `json:"lastBackup,omitempty"`

	taskIdx    map[string]int
	projectIdx map[string]int
	tagIdx     map[string]int
}

func newDocument() *Document {
	d := &Document{
		Todos:    []model.Task{},
		Projects: []model.Project{},
		Tags:     []model.Tag{},
		Version:  DocumentVersion,
	}
	d.reindex()
	return d
}

func taskKey(t *model.Task) string       { return t.ID }
func projectKey(p *model.Project) string { return p.ID }
func tagKey(t *model.Tag) string         { return t.Name }

func (d *Document) reindex() {
	d.taskIdx = buildIndex(d.Todos, taskKey)
	d.projectIdx = buildIndex(d.Projects, projectKey)
	d.tagIdx = buildIndex(d.Tags, tagKey)
}

func buildIndex[T any](items []T, key func(*T) string) map[string]int {
	idx := make(map[string]int, len(items))
	for i := range items {
		idx[key(&items[i])] = i
	}
	return idx
}

// clone deep-copies the document, index included
func (d *Document) clone() *Document {
	out := &Document{
		Todos:    make([]model.Task, len(d.Todos)),
		Projects: make([]model.Project, len(d.Projects)),
		Tags:     make([]model.Tag, len(d.Tags)),
		Version:  d.Version,
	}
	for i, t := range d.Todos {
		out.Todos[i] = t.Clone()
	}
	for i, p := range d.Projects {
		out.Projects[i] = p.Clone()
	}
	copy(out.Tags, d.Tags)
	if d.LastBackup != nil {
		lb := *d.LastBackup
		out.LastBackup = &lb
	}
	out.taskIdx = copyIndex(d.taskIdx)
	out.projectIdx = copyIndex(d.projectIdx)
	out.tagIdx = copyIndex(d.tagIdx)
	return out
}

func copyIndex(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// normalize fills fields older documents may lack
func (d *Document) normalize() {
	if d.Todos == nil {
		d.Todos = []model.Task{}
	}
	if d.Projects == nil {
		d.Projects = []model.Project{}
	}
	if d.Tags == nil {
		d.Tags = []model.Tag{}
	}
	if d.Version == "" {
		d.Version = DocumentVersion
	}
	for i := range d.Todos {
		d.Todos[i].Normalize()
	}
	for i := range d.Projects {
		d.Projects[i].Normalize()
	}
	d.reindex()
}

// check rejects documents whose records cannot be addressed
func (d *Document) check() error {
	if err := checkKeys("task", d.Todos, taskKey); err != nil {
		return err
	}
	if err := checkKeys("project", d.Projects, projectKey); err != nil {
		return err
	}
	return checkKeys("tag", d.Tags, tagKey)
}

func checkKeys[T any](entity string, items []T, key func(*T) string) error {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		k := key(&items[i])
		if k == "" {
			return fmt.Errorf("%s at index %d has no identifier", entity, i)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("duplicate %s identifier %q", entity, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

func decodeDocument(data []byte) (*Document, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("failed to parse document: not a JSON object")
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	d.normalize()
	if err := d.check(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &d, nil
}

func readDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeDocument(data)
}

func (d *Document) encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return append(data, '\n'), nil
}
