package model

import (
	"regexp"
	"time"
)

// TagPattern is the shape every tag name must match
var TagPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

// Tag is a reference-counted label; it exists only while some task uses it
type Tag struct {
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	UsageCount int       `json:"usageCount"`
	LastUsed   time.Time `json:"lastUsed"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone returns a copy; Tag has no reference fields
func (t Tag) Clone() Tag {
	return t
}
