package model

// Op is the kind of mutation reported through a Change
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes a committed mutation; managers hand it to an injected
// callback so presentation code can refresh without a global event bus
type Change struct {
	Entity string // "task" or "project"
	Op     Op
	ID     string
}
