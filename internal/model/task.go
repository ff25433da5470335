package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Status represents the current state of a task
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists every status in board order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Next returns the status that follows s, wrapping around
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists every priority from most to least important
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Next cycles low -> medium -> high -> low
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// MaxTitleLength is the longest title accepted at the API boundary
const MaxTitleLength = 100

// Task represents a unit of work
type Task struct {
	ID           int                   `json:"id"`
	Title        string                `json:"title"`
	Priority     Priority              `json:"priority"`
	Status       Status                `json:"status"`
	CreatedAt    time.Time             `json:"createdAt"`
	CustomFields map[string]FieldValue `json:"customFields,omitempty"`
}

// Valid reports whether the task has the shape every stored task must have.
// Title length is only enforced on input, so imported data is not rejected for it.
func (t *Task) Valid() bool {
	return strings.TrimSpace(t.Title) != "" && t.Priority.Valid() && t.Status.Valid()
}

// Clone returns a copy that shares no maps with t
func (t Task) Clone() Task {
	if t.CustomFields != nil {
		fields := make(map[string]FieldValue, len(t.CustomFields))
		for k, v := range t.CustomFields {
			fields[k] = v
		}
		t.CustomFields = fields
	}
	return t
}

// TaskInput is the body accepted when creating a task
type TaskInput struct {
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`
}

// Validate checks the input against the creation schema
func (in TaskInput) Validate() error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if !in.Priority.Valid() {
		return invalidPriority(in.Priority)
	}
	if !in.Status.Valid() {
		return invalidStatus(in.Status)
	}
	return nil
}

// TaskPatch is a partial update; nil fields keep their prior value
type TaskPatch struct {
	Title    *string   `json:"title,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	Status   *Status   `json:"status,omitempty"`
}

// Validate checks only the fields that are present
func (p TaskPatch) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalidPriority(*p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalidStatus(*p.Status)
	}
	return nil
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Priority == nil && p.Status == nil
}

// Apply merges the patch into t and returns the result
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	return out
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "Title is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Message: "Title must be at most 100 characters"}
	}
	return nil
}

func invalidPriority(p Priority) error {
	return &ValidationError{Field: "priority", Message: "invalid priority " + quote(string(p)) + ", expected High, Medium or Low"}
}

func invalidStatus(s Status) error {
	return &ValidationError{Field: "status", Message: "invalid status " + quote(string(s)) + ", expected Todo, In Progress or Done"}
}

func quote(s string) string {
	return "\"" + s + "\""
}
