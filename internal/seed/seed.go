// Package seed imports task lists written by hand or exported from older
// versions. YAML and JSON are both accepted.
package seed

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dori/taskdeck/internal/model"
	"gopkg.in/yaml.v3"
)

// Record is one task as it appears in a seed file. Status and priority
// may use legacy spellings.
type Record struct {
	ID           int            `yaml:"id"`
	Title        string         `yaml:"title"`
	Status       string         `yaml:"status"`
	Priority     string         `yaml:"priority"`
	CreatedAt    string         `yaml:"createdAt"`
	CustomFields map[string]any `yaml:"customFields"`
}

// ParseFile reads and normalizes the seed file at path
func ParseFile(path string, now time.Time) ([]model.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data, now)
}

// Parse decodes a list of records, either bare or under a top-level
// "tasks" key, and normalizes them
func Parse(data []byte, now time.Time) ([]model.Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Task{}, nil
	}

	var list []*Record
	if err := yaml.Unmarshal(data, &list); err != nil {
		var doc struct {
			Tasks []*Record `yaml:"tasks"`
		}
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("failed to parse seed data: %w", err)
		}
		list = doc.Tasks
	}
	return Normalize(list, now)
}

// Normalize converts records into tasks. A nil record or an empty title
// fails the whole batch.
func Normalize(records []*Record, now time.Time) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("invalid task at index %d", i)
		}
		title := strings.TrimSpace(rec.Title)
		if title == "" {
			return nil, fmt.Errorf("invalid task at index %d: title is required", i)
		}

		created := now.UTC()
		if rec.CreatedAt != "" {
			t, err := parseTime(rec.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("invalid task at index %d: %w", i, err)
			}
			created = t
		}

		values, err := fieldValues(rec.CustomFields)
		if err != nil {
			return nil, fmt.Errorf("invalid task at index %d: %w", i, err)
		}

		tasks = append(tasks, model.Task{
			ID:           rec.ID,
			Title:        title,
			Status:       NormalizeStatus(rec.Status),
			Priority:     NormalizePriority(rec.Priority),
			CreatedAt:    created,
			CustomFields: values,
		})
	}
	return tasks, nil
}

// NormalizeStatus maps legacy and canonical spellings onto a Status.
// Anything unrecognized is Todo.
func NormalizeStatus(s string) model.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in_progress", "in progress":
		return model.StatusInProgress
	case "completed", "done":
		return model.StatusDone
	default:
		return model.StatusTodo
	}
}

// NormalizePriority maps legacy and canonical spellings onto a Priority.
// Anything unrecognized is Medium.
func NormalizePriority(p string) model.Priority {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high", "urgent":
		return model.PriorityHigh
	case "low", "none":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", time.DateOnly}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized createdAt %q", s)
}

func fieldValues(raw map[string]any) (map[string]model.FieldValue, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]model.FieldValue, len(raw))
	for name, v := range raw {
		switch v := v.(type) {
		case nil:
			out[name] = model.TextValue("")
		case string:
			out[name] = model.TextValue(v)
		case bool:
			out[name] = model.CheckboxValue(v)
		case int:
			out[name] = model.NumberValue(float64(v))
		case int64:
			out[name] = model.NumberValue(float64(v))
		case float64:
			out[name] = model.NumberValue(v)
		default:
			return nil, fmt.Errorf("custom field %q has unsupported value %v", name, v)
		}
	}
	return out, nil
}
