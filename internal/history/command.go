package history

import (
	"fmt"

	"github.com/dori/taskdeck/internal/model"
)

// Kind identifies a command variant
type Kind int

const (
	KindAddTask Kind = iota
	KindUpdateTask
	KindDeleteTask
	KindUpdateFieldSet
	KindBulkUpdate
	KindBulkDelete
)

func (k Kind) String() string {
	switch k {
	case KindAddTask:
		return "add-task"
	case KindUpdateTask:
		return "update-task"
	case KindDeleteTask:
		return "delete-task"
	case KindUpdateFieldSet:
		return "update-fields"
	case KindBulkUpdate:
		return "bulk-update"
	case KindBulkDelete:
		return "bulk-delete"
	default:
		return "unknown"
	}
}

// Command is a reversible operation described purely by data.
// Which snapshot fields are set depends on Kind.
type Command struct {
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`

	Task   *model.Task `json:"task,omitempty"`   // add, delete
	Before *model.Task `json:"before,omitempty"` // update
	After  *model.Task `json:"after,omitempty"`

	PrevFields model.FieldSet `json:"prevFields,omitempty"` // update-fields
	NextFields model.FieldSet `json:"nextFields,omitempty"`

	Befores []model.Task `json:"befores,omitempty"` // bulk-update (paired with Afters), bulk-delete (removed tasks)
	Afters  []model.Task `json:"afters,omitempty"`
}

// AddTask records the creation of task
func AddTask(task model.Task) Command {
	return Command{
		Kind:        KindAddTask,
		Task:        clonePtr(task),
		Description: fmt.Sprintf("Add task %q", task.Title),
	}
}

// UpdateTask records a change from before to after. The before snapshot is
// fixed here, so undo restores this exact state regardless of later commands.
// Custom field values are not part of an update and are left alone.
func UpdateTask(before, after model.Task) Command {
	return Command{
		Kind:        KindUpdateTask,
		Before:      ptr(withoutValues(before)),
		After:       ptr(withoutValues(after)),
		Description: fmt.Sprintf("Update task %q", after.Title),
	}
}

// DeleteTask records a soft delete of task
func DeleteTask(task model.Task) Command {
	return Command{
		Kind:        KindDeleteTask,
		Task:        clonePtr(task),
		Description: fmt.Sprintf("Delete task %q", task.Title),
	}
}

// UpdateFieldSet records replacing the custom field definitions
func UpdateFieldSet(prev, next model.FieldSet) Command {
	return Command{
		Kind:        KindUpdateFieldSet,
		PrevFields:  prev.Clone(),
		NextFields:  next.Clone(),
		Description: "Update custom fields",
	}
}

// BulkUpdate records a patch applied to several tasks at once
func BulkUpdate(befores, afters []model.Task) Command {
	return Command{
		Kind:        KindBulkUpdate,
		Befores:     stripValues(befores),
		Afters:      stripValues(afters),
		Description: fmt.Sprintf("Update %d tasks", len(afters)),
	}
}

// BulkDelete records a soft delete of several tasks
func BulkDelete(removed []model.Task) Command {
	return Command{
		Kind:        KindBulkDelete,
		Befores:     cloneTasks(removed),
		Description: fmt.Sprintf("Delete %d tasks", len(removed)),
	}
}

func clonePtr(t model.Task) *model.Task {
	c := t.Clone()
	return &c
}

func ptr(t model.Task) *model.Task { return &t }

func cloneTasks(ts []model.Task) []model.Task {
	out := make([]model.Task, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

// Target is the state a command mutates
type Target interface {
	AddTask(task model.Task) error
	ReplaceTask(task model.Task) error
	DeleteTask(id int) error
	RestoreTask(task model.Task) error
	SetCustomFields(fields model.FieldSet)
	ReplaceTasks(tasks []model.Task) error
	RestoreTasks(tasks []model.Task) error

	// Bulk variants also clear the selection in the same step
	BulkReplaceTasks(tasks []model.Task) error
	BulkDeleteTasks(ids []int) error
}

// apply performs the forward direction of c
func apply(t Target, c Command) error {
	if err := c.check(); err != nil {
		return err
	}
	switch c.Kind {
	case KindAddTask:
		return t.AddTask(*c.Task)
	case KindUpdateTask:
		return t.ReplaceTask(*c.After)
	case KindDeleteTask:
		return t.DeleteTask(c.Task.ID)
	case KindUpdateFieldSet:
		t.SetCustomFields(c.NextFields)
		return nil
	case KindBulkUpdate:
		return t.BulkReplaceTasks(c.Afters)
	case KindBulkDelete:
		return t.BulkDeleteTasks(taskIDs(c.Befores))
	}
	return fmt.Errorf("unknown command kind %d", c.Kind)
}

// invert performs the exact inverse of apply
func invert(t Target, c Command) error {
	if err := c.check(); err != nil {
		return err
	}
	switch c.Kind {
	case KindAddTask:
		return t.DeleteTask(c.Task.ID)
	case KindUpdateTask:
		return t.ReplaceTask(*c.Before)
	case KindDeleteTask:
		return t.RestoreTask(*c.Task)
	case KindUpdateFieldSet:
		t.SetCustomFields(c.PrevFields)
		return nil
	case KindBulkUpdate:
		return t.ReplaceTasks(c.Befores)
	case KindBulkDelete:
		return t.RestoreTasks(c.Befores)
	}
	return fmt.Errorf("unknown command kind %d", c.Kind)
}

// check rejects a command missing the snapshots its kind needs,
// which can only happen to one decoded from storage
func (c Command) check() error {
	switch c.Kind {
	case KindAddTask, KindDeleteTask:
		if c.Task == nil {
			return fmt.Errorf("%s command has no task", c.Kind)
		}
	case KindUpdateTask:
		if c.Before == nil || c.After == nil {
			return fmt.Errorf("%s command has no snapshot", c.Kind)
		}
	case KindBulkUpdate:
		if len(c.Befores) != len(c.Afters) {
			return fmt.Errorf("%s command has mismatched snapshots", c.Kind)
		}
	}
	return nil
}

// taskIDs returns every task id the command's snapshots refer to
func (c Command) taskIDs() []int {
	var ids []int
	for _, t := range []*model.Task{c.Task, c.Before, c.After} {
		if t != nil {
			ids = append(ids, t.ID)
		}
	}
	ids = append(ids, taskIDs(c.Befores)...)
	return append(ids, taskIDs(c.Afters)...)
}

func withoutValues(t model.Task) model.Task {
	t.CustomFields = nil
	return t
}

func stripValues(ts []model.Task) []model.Task {
	out := make([]model.Task, len(ts))
	for i, t := range ts {
		out[i] = withoutValues(t)
	}
	return out
}

func taskIDs(ts []model.Task) []int {
	ids := make([]int, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}
