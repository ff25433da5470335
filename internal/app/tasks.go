package app

import (
	"fmt"

	"github.com/dori/taskdeck/internal/history"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/store"
)

// HistoryState summarizes the undo/redo stacks for rendering
type HistoryState struct {
	CanUndo    bool   `json:"canUndo"`
	CanRedo    bool   `json:"canRedo"`
	LastAction string `json:"lastAction"`
	NextRedo   string `json:"nextRedo"`
	UndoDepth  int    `json:"undoDepth"`
	RedoDepth  int    `json:"redoDepth"`
}

// ListTasks returns every live task in insertion order
func (a *App) ListTasks() []model.Task {
	return a.store.Tasks()
}

// GetTask returns a live task by id
func (a *App) GetTask(id int) (model.Task, error) {
	t, ok := a.store.Task(id)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %d", model.ErrNotFound, id)
	}
	return t, nil
}

// CreateTask validates in and adds a new task through the history
func (a *App) CreateTask(in model.TaskInput) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	task := model.Task{
		ID:        a.nextID(),
		Title:     in.Title,
		Priority:  in.Priority,
		Status:    in.Status,
		CreatedAt: a.now().UTC(),
	}
	if err := a.history.AddCommand(history.AddTask(task)); err != nil {
		return model.Task{}, err
	}
	a.persist()
	a.logger.Info("task created", "id", task.ID, "title", task.Title)
	return task, nil
}

// UpdateTask validates patch and applies it through the history. An empty
// patch changes nothing and records nothing.
func (a *App) UpdateTask(id int, patch model.TaskPatch) (model.Task, error) {
	if err := patch.Validate(); err != nil {
		return model.Task{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	before, ok := a.store.Task(id)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %d", model.ErrNotFound, id)
	}
	if patch.Empty() {
		return before, nil
	}

	after := patch.Apply(before)
	if err := a.history.AddCommand(history.UpdateTask(before, after)); err != nil {
		return model.Task{}, err
	}
	a.persist()
	a.logger.Info("task updated", "id", id)

	updated, _ := a.store.Task(id)
	return updated, nil
}

// DeleteTask soft-deletes a task through the history
func (a *App) DeleteTask(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	task, ok := a.store.Task(id)
	if !ok {
		return fmt.Errorf("%w: %d", model.ErrNotFound, id)
	}
	if err := a.history.AddCommand(history.DeleteTask(task)); err != nil {
		return err
	}
	a.persist()
	a.logger.Info("task deleted", "id", id)
	return nil
}

// Undo reverts the most recent command. It reports false when there was nothing to undo.
func (a *App) Undo() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	desc := a.history.LastAction()
	ok, err := a.history.Undo()
	if err != nil || !ok {
		return ok, err
	}
	a.persist()
	a.logger.Info("undo", "action", desc)
	return true, nil
}

// Redo reapplies the most recently undone command
func (a *App) Redo() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	desc := a.history.NextRedo()
	ok, err := a.history.Redo()
	if err != nil || !ok {
		return ok, err
	}
	a.persist()
	a.logger.Info("redo", "action", desc)
	return true, nil
}

// HistoryState returns the current undo/redo summary
func (a *App) HistoryState() HistoryState {
	a.mu.Lock()
	defer a.mu.Unlock()

	undo, redo := a.history.Len()
	return HistoryState{
		CanUndo:    a.history.CanUndo(),
		CanRedo:    a.history.CanRedo(),
		LastAction: a.history.LastAction(),
		NextRedo:   a.history.NextRedo(),
		UndoDepth:  undo,
		RedoDepth:  redo,
	}
}

// Reset clears the history and permanently discards the trash
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history.Clear()
	n := a.store.PurgeDeleted()
	a.persist()
	a.logger.Info("history reset", "purged", n)
}

// CustomFields returns the field definitions ordered by Order
func (a *App) CustomFields() model.FieldSet {
	return a.store.CustomFields()
}

// SetCustomFields validates and normalizes fields, then replaces the
// definitions through the history
func (a *App) SetCustomFields(fields model.FieldSet) (model.FieldSet, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	next := fields.Normalize()

	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.store.CustomFields()
	if err := a.history.AddCommand(history.UpdateFieldSet(prev, next)); err != nil {
		return nil, err
	}
	a.persist()
	a.logger.Info("custom fields updated", "count", len(next))
	return next, nil
}

// SetFieldValue stores a custom field value on a task
func (a *App) SetFieldValue(taskID int, name string, value model.FieldValue) (model.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.SetFieldValue(taskID, name, value); err != nil {
		return model.Task{}, err
	}
	a.persist()

	t, _ := a.store.Task(taskID)
	return t, nil
}

// SetFieldText parses raw according to the field's type and stores it
func (a *App) SetFieldText(taskID int, name, raw string) (model.Task, error) {
	def, ok := a.store.CustomFields().Lookup(name)
	if !ok {
		return model.Task{}, &model.ValidationError{Field: name, Message: "unknown custom field"}
	}
	v, err := model.ParseFieldValue(def.Type, raw)
	if err != nil {
		return model.Task{}, err
	}
	return a.SetFieldValue(taskID, name, v)
}

// BulkUpdate applies patch to every selected task as one undoable command
// and clears the selection. It returns the updated tasks.
func (a *App) BulkUpdate(patch model.TaskPatch) ([]model.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	before := a.store.SelectedTasks()
	if len(before) == 0 || patch.Empty() {
		a.store.ClearSelection()
		return []model.Task{}, nil
	}

	after := make([]model.Task, len(before))
	for i, t := range before {
		after[i] = patch.Apply(t)
	}
	if err := a.history.AddCommand(history.BulkUpdate(before, after)); err != nil {
		return nil, err
	}
	a.persist()
	a.logger.Info("bulk update", "count", len(after))
	return after, nil
}

// BulkDelete soft-deletes every selected task as one undoable command and
// clears the selection. It returns the removed tasks.
func (a *App) BulkDelete() ([]model.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := a.store.SelectedTasks()
	if len(removed) == 0 {
		return []model.Task{}, nil
	}
	if err := a.history.AddCommand(history.BulkDelete(removed)); err != nil {
		return nil, err
	}
	a.persist()
	a.logger.Info("bulk delete", "count", len(removed))
	return removed, nil
}

// nextID returns an id no live, held or recorded task uses. Ids named by
// the history stay reserved after the trash copy is gone. Callers hold a.mu.
func (a *App) nextID() int {
	return max(a.store.NextID(), a.history.MaxTaskID()+1)
}

// Trash returns the soft-deleted tasks, oldest first
func (a *App) Trash() []model.Task {
	return a.store.DeletedTasks()
}

// EmptyTrash permanently discards soft-deleted tasks. Undoing their
// deletion later restores the snapshot at the end of the list.
func (a *App) EmptyTrash() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.store.PurgeDeleted()
	if n > 0 {
		a.persist()
		a.logger.Info("trash emptied", "purged", n)
	}
	return n
}

// Import appends tasks with fresh ids, bypassing the history. Tasks that
// are not valid are rejected before anything is added.
func (a *App) Import(tasks []model.Task) ([]model.Task, error) {
	for i := range tasks {
		if !tasks[i].Valid() {
			return nil, &model.ValidationError{Field: "tasks", Message: fmt.Sprintf("record %d is not a valid task", i)}
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	added := make([]model.Task, 0, len(tasks))
	next := a.nextID()
	for _, t := range tasks {
		t = t.Clone()
		t.ID = next
		if t.CreatedAt.IsZero() {
			t.CreatedAt = a.now().UTC()
		}
		if err := a.store.AddTask(t); err != nil {
			return added, fmt.Errorf("failed to import task %q: %w", t.Title, err)
		}
		added = append(added, t)
		next++
	}
	a.persist()
	a.logger.Info("tasks imported", "count", len(added))
	return added, nil
}

// Selection applies fn to the store under the app lock and returns the
// resulting selection. Bulk commands read and clear the selection under
// the same lock.
func (a *App) Selection(fn func(*store.Store) error) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if fn != nil {
		if err := fn(a.store); err != nil {
			return nil, err
		}
	}
	return a.store.SelectedIDs(), nil
}

// View applies fn to the store under the app lock and returns the
// resulting snapshot. fn is where view parameters get changed.
func (a *App) View(fn func(*store.Store) error) (store.Page, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if fn != nil {
		if err := fn(a.store); err != nil {
			return store.Page{}, err
		}
	}
	return a.store.Snapshot(), nil
}
