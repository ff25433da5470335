// Package store owns the canonical task collection and the view parameters
// used to project it for rendering.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dori/taskdeck/internal/model"
)

// ErrExists is returned when adding or restoring a task whose id is already live
var ErrExists = errors.New("task already exists")

// deletedEntry is a soft-deleted task together with its former position
type deletedEntry struct {
	task  model.Task
	index int
}

// Store holds tasks, soft-deleted tasks, custom fields and view state.
// All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	tasks   []model.Task
	deleted []deletedEntry

	fields model.FieldSet
	values map[int]map[string]model.FieldValue

	view     Params
	selected map[int]struct{}

	logger *slog.Logger
}

// New creates an empty store with default view parameters
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		values:   make(map[int]map[string]model.FieldValue),
		view:     DefaultParams(),
		selected: make(map[int]struct{}),
		logger:   logger,
	}
}

// SetTasks replaces the collection, dropping records that are not valid tasks
func (s *Store) SetTasks(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := make([]model.Task, 0, len(tasks))
	seen := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if !t.Valid() || seen[t.ID] {
			s.logger.Warn("dropping invalid task", "id", t.ID, "title", t.Title, "status", t.Status, "priority", t.Priority)
			continue
		}
		seen[t.ID] = true
		t = t.Clone()
		if len(t.CustomFields) > 0 {
			s.values[t.ID] = t.CustomFields
		}
		t.CustomFields = nil
		valid = append(valid, t)
	}

	s.tasks = valid
	s.view.CurrentPage = 1
}

// Tasks returns every live task in insertion order
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = s.withValues(t)
	}
	return out
}

// Task returns a live task by id
func (s *Store) Task(id int) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.withValues(s.tasks[i]), true
}

// Len returns the number of live tasks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// NextID returns an id greater than every live or held task id
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	next := 1
	for _, t := range s.tasks {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	for _, d := range s.deleted {
		if d.task.ID >= next {
			next = d.task.ID + 1
		}
	}
	return next
}

// AddTask appends task to the collection. A held copy with the same id is
// discarded, since the task is live again.
func (s *Store) AddTask(task model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(task.ID) >= 0 {
		return fmt.Errorf("%w: %d", ErrExists, task.ID)
	}
	s.dropDeleted(task.ID)
	s.insert(task, len(s.tasks))
	return nil
}

// UpdateTask shallow-merges patch into the task with the given id
func (s *Store) UpdateTask(id int, patch model.TaskPatch) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %d", model.ErrNotFound, id)
	}
	s.tasks[i] = patch.Apply(s.tasks[i])
	s.clampPage()
	return s.withValues(s.tasks[i]), nil
}

// ReplaceTask overwrites the stored record for task.ID with task. Custom
// field values carried on task replace the stored ones.
func (s *Store) ReplaceTask(task model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(task)
}

// ReplaceTasks replaces several records; it fails without changes if any id is missing
func (s *Store) ReplaceTasks(tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceAllLocked(tasks)
}

// BulkReplaceTasks replaces several records and clears the selection in
// one step, so no reader sees the new records with the old selection.
func (s *Store) BulkReplaceTasks(tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.replaceAllLocked(tasks); err != nil {
		return err
	}
	s.selected = make(map[int]struct{})
	return nil
}

// DeleteTask moves the task into the deleted holding area
func (s *Store) DeleteTask(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %d", model.ErrNotFound, id)
	}
	s.deleteLocked(id)
	s.clampPage()
	return nil
}

// BulkDeleteTasks soft-deletes several tasks and clears the selection in
// one step. It fails without changes if any id is missing.
func (s *Store) BulkDeleteTasks(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if s.indexOf(id) < 0 {
			return fmt.Errorf("%w: %d", model.ErrNotFound, id)
		}
	}
	for _, id := range ids {
		s.deleteLocked(id)
	}
	s.selected = make(map[int]struct{})
	s.clampPage()
	return nil
}

// RestoreTask brings a deleted task back at its former position. If the
// held copy is gone or belongs to a different task with the same id, the
// given snapshot is appended instead.
func (s *Store) RestoreTask(task model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(task.ID) >= 0 {
		return fmt.Errorf("%w: %d", ErrExists, task.ID)
	}
	s.restoreLocked(task)
	s.clampPage()
	return nil
}

// RestoreTasks restores several tasks in reverse order of deletion, so
// every task lands back where it was.
func (s *Store) RestoreTasks(tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[int]model.Task, len(tasks))
	for _, t := range tasks {
		if s.indexOf(t.ID) >= 0 {
			return fmt.Errorf("%w: %d", ErrExists, t.ID)
		}
		want[t.ID] = t
	}

	for i := len(s.deleted) - 1; i >= 0; i-- {
		t, ok := want[s.deleted[i].task.ID]
		if !ok || !sameRecord(s.deleted[i].task, t) {
			continue
		}
		s.restoreLocked(t)
		delete(want, t.ID)
	}
	// Anything left was purged; append the snapshots in the given order
	for _, t := range tasks {
		if _, ok := want[t.ID]; ok {
			s.restoreLocked(t)
		}
	}
	s.clampPage()
	return nil
}

// DeletedTasks returns the tasks in the holding area, oldest first
func (s *Store) DeletedTasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Task, len(s.deleted))
	for i, d := range s.deleted {
		out[i] = s.withValues(d.task)
	}
	return out
}

// PurgeDeleted permanently discards held tasks and their custom field
// values. With no ids, the whole holding area is emptied. It returns the
// number of tasks discarded.
func (s *Store) PurgeDeleted(ids ...int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	kept := s.deleted[:0]
	purged := 0
	for _, d := range s.deleted {
		if len(ids) == 0 || want[d.task.ID] {
			delete(s.values, d.task.ID)
			purged++
			continue
		}
		kept = append(kept, d)
	}
	s.deleted = kept
	return purged
}

// CustomFields returns the field definitions ordered by Order
func (s *Store) CustomFields() model.FieldSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.Sorted()
}

// SetCustomFields replaces the field definitions. Values of removed fields
// are kept so that restoring the previous set brings them back.
func (s *Store) SetCustomFields(fields model.FieldSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields = fields.Sorted()
	if _, ok := s.fields.Lookup(s.view.SortField); !ok && !isBuiltinSortField(s.view.SortField) {
		s.view.SortField = SortCreatedAt
	}
	for name := range s.view.FieldFilters {
		if f, ok := s.fields.Lookup(name); !ok || !f.Filterable {
			delete(s.view.FieldFilters, name)
		}
	}
	s.clampPage()
}

// SetFieldValue stores a custom field value on a live task
func (s *Store) SetFieldValue(taskID int, name string, value model.FieldValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(taskID) < 0 {
		return fmt.Errorf("%w: %d", model.ErrNotFound, taskID)
	}
	def, ok := s.fields.Lookup(name)
	if !ok {
		return &model.ValidationError{Field: name, Message: "unknown custom field"}
	}
	if err := model.CheckValue(def, value); err != nil {
		return err
	}

	if s.values[taskID] == nil {
		s.values[taskID] = make(map[string]model.FieldValue)
	}
	s.values[taskID][name] = value
	return nil
}

// FieldValues returns a copy of the stored values for a task, live or held
func (s *Store) FieldValues(taskID int) map[string]model.FieldValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.FieldValue, len(s.values[taskID]))
	for k, v := range s.values[taskID] {
		out[k] = v
	}
	return out
}

// AllFieldValues returns a copy of every stored value keyed by task id
func (s *Store) AllFieldValues() map[int]map[string]model.FieldValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]map[string]model.FieldValue, len(s.values))
	for id, vals := range s.values {
		m := make(map[string]model.FieldValue, len(vals))
		for k, v := range vals {
			m[k] = v
		}
		out[id] = m
	}
	return out
}

// SetAllFieldValues replaces every stored value
func (s *Store) SetAllFieldValues(values map[int]map[string]model.FieldValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[int]map[string]model.FieldValue, len(values))
	for id, vals := range values {
		if len(vals) == 0 {
			continue
		}
		m := make(map[string]model.FieldValue, len(vals))
		for k, v := range vals {
			m[k] = v
		}
		s.values[id] = m
	}
}

// Helper functions. Callers hold s.mu.

func (s *Store) indexOf(id int) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// withValues returns a copy of t with its custom field values attached
func (s *Store) withValues(t model.Task) model.Task {
	vals := s.values[t.ID]
	if len(vals) == 0 {
		t.CustomFields = nil
		return t
	}
	t.CustomFields = make(map[string]model.FieldValue, len(vals))
	for k, v := range vals {
		t.CustomFields[k] = v
	}
	return t
}

// insert stores task at index, moving its custom field values to the side map
func (s *Store) insert(task model.Task, index int) {
	task = task.Clone()
	if task.CustomFields != nil {
		s.values[task.ID] = task.CustomFields
	}
	task.CustomFields = nil

	if index > len(s.tasks) {
		index = len(s.tasks)
	}
	s.tasks = append(s.tasks, model.Task{})
	copy(s.tasks[index+1:], s.tasks[index:])
	s.tasks[index] = task
}

func (s *Store) replaceLocked(task model.Task) error {
	i := s.indexOf(task.ID)
	if i < 0 {
		return fmt.Errorf("%w: %d", model.ErrNotFound, task.ID)
	}
	task = task.Clone()
	if task.CustomFields != nil {
		s.values[task.ID] = task.CustomFields
	}
	task.CustomFields = nil
	s.tasks[i] = task
	s.clampPage()
	return nil
}

func (s *Store) replaceAllLocked(tasks []model.Task) error {
	for _, t := range tasks {
		if s.indexOf(t.ID) < 0 {
			return fmt.Errorf("%w: %d", model.ErrNotFound, t.ID)
		}
	}
	for _, t := range tasks {
		if err := s.replaceLocked(t); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) deleteLocked(id int) {
	i := s.indexOf(id)
	s.deleted = append(s.deleted, deletedEntry{task: s.tasks[i], index: i})
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	delete(s.selected, id)
}

func (s *Store) restoreLocked(task model.Task) {
	index := len(s.tasks)
	record := task
	for i, d := range s.deleted {
		if sameRecord(d.task, task) {
			index = d.index
			record = d.task
			s.deleted = append(s.deleted[:i], s.deleted[i+1:]...)
			break
		}
	}
	if _, ok := s.values[task.ID]; !ok && len(task.CustomFields) > 0 {
		record.CustomFields = task.CustomFields
	}
	s.insert(record, index)
}

// sameRecord reports whether a held task and a snapshot are the same task.
// Ids alone are not enough once a purged id has been handed out again.
func sameRecord(held, snapshot model.Task) bool {
	return held.ID == snapshot.ID && held.CreatedAt.Equal(snapshot.CreatedAt)
}

func (s *Store) dropDeleted(id int) {
	for i, d := range s.deleted {
		if d.task.ID == id {
			s.deleted = append(s.deleted[:i], s.deleted[i+1:]...)
			return
		}
	}
}
