package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/dori/taskdeck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func task(id int, title string, p model.Priority, st model.Status) model.Task {
	return model.Task{ID: id, Title: title, Priority: p, Status: st, CreatedAt: base.Add(time.Duration(id) * time.Hour)}
}

func newStore(t *testing.T, tasks ...model.Task) *Store {
	t.Helper()
	s := New(nil)
	for _, tk := range tasks {
		require.NoError(t, s.AddTask(tk))
	}
	return s
}

func ids(ts []model.Task) []int {
	out := make([]int, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestSetTasksDropsInvalid(t *testing.T) {
	s := New(nil)
	s.SetTasks([]model.Task{
		task(1, "ok", model.PriorityHigh, model.StatusTodo),
		{ID: 2, Title: "bad status", Priority: model.PriorityLow, Status: "completed"},
		{ID: 3, Title: "", Priority: model.PriorityLow, Status: model.StatusTodo},
		task(1, "duplicate id", model.PriorityLow, model.StatusTodo),
	})
	assert.Equal(t, []int{1}, ids(s.Tasks()))
	assert.Equal(t, 1, s.Params().CurrentPage)
}

func TestUpdateTaskShallowMerge(t *testing.T) {
	s := newStore(t, task(1, "A", model.PriorityLow, model.StatusTodo))

	got, err := s.UpdateTask(1, model.TaskPatch{Status: ptr(model.StatusDone)})
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, model.PriorityLow, got.Priority)
	assert.Equal(t, model.StatusDone, got.Status)

	_, err = s.UpdateTask(99, model.TaskPatch{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteAndRestoreKeepsPosition(t *testing.T) {
	s := newStore(t,
		task(1, "a", model.PriorityLow, model.StatusTodo),
		task(2, "b", model.PriorityLow, model.StatusTodo),
		task(3, "c", model.PriorityLow, model.StatusTodo),
	)
	b, _ := s.Task(2)

	require.NoError(t, s.DeleteTask(2))
	assert.Equal(t, []int{1, 3}, ids(s.Tasks()))
	assert.Equal(t, []int{2}, ids(s.DeletedTasks()))

	require.NoError(t, s.RestoreTask(b))
	assert.Equal(t, []int{1, 2, 3}, ids(s.Tasks()))
	assert.Empty(t, s.DeletedTasks())

	assert.ErrorIs(t, s.DeleteTask(42), model.ErrNotFound)
	assert.ErrorIs(t, s.RestoreTask(b), ErrExists)
}

func TestRestoreTasksInReverseDeletionOrder(t *testing.T) {
	s := newStore(t,
		task(1, "a", model.PriorityLow, model.StatusTodo),
		task(2, "b", model.PriorityLow, model.StatusTodo),
		task(3, "c", model.PriorityLow, model.StatusTodo),
		task(4, "d", model.PriorityLow, model.StatusTodo),
	)
	before := s.Tasks()

	require.NoError(t, s.BulkDeleteTasks([]int{2, 4}))
	assert.Equal(t, []int{1, 3}, ids(s.Tasks()))

	require.NoError(t, s.RestoreTasks([]model.Task{before[1], before[3]}))
	assert.Equal(t, before, s.Tasks())
}

func TestRestoreSkipsHeldTaskWithReusedID(t *testing.T) {
	s := newStore(t, task(1, "a", model.PriorityLow, model.StatusTodo))
	original := task(2, "original", model.PriorityHigh, model.StatusTodo)

	// A different task that was given the same id sits in the holding area
	newcomer := task(2, "newcomer", model.PriorityLow, model.StatusDone)
	newcomer.CreatedAt = original.CreatedAt.Add(time.Minute)
	require.NoError(t, s.AddTask(newcomer))
	require.NoError(t, s.DeleteTask(2))

	require.NoError(t, s.RestoreTask(original))
	got, ok := s.Task(2)
	require.True(t, ok)
	assert.Equal(t, "original", got.Title)
	assert.Equal(t, model.PriorityHigh, got.Priority)

	require.NoError(t, s.DeleteTask(2))
	require.NoError(t, s.RestoreTasks([]model.Task{original}))
	got, _ = s.Task(2)
	assert.Equal(t, "original", got.Title)
}

func TestPurgeDeletedDropsFieldValues(t *testing.T) {
	s := newStore(t, task(1, "a", model.PriorityLow, model.StatusTodo), task(2, "b", model.PriorityLow, model.StatusTodo))
	s.SetCustomFields(model.FieldSet{model.NewCustomField("points", model.FieldNumber, 0)})
	require.NoError(t, s.SetFieldValue(1, "points", model.NumberValue(5)))
	require.NoError(t, s.SetFieldValue(2, "points", model.NumberValue(8)))

	require.NoError(t, s.DeleteTask(1))
	assert.Equal(t, model.NumberValue(5), s.FieldValues(1)["points"], "soft delete keeps values for undo")

	assert.Equal(t, 1, s.PurgeDeleted())
	assert.Empty(t, s.FieldValues(1))
	assert.Equal(t, model.NumberValue(8), s.FieldValues(2)["points"])
	assert.Empty(t, s.DeletedTasks())
}

func TestSetFieldValueValidates(t *testing.T) {
	s := newStore(t, task(1, "a", model.PriorityLow, model.StatusTodo))
	s.SetCustomFields(model.FieldSet{model.NewCustomField("done?", model.FieldCheckbox, 0)})

	assert.Error(t, s.SetFieldValue(1, "done?", model.TextValue("yes")))
	assert.Error(t, s.SetFieldValue(1, "unknown", model.TextValue("x")))
	assert.ErrorIs(t, s.SetFieldValue(9, "done?", model.CheckboxValue(true)), model.ErrNotFound)
	require.NoError(t, s.SetFieldValue(1, "done?", model.CheckboxValue(true)))

	got, ok := s.Task(1)
	require.True(t, ok)
	assert.Equal(t, model.CheckboxValue(true), got.CustomFields["done?"])
}

func TestAddTaskDiscardsHeldCopy(t *testing.T) {
	a := task(1, "a", model.PriorityLow, model.StatusTodo)
	s := newStore(t, a)
	require.NoError(t, s.DeleteTask(1))
	require.NoError(t, s.AddTask(a))
	assert.Empty(t, s.DeletedTasks())
	assert.ErrorIs(t, s.AddTask(a), ErrExists)
	assert.Equal(t, 2, s.NextID())
}

func TestNextIDCountsHeldTasks(t *testing.T) {
	s := newStore(t, task(4, "a", model.PriorityLow, model.StatusTodo), task(9, "b", model.PriorityLow, model.StatusTodo))
	require.NoError(t, s.DeleteTask(9))
	assert.Equal(t, 10, s.NextID())
	assert.Equal(t, 1, New(nil).NextID())
}

func TestSetCustomFieldsResetsStaleViewState(t *testing.T) {
	s := newStore(t, task(1, "a", model.PriorityLow, model.StatusTodo))
	s.SetCustomFields(model.FieldSet{model.NewCustomField("owner", model.FieldText, 0)})
	require.NoError(t, s.SetSortField("owner"))
	require.NoError(t, s.SetFieldFilter("owner", "sam"))

	s.SetCustomFields(nil)
	p := s.Params()
	assert.Equal(t, SortCreatedAt, p.SortField)
	assert.Empty(t, p.FieldFilters)
}

func TestManyTasksIDs(t *testing.T) {
	s := New(nil)
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.AddTask(task(i, fmt.Sprintf("t%d", i), model.PriorityLow, model.StatusTodo)))
	}
	assert.Equal(t, 5, s.Len())
}
