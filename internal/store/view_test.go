package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/dori/taskdeck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	return newStore(t,
		task(1, "Write proposal", model.PriorityHigh, model.StatusInProgress),
		task(2, "Review PR", model.PriorityMedium, model.StatusTodo),
		task(3, "write tests", model.PriorityLow, model.StatusTodo),
		task(4, "Deploy", model.PriorityHigh, model.StatusDone),
		task(5, "Rewrite docs", model.PriorityMedium, model.StatusDone),
	)
}

func TestDefaultProjectionIsNewestFirst(t *testing.T) {
	s := seeded(t)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, ids(s.FilteredTasks()))
}

func TestCreatedAtSortHandlesSubSecondTimes(t *testing.T) {
	earlier := task(1, "earlier", model.PriorityLow, model.StatusTodo)
	earlier.CreatedAt = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	later := task(2, "later", model.PriorityLow, model.StatusTodo)
	later.CreatedAt = time.Date(2024, 1, 1, 10, 0, 0, 500_000_000, time.UTC)
	latest := task(3, "latest", model.PriorityLow, model.StatusTodo)
	latest.CreatedAt = time.Date(2024, 1, 1, 10, 0, 0, 510_000_000, time.UTC)
	s := newStore(t, later, latest, earlier)

	assert.Equal(t, []int{3, 2, 1}, ids(s.FilteredTasks()))

	require.NoError(t, s.SetSortOrder(SortAsc))
	assert.Equal(t, []int{1, 2, 3}, ids(s.FilteredTasks()))
}

func TestFilterSearchIsCaseInsensitive(t *testing.T) {
	s := seeded(t)
	s.SetSearchTerm("WRITE")
	assert.ElementsMatch(t, []int{1, 3, 5}, ids(s.FilteredTasks()))
}

func TestFiltersCommute(t *testing.T) {
	type step func(*Store)
	search := func(s *Store) { s.SetSearchTerm("write") }
	prio := func(s *Store) { require.NoError(t, s.SetPriorityFilter([]model.Priority{model.PriorityHigh, model.PriorityLow})) }
	status := func(s *Store) { require.NoError(t, s.SetStatusFilter([]model.Status{model.StatusTodo, model.StatusInProgress})) }

	orders := [][]step{
		{search, prio, status},
		{search, status, prio},
		{prio, search, status},
		{prio, status, search},
		{status, search, prio},
		{status, prio, search},
	}

	var want []int
	for i, order := range orders {
		s := seeded(t)
		for _, apply := range order {
			apply(s)
		}
		got := ids(s.FilteredTasks())
		if i == 0 {
			want = got
			assert.ElementsMatch(t, []int{1, 3}, got)
			continue
		}
		assert.Equal(t, want, got, "order %d", i)
	}
}

func TestEmptyFilterMeansNoFilter(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SetPriorityFilter([]model.Priority{model.PriorityHigh}))
	assert.Len(t, s.FilteredTasks(), 2)
	require.NoError(t, s.SetPriorityFilter(nil))
	assert.Len(t, s.FilteredTasks(), 5)

	assert.Error(t, s.SetPriorityFilter([]model.Priority{"urgent"}))
	assert.Error(t, s.SetStatusFilter([]model.Status{"archived"}))
}

func TestSortIsStableInBothDirections(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SetSortField(SortPriority))

	require.NoError(t, s.SetSortOrder(SortAsc))
	// "High" < "Low" < "Medium" as strings; ties keep insertion order
	assert.Equal(t, []int{1, 4, 3, 2, 5}, ids(s.FilteredTasks()))

	require.NoError(t, s.SetSortOrder(SortDesc))
	assert.Equal(t, []int{2, 5, 3, 1, 4}, ids(s.FilteredTasks()))
}

func TestSortByTitleIsLexicographic(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SetSortField(SortTitle))
	require.NoError(t, s.SetSortOrder(SortAsc))
	// Uppercase sorts before lowercase in a byte-wise comparison
	assert.Equal(t, []int{4, 2, 5, 1, 3}, ids(s.FilteredTasks()))
}

func TestSortByCustomField(t *testing.T) {
	s := seeded(t)
	fields := model.FieldSet{
		model.NewCustomField("owner", model.FieldText, 0),
		{Name: "secret", Type: model.FieldText, Order: 1, Sortable: false, Filterable: false},
	}
	s.SetCustomFields(fields)
	require.NoError(t, s.SetFieldValue(3, "owner", model.TextValue("amy")))
	require.NoError(t, s.SetFieldValue(1, "owner", model.TextValue("bob")))

	require.NoError(t, s.SetSortField("owner"))
	require.NoError(t, s.SetSortOrder(SortAsc))
	// tasks without a value sort as "" and keep insertion order
	assert.Equal(t, []int{2, 4, 5, 3, 1}, ids(s.FilteredTasks()))

	assert.Error(t, s.SetSortField("secret"))
	assert.Error(t, s.SetSortField("nope"))
	assert.Error(t, s.SetFieldFilter("secret", "x"))

	require.NoError(t, s.SetFieldFilter("owner", "AMY"))
	assert.Equal(t, []int{3}, ids(s.FilteredTasks()))
	require.NoError(t, s.SetFieldFilter("owner", ""))
	assert.Len(t, s.FilteredTasks(), 5)
}

func TestPaginationLength(t *testing.T) {
	s := New(nil)
	for i := 1; i <= 23; i++ {
		require.NoError(t, s.AddTask(task(i, fmt.Sprintf("task %d", i), model.PriorityLow, model.StatusTodo)))
	}

	for _, size := range []int{1, 5, 10, 23, 30} {
		require.NoError(t, s.SetPageSize(size))
		pages := s.PageCount()
		for page := 1; page <= pages; page++ {
			s.SetCurrentPage(page)
			p := s.Params()
			filtered := len(s.FilteredTasks())
			want := min(p.PageSize, max(0, filtered-(p.CurrentPage-1)*p.PageSize))
			assert.Len(t, s.PaginatedTasks(), want, "size %d page %d", size, page)
		}
	}
}

func TestPageSizeResetsPage(t *testing.T) {
	s := New(nil)
	for i := 1; i <= 45; i++ {
		require.NoError(t, s.AddTask(task(i, fmt.Sprintf("task %d", i), model.PriorityLow, model.StatusTodo)))
	}
	s.SetCurrentPage(3)
	require.Equal(t, 3, s.Params().CurrentPage)

	require.NoError(t, s.SetPageSize(20))
	assert.Equal(t, 1, s.Params().CurrentPage)
	assert.Equal(t, 20, s.Params().PageSize)
	assert.Error(t, s.SetPageSize(0))
}

func TestPageIsClampedWhenResultsShrink(t *testing.T) {
	s := New(nil)
	for i := 1; i <= 30; i++ {
		title := fmt.Sprintf("task %d", i)
		if i <= 3 {
			title = fmt.Sprintf("needle %d", i)
		}
		require.NoError(t, s.AddTask(task(i, title, model.PriorityLow, model.StatusTodo)))
	}
	s.SetCurrentPage(3)
	require.Equal(t, 3, s.Params().CurrentPage)

	s.SetSearchTerm("needle")
	assert.Equal(t, 1, s.Params().CurrentPage)
	assert.Len(t, s.PaginatedTasks(), 3)

	s.SetCurrentPage(99)
	assert.Equal(t, 1, s.Params().CurrentPage)
	s.SetCurrentPage(-4)
	assert.Equal(t, 1, s.Params().CurrentPage)
}

func TestSnapshot(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SetPageSize(2))
	require.NoError(t, s.SelectTask(4))

	p := s.Snapshot()
	assert.Equal(t, 5, p.TotalCount)
	assert.Equal(t, 5, p.FilteredCount)
	assert.Equal(t, 3, p.PageCount)
	assert.Equal(t, []int{5, 4}, ids(p.Tasks))
	assert.Equal(t, []int{4}, p.Selected)
}

func TestSelection(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTask(1))
	on, err := s.ToggleTaskSelection(2)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = s.ToggleTaskSelection(1)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []int{2}, s.SelectedIDs())

	assert.ErrorIs(t, s.SelectTask(77), model.ErrNotFound)

	s.SelectAllTasks()
	assert.Len(t, s.SelectedIDs(), 5)
	s.DeselectTask(3)
	assert.False(t, s.IsSelected(3))

	require.NoError(t, s.DeleteTask(4))
	assert.False(t, s.IsSelected(4), "deleted tasks leave the selection")

	s.ClearSelection()
	assert.Empty(t, s.SelectedIDs())
}

func TestBulkReplaceClearsSelection(t *testing.T) {
	s := seeded(t)
	for _, id := range []int{1, 2, 3} {
		require.NoError(t, s.SelectTask(id))
	}

	var after []model.Task
	for _, tk := range s.SelectedTasks() {
		after = append(after, model.TaskPatch{Status: ptr(model.StatusDone)}.Apply(tk))
	}
	require.NoError(t, s.BulkReplaceTasks(after))
	for _, id := range []int{1, 2, 3} {
		got, _ := s.Task(id)
		assert.Equal(t, model.StatusDone, got.Status)
	}
	assert.Empty(t, s.SelectedIDs())
}

func TestBulkDeleteClearsSelection(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTask(2))
	require.NoError(t, s.SelectTask(5))

	require.NoError(t, s.BulkDeleteTasks(s.SelectedIDs()))
	assert.Equal(t, []int{1, 3, 4}, ids(s.Tasks()))
	assert.Len(t, s.DeletedTasks(), 2)
	assert.Empty(t, s.SelectedIDs())
}

func TestBulkDeleteRejectsMissingWithoutChanges(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SelectTask(2))

	assert.ErrorIs(t, s.BulkDeleteTasks([]int{2, 99}), model.ErrNotFound)
	assert.Len(t, s.Tasks(), 5)
	assert.Equal(t, []int{2}, s.SelectedIDs())
}
