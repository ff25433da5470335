package store

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/dori/taskdeck/internal/model"
)

// SortOrder is the direction of the projection sort
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Built-in sort fields. Any sortable custom field name is accepted too.
const (
	SortTitle     = "title"
	SortPriority  = "priority"
	SortStatus    = "status"
	SortCreatedAt = "createdAt"
)

// DefaultPageSize is the page size of a fresh store
const DefaultPageSize = 10

func isBuiltinSortField(f string) bool {
	switch f {
	case SortTitle, SortPriority, SortStatus, SortCreatedAt:
		return true
	}
	return false
}

// Params are the view parameters the projection is computed from
type Params struct {
	SearchTerm     string            `json:"searchTerm"`
	PriorityFilter []model.Priority  `json:"priorityFilter"`
	StatusFilter   []model.Status    `json:"statusFilter"`
	FieldFilters   map[string]string `json:"fieldFilters,omitempty"`
	SortField      string            `json:"sortField"`
	SortOrder      SortOrder         `json:"sortOrder"`
	CurrentPage    int               `json:"currentPage"`
	PageSize       int               `json:"pageSize"`
}

// DefaultParams returns newest-first, first page, ten per page, no filters
func DefaultParams() Params {
	return Params{
		PriorityFilter: []model.Priority{},
		StatusFilter:   []model.Status{},
		SortField:      SortCreatedAt,
		SortOrder:      SortDesc,
		CurrentPage:    1,
		PageSize:       DefaultPageSize,
	}
}

func (p Params) clone() Params {
	p.PriorityFilter = slices.Clone(p.PriorityFilter)
	p.StatusFilter = slices.Clone(p.StatusFilter)
	if p.FieldFilters != nil {
		ff := make(map[string]string, len(p.FieldFilters))
		for k, v := range p.FieldFilters {
			ff[k] = v
		}
		p.FieldFilters = ff
	}
	return p
}

// Page is one rendered page of the projection
type Page struct {
	Params
	Tasks         []model.Task `json:"tasks"`
	FilteredCount int          `json:"filteredCount"`
	TotalCount    int          `json:"totalCount"`
	PageCount     int          `json:"pageCount"`
	Selected      []int        `json:"selected"`
}

// Params returns a copy of the current view parameters
func (s *Store) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.clone()
}

// SetSearchTerm sets the case-insensitive title filter
func (s *Store) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SearchTerm = term
	s.clampPage()
}

// SetPriorityFilter restricts the projection to the given priorities; empty clears it
func (s *Store) SetPriorityFilter(priorities []model.Priority) error {
	set, err := priorityFilter(priorities)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.PriorityFilter = set
	s.clampPage()
	return nil
}

// SetStatusFilter restricts the projection to the given statuses; empty clears it
func (s *Store) SetStatusFilter(statuses []model.Status) error {
	set, err := statusFilter(statuses)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.StatusFilter = set
	s.clampPage()
	return nil
}

func priorityFilter(priorities []model.Priority) ([]model.Priority, error) {
	set := make([]model.Priority, 0, len(priorities))
	for _, p := range priorities {
		if !p.Valid() {
			return nil, &model.ValidationError{Field: "priority", Message: fmt.Sprintf("invalid priority %q", p)}
		}
		if !slices.Contains(set, p) {
			set = append(set, p)
		}
	}
	return set, nil
}

func statusFilter(statuses []model.Status) ([]model.Status, error) {
	set := make([]model.Status, 0, len(statuses))
	for _, st := range statuses {
		if !st.Valid() {
			return nil, &model.ValidationError{Field: "status", Message: fmt.Sprintf("invalid status %q", st)}
		}
		if !slices.Contains(set, st) {
			set = append(set, st)
		}
	}
	return set, nil
}

// SetFieldFilter filters on a filterable custom field. An empty value removes the filter.
func (s *Store) SetFieldFilter(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == "" {
		delete(s.view.FieldFilters, name)
		s.clampPage()
		return nil
	}
	if err := s.checkFieldFilter(name); err != nil {
		return err
	}
	if s.view.FieldFilters == nil {
		s.view.FieldFilters = make(map[string]string)
	}
	s.view.FieldFilters[name] = value
	s.clampPage()
	return nil
}

// ClearFilters removes the search term and every filter
func (s *Store) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SearchTerm = ""
	s.view.PriorityFilter = []model.Priority{}
	s.view.StatusFilter = []model.Status{}
	s.view.FieldFilters = nil
	s.clampPage()
}

// SetSortField sets the field the projection is sorted by
func (s *Store) SetSortField(field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSortField(field); err != nil {
		return err
	}
	s.view.SortField = field
	return nil
}

// SetSortOrder sets ascending or descending order
func (s *Store) SetSortOrder(order SortOrder) error {
	if err := checkSortOrder(order); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.SortOrder = order
	return nil
}

// SortFields returns every field the projection can be sorted by
func (s *Store) SortFields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []string{SortCreatedAt, SortTitle, SortPriority, SortStatus}
	for _, f := range s.fields.Sorted() {
		if f.Sortable {
			out = append(out, f.Name)
		}
	}
	return out
}

// SetCurrentPage moves to page, clamped to the pages that exist
func (s *Store) SetCurrentPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.CurrentPage = page
	s.clampPage()
}

// SetPageSize changes the page size and returns to the first page
func (s *Store) SetPageSize(size int) error {
	if err := checkPageSize(size); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.PageSize = size
	s.view.CurrentPage = 1
	return nil
}

// SetParams validates every parameter in p and then replaces the view
// parameters in one step. On error nothing changes. The page is clamped
// like any other change.
func (s *Store) SetParams(p Params) error {
	prio, err := priorityFilter(p.PriorityFilter)
	if err != nil {
		return err
	}
	status, err := statusFilter(p.StatusFilter)
	if err != nil {
		return err
	}
	if err := checkSortOrder(p.SortOrder); err != nil {
		return err
	}
	if err := checkPageSize(p.PageSize); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSortField(p.SortField); err != nil {
		return err
	}
	var ff map[string]string
	for name, value := range p.FieldFilters {
		if value == "" {
			continue
		}
		if err := s.checkFieldFilter(name); err != nil {
			return err
		}
		if ff == nil {
			ff = make(map[string]string)
		}
		ff[name] = value
	}

	p.PriorityFilter = prio
	p.StatusFilter = status
	p.FieldFilters = ff
	s.view = p
	s.clampPage()
	return nil
}

// Validation helpers. The locked ones need s.mu held.

func (s *Store) checkSortField(field string) error {
	if isBuiltinSortField(field) {
		return nil
	}
	f, ok := s.fields.Lookup(field)
	if !ok {
		return &model.ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort field %q", field)}
	}
	if !f.Sortable {
		return &model.ValidationError{Field: "sort", Message: fmt.Sprintf("field %q is not sortable", field)}
	}
	return nil
}

func (s *Store) checkFieldFilter(name string) error {
	f, ok := s.fields.Lookup(name)
	if !ok {
		return &model.ValidationError{Field: name, Message: "unknown custom field"}
	}
	if !f.Filterable {
		return &model.ValidationError{Field: name, Message: "field is not filterable"}
	}
	return nil
}

func checkSortOrder(order SortOrder) error {
	if order != SortAsc && order != SortDesc {
		return &model.ValidationError{Field: "order", Message: fmt.Sprintf("invalid sort order %q", order)}
	}
	return nil
}

func checkPageSize(size int) error {
	if size < 1 {
		return &model.ValidationError{Field: "pageSize", Message: "page size must be at least 1"}
	}
	return nil
}

// FilteredTasks returns the filtered and sorted projection
func (s *Store) FilteredTasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtered()
}

// PaginatedTasks returns the current page of the projection
func (s *Store) PaginatedTasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(s.filtered())
}

// PageCount returns the number of pages, at least one
func (s *Store) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageCount(len(s.filtered()), s.view.PageSize)
}

// Snapshot returns the current page together with the parameters and totals it was computed from
func (s *Store) Snapshot() Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.filtered()
	return Page{
		Params:        s.view.clone(),
		Tasks:         s.page(all),
		FilteredCount: len(all),
		TotalCount:    len(s.tasks),
		PageCount:     pageCount(len(all), s.view.PageSize),
		Selected:      s.selectedIDs(),
	}
}

// filtered computes filter then stable sort. Callers hold s.mu.
func (s *Store) filtered() []model.Task {
	term := strings.ToLower(s.view.SearchTerm)
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		t = s.withValues(t)
		if s.matches(t, term) {
			out = append(out, t)
		}
	}

	field := s.view.SortField
	desc := s.view.SortOrder == SortDesc
	keys := make(map[int]string, len(out))
	for _, t := range out {
		keys[t.ID] = sortKey(t, field)
	}
	slices.SortStableFunc(out, func(a, b model.Task) int {
		c := strings.Compare(keys[a.ID], keys[b.ID])
		if desc {
			return -c
		}
		return c
	})
	return out
}

func (s *Store) matches(t model.Task, term string) bool {
	if term != "" && !strings.Contains(strings.ToLower(t.Title), term) {
		return false
	}
	if len(s.view.PriorityFilter) > 0 && !slices.Contains(s.view.PriorityFilter, t.Priority) {
		return false
	}
	if len(s.view.StatusFilter) > 0 && !slices.Contains(s.view.StatusFilter, t.Status) {
		return false
	}
	for name, want := range s.view.FieldFilters {
		v, ok := t.CustomFields[name]
		if !ok || !strings.EqualFold(v.String(), want) {
			return false
		}
	}
	return true
}

// createdAtLayout is fixed width, so the text of two UTC times compares
// like the times themselves
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sortKey is the string form a field is compared by
func sortKey(t model.Task, field string) string {
	switch field {
	case SortTitle:
		return t.Title
	case SortPriority:
		return string(t.Priority)
	case SortStatus:
		return string(t.Status)
	case SortCreatedAt:
		return t.CreatedAt.UTC().Format(createdAtLayout)
	default:
		if v, ok := t.CustomFields[field]; ok {
			return v.String()
		}
		return ""
	}
}

func (s *Store) page(all []model.Task) []model.Task {
	start := (s.view.CurrentPage - 1) * s.view.PageSize
	if start >= len(all) || start < 0 {
		return []model.Task{}
	}
	end := start + s.view.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// clampPage keeps CurrentPage within [1, PageCount]. Callers hold s.mu.
func (s *Store) clampPage() {
	pages := pageCount(len(s.filtered()), s.view.PageSize)
	if s.view.CurrentPage > pages {
		s.view.CurrentPage = pages
	}
	if s.view.CurrentPage < 1 {
		s.view.CurrentPage = 1
	}
}

func pageCount(n, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	pages := (n + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// SelectTask marks a live task as selected
func (s *Store) SelectTask(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %d", model.ErrNotFound, id)
	}
	s.selected[id] = struct{}{}
	return nil
}

// DeselectTask removes id from the selection
func (s *Store) DeselectTask(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, id)
}

// ToggleTaskSelection flips the selection state of a live task and returns the new state
func (s *Store) ToggleTaskSelection(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false, nil
	}
	if s.indexOf(id) < 0 {
		return false, fmt.Errorf("%w: %d", model.ErrNotFound, id)
	}
	s.selected[id] = struct{}{}
	return true, nil
}

// SelectAllTasks selects every live task, regardless of filters
func (s *Store) SelectAllTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		s.selected[t.ID] = struct{}{}
	}
}

// ClearSelection empties the selection
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[int]struct{})
}

// IsSelected reports whether id is selected
func (s *Store) IsSelected(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// SelectedIDs returns the selected ids in ascending order
func (s *Store) SelectedIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedIDs()
}

// SelectedTasks returns the selected live tasks in collection order
func (s *Store) SelectedTasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Task
	for _, t := range s.tasks {
		if _, ok := s.selected[t.ID]; ok {
			out = append(out, s.withValues(t))
		}
	}
	return out
}

func (s *Store) selectedIDs() []int {
	ids := make([]int, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
