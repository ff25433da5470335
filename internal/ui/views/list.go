package views

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/seed"
	"github.com/dori/taskdeck/internal/store"
	"github.com/dori/taskdeck/internal/ui/theme"
)

// ListMode represents the current input mode
type ListMode int

const (
	ListModeNormal ListMode = iota
	ListModeAdd
	ListModeEdit
	ListModeSearch
	ListModeField
	ListModeConfirmDelete
)

// ListView shows the paginated projection: one page of the filtered and
// sorted tasks
type ListView struct {
	app    *app.App
	width  int
	height int

	page   store.Page
	cursor int

	mode      ListMode
	textInput textinput.Model

	editTaskID int
	deleteIDs  []int
}

// NewListView creates a list view over a
func NewListView(a *app.App) ListView {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256

	v := ListView{app: a, textInput: ti}
	return v.Refresh()
}

// Init initializes the list view
func (v ListView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v ListView) SetSize(width, height int) ListView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode reports whether keys go to a text input or a prompt
func (v ListView) IsInputMode() bool {
	return v.mode != ListModeNormal
}

// Refresh recomputes the current page and keeps the cursor on it
func (v ListView) Refresh() ListView {
	page, _ := v.app.View(nil)
	v.page = page
	if v.cursor >= len(page.Tasks) {
		v.cursor = len(page.Tasks) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	return v
}

// Page returns the page currently shown
func (v ListView) Page() store.Page {
	return v.page
}

func (v ListView) current() (model.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.page.Tasks) {
		return model.Task{}, false
	}
	return v.page.Tasks[v.cursor], true
}

// Update handles messages
func (v ListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	switch v.mode {
	case ListModeAdd:
		return v.handleAddMode(keyMsg)
	case ListModeEdit:
		return v.handleEditMode(keyMsg)
	case ListModeSearch:
		return v.handleSearchMode(keyMsg)
	case ListModeField:
		return v.handleFieldMode(keyMsg)
	case ListModeConfirmDelete:
		return v.handleDeleteConfirm(keyMsg)
	}
	return v.handleNormalMode(keyMsg)
}

func (v ListView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := v.app.Store()

	switch msg.String() {
	// Navigation
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.page.Tasks)-1 {
			v.cursor++
		}
	case "g":
		v.cursor = 0
	case "G":
		v.cursor = max(0, len(v.page.Tasks)-1)
	case "left", "h":
		s.SetCurrentPage(v.page.CurrentPage - 1)
		v.cursor = 0
		return v.Refresh(), nil
	case "right", "l":
		s.SetCurrentPage(v.page.CurrentPage + 1)
		v.cursor = 0
		return v.Refresh(), nil

	// Selection
	case " ":
		t, ok := v.current()
		if !ok {
			return v, nil
		}
		if _, err := v.app.Selection(func(s *store.Store) error {
			_, err := s.ToggleTaskSelection(t.ID)
			return err
		}); err != nil {
			return v, failed(err)
		}
		return v.Refresh(), nil
	case "V":
		v.app.Selection(func(s *store.Store) error {
			s.SelectAllTasks()
			return nil
		})
		return v.Refresh(), nil
	case "esc":
		v.app.Selection(func(s *store.Store) error {
			s.ClearSelection()
			return nil
		})
		return v.Refresh(), nil

	// Task actions
	case "a":
		v.mode = ListModeAdd
		v.textInput.SetValue("")
		v.textInput.Placeholder = "Title !high #doing"
		cmd := v.textInput.Focus()
		return v, cmd
	case "enter", "e":
		t, ok := v.current()
		if !ok {
			return v, nil
		}
		v.mode = ListModeEdit
		v.editTaskID = t.ID
		v.textInput.Placeholder = ""
		v.textInput.SetValue(t.Title)
		v.textInput.CursorEnd()
		cmd := v.textInput.Focus()
		return v, cmd
	case "v":
		t, ok := v.current()
		if !ok {
			return v, nil
		}
		fields := v.app.CustomFields()
		if len(fields) == 0 {
			return v, failed(&model.ValidationError{Field: "fields", Message: "no custom fields are defined"})
		}
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		v.mode = ListModeField
		v.editTaskID = t.ID
		v.textInput.Placeholder = "name=value (" + strings.Join(names, ", ") + ")"
		v.textInput.SetValue(fields[0].Name + "=" + t.CustomFields[fields[0].Name].String())
		v.textInput.CursorEnd()
		cmd := v.textInput.Focus()
		return v, cmd
	case "d":
		if len(v.page.Selected) > 0 {
			v.deleteIDs = slices.Clone(v.page.Selected)
		} else if t, ok := v.current(); ok {
			v.deleteIDs = []int{t.ID}
		} else {
			return v, nil
		}
		v.mode = ListModeConfirmDelete
		return v, nil
	case "p":
		t, ok := v.current()
		if !ok {
			return v, nil
		}
		next := t.Priority.Next()
		return v, v.patch(t, model.TaskPatch{Priority: &next}, "priority "+string(next))
	case "s":
		t, ok := v.current()
		if !ok {
			return v, nil
		}
		next := t.Status.Next()
		return v, v.patch(t, model.TaskPatch{Status: &next}, "status "+string(next))
	case "X":
		n := v.app.EmptyTrash()
		return v, changed(fmt.Sprintf("Purged %d deleted task(s)", n))

	// Projection
	case "/":
		v.mode = ListModeSearch
		v.textInput.Placeholder = "search titles"
		v.textInput.SetValue(v.page.SearchTerm)
		v.textInput.CursorEnd()
		cmd := v.textInput.Focus()
		return v, cmd
	case "f":
		if err := s.SetPriorityFilter(cycleFilter(v.page.PriorityFilter, model.Priorities)); err != nil {
			return v, failed(err)
		}
		return v.Refresh(), nil
	case "F":
		if err := s.SetStatusFilter(cycleFilter(v.page.StatusFilter, model.Statuses)); err != nil {
			return v, failed(err)
		}
		return v.Refresh(), nil
	case "c":
		s.ClearFilters()
		return v.Refresh(), nil
	case "o":
		fields := s.SortFields()
		i := slices.Index(fields, v.page.SortField)
		if err := s.SetSortField(fields[(i+1)%len(fields)]); err != nil {
			return v, failed(err)
		}
		return v.Refresh(), nil
	case "O":
		order := store.SortAsc
		if v.page.SortOrder == store.SortAsc {
			order = store.SortDesc
		}
		if err := s.SetSortOrder(order); err != nil {
			return v, failed(err)
		}
		return v.Refresh(), nil
	}
	return v, nil
}

// patch applies p to the selection when there is one, otherwise to t
func (v ListView) patch(t model.Task, p model.TaskPatch, what string) tea.Cmd {
	if len(v.page.Selected) > 0 {
		updated, err := v.app.BulkUpdate(p)
		if err != nil {
			return failed(err)
		}
		return changed(fmt.Sprintf("Set %s on %d task(s)", what, len(updated)))
	}
	if _, err := v.app.UpdateTask(t.ID, p); err != nil {
		return failed(err)
	}
	return changed(fmt.Sprintf("Set %s on %q", what, t.Title))
}

// cycleFilter steps a single-value filter through all and then back to no filter
func cycleFilter[T comparable](cur, all []T) []T {
	if len(cur) != 1 {
		return []T{all[0]}
	}
	i := slices.Index(all, cur[0])
	if i < 0 || i+1 >= len(all) {
		return nil
	}
	return []T{all[i+1]}
}

func (v ListView) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = ListModeNormal
		v.textInput.Blur()
		return v, nil
	case "enter":
		v.mode = ListModeNormal
		v.textInput.Blur()
		in := seed.QuickAdd(v.textInput.Value())
		if strings.TrimSpace(in.Title) == "" {
			return v, nil
		}
		task, err := v.app.CreateTask(in)
		if err != nil {
			return v, failed(err)
		}
		return v, changed(fmt.Sprintf("Added %q", task.Title))
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	return v, cmd
}

func (v ListView) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = ListModeNormal
		v.textInput.Blur()
		return v, nil
	case "enter":
		v.mode = ListModeNormal
		v.textInput.Blur()
		title := strings.TrimSpace(v.textInput.Value())
		task, err := v.app.UpdateTask(v.editTaskID, model.TaskPatch{Title: &title})
		if err != nil {
			return v, failed(err)
		}
		return v, changed(fmt.Sprintf("Renamed to %q", task.Title))
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	return v, cmd
}

// handleFieldMode stores a custom field value typed as name=value
func (v ListView) handleFieldMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = ListModeNormal
		v.textInput.Blur()
		return v, nil
	case "enter":
		v.mode = ListModeNormal
		v.textInput.Blur()
		name, raw, ok := strings.Cut(v.textInput.Value(), "=")
		if !ok {
			return v, failed(&model.ValidationError{Field: "field", Message: "use name=value"})
		}
		name = strings.TrimSpace(name)
		task, err := v.app.SetFieldText(v.editTaskID, name, strings.TrimSpace(raw))
		if err != nil {
			return v, failed(err)
		}
		return v, changed(fmt.Sprintf("Set %s on %q", name, task.Title))
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	return v, cmd
}

// handleSearchMode filters as the user types. esc drops the term, enter keeps it.
func (v ListView) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := v.app.Store()

	switch msg.String() {
	case "esc":
		v.mode = ListModeNormal
		v.textInput.Blur()
		s.SetSearchTerm("")
		return v.Refresh(), nil
	case "enter":
		v.mode = ListModeNormal
		v.textInput.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	s.SetSearchTerm(v.textInput.Value())
	v.cursor = 0
	return v.Refresh(), cmd
}

func (v ListView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ids := v.deleteIDs
	v.deleteIDs = nil
	v.mode = ListModeNormal

	switch msg.String() {
	case "y", "Y":
	default:
		return v, nil
	}

	if len(v.page.Selected) > 0 {
		removed, err := v.app.BulkDelete()
		if err != nil {
			return v, failed(err)
		}
		return v, changed(fmt.Sprintf("Deleted %d task(s)", len(removed)))
	}
	for _, id := range ids {
		if err := v.app.DeleteTask(id); err != nil {
			return v, failed(err)
		}
	}
	return v, changed("Deleted task")
}

// View renders the list view
func (v ListView) View() string {
	st := theme.Current.Styles
	var b strings.Builder

	b.WriteString(v.renderSummary())
	b.WriteString("\n\n")

	if len(v.page.Tasks) == 0 {
		if v.page.TotalCount == 0 {
			b.WriteString(st.Label.Render("  No tasks yet. Press a to add one."))
		} else {
			b.WriteString(st.Label.Render("  No tasks match the current filters. Press c to clear them."))
		}
		b.WriteString("\n")
	}

	selected := make(map[int]bool, len(v.page.Selected))
	for _, id := range v.page.Selected {
		selected[id] = true
	}
	for i, t := range v.page.Tasks {
		b.WriteString(v.renderTask(t, i == v.cursor, selected[t.ID]))
		b.WriteString("\n")
	}

	switch v.mode {
	case ListModeAdd:
		b.WriteString("\n" + st.PanelTitle.Render("New task") + "\n")
		b.WriteString(st.Input.Render(v.textInput.View()))
	case ListModeEdit:
		b.WriteString("\n" + st.PanelTitle.Render("Edit title") + "\n")
		b.WriteString(st.Input.Render(v.textInput.View()))
	case ListModeSearch:
		b.WriteString("\n" + st.PanelTitle.Render("Search") + "\n")
		b.WriteString(st.Input.Render(v.textInput.View()))
	case ListModeField:
		b.WriteString("\n" + st.PanelTitle.Render("Set field") + "\n")
		b.WriteString(st.Input.Render(v.textInput.View()))
	case ListModeConfirmDelete:
		b.WriteString("\n")
		b.WriteString(st.Error.Render(fmt.Sprintf("Delete %d task(s)? y/n", len(v.deleteIDs))))
	}

	return b.String()
}

func (v ListView) renderSummary() string {
	st := theme.Current.Styles
	p := v.page

	parts := []string{
		fmt.Sprintf("page %d/%d", p.CurrentPage, p.PageCount),
		fmt.Sprintf("%d of %d", p.FilteredCount, p.TotalCount),
		fmt.Sprintf("sort %s %s", p.SortField, p.SortOrder),
	}
	if p.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("search %q", p.SearchTerm))
	}
	if len(p.PriorityFilter) > 0 {
		parts = append(parts, "priority "+joinValues(p.PriorityFilter))
	}
	if len(p.StatusFilter) > 0 {
		parts = append(parts, "status "+joinValues(p.StatusFilter))
	}
	for name, val := range p.FieldFilters {
		parts = append(parts, fmt.Sprintf("%s=%s", name, val))
	}
	if len(p.Selected) > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", len(p.Selected)))
	}
	return st.Label.Render("  " + strings.Join(parts, " · "))
}

func joinValues[T ~string](vals []T) string {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = string(v)
	}
	return strings.Join(s, ",")
}

func (v ListView) renderTask(t model.Task, isCursor, isSelected bool) string {
	st := theme.Current.Styles

	cursor := "  "
	if isCursor {
		cursor = "> "
	}
	check := "[ ]"
	if isSelected {
		check = "[x]"
	}

	statusWidth := len(model.StatusInProgress) + 1
	titleWidth := v.width - 30 - statusWidth
	if titleWidth < 10 {
		titleWidth = 40
	}

	title := truncate(t.Title, titleWidth)
	switch {
	case isCursor:
		title = st.TaskCursor.Render(title)
	case t.Status == model.StatusDone:
		title = st.TaskDone.Render(title)
	case isSelected:
		title = st.TaskSelected.Render(title)
	default:
		title = st.TaskNormal.Render(title)
	}
	pad := titleWidth - len([]rune(truncate(t.Title, titleWidth)))

	var fields []string
	for name, val := range t.CustomFields {
		fields = append(fields, name+":"+val.String())
	}
	slices.Sort(fields)

	return joinNonEmpty([]string{
		cursor + check,
		renderPriority(t.Priority),
		title + strings.Repeat(" ", max(0, pad)),
		renderStatus(t.Status),
		st.Label.Render(t.CreatedAt.Local().Format("Jan 2 15:04")),
		st.Label.Render(strings.Join(fields, " ")),
	}, " ")
}
