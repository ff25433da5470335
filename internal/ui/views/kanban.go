package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/seed"
	"github.com/dori/taskdeck/internal/ui/theme"
)

// KanbanMode represents the current input mode
type KanbanMode int

const (
	KanbanModeNormal KanbanMode = iota
	KanbanModeAdd
	KanbanModeConfirmDelete
)

// KanbanView shows the filtered and sorted projection as one column per
// status. Pagination does not apply to the board.
type KanbanView struct {
	app    *app.App
	width  int
	height int

	columns [][]model.Task

	currentColumn int
	cursorRow     int

	mode      KanbanMode
	textInput textinput.Model

	deleteTaskID int
}

// NewKanbanView creates a kanban view over a
func NewKanbanView(a *app.App) KanbanView {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256

	v := KanbanView{app: a, textInput: ti}
	return v.Refresh()
}

// Init initializes the kanban view
func (v KanbanView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v KanbanView) SetSize(width, height int) KanbanView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode returns whether the view is in input mode
func (v KanbanView) IsInputMode() bool {
	return v.mode != KanbanModeNormal
}

// Refresh regroups the projection by status
func (v KanbanView) Refresh() KanbanView {
	v.columns = make([][]model.Task, len(model.Statuses))
	for _, t := range v.app.Store().FilteredTasks() {
		if i := columnOf(t.Status); i >= 0 {
			v.columns[i] = append(v.columns[i], t)
		}
	}
	v.clampCursor()
	return v
}

// Column returns the tasks in column i
func (v KanbanView) Column(i int) []model.Task {
	return v.columns[i]
}

func columnOf(s model.Status) int {
	for i, st := range model.Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

func (v *KanbanView) clampCursor() {
	n := len(v.columns[v.currentColumn])
	if v.cursorRow >= n {
		v.cursorRow = n - 1
	}
	if v.cursorRow < 0 {
		v.cursorRow = 0
	}
}

func (v KanbanView) current() (model.Task, bool) {
	col := v.columns[v.currentColumn]
	if v.cursorRow < 0 || v.cursorRow >= len(col) {
		return model.Task{}, false
	}
	return col[v.cursorRow], true
}

// Update handles messages
func (v KanbanView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	switch v.mode {
	case KanbanModeAdd:
		return v.handleAddMode(keyMsg)
	case KanbanModeConfirmDelete:
		return v.handleDeleteConfirm(keyMsg)
	}
	return v.handleNormalMode(keyMsg)
}

func (v KanbanView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		if v.currentColumn > 0 {
			v.currentColumn--
			v.clampCursor()
		}
	case "right", "l":
		if v.currentColumn < len(v.columns)-1 {
			v.currentColumn++
			v.clampCursor()
		}
	case "up", "k":
		if v.cursorRow > 0 {
			v.cursorRow--
		}
	case "down", "j":
		if v.cursorRow < len(v.columns[v.currentColumn])-1 {
			v.cursorRow++
		}
	case "g":
		v.cursorRow = 0
	case "G":
		v.cursorRow = max(0, len(v.columns[v.currentColumn])-1)

	case "H", "shift+left":
		return v.moveTask(-1)
	case "L", "shift+right":
		return v.moveTask(1)

	case "a":
		v.mode = KanbanModeAdd
		v.textInput.SetValue("")
		v.textInput.Placeholder = "Title !high"
		cmd := v.textInput.Focus()
		return v, cmd
	case "d":
		t, ok := v.current()
		if !ok {
			return v, nil
		}
		v.deleteTaskID = t.ID
		v.mode = KanbanModeConfirmDelete
	case "p":
		t, ok := v.current()
		if !ok {
			return v, nil
		}
		next := t.Priority.Next()
		if _, err := v.app.UpdateTask(t.ID, model.TaskPatch{Priority: &next}); err != nil {
			return v, failed(err)
		}
		return v, changed(fmt.Sprintf("Priority of %q is %s", t.Title, next))
	}
	return v, nil
}

// moveTask moves the task under the cursor dir columns over and follows it
func (v KanbanView) moveTask(dir int) (tea.Model, tea.Cmd) {
	t, ok := v.current()
	if !ok {
		return v, nil
	}
	target := v.currentColumn + dir
	if target < 0 || target >= len(model.Statuses) {
		return v, nil
	}

	status := model.Statuses[target]
	if _, err := v.app.UpdateTask(t.ID, model.TaskPatch{Status: &status}); err != nil {
		return v, failed(err)
	}
	v = v.Refresh()
	v.currentColumn = target
	for i, moved := range v.columns[target] {
		if moved.ID == t.ID {
			v.cursorRow = i
		}
	}
	return v, changed(fmt.Sprintf("Moved %q to %s", t.Title, status))
}

// handleAddMode creates the task in the column under the cursor
func (v KanbanView) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.mode = KanbanModeNormal
		v.textInput.Blur()
		return v, nil
	case "enter":
		v.mode = KanbanModeNormal
		v.textInput.Blur()
		in := seed.QuickAdd(v.textInput.Value())
		if strings.TrimSpace(in.Title) == "" {
			return v, nil
		}
		in.Status = model.Statuses[v.currentColumn]
		task, err := v.app.CreateTask(in)
		if err != nil {
			return v, failed(err)
		}
		return v, changed(fmt.Sprintf("Added %q to %s", task.Title, task.Status))
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	return v, cmd
}

func (v KanbanView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := v.deleteTaskID
	v.deleteTaskID = 0
	v.mode = KanbanModeNormal

	if msg.String() != "y" && msg.String() != "Y" {
		return v, nil
	}
	if err := v.app.DeleteTask(id); err != nil {
		return v, failed(err)
	}
	return v, changed("Deleted task")
}

// View renders the board
func (v KanbanView) View() string {
	t := theme.Current.Theme
	st := theme.Current.Styles

	colWidth := (v.width - 2) / len(model.Statuses)
	if colWidth < 24 {
		colWidth = 24
	}
	colHeight := v.height - 4
	if colHeight < 5 {
		colHeight = 5
	}

	cols := make([]string, len(model.Statuses))
	for i, status := range model.Statuses {
		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(t.StatusColor(status)).
			Render(fmt.Sprintf("%s (%d)", status, len(v.columns[i])))

		lines := []string{header, ""}
		for row, task := range v.columns[i] {
			if len(lines) >= colHeight {
				lines = append(lines, st.Label.Render(fmt.Sprintf("… %d more", len(v.columns[i])-row)))
				break
			}
			title := truncate(task.Title, colWidth-10)
			if i == v.currentColumn && row == v.cursorRow {
				title = st.TaskCursor.Render(title)
			} else if task.Status == model.StatusDone {
				title = st.TaskDone.Render(title)
			}
			lines = append(lines, renderPriority(task.Priority)+" "+title)
		}

		box := st.Panel
		if i == v.currentColumn {
			box = st.PanelActive
		}
		cols[i] = box.Width(colWidth - 2).Height(colHeight).Render(strings.Join(lines, "\n"))
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	switch v.mode {
	case KanbanModeAdd:
		board += "\n" + st.PanelTitle.Render("New task in "+string(model.Statuses[v.currentColumn])) +
			"\n" + st.Input.Render(v.textInput.View())
	case KanbanModeConfirmDelete:
		board += "\n" + st.Error.Render("Delete task? y/n")
	}
	return board
}
