package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/config"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/ui/theme"
	"github.com/dori/taskdeck/internal/ui/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot(t *testing.T) (RootModel, *app.App) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	m := NewRootModel(a, ViewList)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(RootModel), a
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and then the message of the returned command
func send(m RootModel, msg tea.Msg) RootModel {
	next, cmd := m.Update(msg)
	m = next.(RootModel)
	if cmd != nil {
		next, _ = m.Update(cmd())
		m = next.(RootModel)
	}
	return m
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("kanban")
	assert.True(t, ok)
	assert.Equal(t, ViewKanban, v)

	v, ok = ParseView("")
	assert.True(t, ok)
	assert.Equal(t, ViewList, v)

	_, ok = ParseView("calendar")
	assert.False(t, ok)
}

func TestRootUndoRedo(t *testing.T) {
	m, a := newRoot(t)
	_, err := a.CreateTask(model.TaskInput{Title: "draft", Priority: model.PriorityLow, Status: model.StatusTodo})
	require.NoError(t, err)

	m = send(m, keyMsg("u"))
	assert.Empty(t, a.ListTasks())
	assert.Equal(t, `Undid: Add task "draft"`, m.statusMsg)

	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Len(t, a.ListTasks(), 1)
	assert.Equal(t, 1, m.listView.Page().TotalCount, "views refresh after redo")

	m = send(m, keyMsg("U"))
	m = send(m, keyMsg("U"))
	assert.Equal(t, "Nothing to redo", m.statusMsg)
}

func TestRootSwitchViewAndHelp(t *testing.T) {
	m, _ := newRoot(t)

	m = send(m, keyMsg("2"))
	assert.Equal(t, ViewKanban, m.currentView)
	assert.Contains(t, m.View(), "In Progress (0)")

	m = send(m, keyMsg("?"))
	assert.True(t, m.helpVisible)
	m = send(m, keyMsg("1"))
	assert.Equal(t, ViewKanban, m.currentView, "keys are swallowed while help is open")
	m = send(m, keyMsg("?"))
	assert.False(t, m.helpVisible)

	m = send(m, keyMsg("1"))
	assert.Equal(t, ViewList, m.currentView)
}

func TestRootTypingQDoesNotQuit(t *testing.T) {
	m, _ := newRoot(t)
	next, _ := m.Update(keyMsg("a"))
	m = next.(RootModel)
	require.True(t, m.isInputMode())

	_, cmd := m.Update(keyMsg("q"))
	if cmd != nil {
		_, quit := cmd().(tea.QuitMsg)
		assert.False(t, quit)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRootErrorShownInFooter(t *testing.T) {
	m, _ := newRoot(t)
	m = send(m, views.ErrorMsg{Err: model.ErrNotFound})
	assert.Equal(t, model.ErrNotFound.Error(), m.errorMsg)
}

func TestCycleTheme(t *testing.T) {
	t.Cleanup(func() { theme.SetTheme(theme.Nord) })
	theme.SetTheme(theme.Nord)

	m, _ := newRoot(t)
	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, "dracula", theme.Current.Theme.Name)
	assert.Equal(t, "Theme: dracula", m.statusMsg)

	got, ok := theme.ByName("default")
	assert.True(t, ok)
	assert.Equal(t, "nord", got.Name)
	_, ok = theme.ByName("solarized")
	assert.False(t, ok)
}
