// Package ui is the terminal front end of taskdeck.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/ui/theme"
	"github.com/dori/taskdeck/internal/ui/views"
)

// RootModel is the main application model that manages views
type RootModel struct {
	app    *app.App
	keys   KeyMap
	help   help.Model
	width  int
	height int

	currentView View
	listView    views.ListView
	kanbanView  views.KanbanView
	helpVisible bool

	statusMsg string
	errorMsg  string
}

// NewRootModel creates the root model showing start first
func NewRootModel(a *app.App, start View) RootModel {
	h := help.New()
	h.ShowAll = true

	return RootModel{
		app:         a,
		keys:        DefaultKeyMap(),
		help:        h,
		currentView: start,
		listView:    views.NewListView(a),
		kanbanView:  views.NewKanbanView(a),
	}
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return nil
}

func (m RootModel) isInputMode() bool {
	switch m.currentView {
	case ViewKanban:
		return m.kanbanView.IsInputMode()
	default:
		return m.listView.IsInputMode()
	}
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// header and footer take two lines each
		contentHeight := m.height - 4
		m.listView = m.listView.SetSize(m.width, contentHeight)
		m.kanbanView = m.kanbanView.SetSize(m.width, contentHeight)
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		m.errorMsg = ""
		inputMode := m.isInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// q is a character while typing
			if msg.String() == "ctrl+c" || !inputMode {
				return m, tea.Quit
			}
		case key.Matches(msg, m.keys.ThemeCycle):
			return m, m.cycleTheme()
		}

		if inputMode {
			break
		}

		if m.helpVisible {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.helpVisible = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = true
			return m, nil
		case key.Matches(msg, m.keys.ListView):
			return m.Update(SwitchViewMsg{View: ViewList})
		case key.Matches(msg, m.keys.KanbanView):
			return m.Update(SwitchViewMsg{View: ViewKanban})
		case key.Matches(msg, m.keys.Undo):
			return m, m.undo()
		case key.Matches(msg, m.keys.Redo):
			return m, m.redo()
		}

	case SwitchViewMsg:
		m.currentView = msg.View
		m.refresh()
		return m, nil

	case views.TasksChangedMsg:
		m.statusMsg = msg.Status
		m.refresh()
		return m, nil

	case views.ErrorMsg:
		m.errorMsg = msg.Err.Error()
		m.refresh()
		return m, nil

	case StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", msg.ThemeName)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewList:
		var next tea.Model
		next, cmd = m.listView.Update(msg)
		m.listView = next.(views.ListView)
	case ViewKanban:
		var next tea.Model
		next, cmd = m.kanbanView.Update(msg)
		m.kanbanView = next.(views.KanbanView)
	}
	return m, cmd
}

// refresh recomputes both views from the App
func (m *RootModel) refresh() {
	m.listView = m.listView.Refresh()
	m.kanbanView = m.kanbanView.Refresh()
}

func (m RootModel) undo() tea.Cmd {
	desc := m.app.HistoryState().LastAction
	ok, err := m.app.Undo()
	return func() tea.Msg {
		switch {
		case err != nil:
			return views.ErrorMsg{Err: err}
		case !ok:
			return StatusMsg{Message: "Nothing to undo"}
		}
		return views.TasksChangedMsg{Status: "Undid: " + desc}
	}
}

func (m RootModel) redo() tea.Cmd {
	desc := m.app.HistoryState().NextRedo
	ok, err := m.app.Redo()
	return func() tea.Msg {
		switch {
		case err != nil:
			return views.ErrorMsg{Err: err}
		case !ok:
			return StatusMsg{Message: "Nothing to redo"}
		}
		return views.TasksChangedMsg{Status: "Redid: " + desc}
	}
}

// View renders the model
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentHeight := m.height - 4

	var content string
	switch {
	case m.helpVisible:
		content = m.help.View(m.keys)
	case m.currentView == ViewKanban:
		content = m.kanbanView.View()
	default:
		content = m.listView.View()
	}

	lines := strings.Count(content, "\n") + 1
	if lines < contentHeight {
		content += strings.Repeat("\n", contentHeight-lines)
	}

	return strings.Join([]string{m.renderHeader(), content, m.renderFooter()}, "\n")
}

// renderHeader renders the title, the view tabs and the theme name
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	tabs := []string{styles.Header.Render("taskdeck")}
	for i, v := range []View{ViewList, ViewKanban} {
		label := fmt.Sprintf("%d %s", i+1, v)
		if v == m.currentView {
			tabs = append(tabs, styles.StatusKey.Padding(0, 1).Render(label))
		} else {
			tabs = append(tabs, styles.Label.Padding(0, 1).Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Center, tabs...)
	right := lipgloss.NewStyle().Foreground(t.Subtle).Padding(0, 1).Render("theme: " + t.Name)

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter renders the status line and the short help
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var status string
	switch {
	case m.errorMsg != "":
		status = lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg)
	case m.statusMsg != "":
		status = lipgloss.NewStyle().Foreground(t.Accent).Render(m.statusMsg)
	default:
		hs := m.app.HistoryState()
		last := hs.LastAction
		if last == "" {
			last = "none"
		}
		status = styles.StatusKey.Render("last ") + styles.StatusValue.Render(last) +
			styles.Label.Render(fmt.Sprintf("  undo %d · redo %d", hs.UndoDepth, hs.RedoDepth))
	}

	hints := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.isInputMode() {
		hints = styles.HelpKey.Render("enter") + styles.HelpDesc.Render(" confirm  ") +
			styles.HelpKey.Render("esc") + styles.HelpDesc.Render(" cancel")
	}
	return styles.StatusBar.Width(m.width).Render(status) + "\n" + hints
}

// cycleTheme switches to the next theme
func (m RootModel) cycleTheme() tea.Cmd {
	next := theme.Next()
	theme.SetTheme(next)
	return func() tea.Msg {
		return ThemeChangedMsg{ThemeName: next.Name}
	}
}
