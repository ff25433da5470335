// Package views holds the screens of the TUI. Every view works on the
// shared App, so a change made in one view shows up in the others.
package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/ui/theme"
)

// TasksChangedMsg is sent after a view changed the task list through the
// App. The root refreshes every view and shows Status in the footer.
type TasksChangedMsg struct {
	Status string
}

// ErrorMsg reports a failed App call
type ErrorMsg struct {
	Err error
}

func changed(status string) tea.Cmd {
	return func() tea.Msg { return TasksChangedMsg{Status: status} }
}

func failed(err error) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Err: err} }
}

func renderPriority(p model.Priority) string {
	label := "MED"
	switch p {
	case model.PriorityHigh:
		label = "HI "
	case model.PriorityLow:
		label = "LO "
	}
	return theme.Current.Styles.Badge.
		Foreground(theme.Current.Theme.PriorityColor(p)).
		Render(label)
}

func renderStatus(s model.Status) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Theme.StatusColor(s)).
		Render(string(s))
}

// truncate cuts s to at most width cells, marking the cut with an ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

func joinNonEmpty(parts []string, sep string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
