package ui

import "strings"

// View identifies one of the screens of the TUI
type View int

const (
	ViewList View = iota
	ViewKanban
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewList:
		return "List"
	case ViewKanban:
		return "Kanban"
	default:
		return "Unknown"
	}
}

// ParseView maps a --view flag value onto a View
func ParseView(name string) (View, bool) {
	switch strings.ToLower(name) {
	case "", "list":
		return ViewList, true
	case "kanban", "board":
		return ViewKanban, true
	}
	return ViewList, false
}

// SwitchViewMsg requests a view change
type SwitchViewMsg struct {
	View View
}

// StatusMsg shows a transient message in the footer
type StatusMsg struct {
	Message string
}

// ThemeChangedMsg is sent after the theme was cycled
type ThemeChangedMsg struct {
	ThemeName string
}
