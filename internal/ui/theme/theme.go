// Package theme holds the color palettes and derived lipgloss styles of the TUI.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dori/taskdeck/internal/model"
)

// Theme is a named color palette
type Theme struct {
	Name string

	Background lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color

	Primary lipgloss.Color
	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Priorities
	High   lipgloss.Color
	Medium lipgloss.Color
	Low    lipgloss.Color

	// Statuses
	Todo       lipgloss.Color
	InProgress lipgloss.Color
	Done       lipgloss.Color
}

// PriorityColor returns the color used for p
func (t Theme) PriorityColor(p model.Priority) lipgloss.Color {
	switch p {
	case model.PriorityHigh:
		return t.High
	case model.PriorityLow:
		return t.Low
	default:
		return t.Medium
	}
}

// StatusColor returns the color used for s
func (t Theme) StatusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusInProgress:
		return t.InProgress
	case model.StatusDone:
		return t.Done
	default:
		return t.Todo
	}
}

// Styles holds pre-computed lipgloss styles based on a theme
type Styles struct {
	Header lipgloss.Style
	Footer lipgloss.Style

	TaskNormal   lipgloss.Style
	TaskCursor   lipgloss.Style
	TaskSelected lipgloss.Style
	TaskDone     lipgloss.Style

	Title lipgloss.Style
	Label lipgloss.Style
	Error lipgloss.Style
	Badge lipgloss.Style

	Input lipgloss.Style

	Panel       lipgloss.Style
	PanelActive lipgloss.Style
	PanelTitle  lipgloss.Style

	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
}

// NewStyles derives the styles for t
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Padding(0, 1),

		TaskNormal: lipgloss.NewStyle().
			Foreground(t.Foreground),
		TaskCursor: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Highlight).
			Bold(true),
		TaskSelected: lipgloss.NewStyle().
			Foreground(t.Accent),
		TaskDone: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Strikethrough(true),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(t.Subtle),
		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),
		Badge: lipgloss.NewStyle().
			Bold(true),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		PanelActive: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),
		HelpDesc: lipgloss.NewStyle().
			Foreground(t.Subtle),

		StatusBar: lipgloss.NewStyle().
			Background(t.Highlight).
			Foreground(t.Foreground).
			Padding(0, 1),
		StatusKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),
		StatusValue: lipgloss.NewStyle().
			Foreground(t.Foreground),
	}
}

// Current holds the active theme and its styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all themes in cycling order
func Available() []Theme {
	return []Theme{Nord, Dracula, Gruvbox, Catppuccin}
}

// ByName returns a theme by its name. "default" is Nord.
func ByName(name string) (Theme, bool) {
	if name == "" || name == "default" {
		return Nord, true
	}
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Next returns the theme after the current one
func Next() Theme {
	all := Available()
	for i, t := range all {
		if t.Name == Current.Theme.Name {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}
