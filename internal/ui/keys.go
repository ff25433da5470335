package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings shown in help and the global ones
// handled by the root model
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PrevPage key.Binding
	NextPage key.Binding

	// Selection
	Select      key.Binding
	SelectAll   key.Binding
	ClearSelect key.Binding

	// Task actions
	Add      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Priority key.Binding
	Status   key.Binding
	Field    key.Binding
	Undo     key.Binding
	Redo     key.Binding

	// Projection
	Search         key.Binding
	FilterPriority key.Binding
	FilterStatus   key.Binding
	ClearFilters   key.Binding
	Sort           key.Binding
	SortOrder      key.Binding

	// Views
	ListView   key.Binding
	KanbanView key.Binding

	// General
	Help       key.Binding
	ThemeCycle key.Binding
	EmptyTrash key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev page / column"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page / column"),
		),

		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("V"),
			key.WithHelp("V", "select all"),
		),
		ClearSelect: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear selection"),
		),

		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "edit title"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Priority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cycle priority"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status"),
		),
		Field: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "set field"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+r", "U"),
			key.WithHelp("ctrl+r", "redo"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		FilterPriority: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter priority"),
		),
		FilterStatus: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "filter status"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filters"),
		),
		Sort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sort field"),
		),
		SortOrder: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "sort order"),
		),

		ListView: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "list"),
		),
		KanbanView: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "kanban"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "theme"),
		),
		EmptyTrash: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "empty trash"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Delete, k.Undo, k.Redo, k.Search, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.PrevPage, k.NextPage},
		{k.Select, k.SelectAll, k.ClearSelect, k.EmptyTrash},
		{k.Add, k.Edit, k.Delete, k.Priority, k.Status, k.Field, k.Undo, k.Redo},
		{k.Search, k.FilterPriority, k.FilterStatus, k.ClearFilters, k.Sort, k.SortOrder},
		{k.ListView, k.KanbanView, k.ThemeCycle, k.Help, k.Quit},
	}
}
