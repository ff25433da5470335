package theme

import "github.com/charmbracelet/lipgloss"

// Nord is the default palette
// https://www.nordtheme.com/
var Nord = Theme{
	Name: "nord",

	Background: lipgloss.Color("#2E3440"),
	Foreground: lipgloss.Color("#ECEFF4"),
	Subtle:     lipgloss.Color("#4C566A"),
	Highlight:  lipgloss.Color("#3B4252"),
	Border:     lipgloss.Color("#4C566A"),

	Primary: lipgloss.Color("#88C0D0"), // Nord8
	Accent:  lipgloss.Color("#81A1C1"), // Nord9
	Success: lipgloss.Color("#A3BE8C"), // Nord14
	Warning: lipgloss.Color("#EBCB8B"), // Nord13
	Error:   lipgloss.Color("#BF616A"), // Nord11

	High:   lipgloss.Color("#BF616A"),
	Medium: lipgloss.Color("#EBCB8B"),
	Low:    lipgloss.Color("#A3BE8C"),

	Todo:       lipgloss.Color("#81A1C1"),
	InProgress: lipgloss.Color("#D08770"), // Nord12
	Done:       lipgloss.Color("#A3BE8C"),
}

// Dracula
// https://draculatheme.com/
var Dracula = Theme{
	Name: "dracula",

	Background: lipgloss.Color("#282A36"),
	Foreground: lipgloss.Color("#F8F8F2"),
	Subtle:     lipgloss.Color("#6272A4"),
	Highlight:  lipgloss.Color("#44475A"),
	Border:     lipgloss.Color("#6272A4"),

	Primary: lipgloss.Color("#BD93F9"), // purple
	Accent:  lipgloss.Color("#8BE9FD"), // cyan
	Success: lipgloss.Color("#50FA7B"),
	Warning: lipgloss.Color("#F1FA8C"),
	Error:   lipgloss.Color("#FF5555"),

	High:   lipgloss.Color("#FF5555"),
	Medium: lipgloss.Color("#FFB86C"), // orange
	Low:    lipgloss.Color("#50FA7B"),

	Todo:       lipgloss.Color("#8BE9FD"),
	InProgress: lipgloss.Color("#F1FA8C"),
	Done:       lipgloss.Color("#50FA7B"),
}

// Gruvbox dark
// https://github.com/morhetz/gruvbox
var Gruvbox = Theme{
	Name: "gruvbox",

	Background: lipgloss.Color("#282828"),
	Foreground: lipgloss.Color("#EBDBB2"),
	Subtle:     lipgloss.Color("#928374"),
	Highlight:  lipgloss.Color("#3C3836"),
	Border:     lipgloss.Color("#504945"),

	Primary: lipgloss.Color("#83A598"), // aqua
	Accent:  lipgloss.Color("#8EC07C"),
	Success: lipgloss.Color("#B8BB26"),
	Warning: lipgloss.Color("#FABD2F"),
	Error:   lipgloss.Color("#FB4934"),

	High:   lipgloss.Color("#FB4934"),
	Medium: lipgloss.Color("#FE8019"), // orange
	Low:    lipgloss.Color("#B8BB26"),

	Todo:       lipgloss.Color("#83A598"),
	InProgress: lipgloss.Color("#FABD2F"),
	Done:       lipgloss.Color("#B8BB26"),
}

// Catppuccin mocha
// https://github.com/catppuccin/catppuccin
var Catppuccin = Theme{
	Name: "catppuccin",

	Background: lipgloss.Color("#1E1E2E"),
	Foreground: lipgloss.Color("#CDD6F4"),
	Subtle:     lipgloss.Color("#6C7086"),
	Highlight:  lipgloss.Color("#313244"),
	Border:     lipgloss.Color("#45475A"),

	Primary: lipgloss.Color("#89B4FA"), // blue
	Accent:  lipgloss.Color("#CBA6F7"), // mauve
	Success: lipgloss.Color("#A6E3A1"),
	Warning: lipgloss.Color("#F9E2AF"),
	Error:   lipgloss.Color("#F38BA8"),

	High:   lipgloss.Color("#F38BA8"),
	Medium: lipgloss.Color("#FAB387"), // peach
	Low:    lipgloss.Color("#A6E3A1"),

	Todo:       lipgloss.Color("#89B4FA"),
	InProgress: lipgloss.Color("#F9E2AF"),
	Done:       lipgloss.Color("#A6E3A1"),
}
