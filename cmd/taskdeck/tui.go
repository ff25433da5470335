package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/ui"
	"github.com/dori/taskdeck/internal/ui/theme"
)

func runTUI(opts *options, viewName, themeName string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	start, ok := ui.ParseView(viewName)
	if !ok {
		return fmt.Errorf("unknown view %q (want list or kanban)", viewName)
	}
	if themeName == "" {
		themeName = cfg.UI.Theme
	}
	t, ok := theme.ByName(themeName)
	if !ok {
		return fmt.Errorf("unknown theme %q", themeName)
	}
	theme.SetTheme(t)

	logFile, err := openLogFile(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := newLogger(cfg, logFile)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	p := tea.NewProgram(
		ui.NewRootModel(application, start),
		tea.WithAltScreen(),
	)
	_, err = p.Run()
	return err
}
