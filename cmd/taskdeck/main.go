package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/config"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by every subcommand
type options struct {
	configFile string
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "taskdeck",
		Short: "A task list with undo/redo, filtering and a REST API",
		Long: `taskdeck keeps a list of tasks with priorities, statuses and custom fields.

Run without arguments to open the terminal UI, or use "taskdeck serve" to
expose the same state over HTTP. Every change can be undone.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, _ := cmd.Flags().GetString("view")
			themeName, _ := cmd.Flags().GetString("theme")
			return runTUI(opts, view, themeName)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/taskdeck/config.yaml)")
	cmd.Flags().String("view", "list", "starting view (list, kanban)")
	cmd.Flags().String("theme", "", "theme name (nord, dracula, gruvbox, catppuccin)")

	cmd.AddCommand(
		newServeCmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newImportCmd(opts),
		newUndoCmd(opts),
		newRedoCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

func (o *options) loadConfig() (*config.Config, error) {
	return config.Load(config.New(o.configFile))
}

// newLogger builds the slog logger described by cfg, writing to w
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openApp loads the config and opens the App with a logger writing to
// stderr. Only warnings are shown so command output stays readable.
func (o *options) openApp() (*app.App, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(o.stderr, &slog.HandlerOptions{Level: max(cfg.LogLevel(), slog.LevelWarn)}))

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}

// openLogFile opens <data_dir>/taskdeck.log for the TUI, which owns the terminal
func openLogFile(cfg *config.Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.DataDir, "taskdeck.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "taskdeck v%s\n", version)
		},
	}
}
