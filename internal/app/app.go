// Package app is the state-owning service shared by the REST server, the
// TUI and the CLI. Every mutation goes through it so that it is recorded in
// the command history and persisted.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dori/taskdeck/internal/config"
	"github.com/dori/taskdeck/internal/db"
	"github.com/dori/taskdeck/internal/history"
	"github.com/dori/taskdeck/internal/store"
	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process owns the data directory
var ErrLocked = errors.New("another instance of taskdeck is already running")

// App holds the application state and dependencies
type App struct {
	DB      *db.DB
	DataDir string

	mu      sync.Mutex // guards history and multi-step mutations
	store   *store.Store
	history *history.History

	logger   *slog.Logger
	lockFile *flock.Flock
	now      func() time.Time
}

// New creates a new application instance and loads the persisted state
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		DataDir: cfg.DataDir,
		store:   store.New(logger),
		logger:  logger,
		now:     time.Now,
	}
	app.history = history.New(app.store)
	app.history.Limit = cfg.History.Limit

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		return nil, err
	}

	database, err := openDB(cfg)
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database

	if cfg.View.PageSize > 0 {
		if err := app.store.SetPageSize(cfg.View.PageSize); err != nil {
			app.Close()
			return nil, err
		}
	}

	if err := app.load(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func openDB(cfg *config.Config) (*db.DB, error) {
	if cfg.DB.Driver == db.DriverSQLite && cfg.DB.DSN == "" {
		return db.OpenFile(cfg.DBPath())
	}
	return db.Open(cfg.DB.Driver, cfg.DB.DSN)
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "taskdeck.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return ErrLocked
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Store exposes the view store for reads, view parameters and selection.
// Collection changes must go through App so they are recorded and saved.
func (a *App) Store() *store.Store {
	return a.store
}

type historyBlob struct {
	Undo []history.Command `json:"undo"`
	Redo []history.Command `json:"redo"`
}

// load fills the store from the database. Corrupt blobs are logged and
// treated as empty.
func (a *App) load() error {
	st, err := a.DB.LoadState()
	if err != nil {
		var cbe *db.CorruptBlobError
		if !errors.As(err, &cbe) {
			return fmt.Errorf("failed to load state: %w", err)
		}
		a.logger.Warn("ignoring corrupt stored data", "error", err)
	}

	a.store.SetCustomFields(st.Fields)
	a.store.SetAllFieldValues(st.Values)
	a.store.SetTasks(st.Tasks)

	if len(st.History) > 0 {
		var hb historyBlob
		if err := json.Unmarshal(st.History, &hb); err != nil {
			a.logger.Warn("ignoring unreadable history", "error", err)
		} else {
			a.history.Load(hb.Undo, hb.Redo)
		}
	}

	a.logger.Debug("state loaded", "tasks", a.store.Len(), "fields", len(st.Fields))
	return nil
}

// persist writes the current state. Failures are logged and the in-memory
// change stands. Callers hold a.mu.
func (a *App) persist() {
	tasks := a.store.Tasks()
	live := make(map[int]bool, len(tasks))
	for i := range tasks {
		live[tasks[i].ID] = true
		tasks[i].CustomFields = nil
	}

	values := a.store.AllFieldValues()
	for id := range values {
		if !live[id] {
			delete(values, id)
		}
	}

	undo, redo := a.history.Stacks()
	hb, err := json.Marshal(historyBlob{Undo: undo, Redo: redo})
	if err != nil {
		a.logger.Error("failed to encode history", "error", err)
		hb = nil
	}

	err = a.DB.SaveState(db.State{
		Tasks:   tasks,
		Fields:  a.store.CustomFields(),
		Values:  values,
		History: hb,
	})
	if err != nil {
		a.logger.Error("failed to save state", "error", err)
	}
}
