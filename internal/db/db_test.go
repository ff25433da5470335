package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/taskdeck/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenFile(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadStateEmpty(t *testing.T) {
	db := openTestDB(t)

	st, err := db.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(st.Tasks) != 0 || len(st.Fields) != 0 || len(st.Values) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
	if st.Tasks == nil {
		t.Error("expected non-nil task slice")
	}
}

func TestSaveLoadState(t *testing.T) {
	db := openTestDB(t)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := State{
		Tasks: []model.Task{
			{ID: 1, Title: "Write report", Priority: model.PriorityHigh, Status: model.StatusTodo, CreatedAt: created},
			{ID: 2, Title: "Ship it", Priority: model.PriorityLow, Status: model.StatusDone, CreatedAt: created.Add(time.Hour)},
		},
		Fields: model.FieldSet{
			model.NewCustomField("points", model.FieldNumber, 1),
			model.NewCustomField("owner", model.FieldText, 0),
		},
		Values: map[int]map[string]model.FieldValue{
			1: {"owner": model.TextValue("sam"), "points": model.NumberValue(3)},
		},
		History: json.RawMessage(`{"undo":[],"redo":[]}`),
	}
	if err := db.SaveState(in); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	// Saving twice exercises the upsert path
	if err := db.SaveState(in); err != nil {
		t.Fatalf("second SaveState failed: %v", err)
	}

	out, err := db.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(out.Tasks) != 2 || out.Tasks[1].Title != "Ship it" || !out.Tasks[0].CreatedAt.Equal(created) {
		t.Errorf("unexpected tasks: %+v", out.Tasks)
	}
	if len(out.Fields) != 2 || out.Fields[0].Name != "owner" {
		t.Errorf("expected fields sorted by order, got %+v", out.Fields)
	}
	if got := out.Values[1]["points"]; got != model.NumberValue(3) {
		t.Errorf("expected points 3, got %+v", got)
	}
	if string(out.History) != `{"undo":[],"redo":[]}` {
		t.Errorf("unexpected history blob: %s", out.History)
	}
}

func TestLoadStateCorruptBlob(t *testing.T) {
	db := openTestDB(t)

	fields := model.FieldSet{model.NewCustomField("owner", model.FieldText, 0)}
	if err := db.SaveState(State{Fields: fields}); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	err := db.Transaction(func(tx *sql.Tx) error {
		return db.Put(tx, KeyTasks, `[{"id": 1, "title": `)
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	st, err := db.LoadState()
	var cbe *CorruptBlobError
	if !errors.As(err, &cbe) {
		t.Fatalf("expected CorruptBlobError, got %v", err)
	}
	if cbe.Key != KeyTasks {
		t.Errorf("expected corrupt key %q, got %q", KeyTasks, cbe.Key)
	}
	if len(st.Tasks) != 0 {
		t.Errorf("corrupt blob should load as empty, got %+v", st.Tasks)
	}
	if len(st.Fields) != 1 {
		t.Errorf("other blobs should still load, got %+v", st.Fields)
	}
}

func TestTransactionRollback(t *testing.T) {
	db := openTestDB(t)

	boom := errors.New("boom")
	err := db.Transaction(func(tx *sql.Tx) error {
		if err := db.Put(tx, "scratch", "value"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, ok, err := db.Get("scratch"); err != nil || ok {
		t.Errorf("expected rolled back write, got ok=%v err=%v", ok, err)
	}
}

// TestSaveLoadNoDeadlock guards the single-connection sqlite pool: every
// statement inside SaveState must go through the transaction, and LoadState
// must not hold a row set open while issuing the next query.
func TestSaveLoadNoDeadlock(t *testing.T) {
	db := openTestDB(t)

	done := make(chan error, 1)
	go func() {
		for i := 1; i <= 20; i++ {
			st := State{Tasks: []model.Task{{ID: i, Title: "t", Priority: model.PriorityLow, Status: model.StatusTodo}}}
			if err := db.SaveState(st); err != nil {
				done <- err
				return
			}
			if _, err := db.LoadState(); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("save/load failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out - possible deadlock detected")
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	if got := pg.Rebind(`SELECT value FROM kv WHERE key = ? AND value = ?`); got != `SELECT value FROM kv WHERE key = $1 AND value = $2` {
		t.Errorf("unexpected postgres query: %s", got)
	}

	lite := &DB{driver: DriverSQLite}
	if got := lite.Rebind(`key = ?`); got != `key = ?` {
		t.Errorf("sqlite query should be unchanged, got %s", got)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
