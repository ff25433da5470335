package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dori/taskdeck/internal/model"
)

// Blob keys. Each is stored and loaded independently.
const (
	KeyTasks        = "tasks"
	KeyCustomFields = "taskCustomFields"
	KeyFieldValues  = "taskCustomFieldValues"
	KeyHistory      = "taskHistory"
)

// State is everything that survives a restart
type State struct {
	Tasks  []model.Task
	Fields model.FieldSet
	Values map[int]map[string]model.FieldValue

	// History is the encoded undo/redo stacks, opaque to this package
	History json.RawMessage
}

// CorruptBlobError reports a stored blob that could not be decoded.
// The blob is treated as empty.
type CorruptBlobError struct {
	Key string
	Err error
}

func (e *CorruptBlobError) Error() string {
	return fmt.Sprintf("corrupt %s blob: %v", e.Key, e.Err)
}

func (e *CorruptBlobError) Unwrap() error { return e.Err }

// Get returns the raw value stored under key
func (db *DB) Get(key string) (string, bool, error) {
	var value string
	err := db.QueryRow(db.Rebind(`SELECT value FROM kv WHERE key = ?`), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key inside tx
func (db *DB) Put(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(db.Rebind(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// SaveState writes every blob in one transaction
func (db *DB) SaveState(st State) error {
	tasks := st.Tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	fields := st.Fields
	if fields == nil {
		fields = model.FieldSet{}
	}
	values := st.Values
	if values == nil {
		values = map[int]map[string]model.FieldValue{}
	}

	blobs := make(map[string]string, 3)
	for key, v := range map[string]any{
		KeyTasks:        tasks,
		KeyCustomFields: fields,
		KeyFieldValues:  values,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		blobs[key] = string(data)
	}

	keys := []string{KeyTasks, KeyCustomFields, KeyFieldValues}
	if len(st.History) > 0 {
		if !json.Valid(st.History) {
			return fmt.Errorf("failed to encode %s: invalid JSON", KeyHistory)
		}
		blobs[KeyHistory] = string(st.History)
		keys = append(keys, KeyHistory)
	}

	return db.Transaction(func(tx *sql.Tx) error {
		for _, key := range keys {
			if err := db.Put(tx, key, blobs[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadState reads every blob. A missing blob is empty. A corrupt blob
// is empty too and is reported as a *CorruptBlobError in the returned error,
// alongside whatever did load.
func (db *DB) LoadState() (State, error) {
	st := State{
		Tasks:  []model.Task{},
		Fields: model.FieldSet{},
		Values: map[int]map[string]model.FieldValue{},
	}

	var corrupt []error
	tasks, err := loadBlob[[]model.Task](db, KeyTasks)
	if !collect(&corrupt, err) {
		return st, err
	}
	fields, err := loadBlob[model.FieldSet](db, KeyCustomFields)
	if !collect(&corrupt, err) {
		return st, err
	}
	values, err := loadBlob[map[int]map[string]model.FieldValue](db, KeyFieldValues)
	if !collect(&corrupt, err) {
		return st, err
	}

	raw, ok, err := db.Get(KeyHistory)
	if err != nil {
		return st, err
	}
	if ok {
		if json.Valid([]byte(raw)) {
			st.History = json.RawMessage(raw)
		} else {
			corrupt = append(corrupt, &CorruptBlobError{Key: KeyHistory, Err: errors.New("invalid JSON")})
		}
	}

	if tasks != nil {
		st.Tasks = tasks
	}
	if fields != nil {
		st.Fields = fields.Sorted()
	}
	if values != nil {
		st.Values = values
	}
	return st, errors.Join(corrupt...)
}

// loadBlob decodes the blob under key. Missing and corrupt blobs yield the zero value.
func loadBlob[T any](db *DB, key string) (T, error) {
	var zero, v T
	raw, ok, err := db.Get(key)
	if err != nil || !ok {
		return zero, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return zero, &CorruptBlobError{Key: key, Err: err}
	}
	return v, nil
}

// collect appends a corrupt blob error and reports whether loading can go on
func collect(corrupt *[]error, err error) bool {
	if err == nil {
		return true
	}
	var cbe *CorruptBlobError
	if errors.As(err, &cbe) {
		*corrupt = append(*corrupt, err)
		return true
	}
	return false
}
