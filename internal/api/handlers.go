// Package api serves the task service over JSON/HTTP.
package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/store"
)

// Handler holds the HTTP handlers
type Handler struct {
	app *app.App
}

// NewHandler creates handlers backed by a
func NewHandler(a *app.App) *Handler {
	return &Handler{app: a}
}

// GET /api/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.ListTasks())
}

// POST /api/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in model.TaskInput
	if err := decode(r, &in); err != nil {
		writeErr(w, err)
		return
	}

	task, err := h.app.CreateTask(in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// GET /api/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	task, err := h.app.GetTask(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// PATCH /api/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	var patch model.TaskPatch
	if err := decode(r, &patch); err != nil {
		writeErr(w, err)
		return
	}

	task, err := h.app.UpdateTask(id, patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	if err := h.app.DeleteTask(id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/tasks/{id}/fields/{name}
func (h *Handler) SetFieldValue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	var body struct {
		Value *model.FieldValue `json:"value"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, err)
		return
	}
	if body.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}

	task, err := h.app.SetFieldValue(id, r.PathValue("name"), *body.Value)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// GET /api/view
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.app.View(func(s *store.Store) error {
		p, err := paramsFromQuery(s.Params(), q)
		if err != nil {
			return err
		}
		return s.SetParams(p)
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// DELETE /api/view
func (h *Handler) ResetView(w http.ResponseWriter, r *http.Request) {
	page, err := h.app.View(func(s *store.Store) error {
		s.ClearFilters()
		return nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// paramsFromQuery overlays the view parameters present in q on cur.
// Values are checked when the result is handed to Store.SetParams.
func paramsFromQuery(cur store.Params, q url.Values) (store.Params, error) {
	p := cur
	if q.Has("search") {
		p.SearchTerm = q.Get("search")
	}
	if q.Has("priority") {
		p.PriorityFilter = []model.Priority{}
		for _, v := range nonEmpty(q["priority"]) {
			p.PriorityFilter = append(p.PriorityFilter, model.Priority(v))
		}
	}
	if q.Has("status") {
		p.StatusFilter = []model.Status{}
		for _, v := range nonEmpty(q["status"]) {
			p.StatusFilter = append(p.StatusFilter, model.Status(v))
		}
	}
	for key, vals := range q {
		name, ok := strings.CutPrefix(key, "field.")
		if !ok || len(vals) == 0 {
			continue
		}
		if p.FieldFilters == nil {
			p.FieldFilters = make(map[string]string)
		}
		p.FieldFilters[name] = vals[len(vals)-1]
	}
	if q.Has("sort") {
		p.SortField = q.Get("sort")
	}
	if q.Has("order") {
		p.SortOrder = store.SortOrder(q.Get("order"))
	}
	// A new page size starts over at page one unless a page is given too
	if q.Has("pageSize") {
		n, err := strconv.Atoi(q.Get("pageSize"))
		if err != nil {
			return cur, &model.ValidationError{Field: "pageSize", Message: "page size must be an integer"}
		}
		p.PageSize = n
		p.CurrentPage = 1
	}
	if q.Has("page") {
		n, err := strconv.Atoi(q.Get("page"))
		if err != nil {
			return cur, &model.ValidationError{Field: "page", Message: "page must be an integer"}
		}
		p.CurrentPage = n
	}
	return p, nil
}

func nonEmpty(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type undoResponse struct {
	Applied bool             `json:"applied"`
	History app.HistoryState `json:"history"`
}

// GET /api/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.HistoryState())
}

// POST /api/history/undo
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	ok, err := h.app.Undo()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, undoResponse{Applied: ok, History: h.app.HistoryState()})
}

// POST /api/history/redo
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	ok, err := h.app.Redo()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, undoResponse{Applied: ok, History: h.app.HistoryState()})
}

// DELETE /api/history
func (h *Handler) ResetHistory(w http.ResponseWriter, r *http.Request) {
	h.app.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/fields
func (h *Handler) Fields(w http.ResponseWriter, r *http.Request) {
	fields := h.app.CustomFields()
	if fields == nil {
		fields = model.FieldSet{}
	}
	writeJSON(w, http.StatusOK, fields)
}

// PUT /api/fields
func (h *Handler) SetFields(w http.ResponseWriter, r *http.Request) {
	var fields model.FieldSet
	if err := decode(r, &fields); err != nil {
		writeErr(w, err)
		return
	}

	next, err := h.app.SetCustomFields(fields)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

type selectionRequest struct {
	IDs  []int  `json:"ids"`
	Mode string `json:"mode"`
}

type selectionResponse struct {
	Selected []int `json:"selected"`
}

// GET /api/selection
func (h *Handler) Selection(w http.ResponseWriter, r *http.Request) {
	ids, err := h.app.Selection(nil)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{Selected: ids})
}

// POST /api/selection
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	var change func(*store.Store) error
	switch req.Mode {
	case "", "select":
		change = func(s *store.Store) error {
			if err := checkLive(s, req.IDs); err != nil {
				return err
			}
			for _, id := range req.IDs {
				if err := s.SelectTask(id); err != nil {
					return err
				}
			}
			return nil
		}
	case "deselect":
		change = func(s *store.Store) error {
			for _, id := range req.IDs {
				s.DeselectTask(id)
			}
			return nil
		}
	case "toggle":
		change = func(s *store.Store) error {
			if err := checkLive(s, req.IDs); err != nil {
				return err
			}
			for _, id := range req.IDs {
				if _, err := s.ToggleTaskSelection(id); err != nil {
					return err
				}
			}
			return nil
		}
	case "all":
		change = func(s *store.Store) error {
			s.SelectAllTasks()
			return nil
		}
	default:
		writeError(w, http.StatusBadRequest, "mode must be select, deselect, toggle or all")
		return
	}

	ids, err := h.app.Selection(change)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{Selected: ids})
}

// checkLive fails when any id is not a live task, before the selection is touched
func checkLive(s *store.Store, ids []int) error {
	for _, id := range ids {
		if _, ok := s.Task(id); !ok {
			return fmt.Errorf("%w: %d", model.ErrNotFound, id)
		}
	}
	return nil
}

// DELETE /api/selection
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Selection(func(s *store.Store) error {
		s.ClearSelection()
		return nil
	}); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/bulk/update
func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.TaskPatch
	if err := decode(r, &patch); err != nil {
		writeErr(w, err)
		return
	}

	updated, err := h.app.BulkUpdate(patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Task{"updated": updated})
}

// POST /api/bulk/delete
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.app.BulkDelete()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Task{"deleted": removed})
}

// GET /api/trash
func (h *Handler) Trash(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Trash())
}

// DELETE /api/trash
func (h *Handler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"purged": h.app.EmptyTrash()})
}
