package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dori/taskdeck/internal/api"
	"github.com/dori/taskdeck/internal/app"
	"github.com/dori/taskdeck/internal/config"
	"github.com/dori/taskdeck/internal/model"
	"github.com/dori/taskdeck/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newApp(t *testing.T) (*app.App, http.Handler) {
	t.Helper()

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	a, err := app.New(cfg, quiet)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return a, api.NewRouter(api.NewHandler(a), quiet)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)
	return rr
}

func doRaw(t *testing.T, h http.Handler, method, path, raw string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func create(t *testing.T, h http.Handler, title string) model.Task {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/api/tasks", map[string]any{
		"title":    title,
		"priority": "Medium",
		"status":   "Todo",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decodeBody[model.Task](t, rr)
}

func TestPOST_Tasks(t *testing.T) {
	_, h := newApp(t)

	task := create(t, h, "Write report")
	assert.Equal(t, 1, task.ID)
	assert.Equal(t, "Write report", task.Title)

	rr := doJSON(t, h, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]model.Task](t, rr), 1)
}

func TestPOST_Tasks_Invalid(t *testing.T) {
	_, h := newApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty title", `{"title":"","priority":"High","status":"Todo"}`},
		{"long title", fmt.Sprintf(`{"title":%q,"priority":"High","status":"Todo"}`, string(bytes.Repeat([]byte("x"), 101)))},
		{"bad priority", `{"title":"x","priority":"urgent","status":"Todo"}`},
		{"bad status", `{"title":"x","priority":"High","status":"Blocked"}`},
		{"malformed", `{"title":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRaw(t, h, http.MethodPost, "/api/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, decodeBody[map[string]string](t, rr)["error"])
		})
	}
}

func TestPATCH_Task(t *testing.T) {
	_, h := newApp(t)
	task := create(t, h, "A")

	rr := doJSON(t, h, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"status": "Done"})
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[model.Task](t, rr)
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, "A", got.Title)

	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodPatch, "/api/tasks/99", map[string]any{"status": "Done"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPatch, "/api/tasks/abc", map[string]any{"status": "Done"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPatch, "/api/tasks/0", map[string]any{"status": "Done"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"priority": "None"}).Code)
}

func TestDELETE_TaskAndUndo(t *testing.T) {
	_, h := newApp(t)
	task := create(t, h, "Write report")

	rr := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodDelete, "/api/tasks/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodDelete, "/api/tasks/-1", nil).Code)

	rr = doJSON(t, h, http.MethodPost, "/api/history/undo", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeBody[struct {
		Applied bool             `json:"applied"`
		History app.HistoryState `json:"history"`
	}](t, rr)
	assert.True(t, res.Applied)
	assert.True(t, res.History.CanRedo)

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Write report", decodeBody[model.Task](t, rr).Title)

	rr = doJSON(t, h, http.MethodPost, "/api/history/redo", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]model.Task](t, doJSON(t, h, http.MethodGet, "/api/trash", nil)), 1)

	rr = doJSON(t, h, http.MethodDelete, "/api/trash", nil)
	assert.Equal(t, 1, decodeBody[map[string]int](t, rr)["purged"])

	assert.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodDelete, "/api/history", nil).Code)
	hs := decodeBody[app.HistoryState](t, doJSON(t, h, http.MethodGet, "/api/history", nil))
	assert.False(t, hs.CanUndo)
}

func TestGET_View(t *testing.T) {
	_, h := newApp(t)
	for i := 1; i <= 25; i++ {
		create(t, h, fmt.Sprintf("task %02d", i))
	}

	rr := doJSON(t, h, http.MethodGet, "/api/view?sort=title&order=asc&pageSize=10&page=3", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decodeBody[store.Page](t, rr)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 3, page.PageCount)
	assert.Equal(t, 25, page.FilteredCount)
	require.Len(t, page.Tasks, 5)
	assert.Equal(t, "task 21", page.Tasks[0].Title)

	rr = doJSON(t, h, http.MethodGet, "/api/view?search=TASK%201", nil)
	page = decodeBody[store.Page](t, rr)
	assert.Equal(t, 10, page.FilteredCount)
	assert.Equal(t, 1, page.CurrentPage, "page clamps when the filter shrinks the result")

	rr = doJSON(t, h, http.MethodGet, "/api/view?pageSize=20", nil)
	page = decodeBody[store.Page](t, rr)
	assert.Equal(t, 1, page.CurrentPage)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/api/view?priority=urgent", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/api/view?sort=nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodGet, "/api/view?page=x", nil).Code)

	rr = doJSON(t, h, http.MethodDelete, "/api/view", nil)
	page = decodeBody[store.Page](t, rr)
	assert.Empty(t, page.SearchTerm)
	assert.Equal(t, 25, page.FilteredCount)
}

func TestGET_View_RejectedQueryChangesNothing(t *testing.T) {
	a, h := newApp(t)
	for i := 1; i <= 3; i++ {
		create(t, h, fmt.Sprintf("task %d", i))
	}
	before := a.Store().Params()

	for _, query := range []string{
		"search=zzz&order=sideways",
		"search=zzz&priority=High&pageSize=0",
		"status=Done&sort=nope",
		"search=zzz&field.owner=sam",
		"pageSize=5&page=x",
	} {
		rr := doJSON(t, h, http.MethodGet, "/api/view?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, query)
		assert.Equal(t, before, a.Store().Params(), query)
	}

	rr := doJSON(t, h, http.MethodGet, "/api/view", nil)
	assert.Equal(t, 3, decodeBody[store.Page](t, rr).FilteredCount)
}

func TestGET_View_MultiFilter(t *testing.T) {
	_, h := newApp(t)
	for _, body := range []map[string]any{
		{"title": "a", "priority": "High", "status": "Todo"},
		{"title": "b", "priority": "Low", "status": "Done"},
		{"title": "c", "priority": "Medium", "status": "In Progress"},
	} {
		require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/tasks", body).Code)
	}

	rr := doJSON(t, h, http.MethodGet, "/api/view?priority=High&priority=Low&status=Done", nil)
	page := decodeBody[store.Page](t, rr)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "b", page.Tasks[0].Title)

	rr = doJSON(t, h, http.MethodGet, "/api/view?priority=&status=", nil)
	assert.Equal(t, 3, decodeBody[store.Page](t, rr).FilteredCount)
}

func TestFields(t *testing.T) {
	_, h := newApp(t)
	task := create(t, h, "A")

	rr := doJSON(t, h, http.MethodPut, "/api/fields", []map[string]any{
		{"name": "points", "type": "number", "order": 5, "sortable": true, "filterable": true},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	fields := decodeBody[model.FieldSet](t, rr)
	assert.Equal(t, 0, fields[0].Order)

	dup := []map[string]any{{"name": "X", "type": "text"}, {"name": "x", "type": "text"}}
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPut, "/api/fields", dup).Code)

	path := fmt.Sprintf("/api/tasks/%d/fields/points", task.ID)
	rr = doJSON(t, h, http.MethodPut, path, map[string]any{"value": 8})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, model.NumberValue(8), decodeBody[model.Task](t, rr).CustomFields["points"])

	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPut, path, map[string]any{"value": "eight"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPut, path, map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodPut, "/api/tasks/99/fields/points", map[string]any{"value": 1}).Code)

	rr = doJSON(t, h, http.MethodGet, "/api/view?sort=points&order=desc", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSelectionAndBulk(t *testing.T) {
	_, h := newApp(t)
	for _, title := range []string{"a", "b", "c", "d"} {
		create(t, h, title)
	}

	rr := doJSON(t, h, http.MethodPost, "/api/selection", map[string]any{"ids": []int{1, 2, 3}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{1, 2, 3}, decodeBody[map[string][]int](t, rr)["selected"])

	rr = doJSON(t, h, http.MethodPost, "/api/bulk/update", map[string]any{"status": "Done"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[map[string][]model.Task](t, rr)["updated"], 3)

	rr = doJSON(t, h, http.MethodGet, "/api/selection", nil)
	assert.Empty(t, decodeBody[map[string][]int](t, rr)["selected"])

	rr = doJSON(t, h, http.MethodGet, "/api/view?status=Done", nil)
	assert.Equal(t, 3, decodeBody[store.Page](t, rr).FilteredCount)

	rr = doJSON(t, h, http.MethodPost, "/api/selection", map[string]any{"mode": "all"})
	assert.Len(t, decodeBody[map[string][]int](t, rr)["selected"], 4)
	rr = doJSON(t, h, http.MethodPost, "/api/selection", map[string]any{"ids": []int{4}, "mode": "toggle"})
	assert.Equal(t, []int{1, 2, 3}, decodeBody[map[string][]int](t, rr)["selected"])

	rr = doJSON(t, h, http.MethodPost, "/api/bulk/delete", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[map[string][]model.Task](t, rr)["deleted"], 3)
	assert.Len(t, decodeBody[[]model.Task](t, doJSON(t, h, http.MethodGet, "/api/tasks", nil)), 1)

	assert.Equal(t, http.StatusNotFound, doJSON(t, h, http.MethodPost, "/api/selection", map[string]any{"ids": []int{4, 42}}).Code)
	rr = doJSON(t, h, http.MethodGet, "/api/selection", nil)
	assert.Empty(t, decodeBody[map[string][]int](t, rr)["selected"], "a rejected request selects nothing")
	assert.Equal(t, http.StatusBadRequest, doJSON(t, h, http.MethodPost, "/api/selection", map[string]any{"mode": "invert"}).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(t, h, http.MethodDelete, "/api/selection", nil).Code)
}

func TestRequestIDAndRecover(t *testing.T) {
	_, h := newApp(t)

	rr := doJSON(t, h, http.MethodGet, "/api/tasks", nil)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-Id"))

	panicky := api.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), api.WithRequestID, api.WithRecover(quiet))
	rr = httptest.NewRecorder()
	panicky.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/explode", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", decodeBody[map[string]string](t, rr)["error"])
}

func TestServerShutsDownOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	a, err := app.New(cfg, quiet)
	require.NoError(t, err)
	defer a.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := api.NewServer(cfg, a, quiet)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/api/tasks")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
