package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/xuri/excelize/v2"

	"github.com/fastygo/planner/internal/export"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/repository/memory"
	taskUC "github.com/fastygo/planner/usecase/task"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   json.RawMessage `json:"meta"`
}

func newTaskHandler(t *testing.T) *TaskHandler {
	t.Helper()
	store := memory.New()
	uc := taskUC.New(taskUC.Deps{
		Tasks:  store.Tasks(),
		Events: store.TaskEvents(),
	}, nil)
	return NewTaskHandler(uc, httpcontext.NewAdapter(time.Second), nil)
}

func request(method, uri, userID, id string, body interface{}) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		raw, _ := json.Marshal(body)
		ctx.Request.SetBody(raw)
	}
	if userID != "" {
		httpcontext.SetIdentity(ctx, userID, "session-"+userID)
	}
	if id != "" {
		ctx.SetUserValue("id", id)
	}
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func createTask(t *testing.T, h *TaskHandler, userID, title, priority, due string) string {
	t.Helper()
	ctx := request(http.MethodPost, "/api/v1/tasks", userID, "", map[string]string{
		"title": title, "priority": priority, "due_date": due,
	})
	h.CreateTask(ctx)
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &created))
	return created.ID
}

func TestCreateTaskHandler(t *testing.T) {
	h := newTaskHandler(t)

	ctx := request(http.MethodPost, "/api/v1/tasks", "user-1", "", map[string]string{
		"title": "Run", "priority": "low", "due_date": "2024-06-15",
	})
	h.CreateTask(ctx)

	assert.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	assert.Equal(t, "tasks", string(ctx.Response.Header.Peek(InvalidateHeader)))
	env := decode(t, ctx)
	assert.Equal(t, "success", env.Status)
	assert.Contains(t, string(env.Data), `"priority":"LOW"`)
	assert.Contains(t, string(env.Data), `"status":"NOT_STARTED"`)

	dup := request(http.MethodPost, "/api/v1/tasks", "user-1", "", map[string]string{
		"title": "Run", "priority": "HIGH", "due_date": "2024-06-15T18:00:00Z",
	})
	h.CreateTask(dup)
	assert.Equal(t, http.StatusConflict, dup.Response.StatusCode())
	assert.Empty(t, dup.Response.Header.Peek(InvalidateHeader))
	assert.Equal(t, "CONFLICT", decode(t, dup).Code)
}

func TestCreateTaskHandlerValidation(t *testing.T) {
	h := newTaskHandler(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty title", body: map[string]string{"title": " ", "priority": "LOW", "due_date": "2024-06-15"}},
		{name: "missing priority", body: map[string]string{"title": "Run", "due_date": "2024-06-15"}},
		{name: "missing date", body: map[string]string{"title": "Run", "priority": "LOW"}},
		{name: "bad date", body: map[string]string{"title": "Run", "priority": "LOW", "due_date": "15/06/2024"}},
		{name: "not json", body: "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := request(http.MethodPost, "/api/v1/tasks", "user-1", "", tt.body)
			h.CreateTask(ctx)
			assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
			assert.Equal(t, "INVALID", decode(t, ctx).Code)
		})
	}
}

func TestListTasksHandler(t *testing.T) {
	h := newTaskHandler(t)
	createTask(t, h, "user-1", "Mon", "LOW", "2024-06-10")
	createTask(t, h, "user-1", "Sun", "LOW", "2024-06-16")
	createTask(t, h, "user-1", "Next Mon", "LOW", "2024-06-17")
	createTask(t, h, "user-2", "Other", "LOW", "2024-06-12")

	ctx := request(http.MethodGet, "/api/v1/tasks?view=week&date=2024-06-15", "user-1", "", nil)
	h.ListTasks(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	env := decode(t, ctx)
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.Equal(t, "week", meta["view"])
	assert.Equal(t, "2024-06-10", meta["from"])
	assert.Equal(t, "2024-06-16", meta["to"])
	assert.EqualValues(t, 2, meta["count"])

	search := request(http.MethodGet, "/api/v1/tasks?view=year&date=2024-01-01&q=MON", "user-1", "", nil)
	h.ListTasks(search)
	assert.Contains(t, string(decode(t, search).Meta), `"count":2`)

	bad := request(http.MethodGet, "/api/v1/tasks?view=decade", "user-1", "", nil)
	h.ListTasks(bad)
	assert.Equal(t, http.StatusBadRequest, bad.Response.StatusCode())
}

func TestTaskLifecycleHandlers(t *testing.T) {
	h := newTaskHandler(t)
	id := createTask(t, h, "user-1", "Run", "MEDIUM", "2024-06-15")

	status := request(http.MethodPatch, "/api/v1/tasks/"+id+"/status", "user-1", id, map[string]string{"status": "completed"})
	h.SetStatus(status)
	require.Equal(t, http.StatusOK, status.Response.StatusCode())
	assert.Contains(t, string(decode(t, status).Data), `"status":"COMPLETED"`)
	assert.Equal(t, "tasks", string(status.Response.Header.Peek(InvalidateHeader)))

	update := request(http.MethodPut, "/api/v1/tasks/"+id, "user-1", id, map[string]string{
		"title": "Run far", "priority": "HIGH", "due_date": "2024-06-16",
	})
	h.UpdateTask(update)
	require.Equal(t, http.StatusOK, update.Response.StatusCode())

	foreign := request(http.MethodGet, "/api/v1/tasks/"+id, "user-2", id, nil)
	h.GetTask(foreign)
	assert.Equal(t, http.StatusNotFound, foreign.Response.StatusCode())

	history := request(http.MethodGet, "/api/v1/tasks/"+id+"/history", "user-1", id, nil)
	h.History(history)
	require.Equal(t, http.StatusOK, history.Response.StatusCode())
	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, history).Data, &events))
	assert.Len(t, events, 3)

	del := request(http.MethodDelete, "/api/v1/tasks/"+id, "user-1", id, nil)
	h.DeleteTask(del)
	assert.Equal(t, http.StatusNoContent, del.Response.StatusCode())

	again := request(http.MethodDelete, "/api/v1/tasks/"+id, "user-1", id, nil)
	h.DeleteTask(again)
	assert.Equal(t, http.StatusNotFound, again.Response.StatusCode())
}

func TestSyncToCalendarWithoutOutbox(t *testing.T) {
	h := newTaskHandler(t)
	id := createTask(t, h, "user-1", "Run", "LOW", "2024-06-15")

	ctx := request(http.MethodPost, "/api/v1/tasks/"+id+"/calendar", "user-1", id, nil)
	h.SyncToCalendar(ctx)
	assert.Equal(t, http.StatusForbidden, ctx.Response.StatusCode())
}

func TestExportTasksHandler(t *testing.T) {
	h := newTaskHandler(t)
	createTask(t, h, "user-1", "Run", "LOW", "2024-06-15")
	createTask(t, h, "user-1", "Read", "HIGH", "2024-06-20")

	ctx := request(http.MethodGet, "/api/v1/tasks/export?view=month&date=2024-06-01", "user-1", "", nil)
	h.ExportTasks(ctx)

	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, export.ContentType, string(ctx.Response.Header.ContentType()))
	assert.Contains(t, string(ctx.Response.Header.Peek("Content-Disposition")), "tasks-month-2024-06-01.xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(ctx.Response.Body()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	got, err := parseDate("2024-06-15", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, loc), *got)

	got, err = parseDate("2024-06-15T22:30:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, 16, got.Day())

	got, err = parseDate("", loc)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseDate("yesterday", loc)
	assert.Error(t, err)
}
