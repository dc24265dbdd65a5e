package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/export"
	"github.com/fastygo/planner/pkg/httpcontext"
	taskUC "github.com/fastygo/planner/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks in a calendar window
// @Tags tasks
// @Param view query string false "day, week, month, year or today"
// @Param date query string false "reference date, YYYY-MM-DD"
// @Param q query string false "case-insensitive text search"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, ok := h.list(ctx, stdCtx)
	if !ok {
		return
	}
	meta := transport.ListMeta{
		View:  string(result.View),
		From:  result.Window.Start.Format(dateLayout),
		To:    result.Window.End.Format(dateLayout),
		Count: len(result.Tasks),
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(result.Tasks, meta))
}

// @Summary Export the listed tasks as XLSX
// @Tags tasks
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /api/v1/tasks/export [get]
func (h *TaskHandler) ExportTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, ok := h.list(ctx, stdCtx)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTasks(&buf, result.Tasks, h.uc.Location()); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.Response.Header.SetContentType(export.ContentType)
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+export.FileName(result.View, result.Window)+`"`)
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(buf.Bytes())
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, httpcontext.UserID(stdCtx), pathID(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Accept json
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	input, ok := h.parseTask(ctx)
	if !ok {
		return
	}

	created, err := h.uc.CreateTask(stdCtx, httpcontext.UserID(stdCtx), input)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.invalidate(ctx)
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Accept json
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	input, ok := h.parseTask(ctx)
	if !ok {
		return
	}

	updated, err := h.uc.UpdateTask(stdCtx, httpcontext.UserID(stdCtx), pathID(ctx), input)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.invalidate(ctx)
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Set task status
// @Tags tasks
// @Accept json
// @Router /api/v1/tasks/{id}/status [patch]
func (h *TaskHandler) SetStatus(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.StatusRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	updated, err := h.uc.SetStatus(stdCtx, httpcontext.UserID(stdCtx), pathID(ctx), req.Status)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.invalidate(ctx)
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, httpcontext.UserID(stdCtx), pathID(ctx)); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.invalidate(ctx)
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Task change history
// @Tags tasks
// @Router /api/v1/tasks/{id}/history [get]
func (h *TaskHandler) History(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.uc.History(stdCtx, httpcontext.UserID(stdCtx), pathID(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, events)
}

// @Summary Push task to Google Calendar
// @Tags tasks
// @Router /api/v1/tasks/{id}/calendar [post]
func (h *TaskHandler) SyncToCalendar(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.SyncToCalendar(stdCtx, httpcontext.UserID(stdCtx), pathID(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, task)
}

func (h *TaskHandler) list(ctx *fasthttp.RequestCtx, stdCtx context.Context) (*taskUC.ListResult, bool) {
	args := ctx.QueryArgs()

	query := taskUC.ListQuery{
		View:   domain.View(strings.ToLower(strings.TrimSpace(string(args.Peek("view"))))),
		Search: string(args.Peek("q")),
	}
	date, err := parseDate(string(args.Peek("date")), h.uc.Location())
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return nil, false
	}
	if date != nil {
		query.Date = *date
	}

	result, err := h.uc.ListTasks(stdCtx, httpcontext.UserID(stdCtx), query)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return nil, false
	}
	return result, true
}

func (h *TaskHandler) parseTask(ctx *fasthttp.RequestCtx) (domain.TaskInput, bool) {
	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return domain.TaskInput{}, false
	}

	due, err := parseDate(req.DueDate, h.uc.Location())
	if err != nil {
		h.respondInvalid(ctx, err.Error())
		return domain.TaskInput{}, false
	}

	return domain.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     due,
	}, true
}
