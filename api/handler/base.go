package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/pkg/logger"
)

const (
	// InvalidateHeader tells clients which cached lists a mutation made stale.
	InvalidateHeader = "X-Invalidate"
	invalidateTasks  = "tasks"

	dateLayout = "2006-01-02"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
		message = "internal server error"
	}
	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

func (h baseHandler) respondInvalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

// invalidate marks a successful mutation so clients refetch their task list.
func (h baseHandler) invalidate(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set(InvalidateHeader, invalidateTasks)
}

func pathID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return strings.TrimSpace(id)
}

// parseDate accepts YYYY-MM-DD in loc or an RFC3339 timestamp.
func parseDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "date must be YYYY-MM-DD or RFC3339", err)
	}
	parsed = parsed.In(loc)
	return &parsed, nil
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
