package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/internal/infrastructure/monitor"
	"github.com/fastygo/planner/pkg/httpcontext"
)

// StatusSource reports the state of the backing services.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
	storage string
}

func NewHealthHandler(mon StatusSource, storage string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		storage:     storage,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"storage":   h.storage,
		"services": map[string]interface{}{
			"postgresql": status.PostgreSQL,
			"redis":      status.Redis,
			"outbox": map[string]interface{}{
				"state": status.Outbox,
				"size":  status.OutboxSize,
			},
		},
	}

	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
