package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/planner/api/handler"
)

func TestRoutesRequireAuth(t *testing.T) {
	guarded := 0
	authMiddleware := func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		guarded++
		return func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		}
	}

	r := New(Handlers{
		Auth:    &apiHandler.AuthHandler{},
		Profile: &apiHandler.ProfileHandler{},
		Task:    &apiHandler.TaskHandler{},
		Health:  &apiHandler.HealthHandler{},
		Metrics: func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusOK) },
	}, authMiddleware)

	routes := r.List()
	assert.Contains(t, routes[fasthttp.MethodGet], "/api/v1/tasks")
	assert.Contains(t, routes[fasthttp.MethodGet], "/api/v1/tasks/export")
	assert.Contains(t, routes[fasthttp.MethodPatch], "/api/v1/tasks/{id}/status")
	assert.Contains(t, routes[fasthttp.MethodPost], "/api/v1/tasks/{id}/calendar")
	assert.Contains(t, routes[fasthttp.MethodGet], "/api/v1/auth/google/callback")
	assert.Contains(t, routes[fasthttp.MethodGet], "/metrics")
	assert.Equal(t, 14, guarded)

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodDelete)
	ctx.Request.SetRequestURI("/api/v1/tasks/123")
	r.Handler(&ctx)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}
