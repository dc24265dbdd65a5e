package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/planner/pkg/logger"
)

func TestAttachCarriesRequestMetadata(t *testing.T) {
	var reqCtx fasthttp.RequestCtx
	reqCtx.Request.Header.Set("X-Request-ID", "req-42")
	reqCtx.Request.Header.SetUserAgent("planner-test")
	SetIdentity(&reqCtx, "user-1", "session-1")

	ctx, cancel := NewAdapter(time.Second).Attach(&reqCtx)
	defer cancel()

	assert.Equal(t, "req-42", string(reqCtx.Response.Header.Peek("X-Request-ID")))
	assert.Equal(t, "user-1", UserID(ctx))
	assert.Equal(t, "session-1", SessionID(ctx))
	assert.Equal(t, "planner-test", UserAgent(ctx))

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestAttachGeneratesRequestID(t *testing.T) {
	var reqCtx fasthttp.RequestCtx

	ctx, cancel := NewAdapter(0).Attach(&reqCtx)
	defer cancel()

	assert.NotEmpty(t, string(reqCtx.Response.Header.Peek("X-Request-ID")))
	assert.Empty(t, UserID(ctx))
}

func TestAttachKeepsRequestIDAcrossCalls(t *testing.T) {
	var reqCtx fasthttp.RequestCtx
	adapter := NewAdapter(time.Second)

	first, cancelFirst := adapter.Attach(&reqCtx)
	defer cancelFirst()
	second, cancelSecond := adapter.Attach(&reqCtx)
	defer cancelSecond()

	id := appLogger.RequestID(first)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, appLogger.RequestID(second))
	assert.Equal(t, id, string(reqCtx.Response.Header.Peek("X-Request-ID")))
}
