package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/planner/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyUserID     Key = "user_id"
	KeySessionID  Key = "session_id"
)

const keyRequestID = "request_id"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request
// metadata, including the identity stored by the auth middleware.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if userID, ok := ctx.UserValue(string(KeyUserID)).(string); ok && userID != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserID, userID)
		stdCtx = appLogger.ContextWithUserID(stdCtx, userID)
	}
	if sessionID, ok := ctx.UserValue(string(KeySessionID)).(string); ok && sessionID != "" {
		stdCtx = context.WithValue(stdCtx, KeySessionID, sessionID)
	}

	return stdCtx, cancel
}

// SetIdentity stores the authenticated user and session on the request.
func SetIdentity(ctx *fasthttp.RequestCtx, userID, sessionID string) {
	ctx.SetUserValue(string(KeyUserID), userID)
	ctx.SetUserValue(string(KeySessionID), sessionID)
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	return stringValue(ctx, KeyUserID)
}

// SessionID returns the session id of the authenticated request.
func SessionID(ctx context.Context) string {
	return stringValue(ctx, KeySessionID)
}

// UserAgent returns the client user agent, if any.
func UserAgent(ctx context.Context) string {
	return stringValue(ctx, KeyUserAgent)
}

func stringValue(ctx context.Context, key Key) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}

// getRequestID returns the same id for every Attach on one request.
func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if reqID, ok := ctx.UserValue(keyRequestID).(string); ok && reqID != "" {
		return reqID
	}
	reqID := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID")))
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx.SetUserValue(keyRequestID, reqID)
	return reqID
}
