package middleware

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/httpcontext"
	appLogger "github.com/fastygo/planner/pkg/logger"
	"github.com/fastygo/planner/usecase/auth"
)

// TokenParser validates a bearer token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// SessionValidator confirms the session behind a token is still alive.
type SessionValidator interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// JWTAuth rejects requests without a valid token for a live session and stores the
// identity on the request for the handlers. The session lookup runs under the
// request's context so it shares its deadline and request id.
func JWTAuth(parser TokenParser, sessions SessionValidator, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			claims, err := parser.Parse(tokenString)
			if err != nil {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}

			if sessions != nil {
				checkCtx, cancel := adapter.Attach(ctx)
				session, err := sessions.GetSession(checkCtx, claims.SessionID)
				cancel()
				if err != nil || session.UserID != claims.UserID {
					appLogger.WithRequestID(checkCtx, logger).Debug("session rejected",
						zap.String("session_id", claims.SessionID),
						zap.Error(err))
					unauthorized(ctx, "session expired")
					return
				}
			}

			httpcontext.SetIdentity(ctx, claims.UserID, claims.SessionID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}
