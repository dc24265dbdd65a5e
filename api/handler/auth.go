package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/pkg/httpcontext"
	authUC "github.com/fastygo/planner/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc         *authUC.UseCase
	defaultTTL time.Duration
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		defaultTTL:  ttl,
	}
}

// @Summary Register with email and password
// @Tags auth
// @Accept json
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, authUC.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, user)
}

// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Login(stdCtx, req.Email, req.Password, httpcontext.UserAgent(stdCtx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Start Google sign-in
// @Description Redirects to the consent screen, or returns the URL when mode=json.
// @Tags auth
// @Router /api/v1/auth/google [get]
func (h *AuthHandler) GoogleLogin(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	url, err := h.uc.GoogleAuthURL(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	if string(ctx.QueryArgs().Peek("mode")) == "json" {
		h.respondSuccess(ctx, http.StatusOK, map[string]string{"url": url})
		return
	}
	ctx.Redirect(url, http.StatusFound)
}

// @Summary Complete Google sign-in
// @Tags auth
// @Router /api/v1/auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	if oauthErr := string(args.Peek("error")); oauthErr != "" {
		h.respondInvalid(ctx, "google sign-in was cancelled: "+oauthErr)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.GoogleCallback(stdCtx, string(args.Peek("state")), string(args.Peek("code")), httpcontext.UserAgent(stdCtx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Refresh the current session
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.respondInvalid(ctx, "invalid payload")
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.RefreshSession(stdCtx, httpcontext.SessionID(stdCtx), h.ttlFromRequest(req.TTL))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Sign out
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RevokeSession(stdCtx, httpcontext.SessionID(stdCtx)); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Current user
// @Tags auth
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.CurrentUser(stdCtx, httpcontext.SessionID(stdCtx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

func (h *AuthHandler) ttlFromRequest(ttlSeconds int) time.Duration {
	if ttlSeconds <= 0 {
		return h.defaultTTL
	}
	return time.Duration(ttlSeconds) * time.Second
}
