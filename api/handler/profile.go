package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/pkg/httpcontext"
	profileUC "github.com/fastygo/planner/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, httpcontext.UserID(stdCtx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	var req transport.ProfileUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateProfile(stdCtx, httpcontext.UserID(stdCtx), profileUC.UpdateInput{
		Name:  req.Name,
		Email: req.Email,
		Image: req.Image,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}
