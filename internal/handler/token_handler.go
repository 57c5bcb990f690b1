package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube-backend/internal/dto"
	"yatube-backend/internal/service"
)

// TokenHandler serves /jwt/create/, /jwt/refresh/ and /jwt/verify/.
type TokenHandler struct {
	tokenService *service.TokenService
	log          *zap.Logger
}

func NewTokenHandler(tokenSvc *service.TokenService, log *zap.Logger) *TokenHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenHandler{tokenService: tokenSvc, log: log}
}

func (h *TokenHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/jwt")
	group.POST("/create/", h.create)
	group.POST("/refresh/", h.refresh)
	group.POST("/verify/", h.verify)
}

func (h *TokenHandler) create(ctx *gin.Context) {
	var form dto.TokenForm
	if !bindJSON(ctx, &form) {
		return
	}
	pair, err := h.tokenService.Obtain(ctx.Request.Context(), form.Username, form.Password)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, pair)
}

func (h *TokenHandler) refresh(ctx *gin.Context) {
	var form dto.RefreshForm
	if !bindJSON(ctx, &form) {
		return
	}
	pair, err := h.tokenService.Refresh(ctx.Request.Context(), form.Refresh)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, pair)
}

func (h *TokenHandler) verify(ctx *gin.Context) {
	var form dto.VerifyForm
	if !bindJSON(ctx, &form) {
		return
	}
	if err := h.tokenService.Verify(form.Token); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{})
}
