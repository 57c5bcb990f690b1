package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube-backend/internal/dto"
	"yatube-backend/internal/mapper"
	"yatube-backend/internal/middleware"
	"yatube-backend/internal/service"
)

// FollowHandler serves /follow/. Only list and create are routed.
type FollowHandler struct {
	followService *service.FollowService
	log           *zap.Logger
}

func NewFollowHandler(followSvc *service.FollowService, log *zap.Logger) *FollowHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FollowHandler{followService: followSvc, log: log}
}

func (h *FollowHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/follow", middleware.Authenticated())
	group.GET("/", h.list)
	group.POST("/", h.create)
}

func (h *FollowHandler) list(ctx *gin.Context) {
	user, _ := middleware.GetLoginUser(ctx)
	follows, err := h.followService.List(ctx.Request.Context(), user.ID, ctx.Query("search"))
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, mapper.ToFollowDTOs(follows))
}

func (h *FollowHandler) create(ctx *gin.Context) {
	var form dto.FollowForm
	if !bindJSON(ctx, &form) {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	follow, err := h.followService.Create(ctx.Request.Context(), user, form.Following)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, mapper.ToFollowDTO(follow))
}
