package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube-backend/internal/service"
)

// GroupHandler serves the read-only /groups/ collection.
type GroupHandler struct {
	groupService *service.GroupService
	log          *zap.Logger
}

func NewGroupHandler(groupSvc *service.GroupService, log *zap.Logger) *GroupHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GroupHandler{groupService: groupSvc, log: log}
}

func (h *GroupHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/groups")
	group.GET("/", h.list)
	group.GET("/:id/", h.retrieve)
}

func (h *GroupHandler) list(ctx *gin.Context) {
	groups, err := h.groupService.List(ctx.Request.Context(), ctx.Query("search"))
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) retrieve(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	group, err := h.groupService.Get(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, group)
}
