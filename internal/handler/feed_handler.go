package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube-backend/internal/mapper"
	"yatube-backend/internal/middleware"
	"yatube-backend/internal/service"
	"yatube-backend/internal/utils"
)

// FeedHandler serves /feed/: posts by followed authors, newest first.
type FeedHandler struct {
	feedService *service.FeedService
	log         *zap.Logger
}

func NewFeedHandler(feedSvc *service.FeedService, log *zap.Logger) *FeedHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedHandler{feedService: feedSvc, log: log}
}

func (h *FeedHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/feed/", middleware.Authenticated(), h.read)
}

// read always answers the paged envelope; the feed is unbounded in principle.
func (h *FeedHandler) read(ctx *gin.Context) {
	lo := limitOffset(ctx)
	if !lo.Paged {
		lo.Limit, lo.Paged = utils.DEFAULT_PAGE_LIMIT, true
	}
	user, _ := middleware.GetLoginUser(ctx)
	posts, total, err := h.feedService.Read(ctx.Request.Context(), user.ID, lo)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	writeList(ctx, mapper.ToPostDTOs(posts), total, lo)
}
