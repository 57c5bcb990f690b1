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

// CommentHandler serves comments nested under /posts/:id/comments/.
type CommentHandler struct {
	commentService *service.CommentService
	log            *zap.Logger
}

func NewCommentHandler(commentSvc *service.CommentService, log *zap.Logger) *CommentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentHandler{commentService: commentSvc, log: log}
}

// RegisterRoutes shares the :id wildcard with PostHandler; gin requires one
// name per path segment.
func (h *CommentHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/posts/:id/comments", middleware.AuthenticatedOrReadOnly())
	group.GET("/", h.list)
	group.POST("/", h.create)
	group.GET("/:comment_id/", h.retrieve)
	group.PUT("/:comment_id/", h.update)
	group.PATCH("/:comment_id/", h.patch)
	group.DELETE("/:comment_id/", h.destroy)
}

func (h *CommentHandler) list(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	lo := limitOffset(ctx)
	comments, total, err := h.commentService.List(ctx.Request.Context(), postID, lo)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	writeList(ctx, mapper.ToCommentDTOs(comments), total, lo)
}

func (h *CommentHandler) create(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var form dto.CommentForm
	if !bindJSON(ctx, &form) {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	comment, err := h.commentService.Create(ctx.Request.Context(), user, postID, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, mapper.ToCommentDTO(comment))
}

func (h *CommentHandler) retrieve(ctx *gin.Context) {
	postID, id, ok := h.ids(ctx)
	if !ok {
		return
	}
	comment, err := h.commentService.Get(ctx.Request.Context(), postID, id)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, mapper.ToCommentDTO(comment))
}

func (h *CommentHandler) update(ctx *gin.Context) {
	postID, id, ok := h.ids(ctx)
	if !ok {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	if err := h.commentService.CheckAccess(ctx.Request.Context(), user, http.MethodPut, postID, id); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	var form dto.CommentForm
	if !bindJSON(ctx, &form) {
		return
	}
	comment, err := h.commentService.Update(ctx.Request.Context(), user, postID, id, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, mapper.ToCommentDTO(comment))
}

func (h *CommentHandler) patch(ctx *gin.Context) {
	postID, id, ok := h.ids(ctx)
	if !ok {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	if err := h.commentService.CheckAccess(ctx.Request.Context(), user, http.MethodPatch, postID, id); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	var patch dto.CommentPatch
	if !bindJSON(ctx, &patch) {
		return
	}
	comment, err := h.commentService.Patch(ctx.Request.Context(), user, postID, id, patch)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, mapper.ToCommentDTO(comment))
}

func (h *CommentHandler) destroy(ctx *gin.Context) {
	postID, id, ok := h.ids(ctx)
	if !ok {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	if err := h.commentService.Delete(ctx.Request.Context(), user, postID, id); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *CommentHandler) ids(ctx *gin.Context) (postID, id int64, ok bool) {
	if postID, ok = parseID(ctx, "id"); !ok {
		return 0, 0, false
	}
	if id, ok = parseID(ctx, "comment_id"); !ok {
		return 0, 0, false
	}
	return postID, id, true
}
