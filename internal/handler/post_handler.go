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

// PostHandler serves /posts/.
type PostHandler struct {
	postService *service.PostService
	log         *zap.Logger
}

func NewPostHandler(postSvc *service.PostService, log *zap.Logger) *PostHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostHandler{postService: postSvc, log: log}
}

func (h *PostHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/posts", middleware.AuthenticatedOrReadOnly())
	group.GET("/", h.list)
	group.POST("/", h.create)
	group.GET("/:id/", h.retrieve)
	group.PUT("/:id/", h.update)
	group.PATCH("/:id/", h.patch)
	group.DELETE("/:id/", h.destroy)
}

func (h *PostHandler) list(ctx *gin.Context) {
	lo := limitOffset(ctx)
	posts, total, err := h.postService.List(ctx.Request.Context(), lo)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	writeList(ctx, mapper.ToPostDTOs(posts), total, lo)
}

func (h *PostHandler) create(ctx *gin.Context) {
	var form dto.PostForm
	if !bindJSON(ctx, &form) {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	post, err := h.postService.Create(ctx.Request.Context(), user, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, mapper.ToPostDTO(post))
}

func (h *PostHandler) retrieve(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	post, err := h.postService.Get(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, mapper.ToPostDTO(post))
}

func (h *PostHandler) update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	if err := h.postService.CheckAccess(ctx.Request.Context(), user, http.MethodPut, id); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	var form dto.PostForm
	if !bindJSON(ctx, &form) {
		return
	}
	post, err := h.postService.Update(ctx.Request.Context(), user, id, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, mapper.ToPostDTO(post))
}

func (h *PostHandler) patch(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	if err := h.postService.CheckAccess(ctx.Request.Context(), user, http.MethodPatch, id); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	var patch dto.PostPatch
	if !bindJSON(ctx, &patch) {
		return
	}
	post, err := h.postService.Patch(ctx.Request.Context(), user, id, patch)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, mapper.ToPostDTO(post))
}

func (h *PostHandler) destroy(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	user, _ := middleware.GetLoginUser(ctx)
	if err := h.postService.Delete(ctx.Request.Context(), user, id); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
