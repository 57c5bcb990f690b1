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

// UserHandler serves registration and the current-user endpoint.
type UserHandler struct {
	userService *service.UserService
	log         *zap.Logger
}

func NewUserHandler(userSvc *service.UserService, log *zap.Logger) *UserHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{userService: userSvc, log: log}
}

func (h *UserHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/users")
	group.POST("/", h.register)
	group.GET("/me/", middleware.Authenticated(), h.me)
}

func (h *UserHandler) register(ctx *gin.Context) {
	var form dto.RegisterForm
	if !bindJSON(ctx, &form) {
		return
	}
	user, err := h.userService.Create(ctx.Request.Context(), form.Username, form.Password, false)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	h.log.Info("user registered", zap.Int64("userId", user.ID), zap.String("username", user.Username))
	ctx.JSON(http.StatusCreated, mapper.ToUserDTO(user))
}

func (h *UserHandler) me(ctx *gin.Context) {
	login, _ := middleware.GetLoginUser(ctx)
	user, err := h.userService.FindByID(ctx.Request.Context(), login.ID)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, mapper.ToUserDTO(user))
}
