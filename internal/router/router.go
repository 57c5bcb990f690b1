package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube-backend/internal/dto/result"
	"yatube-backend/internal/handler"
	"yatube-backend/internal/middleware"
	"yatube-backend/internal/service"
)

// APIPrefix is the mount point of every resource route.
const APIPrefix = "/api/v1"

// RegisterRoutes mounts the API under /api/v1 and serves uploaded media.
// Unknown paths answer 404 and unrouted methods 405, both as JSON.
func RegisterRoutes(engine *gin.Engine, services *service.Registry, uploadDir string, log *zap.Logger) {
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, result.Fail("Not found."))
	})
	engine.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, result.Fail("Method \""+ctx.Request.Method+"\" not allowed."))
	})
	engine.Static("/media", uploadDir)

	api := engine.Group(APIPrefix, middleware.Authenticate(services.Token))

	handler.NewTokenHandler(services.Token, log.Named("jwt")).RegisterRoutes(api)
	handler.NewUserHandler(services.User, log.Named("user")).RegisterRoutes(api)
	handler.NewGroupHandler(services.Group, log.Named("group")).RegisterRoutes(api)
	handler.NewPostHandler(services.Post, log.Named("post")).RegisterRoutes(api)
	handler.NewCommentHandler(services.Comment, log.Named("comment")).RegisterRoutes(api)
	handler.NewFollowHandler(services.Follow, log.Named("follow")).RegisterRoutes(api)
	handler.NewFeedHandler(services.Feed, log.Named("feed")).RegisterRoutes(api)
	handler.NewUploadHandler(uploadDir, log.Named("upload")).RegisterRoutes(api)
}
