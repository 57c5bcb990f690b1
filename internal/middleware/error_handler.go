package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube-backend/internal/dto/result"
)

// ErrorHandler converts panics into a JSON 500 and logs them with the request id.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", ctx.Request.URL.Path),
					zap.String("request_id", RequestIDFromContext(ctx)),
				)
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, result.Fail("A server error occurred."))
			}
		}()
		ctx.Next()
	}
}
