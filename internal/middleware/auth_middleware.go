package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"yatube-backend/internal/dto"
	"yatube-backend/internal/dto/result"
	"yatube-backend/internal/policy"
)

const loginUserContextKey = "loginUser"

// TokenAuthenticator resolves a bearer token to a principal.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*dto.LoginUser, error)
}

// Authenticate attaches the principal for a valid bearer token. Requests
// without a token pass through anonymously; a bad token is rejected outright.
func Authenticate(tokens TokenAuthenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, present := extractToken(ctx)
		if !present {
			ctx.Next()
			return
		}
		user, err := tokens.Authenticate(ctx.Request.Context(), token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, result.Fail("Given token not valid for any token type"))
			return
		}
		ctx.Set(loginUserContextKey, user)
		ctx.Next()
	}
}

// Authenticated rejects anonymous requests.
func Authenticated() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := GetLoginUser(ctx); !ok {
			abortUnauthenticated(ctx)
			return
		}
		ctx.Next()
	}
}

// AuthenticatedOrReadOnly lets anonymous requests through only for safe methods.
func AuthenticatedOrReadOnly() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if policy.IsSafeMethod(ctx.Request.Method) {
			ctx.Next()
			return
		}
		if _, ok := GetLoginUser(ctx); !ok {
			abortUnauthenticated(ctx)
			return
		}
		ctx.Next()
	}
}

// GetLoginUser reads the authenticated principal from the gin context.
func GetLoginUser(ctx *gin.Context) (*dto.LoginUser, bool) {
	v, exists := ctx.Get(loginUserContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*dto.LoginUser)
	return user, ok && user != nil
}

func abortUnauthenticated(ctx *gin.Context) {
	ctx.Header("WWW-Authenticate", `Bearer realm="api"`)
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, result.Fail("Authentication credentials were not provided."))
}

// extractToken reads "Authorization: Bearer <token>". present is false when
// the header is absent or uses another scheme.
func extractToken(ctx *gin.Context) (string, bool) {
	header := strings.TrimSpace(ctx.GetHeader("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
