package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"yatube-backend/internal/dto/result"
	"yatube-backend/internal/policy"
	"yatube-backend/internal/service"
	"yatube-backend/internal/utils"
)

// parseID reads a numeric path parameter. Non-numeric ids never match a
// record, so they answer 404 like a missing one.
func parseID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusNotFound, result.Fail("Not found."))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into form, answering 400 on failure.
func bindJSON(ctx *gin.Context, form interface{}) bool {
	err := ctx.ShouldBindJSON(form)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		body := result.FieldErrors{}
		for _, fe := range verrs {
			body.Add(jsonFieldName(fe.Field()), fieldMessage(fe))
		}
		ctx.JSON(http.StatusBadRequest, body)
	case errors.As(err, &typeErr):
		ctx.JSON(http.StatusBadRequest, result.Invalid(typeErr.Field, "Incorrect type."))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		ctx.JSON(http.StatusBadRequest, result.Fail("JSON parse error - "+err.Error()))
	default:
		ctx.JSON(http.StatusBadRequest, result.Fail(err.Error()))
	}
	return false
}

// writeError maps service and policy errors onto HTTP responses.
func writeError(ctx *gin.Context, log *zap.Logger, err error) {
	var vErr *policy.ValidationError
	switch {
	case errors.As(err, &vErr):
		ctx.JSON(http.StatusBadRequest, result.Invalid(vErr.Field, vErr.Message))
	case errors.Is(err, policy.ErrAuthorizationDenied):
		ctx.JSON(http.StatusForbidden, result.Fail("You do not have permission to perform this action."))
	case errors.Is(err, service.ErrNotFound):
		ctx.JSON(http.StatusNotFound, result.Fail("Not found."))
	case errors.Is(err, service.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, result.Fail(service.ErrInvalidCredentials.Error()))
	case errors.Is(err, service.ErrInvalidToken):
		ctx.JSON(http.StatusUnauthorized, result.Fail("Token is invalid or expired"))
	default:
		_ = ctx.Error(err)
		log.Error("request failed", zap.Error(err), zap.String("path", ctx.Request.URL.Path))
		ctx.JSON(http.StatusInternalServerError, result.Fail("A server error occurred."))
	}
}

// writeList answers a bare array, or the limit/offset envelope when the
// client asked for a limit.
func writeList(ctx *gin.Context, items interface{}, total int64, lo utils.LimitOffset) {
	if !lo.Paged {
		ctx.JSON(http.StatusOK, items)
		return
	}
	next, previous := utils.PageLinks(requestURL(ctx), lo, total)
	ctx.JSON(http.StatusOK, result.Page{Count: total, Next: next, Previous: previous, Results: items})
}

func limitOffset(ctx *gin.Context) utils.LimitOffset {
	return utils.ParseLimitOffset(ctx.Query("limit"), ctx.Query("offset"))
}

// requestURL rebuilds the absolute URL of the current request.
func requestURL(ctx *gin.Context) url.URL {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := ctx.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	u := *ctx.Request.URL
	u.Scheme = scheme
	u.Host = ctx.Request.Host
	return u
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// jsonFieldName turns the Go field name reported by the validator into the
// snake_case key clients send.
func jsonFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
