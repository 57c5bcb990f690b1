package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yatube-backend/internal/dto"
	"yatube-backend/internal/policy"
	"yatube-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{policy.SelfFollowError(), http.StatusBadRequest, `{"following":["You cannot follow yourself!"]}`},
		{policy.DuplicateFollowError("bob"), http.StatusBadRequest, `{"following":["You already follow bob!"]}`},
		{fmt.Errorf("update: %w", policy.ErrAuthorizationDenied), http.StatusForbidden,
			`{"detail":"You do not have permission to perform this action."}`},
		{service.ErrNotFound, http.StatusNotFound, `{"detail":"Not found."}`},
		{service.ErrInvalidToken, http.StatusUnauthorized, `{"detail":"Token is invalid or expired"}`},
		{errors.New("boom"), http.StatusInternalServerError, `{"detail":"A server error occurred."}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(rec)
		ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		writeError(ctx, zap.NewNop(), tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.JSONEq(t, tc.body, rec.Body.String(), tc.err.Error())
	}
}

func TestBindJSON(t *testing.T) {
	bind := func(body string) (*httptest.ResponseRecorder, bool) {
		rec := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(rec)
		ctx.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		ctx.Request.Header.Set("Content-Type", "application/json")
		var form dto.RegisterForm
		return rec, bindJSON(ctx, &form)
	}

	_, ok := bind(`{"username":"alice","password":"secret-pass"}`)
	assert.True(t, ok)

	rec, ok := bind(`{"username":"alice"}`)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"password":["This field is required."]}`, rec.Body.String())

	rec, ok = bind(`{"username":`)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "JSON parse error")

	rec, ok = bind(`{"username":1,"password":"x"}`)
	assert.False(t, ok)
	assert.JSONEq(t, `{"username":["Incorrect type."]}`, rec.Body.String())
}

func TestJSONFieldName(t *testing.T) {
	assert.Equal(t, "text", jsonFieldName("Text"))
	assert.Equal(t, "pub_date", jsonFieldName("PubDate"))
}

func TestParseID(t *testing.T) {
	engine := gin.New()
	engine.GET("/posts/:id/", func(ctx *gin.Context) {
		id, ok := parseID(ctx, "id")
		if ok {
			ctx.JSON(http.StatusOK, gin.H{"id": id})
		}
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/12/", nil))
	assert.JSONEq(t, `{"id":12}`, rec.Body.String())

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/abc/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload/posts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	dir := t.TempDir()
	h := NewUploadHandler(dir, nil)
	engine := gin.New()
	engine.POST("/upload/posts", h.uploadImage)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, "cat.PNG", []byte("png-bytes")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Image string `json:"image"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Regexp(t, `^posts/\d{1,2}/\d{1,2}/[0-9a-f-]{36}\.png$`, resp.Image)
	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(resp.Image)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(stored))

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, "script.sh", []byte("#!/bin/sh")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeDB struct{ err error }

func (f fakeDB) PingContext(context.Context) error { return f.err }

func TestReadyzReportsFailedChecks(t *testing.T) {
	h := NewHealthHandler(fakeDB{err: errors.New("down")}, nil, nil, nil)
	engine := gin.New()
	h.RegisterRoutes(engine)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mysql":"down"`)
	assert.Contains(t, rec.Body.String(), `"redis"`)
	assert.NotContains(t, rec.Body.String(), `"kafka"`)
}
