package handler

import (
	"hash/fnv"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"yatube-backend/internal/dto/result"
	"yatube-backend/internal/middleware"
)

var allowedImageExt = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true}

// UploadHandler stores post images below uploadDir. The returned path is
// what clients put in a post's image field.
type UploadHandler struct {
	uploadDir string
	log       *zap.Logger
}

func NewUploadHandler(uploadDir string, log *zap.Logger) *UploadHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UploadHandler{uploadDir: uploadDir, log: log}
}

func (h *UploadHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/upload", middleware.Authenticated())
	group.POST("/posts", h.uploadImage)
}

func (h *UploadHandler) uploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, result.Invalid("file", "No file was submitted."))
		return
	}
	suffix := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if !allowedImageExt[suffix] {
		ctx.JSON(http.StatusBadRequest, result.Invalid("file",
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image."))
		return
	}
	fileName := h.createNewFileName(suffix)
	target := filepath.Join(h.uploadDir, filepath.FromSlash(fileName))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	if err := ctx.SaveUploadedFile(file, target); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"image": fileName})
}

// createNewFileName spreads files over 16x16 directories keyed by a hash of
// a fresh uuid.
func (h *UploadHandler) createNewFileName(suffix string) string {
	name := uuid.NewString()
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(name))
	hash := hasher.Sum32()
	d1 := int(hash & 0xF)
	d2 := int((hash >> 4) & 0xF)
	return "posts/" + strconv.Itoa(d1) + "/" + strconv.Itoa(d2) + "/" + name + "." + suffix
}
