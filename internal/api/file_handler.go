package api

import (
	"alcyxob/upload-service/internal/storage"
	"alcyxob/upload-service/internal/upload"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Uploader runs an upload batch for one caller.
type Uploader interface {
	Perform(ctx context.Context, identity string, sub upload.Submission) (*upload.Outcome, error)
}

// FileAccess reads stored files back by category and name.
type FileAccess interface {
	PresignedURL(ctx context.Context, category, filename string) (string, error)
	Open(ctx context.Context, category, filename string) (*storage.Object, error)
	TTL() time.Duration
}

type FileHandler struct {
	uploader Uploader
	access   FileAccess
	maxBytes int64
	logger   *zap.Logger
}

// NewFileHandler creates a FileHandler. maxBytes caps the request body; zero
// disables the cap.
func NewFileHandler(uploader Uploader, access FileAccess, maxBytes int64, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{uploader: uploader, access: access, maxBytes: maxBytes, logger: logger}
}

type PresignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}

// UploadFiles handles POST /files/upload-files.
// @Summary Upload a batch of files
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} gin.H "Files uploaded"
// @Failure 413 {object} gin.H "Request body too large"
// @Failure 422 {object} gin.H "Invalid upload set"
// @Router /files/upload-files [post]
func (h *FileHandler) UploadFiles(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	var sub upload.Submission
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		defer func() { _ = form.RemoveAll() }()
		sub = upload.FromMultipart(form)
	case isBodyTooLarge(err):
		abortWithError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Please upload files less than %d MB", h.maxBytes/(1000*1000)))
		return
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		// an empty submission, reported by validation below
	default:
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Malformed multipart body: %v", err))
		return
	}

	out, err := h.uploader.Perform(c.Request.Context(), h.identity(c), sub)
	if err != nil {
		var verr *upload.ValidationError
		if errors.As(err, &verr) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"status": "failed",
				"error":  strings.Join(verr.Messages, ", "),
				"errors": verr.Messages,
			})
			return
		}
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, "Could not upload files")
		return
	}

	status := "success"
	if out.Partial() {
		status = "partial"
		h.logger.Warn("upload batch partially failed",
			zap.String("request_id", c.GetString(ContextRequestIDKey)),
			zap.Int("confirmed", out.ConfirmedCount),
			zap.Int("unique", out.UniqueCount),
		)
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":         status,
		"message":        uploadedMessage(out.ConfirmedCount),
		"confirmedCount": out.ConfirmedCount,
		"uniqueCount":    out.UniqueCount,
		"fileNames":      out.Names,
		"files":          out.Files,
	})
}

// identity is the name that goes into stored filenames.
func (h *FileHandler) identity(c *gin.Context) string {
	if name := strings.TrimSpace(c.GetString(ContextUserNameKey)); name != "" {
		return name
	}
	return c.GetString(ContextUserIDKey)
}

func uploadedMessage(n int) string {
	if n == 1 {
		return "1 file uploaded successfully"
	}
	return fmt.Sprintf("%d files uploaded successfully", n)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// PresignedURL handles GET /files/presigned_url?file_type=&file_name=.
func (h *FileHandler) PresignedURL(c *gin.Context) {
	url, err := h.access.PresignedURL(c.Request.Context(), c.Query("file_type"), c.Query("file_name"))
	if err != nil {
		h.abortAccessError(c, err)
		return
	}
	c.JSON(http.StatusOK, PresignedURLResponse{
		URL:       url,
		ExpiresIn: int64(h.access.TTL() / time.Second),
	})
}

// Download handles GET /files/download?file_type=&file_name= and streams the
// object as an attachment.
func (h *FileHandler) Download(c *gin.Context) {
	name := strings.TrimSpace(c.Query("file_name"))
	obj, err := h.access.Open(c.Request.Context(), c.Query("file_type"), name)
	if err != nil {
		h.abortAccessError(c, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": name}),
	})
}

func (h *FileHandler) abortAccessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrUnknownCategory),
		errors.Is(err, upload.ErrFilenameRequired),
		errors.Is(err, upload.ErrInvalidFilename):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, upload.ErrFileNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, upload.ErrPresignFailed):
		abortWithError(c, http.StatusBadGateway, err.Error())
	default:
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, "Could not access file")
	}
}
