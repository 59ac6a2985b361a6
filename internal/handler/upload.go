package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/lostfound/internal/domain"
	"github.com/sumire/lostfound/internal/service"
)

// multipart framing allowance on top of the file limit
const multipartOverhead = 1 << 20

// UploadHandler accepts report and claim photos.
type UploadHandler struct {
	uploads  *service.UploadService
	maxBytes int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploads *service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploads: uploads, maxBytes: maxBytes}
}

// Upload stores the multipart "file" field and returns its public URL.
func (h *UploadHandler) Upload(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return domain.NewValidationError("file", "a file field is required")
	}
	if fh.Size > h.maxBytes {
		return domain.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", h.maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	// trust the bytes over the client's declared type
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	url, err := h.uploads.UploadImage(req.Context(), service.UploadInput{
		OwnerID:     userID,
		ContentType: http.DetectContentType(head),
		Size:        fh.Size,
		Body:        io.MultiReader(bytes.NewReader(head), f),
	})
	if err != nil {
		return err
	}

	return JSON(c, http.StatusCreated, map[string]string{"url": url})
}
