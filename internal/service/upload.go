package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/sumire/lostfound/internal/domain"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// UploadService accepts report and claim photos.
type UploadService struct {
	images   ImageStore
	maxBytes int64
}

// NewUploadService creates a new UploadService.
func NewUploadService(images ImageStore, maxBytes int64) *UploadService {
	return &UploadService{images: images, maxBytes: maxBytes}
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	OwnerID     int64
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadImage stores an image and returns its stable public URL.
func (s *UploadService) UploadImage(ctx context.Context, in UploadInput) (string, error) {
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", domain.NewValidationError("file", "only jpeg, png, webp or gif images are allowed")
	}
	if in.Size <= 0 {
		return "", domain.NewValidationError("file", "file is empty")
	}
	if in.Size > s.maxBytes {
		return "", domain.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}

	key := fmt.Sprintf("reports/%d/%s%s", in.OwnerID, uuid.NewString(), ext)
	url, err := s.images.Put(ctx, key, io.LimitReader(in.Body, in.Size), in.Size, contentType)
	if err != nil {
		return "", fmt.Errorf("store image %s: %w", key, err)
	}
	return url, nil
}
