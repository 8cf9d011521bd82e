package service

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iqscaler/iqscaler-backend/internal/config"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidImage        = errors.New("file is not a readable image")
)

// Allowed image MIME types.
var allowedMIMETypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Upload describes a file received from a multipart form.
type Upload struct {
	Body        io.Reader
	ContentType string
	Size        int64
}

// MediaService stores question and option images.
type MediaService struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, log zerolog.Logger) *MediaService {
	return &MediaService{
		cfg: cfg,
		log: log.With().Str("component", "media_service").Logger(),
	}
}

// SaveUpload decodes the image, shrinks it to fit MaxImageEdge when larger,
// and stores it under a UUID filename. Returns the URL path of the saved file.
func (s *MediaService) SaveUpload(u Upload) (string, error) {
	ext, ok := allowedMIMETypes[u.ContentType]
	if !ok {
		return "", fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, u.ContentType, strings.Join(allowedTypes(), ", "))
	}
	if u.Size > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, u.Size, s.cfg.MaxUploadBytes)
	}

	img, err := imaging.Decode(io.LimitReader(u.Body, s.cfg.MaxUploadBytes+1), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = s.fit(img)

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	dst := filepath.Join(s.cfg.UploadDir, filename)
	if err := imaging.Save(img, dst, imaging.JPEGQuality(85)); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("save image: %w", err)
	}

	b := img.Bounds()
	s.log.Debug().Str("file", filename).Int("width", b.Dx()).Int("height", b.Dy()).Msg("Image stored")
	return "/uploads/" + filename, nil
}

func (s *MediaService) fit(img image.Image) image.Image {
	edge := s.cfg.MaxImageEdge
	if edge <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= edge && b.Dy() <= edge {
		return img
	}
	return imaging.Fit(img, edge, edge, imaging.Lanczos)
}

// allowedTypes returns the list of allowed MIME types for error messages.
func allowedTypes() []string {
	types := make([]string, 0, len(allowedMIMETypes))
	for t := range allowedMIMETypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
