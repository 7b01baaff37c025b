package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaRoot       = "media"
	DefaultMaxUploadSizeMB = 5
	postImageDir           = "posts"
	invalidImageMessage    = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	maxImageDimension      = 8192
)

var imageExtensions = map[string]string{
	"gif":  ".gif",
	"jpeg": ".jpg",
	"png":  ".png",
	"webp": ".webp",
}

type UploadImageInput struct {
	Filename string
	Content  []byte
}

// MediaService stores post images on local disk under the media root.
type MediaService struct {
	root               string
	maxUploadSizeBytes int64
}

func NewMediaService(cfg *config.Config) *MediaService {
	root := DefaultMediaRoot
	maxUploadSizeMB := DefaultMaxUploadSizeMB
	if cfg != nil {
		if cfg.MediaRoot != "" {
			root = cfg.MediaRoot
		}
		if cfg.MaxUploadMB > 0 {
			maxUploadSizeMB = cfg.MaxUploadMB
		}
	}
	return &MediaService{
		root:               root,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Root is the directory served under the media URL.
func (s *MediaService) Root() string {
	return s.root
}

// SaveImage checks that the upload decodes as an image and writes it as posts/<uuid><ext>.
// The extension follows the detected format, not the client's filename.
func (s *MediaService) SaveImage(ctx context.Context, in UploadImageInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("The submitted file is empty.")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("Image too large (max %d MB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	ext, err := detectImage(in.Content)
	if err != nil {
		return "", err
	}

	rel := path.Join(postImageDir, uuid.NewString()+ext)
	dst := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := os.WriteFile(dst, in.Content, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}
	return rel, nil
}

// RemoveImage deletes a stored image. Missing files are not an error.
func (s *MediaService) RemoveImage(rel string) error {
	clean := path.Clean("/" + rel)
	if !strings.HasPrefix(clean, "/"+postImageDir+"/") {
		return fmt.Errorf("refusing to remove %q outside %s/", rel, postImageDir)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func detectImage(content []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError(invalidImageMessage)
	}
	ext, ok := imageExtensions[format]
	if !ok {
		return "", models.NewValidationError(invalidImageMessage)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		return "", models.NewValidationError(fmt.Sprintf("Image dimensions must be between 1 and %d pixels", maxImageDimension))
	}
	return ext, nil
}
