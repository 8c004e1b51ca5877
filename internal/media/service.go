package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadInput describes one incoming gallery file.
type UploadInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Content   io.Reader
}

// StoredFile is the saved result; Path is what gets persisted on the product.
type StoredFile struct {
	Path string `json:"path"`
}

// ServiceParams groups dependencies for the media service.
type ServiceParams struct {
	Config config.MediaConfig
	Logger *logger.Logger
}

// Service stores product images on local disk under the uploads dir.
// Files get random names so uploads can never collide or be guessed.
type Service struct {
	uploadDir string
	maxBytes  int64
	maxImages int
	logg      *logger.Logger
}

// NewService builds a media service and makes sure the uploads dir exists.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config.UploadDir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(params.Config.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	maxBytes := int64(params.Config.MaxUploadMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &Service{
		uploadDir: params.Config.UploadDir,
		maxBytes:  maxBytes,
		maxImages: params.Config.MaxImages,
		logg:      params.Logger,
	}, nil
}

// MaxImages is the gallery size cap per product.
func (s *Service) MaxImages() int {
	if s.maxImages <= 0 {
		return 5
	}
	return s.maxImages
}

// Store validates and writes one image, returning its relative path.
func (s *Service) Store(ctx context.Context, input UploadInput) (*StoredFile, error) {
	if input.Content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file content is required")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d MB limit", s.maxBytes/(1024*1024)))
	}

	ext, err := allowedExtension(input.MimeType, input.FileName)
	if err != nil {
		return nil, err
	}

	name := uuid.New().String() + ext
	fullPath := filepath.Join(s.uploadDir, name)

	dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload file")
	}
	defer dst.Close()

	// LimitReader guards against clients lying about Content-Length
	written, err := io.Copy(dst, io.LimitReader(input.Content, s.maxBytes+1))
	if err != nil {
		_ = os.Remove(fullPath)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload file")
	}
	if written > s.maxBytes {
		_ = os.Remove(fullPath)
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d MB limit", s.maxBytes/(1024*1024)))
	}

	return &StoredFile{Path: filepath.ToSlash(filepath.Join(s.uploadDir, name))}, nil
}

// Remove deletes a stored file. Paths outside the uploads dir are
// rejected so a crafted product row cannot delete arbitrary files.
func (s *Service) Remove(ctx context.Context, path string) error {
	cleaned := filepath.Clean(filepath.FromSlash(path))
	dir := filepath.Clean(s.uploadDir)
	if cleaned == dir || !strings.HasPrefix(cleaned, dir+string(filepath.Separator)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "path is outside the uploads dir")
	}

	if err := os.Remove(cleaned); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove upload file")
	}
	return nil
}

func allowedExtension(mimeType, fileName string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(mimeType))
	if err != nil || mediaType == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "mime type is invalid")
	}

	ext, ok := allowedImageTypes[strings.ToLower(mediaType)]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "only jpeg, png, webp and gif images are allowed")
	}

	// keep the original extension when it agrees with the mime type
	if orig := strings.ToLower(filepath.Ext(fileName)); orig != "" {
		for _, allowed := range []string{ext, altExtension(ext)} {
			if allowed != "" && orig == allowed {
				return orig, nil
			}
		}
	}
	return ext, nil
}

func altExtension(ext string) string {
	if ext == ".jpg" {
		return ".jpeg"
	}
	return ""
}
