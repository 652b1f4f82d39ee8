package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/career-hub/internal/models"
)

type StorageService interface {
	Stage(file *multipart.FileHeader, variant models.Variant) (*models.UploadedArtifact, error)
	DeleteFile(path string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// Stage copies an upload to a uniquely named file under the upload directory
// and keeps its bytes in memory. The caller owns the staged file.
func (s *storageService) Stage(file *multipart.FileHeader, variant models.Variant) (*models.UploadedArtifact, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	uniqueFilename := fmt.Sprintf("%s_%s%s", variant, uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	if err := os.WriteFile(filePath, content, 0o600); err != nil {
		if rmErr := s.DeleteFile(filePath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &models.UploadedArtifact{
		Content:   content,
		MediaType: ParseMediaType(file.Header.Get("Content-Type")),
		Size:      int64(len(content)),
		Filename:  file.Filename,
		Path:      filePath,
	}, nil
}

// ParseMediaType drops parameters and normalizes case, so
// "Application/PDF; name=cv.pdf" becomes "application/pdf". Unparseable
// values are returned trimmed and lower-cased.
func ParseMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func (s *storageService) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
