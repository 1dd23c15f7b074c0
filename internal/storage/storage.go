// Package storage handles raw receipt files on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// extensions maps accepted upload content types to file extensions.
var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// FileStore saves receipt files under a base directory and maps stored paths
// to the relative URLs persisted with the receipt record.
type FileStore struct {
	basePath string
}

func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// EnsureDirectory creates the storage directory if it does not exist.
func (s *FileStore) EnsureDirectory() error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	return nil
}

// FilePath returns the on-disk path for a receipt with the given content type.
func (s *FileStore) FilePath(receiptID uuid.UUID, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".bin"
	}
	return filepath.Join(s.basePath, receiptID.String()+ext)
}

// Save writes the uploaded bytes and returns the full file path.
func (s *FileStore) Save(receiptID uuid.UUID, content []byte, contentType string) (string, error) {
	path := s.FilePath(receiptID, contentType)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write receipt file: %w", err)
	}
	return path, nil
}

// RelativeURL converts a stored file path to the URL recorded in the database.
func (s *FileStore) RelativeURL(path string) string {
	return strings.Replace(path, s.basePath, "/storage/receipts", 1)
}

// Healthy reports whether the storage directory exists.
func (s *FileStore) Healthy() bool {
	info, err := os.Stat(s.basePath)
	return err == nil && info.IsDir()
}
