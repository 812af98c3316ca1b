package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage writes files below a base directory and serves them under a base URL.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates the base directory when missing.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path must not be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Driver() string { return DriverLocal }

// Save writes reader to <base>/<dir>/<uuid><ext>, keeping the extension of name.
func (s *LocalStorage) Save(ctx context.Context, dir, name string, reader io.Reader) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}

	dir = CleanDir(dir)
	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	relative := path.Join(dir, storedName)
	target := filepath.Join(s.basePath, filepath.FromSlash(relative))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("create directory: %w", err)
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		_ = os.Remove(target)
		return StoredFile{}, fmt.Errorf("write file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(target)
		return StoredFile{}, fmt.Errorf("close file: %w", err)
	}

	return StoredFile{
		Name: storedName,
		Path: relative,
		URL:  s.baseURL + "/" + relative,
	}, nil
}

func (s *LocalStorage) Open(_ context.Context, storedPath string) (io.ReadCloser, error) {
	return os.Open(s.fullPath(storedPath))
}

// Delete removes the file. A missing file is not an error.
func (s *LocalStorage) Delete(_ context.Context, storedPath string) error {
	if err := os.Remove(s.fullPath(storedPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) fullPath(storedPath string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(CleanDir(storedPath)))
}
