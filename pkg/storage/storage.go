// Package storage stores uploaded documents on local disk or in Cloudinary.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

const (
	DriverLocal      = "local"
	DriverCloudinary = "cloudinary"
)

// ErrRemoteOnly is returned by Open for drivers whose files are served from their own URL.
var ErrRemoteOnly = errors.New("file is served remotely")

// StoredFile describes where a file ended up.
type StoredFile struct {
	Name string
	Path string
	URL  string
}

// FileStorage abstracts document destinations.
type FileStorage interface {
	Driver() string
	Save(ctx context.Context, dir, name string, reader io.Reader) (StoredFile, error)
	Open(ctx context.Context, storedPath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storedPath string) error
}

// CleanDir normalises a relative storage directory and refuses traversal outside the root.
func CleanDir(dir string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(dir, "\\", "/"))
	return strings.TrimPrefix(cleaned, "/")
}
