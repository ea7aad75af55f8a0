// Package storage keeps uploaded files (signatures, photos) under relative
// paths such as "firmas_pedidos/compras_20250101120000_ab12cd34.png".
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when a path does not exist on the disk
var ErrNotFound = errors.New("file not found")

// ErrInvalidPath is returned for absolute paths or paths escaping the root
var ErrInvalidPath = errors.New("invalid storage path")

// Disk is a named file store keyed by relative, slash separated paths
type Disk interface {
	Store(ctx context.Context, name string, content io.Reader) error
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	Copy(ctx context.Context, src, dst string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Clean normalizes name and rejects anything outside the disk root
func Clean(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if name == "" || strings.HasPrefix(name, "/") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// ReadAll loads a whole file from the disk
func ReadAll(ctx context.Context, disk Disk, name string) ([]byte, error) {
	rc, err := disk.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
