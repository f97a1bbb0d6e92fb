// Package fs provides file-based storage for downloaded assets.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/feedsnap"
)

// Ensure Writer implements feedsnap.AssetWriter at compile time.
var _ feedsnap.AssetWriter = (*Writer)(nil)

// Writer writes assets as files. Each file is written to a temporary name
// first and renamed into place, so a canceled run never leaves a partial
// image behind under its final name.
type Writer struct{}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteAsset writes data to dir/name, creating dir if needed, and returns
// the file path. An existing file is replaced.
func (w *Writer) WriteAsset(ctx context.Context, dir, name string, data []byte) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	if err := os.Chmod(path, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ValidateName rejects names that would escape the target directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return feedsnap.Errorf(feedsnap.EINVALID, "invalid file name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return feedsnap.Errorf(feedsnap.EINVALID, "file name %q contains a path separator", name)
	}
	return nil
}
