package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Reader lists the filenames currently present in the catalog.
type Reader interface {
	List(ctx context.Context) ([]string, error)
}

// DirectoryReader lists artifact files of a single directory on disk.
// It holds no state besides the path, so concurrent calls need no locking.
type DirectoryReader struct {
	// path is the artifact directory.
	path string
}

// ErrUnreachable is returned when the artifact directory cannot be listed.
var ErrUnreachable = errors.New("catalog unreachable")

// NewDirectoryReader creates a reader for the provided directory.
func NewDirectoryReader(path string) *DirectoryReader {
	return &DirectoryReader{
		path: filepath.Clean(path),
	}
}

// Path returns the directory the reader lists.
func (r *DirectoryReader) Path() string {
	return r.path
}

// List returns the names of the non-directory entries in the artifact directory.
func (r *DirectoryReader) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnreachable, r.path, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		// Subdirectories cannot be served as update images.
		if entry.IsDir() {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, nil
}
