package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// FileGateway serves objects from a local directory. Keys are slash-separated
// paths relative to the root and cannot escape it.
type FileGateway struct {
	root     string
	fsys     fs.FS
	maxBytes int64
}

func NewFileGateway(root string, maxBytes int64) (*FileGateway, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	return &FileGateway{
		root:     root,
		fsys:     os.DirFS(root),
		maxBytes: maxBytes,
	}, nil
}

func (g *FileGateway) Ready(_ context.Context) error {
	info, err := os.Stat(g.root)
	if err != nil {
		return fmt.Errorf("stat root %s: %w", g.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", g.root)
	}
	return nil
}

func (g *FileGateway) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !fs.ValidPath(key) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	f, err := g.fsys.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if g.maxBytes > 0 && info.Size() > g.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, key, info.Size())
	}

	return readLimited(f, key, g.maxBytes)
}
