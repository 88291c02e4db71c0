package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound reports that no object exists under the requested key.
var ErrNotFound = errors.New("object not found")

// ErrTooLarge reports that an object exceeded the configured read limit.
var ErrTooLarge = errors.New("object exceeds size limit")

// Gateway fetches raw object bytes by key.
type Gateway interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Ready(ctx context.Context) error
}

// readLimited drains r, failing with ErrTooLarge once more than limit bytes
// have been read. A limit <= 0 disables the check.
func readLimited(r io.Reader, key string, limit int64) ([]byte, error) {
	if limit <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read object %s: %w", key, err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrTooLarge, key, limit)
	}
	return data, nil
}
