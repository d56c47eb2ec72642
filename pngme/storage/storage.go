package storage

import (
	"context"
)

// ProgressCallback is called while a file is written
// current: bytes written so far
// total: total bytes to write
type ProgressCallback func(current int64, total int64)

// Storage abstracts whole-file reads and writes. Implementations return
// IO_FAILURE errors from pngme/errors.
type Storage interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
}
