package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/flaneur2020/pngme/pngme/logger"
)

const writeChunkSize = 32 * 1024

// LocalStorage reads and writes files on the local filesystem. Writes go to a
// temporary "<path>.part" file that is renamed over the target once complete.
type LocalStorage struct {
	progress ProgressCallback
}

// NewLocalStorage creates a filesystem-backed storage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// WithProgress returns a copy that reports write progress to cb.
func (s *LocalStorage) WithProgress(cb ProgressCallback) *LocalStorage {
	return &LocalStorage{progress: cb}
}

// ReadFile reads the whole file at path.
func (s *LocalStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, pngerrors.NewIOError("read", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, pngerrors.NewIOError("read", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, pngerrors.NewIOError("read", path, fmt.Errorf("not a regular file"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pngerrors.NewIOError("read", path, err)
	}
	logger.Debug("read %d bytes from %s", len(data), path)
	return data, nil
}

// WriteFile replaces the file at path with data. The previous content stays
// intact if the write fails part way.
func (s *LocalStorage) WriteFile(ctx context.Context, path string, data []byte) (retErr error) {
	if err := ctx.Err(); err != nil {
		return pngerrors.NewIOError("write", path, err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp := path + ".part"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return pngerrors.NewIOError("write", path, err)
	}
	defer func() {
		if retErr != nil {
			_ = dst.Close()
			_ = os.Remove(tmp)
		}
	}()

	var w io.Writer = dst
	if s.progress != nil {
		w = &progressWriter{
			writer:   dst,
			total:    int64(len(data)),
			callback: s.progress,
		}
	}

	if err := copyWithContext(ctx, w, bytes.NewReader(data)); err != nil {
		return pngerrors.NewIOError("write", path, err)
	}
	if err := dst.Sync(); err != nil {
		return pngerrors.NewIOError("sync", path, err)
	}
	if err := dst.Close(); err != nil {
		return pngerrors.NewIOError("close", path, err)
	}
	if err := os.Rename(tmp, filepath.Clean(path)); err != nil {
		return pngerrors.NewIOError("rename", path, err)
	}

	logger.Debug("wrote %d bytes to %s", len(data), path)
	return nil
}

func copyWithContext(ctx context.Context, w io.Writer, r io.Reader) error {
	buf := make([]byte, writeChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// progressWriter wraps an io.Writer to report write progress
type progressWriter struct {
	writer   io.Writer
	total    int64
	current  int64
	callback ProgressCallback
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.current += int64(n)
	if pw.callback != nil {
		pw.callback(pw.current, pw.total)
	}
	return n, err
}
