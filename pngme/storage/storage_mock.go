package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/opencontainers/go-digest"
)

// MockStorage is a simple in-memory Storage implementation for tests.
type MockStorage struct {
	mu     sync.RWMutex
	files  map[string][]byte
	writes int
}

// NewMockStorage constructs an empty MockStorage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files: make(map[string][]byte),
	}
}

// ReadFile returns a copy of the stored content.
func (m *MockStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, pngerrors.NewIOError("read", path, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return nil, pngerrors.NewIOError("read", path, fmt.Errorf("mock storage: %w", os.ErrNotExist))
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores a copy of data under path.
func (m *MockStorage) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return pngerrors.NewIOError("write", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = append([]byte(nil), data...)
	m.writes++
	return nil
}

// AddFile adds file content to the mock storage and returns its digest.
func (m *MockStorage) AddFile(path string, data []byte) digest.Digest {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = append([]byte(nil), data...)
	return digest.FromBytes(data)
}

// Digest returns the content digest of the file at path.
func (m *MockStorage) Digest(path string) (digest.Digest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return "", false
	}
	return digest.FromBytes(data), true
}

// Paths lists stored paths in sorted order.
func (m *MockStorage) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Writes returns how many WriteFile calls succeeded.
func (m *MockStorage) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
