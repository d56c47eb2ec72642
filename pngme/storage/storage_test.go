package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/opencontainers/go-digest"
)

func TestLocalStorage_WriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	data := bytes.Repeat([]byte("pngme"), 20000)

	var calls int
	var lastCurrent, lastTotal int64
	s := NewLocalStorage().WithProgress(func(current, total int64) {
		calls++
		lastCurrent, lastTotal = current, total
	})

	if err := s.WriteFile(context.Background(), path, data); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if calls == 0 {
		t.Error("progress callback was never called")
	}
	if lastCurrent != int64(len(data)) || lastTotal != int64(len(data)) {
		t.Errorf("final progress = %d/%d, want %d/%d", lastCurrent, lastTotal, len(data), len(data))
	}

	got, err := s.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("ReadFile() content differs from what was written")
	}

	if _, err := os.Stat(path + ".part"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestLocalStorage_OverwriteKeepsMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	s := NewLocalStorage()
	if err := s.WriteFile(context.Background(), path, []byte("new")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("content = %q, want new", got)
	}
}

func TestLocalStorage_ReadErrors(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage()

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.png")},
		{"directory", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ReadFile(context.Background(), tt.path)
			if !errors.Is(err, pngerrors.ErrIOFailure) {
				t.Fatalf("ReadFile() error = %v, want ErrIOFailure", err)
			}
			if p, _ := pngerrors.GetDetail(err, "path"); p != tt.path {
				t.Errorf("path detail = %v, want %s", p, tt.path)
			}
		})
	}
}

func TestLocalStorage_WriteIntoMissingDir(t *testing.T) {
	s := NewLocalStorage()
	path := filepath.Join(t.TempDir(), "nope", "image.png")

	err := s.WriteFile(context.Background(), path, []byte("x"))
	if !errors.Is(err, pngerrors.ErrIOFailure) {
		t.Fatalf("WriteFile() error = %v, want ErrIOFailure", err)
	}
}

func TestLocalStorage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "image.png")
	err := NewLocalStorage().WriteFile(ctx, path, []byte("x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WriteFile() error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file created despite canceled context")
	}
}

func TestMockStorage(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()

	dgst := m.AddFile("a.png", []byte("alpha"))
	if dgst != digest.FromString("alpha") {
		t.Errorf("AddFile() digest = %s, want %s", dgst, digest.FromString("alpha"))
	}

	got, err := m.ReadFile(ctx, "a.png")
	if err != nil || string(got) != "alpha" {
		t.Fatalf("ReadFile() = %q, %v", got, err)
	}
	got[0] = 'X'
	if again, _ := m.ReadFile(ctx, "a.png"); string(again) != "alpha" {
		t.Error("ReadFile() result aliases stored data")
	}

	if err := m.WriteFile(ctx, "b.png", []byte("beta")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if m.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", m.Writes())
	}
	if d, ok := m.Digest("b.png"); !ok || d != digest.FromString("beta") {
		t.Errorf("Digest(b.png) = %s, %v", d, ok)
	}
	if paths := m.Paths(); len(paths) != 2 || paths[0] != "a.png" || paths[1] != "b.png" {
		t.Errorf("Paths() = %v", paths)
	}

	_, err = m.ReadFile(ctx, "missing.png")
	if !errors.Is(err, pngerrors.ErrIOFailure) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want ErrIOFailure wrapping ErrNotExist", err)
	}
}
