package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flaneur2020/pngme/pngme"
	"github.com/flaneur2020/pngme/pngme/storage"
)

func writeTestPng(t *testing.T, path string) {
	t.Helper()
	ihdr, _ := pngme.ParseChunkType("IHDR")
	iend, _ := pngme.ParseChunkType("IEND")
	png := pngme.NewPng(
		pngme.NewChunk(ihdr, make([]byte, 13)),
		pngme.NewChunk(iend, nil),
	)
	if err := os.WriteFile(path, png.Bytes(), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
}

func TestCLI_EncodeThenRemove(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	writeTestPng(t, in)
	t.Setenv(envLogLevel, "")
	t.Setenv(envNoProgress, "")

	root := newRootCmd()
	root.SetArgs([]string{"encode", "--no-progress", in, "ruSt", "hello from the cli", out})
	if err := root.Execute(); err != nil {
		t.Fatalf("encode: %v", err)
	}

	ed := pngme.NewEditor(storage.NewLocalStorage())
	got, err := ed.Decode(context.Background(), pngme.DecodeRequest{Path: out, ChunkType: "ruSt"})
	if err != nil || got != "hello from the cli" {
		t.Fatalf("Decode(out) = %q, %v", got, err)
	}

	root = newRootCmd()
	root.SetArgs([]string{"remove", "--no-progress", out, "ruSt"})
	if err := root.Execute(); err != nil {
		t.Fatalf("remove: %v", err)
	}

	summaries, err := ed.Inspect(context.Background(), in, out)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if summaries[0].Digest != summaries[1].Digest {
		t.Error("encode followed by remove did not restore the original bytes")
	}
}
