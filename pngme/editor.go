package pngme

import (
	"bytes"
	"context"
	"fmt"
	"io"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
	"github.com/flaneur2020/pngme/pngme/logger"
	"github.com/flaneur2020/pngme/pngme/storage"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentInspect bounds how many files Inspect parses at once.
const maxConcurrentInspect = 4

// EncodeRequest describes a message to embed.
type EncodeRequest struct {
	Path       string
	ChunkType  string
	Message    string
	OutputPath string // empty overwrites Path
	Compress   bool   // zlib-compress the message before embedding
}

// DecodeRequest describes a message to extract.
type DecodeRequest struct {
	Path       string
	ChunkType  string
	Compressed bool // payload was embedded with Compress
}

// Editor embeds, extracts, removes and inspects messages in PNG files held by Storage.
type Editor interface {
	// Encode appends a chunk carrying the message and writes the result.
	Encode(ctx context.Context, req EncodeRequest) error
	// Decode returns the message held by the first chunk of the requested type.
	Decode(ctx context.Context, req DecodeRequest) (string, error)
	// Remove drops the first chunk of chunkType and overwrites the file.
	Remove(ctx context.Context, path string, chunkType string) (Chunk, error)
	// Inspect summarizes each file; results follow the order of paths.
	Inspect(ctx context.Context, paths ...string) ([]*Summary, error)
}

type editor struct {
	storage storage.Storage
}

// NewEditor creates an Editor that reads and writes files through storage.
func NewEditor(storage storage.Storage) Editor {
	return &editor{
		storage: storage,
	}
}

func (e *editor) load(ctx context.Context, path string) (*Png, []byte, error) {
	data, err := e.storage.ReadFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	png, err := ParsePng(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return png, data, nil
}

func (e *editor) Encode(ctx context.Context, req EncodeRequest) error {
	chunkType, err := ParseChunkType(req.ChunkType)
	if err != nil {
		return err
	}
	if !chunkType.IsValid() {
		logger.Warn("chunk type %s has the reserved bit set; strict decoders will reject it", chunkType)
	}
	if chunkType.IsCritical() {
		logger.Warn("chunk type %s is critical; image viewers may refuse the file", chunkType)
	}

	png, _, err := e.load(ctx, req.Path)
	if err != nil {
		return err
	}

	payload := []byte(req.Message)
	if req.Compress {
		payload, err = compressPayload(payload)
		if err != nil {
			return fmt.Errorf("failed to compress message: %w", err)
		}
	}

	logger.Debug("embedding type=%s message=%q (%d bytes)", chunkType, req.Message, len(payload))
	png.AppendChunk(NewChunk(chunkType, payload))

	out := req.OutputPath
	if out == "" {
		out = req.Path
	}
	if err := e.storage.WriteFile(ctx, out, png.Bytes()); err != nil {
		return err
	}
	logger.Info("embedded %s chunk into %s", chunkType, out)
	return nil
}

func (e *editor) Decode(ctx context.Context, req DecodeRequest) (string, error) {
	png, _, err := e.load(ctx, req.Path)
	if err != nil {
		return "", err
	}

	chunk := png.ChunkByType(req.ChunkType)
	if chunk == nil {
		return "", pngerrors.NewChunkNotFoundError(req.ChunkType)
	}

	if req.Compressed {
		plain, err := decompressPayload(chunk.data)
		if err != nil {
			return "", pngerrors.NewInvalidTextError(req.ChunkType, err)
		}
		chunk = &Chunk{chunkType: chunk.chunkType, data: plain}
	}

	text, err := chunk.DataAsString()
	if err != nil {
		return "", err
	}
	logger.Info("decoded %s chunk from %s (%d bytes)", req.ChunkType, req.Path, len(text))
	return text, nil
}

func (e *editor) Remove(ctx context.Context, path string, chunkType string) (Chunk, error) {
	png, _, err := e.load(ctx, path)
	if err != nil {
		return Chunk{}, err
	}

	removed, err := png.RemoveChunk(chunkType)
	if err != nil {
		return Chunk{}, err
	}

	if err := e.storage.WriteFile(ctx, path, png.Bytes()); err != nil {
		return Chunk{}, err
	}
	logger.Info("removed %s chunk from %s", chunkType, path)
	return removed, nil
}

func (e *editor) Inspect(ctx context.Context, paths ...string) ([]*Summary, error) {
	summaries := make([]*Summary, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentInspect)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			png, data, err := e.load(gctx, path)
			if err != nil {
				return err
			}
			summaries[i] = Summarize(path, data, png)
			logger.Debug("inspected %s: %d chunks", path, len(summaries[i].Chunks))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func compressPayload(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(p); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressPayload(p []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(p))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
