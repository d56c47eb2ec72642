package pngme

import (
	"bytes"
	"fmt"
	"strings"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

// Signature is the fixed 8-byte header that starts every PNG file.
var Signature = [8]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Png is a PNG file held in memory: the signature plus an ordered chunk list.
// A Png is not safe for concurrent mutation.
type Png struct {
	chunks []Chunk
}

// NewPng builds a Png from chunks in the given order.
func NewPng(chunks ...Chunk) *Png {
	return &Png{chunks: append([]Chunk(nil), chunks...)}
}

// ParsePng decodes a complete PNG file. Parsing stops at the first bad chunk
// and no partial result is returned.
func ParsePng(b []byte) (*Png, error) {
	if len(b) < len(Signature) || !bytes.Equal(b[:len(Signature)], Signature[:]) {
		have := b
		if len(have) > len(Signature) {
			have = have[:len(Signature)]
		}
		return nil, pngerrors.NewHeaderInvalidError(have)
	}

	png := &Png{}
	rest := b[len(Signature):]
	for len(rest) > 0 {
		offset := len(b) - len(rest)
		chunk, next, err := ParseChunk(rest)
		if err != nil {
			if pngErr, ok := err.(*pngerrors.PngError); ok {
				return nil, pngErr.
					WithDetail("offset", offset).
					WithDetail("index", len(png.chunks))
			}
			return nil, err
		}
		png.chunks = append(png.chunks, chunk)
		rest = next
	}
	return png, nil
}

// Header returns the file signature.
func (p *Png) Header() [8]byte {
	return Signature
}

// Chunks returns the chunks in file order. The slice is a copy.
func (p *Png) Chunks() []Chunk {
	return append([]Chunk(nil), p.chunks...)
}

// AppendChunk adds a chunk after the last one. Duplicate types are allowed.
func (p *Png) AppendChunk(chunk Chunk) {
	p.chunks = append(p.chunks, chunk)
}

// RemoveChunk removes and returns the first chunk whose type renders as
// chunkType. Later chunks of the same type are left in place.
func (p *Png) RemoveChunk(chunkType string) (Chunk, error) {
	idx := p.indexOf(chunkType)
	if idx < 0 {
		return Chunk{}, pngerrors.NewChunkNotFoundError(chunkType)
	}

	removed := p.chunks[idx]
	p.chunks = append(p.chunks[:idx:idx], p.chunks[idx+1:]...)
	return removed, nil
}

// ChunkByType returns the first chunk whose type renders as chunkType, or nil.
func (p *Png) ChunkByType(chunkType string) *Chunk {
	idx := p.indexOf(chunkType)
	if idx < 0 {
		return nil
	}
	chunk := p.chunks[idx]
	return &chunk
}

func (p *Png) indexOf(chunkType string) int {
	for i, c := range p.chunks {
		text, err := c.chunkType.Text()
		if err != nil {
			continue
		}
		if text == chunkType {
			return i
		}
	}
	return -1
}

// Bytes encodes the signature followed by every chunk in order.
func (p *Png) Bytes() []byte {
	size := len(Signature)
	for _, c := range p.chunks {
		size += ChunkOverhead + len(c.data)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, Signature[:]...)
	for _, c := range p.chunks {
		buf = append(buf, c.Bytes()...)
	}
	return buf
}

func (p *Png) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Png{chunks: %d}\n", len(p.chunks))
	for _, c := range p.chunks {
		sb.WriteString("  ")
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
