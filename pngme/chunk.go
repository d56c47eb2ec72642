package pngme

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"unicode/utf8"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

const (
	lengthFieldSize = 4
	typeFieldSize   = 4
	crcFieldSize    = 4

	// ChunkOverhead is the encoded size of a chunk with empty data.
	ChunkOverhead = lengthFieldSize + typeFieldSize + crcFieldSize
)

// Chunk is a single length-prefixed, checksummed record. Length and CRC are
// always derived from the type and data, never stored.
type Chunk struct {
	chunkType ChunkType
	data      []byte
}

// NewChunk builds a chunk owning a copy of data. The type is not validated.
func NewChunk(chunkType ChunkType, data []byte) Chunk {
	return Chunk{
		chunkType: chunkType,
		data:      append([]byte(nil), data...),
	}
}

// Type returns the chunk type.
func (c Chunk) Type() ChunkType {
	return c.chunkType
}

// Data returns a copy of the chunk payload.
func (c Chunk) Data() []byte {
	return append([]byte(nil), c.data...)
}

// Length returns the number of data bytes. The format caps it at 2^32-1;
// larger payloads are a programming error.
func (c Chunk) Length() uint32 {
	if uint64(len(c.data)) > math.MaxUint32 {
		panic(fmt.Sprintf("pngme: chunk data of %d bytes exceeds format limit", len(c.data)))
	}
	return uint32(len(c.data))
}

// CRC returns the CRC-32 (IEEE) of the type bytes followed by the data.
func (c Chunk) CRC() uint32 {
	crc := crc32.NewIEEE()
	crc.Write(c.chunkType.bytes[:])
	crc.Write(c.data)
	return crc.Sum32()
}

// DataAsString decodes the payload as UTF-8.
func (c Chunk) DataAsString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", pngerrors.NewInvalidTextError(c.chunkType.String(), nil)
	}
	return string(c.data), nil
}

// Bytes encodes the chunk as length, type, data, crc.
func (c Chunk) Bytes() []byte {
	buf := make([]byte, 0, ChunkOverhead+len(c.data))
	buf = binary.BigEndian.AppendUint32(buf, c.Length())
	buf = append(buf, c.chunkType.bytes[:]...)
	buf = append(buf, c.data...)
	buf = binary.BigEndian.AppendUint32(buf, c.CRC())
	return buf
}

// Equal reports whether both chunks have the same type and data.
func (c Chunk) Equal(other Chunk) bool {
	return c.chunkType == other.chunkType && bytes.Equal(c.data, other.data)
}

func (c Chunk) String() string {
	return fmt.Sprintf("Chunk{type: %s, length: %d, crc: %d}", c.chunkType, len(c.data), c.CRC())
}

// ParseChunk decodes the chunk at the start of b and returns it along with the
// bytes that follow it. The chunk is accepted only if its stored CRC matches.
func ParseChunk(b []byte) (Chunk, []byte, error) {
	if len(b) < ChunkOverhead {
		return Chunk{}, nil, pngerrors.NewTruncatedError(ChunkOverhead, uint64(len(b)))
	}

	declared := binary.BigEndian.Uint32(b[:lengthFieldSize])
	rest := b[lengthFieldSize:]

	need := uint64(typeFieldSize) + uint64(declared) + uint64(crcFieldSize)
	if uint64(len(rest)) < need {
		return Chunk{}, nil, pngerrors.NewTruncatedError(need+lengthFieldSize, uint64(len(b)))
	}

	var typeBytes [4]byte
	copy(typeBytes[:], rest[:typeFieldSize])
	rest = rest[typeFieldSize:]

	data := rest[:declared]
	rest = rest[declared:]

	storedCRC := binary.BigEndian.Uint32(rest[:crcFieldSize])
	rest = rest[crcFieldSize:]

	candidate := NewChunk(ChunkTypeFromBytes(typeBytes), data)
	if actual := candidate.CRC(); actual != storedCRC {
		return Chunk{}, nil, pngerrors.NewChecksumMismatchError(candidate.chunkType.String(), storedCRC, actual)
	}

	return candidate, rest, nil
}
