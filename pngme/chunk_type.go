package pngme

import (
	"fmt"

	pngerrors "github.com/flaneur2020/pngme/pngme/errors"
)

// ancillaryBit is bit 5 of each type byte; set means lowercase.
const ancillaryBit = 0x20

// ChunkType is the 4-byte type code of a chunk. The case of each byte carries
// one property flag: critical, public, reserved and safe-to-copy.
type ChunkType struct {
	bytes [4]byte
}

// ChunkTypeFromBytes wraps raw bytes without validation. Parsed chunks are
// built this way; use IsValid to check them.
func ChunkTypeFromBytes(b [4]byte) ChunkType {
	return ChunkType{bytes: b}
}

// ParseChunkType builds a ChunkType from its 4-letter text form.
func ParseChunkType(s string) (ChunkType, error) {
	if len(s) != 4 {
		return ChunkType{}, pngerrors.NewInvalidLengthError(len(s))
	}

	var b [4]byte
	for i := 0; i < 4; i++ {
		if !isASCIILetter(s[i]) {
			return ChunkType{}, pngerrors.NewInvalidCharacterError(s, i)
		}
		b[i] = s[i]
	}
	return ChunkType{bytes: b}, nil
}

// Bytes returns the raw type bytes.
func (ct ChunkType) Bytes() [4]byte {
	return ct.bytes
}

// IsCritical reports whether the chunk is required to display the image.
func (ct ChunkType) IsCritical() bool {
	return ct.bytes[0]&ancillaryBit == 0
}

// IsPublic reports whether the type is part of the public registry.
func (ct ChunkType) IsPublic() bool {
	return ct.bytes[1]&ancillaryBit == 0
}

// IsReservedBitValid reports whether the reserved (third) byte is uppercase.
func (ct ChunkType) IsReservedBitValid() bool {
	return ct.bytes[2]&ancillaryBit == 0
}

// IsSafeToCopy reports whether editors unaware of the type may copy the chunk.
func (ct ChunkType) IsSafeToCopy() bool {
	return ct.bytes[3]&ancillaryBit != 0
}

// IsValid reports whether all bytes are ASCII letters and the reserved bit is valid.
func (ct ChunkType) IsValid() bool {
	for _, b := range ct.bytes {
		if !isASCIILetter(b) {
			return false
		}
	}
	return ct.IsReservedBitValid()
}

// Text renders the type as ASCII text. Codes holding bytes outside 7-bit
// ASCII cannot be rendered and return an INVALID_CHARACTER error.
func (ct ChunkType) Text() (string, error) {
	for i, b := range ct.bytes {
		if b >= 0x80 {
			return "", pngerrors.NewInvalidCharacterError(fmt.Sprintf("%x", ct.bytes), i)
		}
	}
	return string(ct.bytes[:]), nil
}

// String implements fmt.Stringer. Non-ASCII codes are shown as hex, never as text.
func (ct ChunkType) String() string {
	if s, err := ct.Text(); err == nil {
		return s
	}
	return fmt.Sprintf("0x%x", ct.bytes)
}

func isASCIILetter(b byte) bool {
	return ('A' <= b && b <= 'Z') || ('a' <= b && b <= 'z')
}
