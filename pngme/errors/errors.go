package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Error codes. The set is closed: every failure produced by pngme carries one of these.
const (
	CodeInvalidLength    = "INVALID_LENGTH"
	CodeInvalidCharacter = "INVALID_CHARACTER"
	CodeTruncated        = "TRUNCATED"
	CodeChecksumMismatch = "CHECKSUM_MISMATCH"
	CodeHeaderInvalid    = "HEADER_INVALID"
	CodeChunkNotFound    = "CHUNK_NOT_FOUND"
	CodeInvalidText      = "INVALID_TEXT"
	CodeIOFailure        = "IO_FAILURE"
)

// Error types for pngme operations
var (
	// ErrInvalidLength is returned when a chunk type string is not exactly 4 bytes
	ErrInvalidLength = &PngError{Code: CodeInvalidLength, Message: "chunk type must be 4 bytes"}

	// ErrInvalidCharacter is returned when a chunk type contains a byte outside A-Z / a-z
	ErrInvalidCharacter = &PngError{Code: CodeInvalidCharacter, Message: "invalid character in chunk type"}

	// ErrTruncated is returned when a buffer ends before the structure it declares
	ErrTruncated = &PngError{Code: CodeTruncated, Message: "buffer truncated"}

	// ErrChecksumMismatch is returned when a chunk's stored CRC does not match its contents
	ErrChecksumMismatch = &PngError{Code: CodeChecksumMismatch, Message: "chunk checksum mismatch"}

	// ErrHeaderInvalid is returned when the leading bytes are not the PNG signature
	ErrHeaderInvalid = &PngError{Code: CodeHeaderInvalid, Message: "invalid PNG signature"}

	// ErrChunkNotFound is returned when no chunk of the requested type exists
	ErrChunkNotFound = &PngError{Code: CodeChunkNotFound, Message: "chunk not found"}

	// ErrInvalidText is returned when chunk data is not valid UTF-8
	ErrInvalidText = &PngError{Code: CodeInvalidText, Message: "chunk data is not valid UTF-8"}

	// ErrIOFailure wraps read/write failures reported by storage
	ErrIOFailure = &PngError{Code: CodeIOFailure, Message: "i/o failure"}
)

// PngError represents a structured error in pngme operations
type PngError struct {
	Code    string                 // Error code for programmatic handling
	Message string                 // Human-readable error message
	Cause   error                  // Underlying error, if any
	Details map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *PngError) Error() string {
	if e.Cause != nil {
		if len(e.Details) > 0 {
			return fmt.Sprintf("[%s] %s (%s): %v", e.Code, e.Message, e.formatDetails(), e.Cause)
		}
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, e.formatDetails())
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// formatDetails renders details in key order so messages are stable.
func (e *PngError) formatDetails() string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
	}
	return strings.Join(parts, ", ")
}

// Unwrap returns the underlying error
func (e *PngError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PngError with the same code, so derived
// errors still match their sentinel under errors.Is.
func (e *PngError) Is(target error) bool {
	t, ok := target.(*PngError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause adds a cause to the error
func (e *PngError) WithCause(cause error) *PngError {
	return &PngError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *PngError) WithDetail(key string, value interface{}) *PngError {
	details := make(map[string]interface{})
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &PngError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage overrides the error message
func (e *PngError) WithMessage(message string) *PngError {
	return &PngError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// Detail returns the detail stored under key, or nil.
func (e *PngError) Detail(key string) interface{} {
	return e.Details[key]
}

// NewInvalidLengthError creates an invalid chunk type length error
func NewInvalidLengthError(length int) error {
	return ErrInvalidLength.WithDetail("length", length)
}

// NewInvalidCharacterError creates an invalid chunk type character error
func NewInvalidCharacterError(chunkType string, position int) error {
	return ErrInvalidCharacter.
		WithDetail("chunkType", fmt.Sprintf("%q", chunkType)).
		WithDetail("position", position)
}

// NewTruncatedError creates a truncation error for a buffer of have bytes that needed need
func NewTruncatedError(need, have uint64) error {
	return ErrTruncated.
		WithDetail("need", need).
		WithDetail("have", have)
}

// NewChecksumMismatchError creates a checksum mismatch error
func NewChecksumMismatchError(chunkType string, expected, actual uint32) error {
	return ErrChecksumMismatch.
		WithDetail("chunkType", chunkType).
		WithDetail("expected", expected).
		WithDetail("actual", actual)
}

// NewHeaderInvalidError creates an invalid signature error
func NewHeaderInvalidError(have []byte) error {
	return ErrHeaderInvalid.WithDetail("have", fmt.Sprintf("%x", have))
}

// NewChunkNotFoundError creates a chunk not found error
func NewChunkNotFoundError(chunkType string) error {
	return ErrChunkNotFound.WithDetail("chunkType", chunkType)
}

// NewInvalidTextError creates an invalid UTF-8 error
func NewInvalidTextError(chunkType string, cause error) error {
	err := ErrInvalidText.WithDetail("chunkType", chunkType)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}

// NewIOError creates an i/o failure error
func NewIOError(op string, path string, cause error) error {
	return ErrIOFailure.
		WithDetail("op", op).
		WithDetail("path", path).
		WithCause(cause)
}

// IsPngError checks if an error is a PngError
func IsPngError(err error) bool {
	var pngErr *PngError
	return stderrors.As(err, &pngErr)
}

// GetErrorCode extracts the error code from a PngError anywhere in the chain
func GetErrorCode(err error) string {
	var pngErr *PngError
	if stderrors.As(err, &pngErr) {
		return pngErr.Code
	}
	return ""
}

// GetDetail extracts a detail value from a PngError anywhere in the chain
func GetDetail(err error, key string) (interface{}, bool) {
	var pngErr *PngError
	if !stderrors.As(err, &pngErr) {
		return nil, false
	}
	v, ok := pngErr.Details[key]
	return v, ok
}
