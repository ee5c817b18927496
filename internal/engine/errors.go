package engine

import (
	"errors"
	"fmt"
)

// ErrNoGeneration is returned when an output is recorded or swept before any
// build generation has started.
var ErrNoGeneration = errors.New("no build generation has started")

// PathErrorCode categorizes rejected output paths.
type PathErrorCode string

const (
	// ErrCodeEmptyPath indicates an empty or whitespace-only path.
	ErrCodeEmptyPath PathErrorCode = "EMPTY_PATH"

	// ErrCodeNULByte indicates a path containing 0x00, which would collide
	// with the reserved metadata key region.
	ErrCodeNULByte PathErrorCode = "NUL_BYTE"

	// ErrCodeInvalidUTF8 indicates a path that is not valid UTF-8.
	ErrCodeInvalidUTF8 PathErrorCode = "INVALID_UTF8"
)

// InvalidPathError reports an output path the recorder refused.
// The ledger is never mutated when this error is returned.
type InvalidPathError struct {
	Code PathErrorCode
	Path string
}

// Error implements the error interface.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("%s: invalid output path %q", e.Code, e.Path)
}

// IsInvalidPath returns true if err is or wraps an InvalidPathError.
func IsInvalidPath(err error) bool {
	var pe *InvalidPathError
	return errors.As(err, &pe)
}
