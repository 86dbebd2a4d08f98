package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge indicates a payload longer than PayloadMax.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrShortFrame indicates fewer bytes than a type and a checksum.
	ErrShortFrame = errors.New("short frame")
	// ErrChecksumMismatch indicates a corrupted frame.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// WindowSizeError reports a radio window of unexpected length.
type WindowSizeError struct {
	Layout Layout
	Size   int
}

// Error implements error.
func (e *WindowSizeError) Error() string {
	return fmt.Sprintf("%s window must be %d bytes, got %d", e.Layout, e.Layout.Size(), e.Size)
}
