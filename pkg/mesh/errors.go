package mesh

import "errors"

var (
	// ErrNoRoute indicates the parent (or uplink) is not resolved.
	ErrNoRoute = errors.New("no route")
	// ErrPayloadTruncated indicates the payload was cut to the maximum
	// size. The truncated frame is still sent.
	ErrPayloadTruncated = errors.New("payload truncated")
	// ErrRadioBusy indicates the radio TX queue cannot take a whole
	// window. Nothing is queued.
	ErrRadioBusy = errors.New("radio busy")
	// ErrMalformed indicates a payload too short for its message.
	ErrMalformed = errors.New("malformed message")
)

// DiagnosticFunc receives non-fatal conditions as they happen.
type DiagnosticFunc func(err error)
