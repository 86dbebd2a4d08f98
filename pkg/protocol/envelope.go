package protocol

import "fmt"

// Broadcast is the destination address reaching every neighbor.
const Broadcast uint16 = 0xFFFF

// RouteChannel is the channel route advertisements are sent on.
const RouteChannel byte = 0x00

// Layout selects the slice of an envelope handed to the radio.
type Layout int

const (
	// LayoutLegacy starts one byte into the envelope, omitting destHigh.
	// This is what deployed nodes transmit.
	LayoutLegacy Layout = iota
	// LayoutFull transmits the entire envelope.
	LayoutFull
)

// Offset is the index of the first envelope byte in the window.
func (l Layout) Offset() int {
	if l == LayoutFull {
		return 0
	}
	return 1
}

// Size is the number of bytes in the window: EnvelopeSize for
// LayoutFull, PayloadMax+4 for LayoutLegacy.
func (l Layout) Size() int {
	return EnvelopeSize - l.Offset()
}

func (l Layout) String() string {
	if l == LayoutFull {
		return "full"
	}
	return "legacy"
}

// ParseLayout parses "legacy" or "full".
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "legacy":
		return LayoutLegacy, nil
	case "full":
		return LayoutFull, nil
	}
	return LayoutLegacy, fmt.Errorf("unknown radio layout %q", s)
}

// Envelope addresses a frame to a node on a channel.
type Envelope struct {
	DestHigh byte
	DestLow  byte
	Channel  byte
	Frame    *Frame

	// Layout records which window the envelope was parsed from. With
	// LayoutLegacy DestHigh was not on the air and is zero.
	Layout Layout
}

// NewEnvelope wraps f for dest.
func NewEnvelope(dest uint16, channel byte, f *Frame) *Envelope {
	return &Envelope{
		DestHigh: byte(dest >> 8),
		DestLow:  byte(dest),
		Channel:  channel,
		Frame:    f,
	}
}

// Dest returns the 16-bit destination.
func (e *Envelope) Dest() uint16 {
	return uint16(e.DestHigh)<<8 | uint16(e.DestLow)
}

// IsBroadcast reports whether the envelope is for all neighbors.
func (e *Envelope) IsBroadcast() bool {
	if e.Layout == LayoutLegacy {
		return e.DestLow == byte(Broadcast&0xFF)
	}
	return e.Dest() == Broadcast
}

// AddressedTo reports whether a node with addr should accept it. Legacy
// windows only carry the low address byte.
func (e *Envelope) AddressedTo(addr uint16) bool {
	if e.IsBroadcast() {
		return true
	}
	if e.Layout == LayoutLegacy {
		return e.DestLow == byte(addr)
	}
	return e.Dest() == addr
}

// Bytes returns the fixed EnvelopeSize encoding with a zero-padded payload.
func (e *Envelope) Bytes() []byte {
	b := make([]byte, EnvelopeSize)
	b[0], b[1], b[2] = e.DestHigh, e.DestLow, e.Channel
	b[HeaderSize] = byte(e.Frame.Type)
	copy(b[HeaderSize+1:EnvelopeSize-1], e.Frame.Payload)
	b[EnvelopeSize-1] = e.Frame.Checksum
	return b
}

// Window returns the bytes handed to the radio for layout l.
func (e *Envelope) Window(l Layout) []byte {
	return e.Bytes()[l.Offset():]
}

// ParseWindow decodes a radio window of layout l. A checksum failure
// returns the envelope together with ErrChecksumMismatch.
func ParseWindow(l Layout, b []byte) (*Envelope, error) {
	if len(b) != l.Size() {
		return nil, &WindowSizeError{Layout: l, Size: len(b)}
	}
	full := b
	if off := l.Offset(); off > 0 {
		full = make([]byte, EnvelopeSize)
		copy(full[off:], b)
	}
	f, err := Decode(full[HeaderSize:])
	if f == nil {
		return nil, err
	}
	return &Envelope{
		DestHigh: full[0],
		DestLow:  full[1],
		Channel:  full[2],
		Frame:    f,
		Layout:   l,
	}, err
}
