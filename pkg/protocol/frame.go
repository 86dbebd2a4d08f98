package protocol

import "fmt"

// Sizes of the wire format.
const (
	// PayloadMax is the largest payload a frame carries.
	PayloadMax = 61
	// HeaderSize counts destHigh, destLow and channel.
	HeaderSize = 3
	// FrameSize is the fixed frame: type, padded payload, checksum.
	FrameSize = 1 + PayloadMax + 1
	// EnvelopeSize is the full fixed envelope.
	EnvelopeSize = HeaderSize + FrameSize
)

// PacketType identifies the content of a frame.
type PacketType byte

// Packet types.
const (
	// TypeData carries telemetry points, acks or command responses.
	TypeData PacketType = 0x01
	// TypeRoute carries a routing advertisement, always broadcast.
	TypeRoute PacketType = 0x02
)

func (t PacketType) String() string {
	switch t {
	case TypeData:
		return "DATA"
	case TypeRoute:
		return "ROUTE"
	default:
		return fmt.Sprintf("TYPE(0x%02x)", byte(t))
	}
}

// Frame is a packet type, its payload and the checksum over both.
type Frame struct {
	Type     PacketType
	Payload  []byte
	Checksum byte
}

// Checksum computes the additive checksum of type and payload.
func Checksum(t PacketType, payload []byte) byte {
	sum := byte(t)
	for _, b := range payload {
		sum += b
	}
	return sum
}

// Encode builds a Frame. It only fails when the payload exceeds
// PayloadMax. The payload is copied.
func Encode(t PacketType, payload []byte) (*Frame, error) {
	if len(payload) > PayloadMax {
		return nil, ErrPayloadTooLarge
	}
	f := &Frame{Type: t, Payload: make([]byte, len(payload))}
	copy(f.Payload, payload)
	f.Checksum = Checksum(t, f.Payload)
	return f, nil
}

// Valid reports whether the stored checksum matches the content.
func (f *Frame) Valid() bool {
	return f.Checksum == Checksum(f.Type, f.Payload)
}

// Bytes returns the compact encoding [type][payload][checksum].
func (f *Frame) Bytes() []byte {
	b := make([]byte, 0, len(f.Payload)+2)
	b = append(b, byte(f.Type))
	b = append(b, f.Payload...)
	return append(b, f.Checksum)
}

// Decode parses [type][payload][checksum]. On checksum mismatch the frame
// is returned anyway for diagnostics, together with ErrChecksumMismatch.
func Decode(b []byte) (*Frame, error) {
	if len(b) < 2 {
		return nil, ErrShortFrame
	}
	if len(b)-2 > PayloadMax {
		return nil, ErrPayloadTooLarge
	}
	f := &Frame{
		Type:     PacketType(b[0]),
		Payload:  make([]byte, len(b)-2),
		Checksum: b[len(b)-1],
	}
	copy(f.Payload, b[1:len(b)-1])
	if !f.Valid() {
		return f, ErrChecksumMismatch
	}
	return f, nil
}
