package mesh

import "fmt"

// Channels of DATA frames.
const (
	// DataChannel carries telemetry toward the sink.
	DataChannel byte = 0x00
	// CommandChannel carries flooded commands from the sink.
	CommandChannel byte = 0x01
	// AckChannel carries command acks toward the sink.
	AckChannel byte = 0x02
)

// Unreachable is the hop count of a node without a route to the sink.
const Unreachable byte = 0xFF

// Advertisement is the payload of a ROUTE frame. Parent is the parent of
// the advertiser, Unresolved for a sink or a node without a route.
type Advertisement struct {
	Addr   NodeAddress
	Hops   byte
	Parent NodeAddress
}

// Advertisement sizes.
const (
	// AdvertisementSize is the encoded size of an Advertisement.
	AdvertisementSize = 5
	// ShortAdvertisementSize is [addrHigh][addrLow][hops] without a parent.
	ShortAdvertisementSize = 3
)

// Bytes encodes [addrHigh][addrLow][hops][parentHigh][parentLow].
func (a Advertisement) Bytes() []byte {
	return []byte{a.Addr.High(), a.Addr.Low(), a.Hops, a.Parent.High(), a.Parent.Low()}
}

// ParseAdvertisement decodes a ROUTE payload. A short advertisement has an
// Unresolved parent.
func ParseAdvertisement(b []byte) (a Advertisement, err error) {
	if len(b) < ShortAdvertisementSize {
		return a, fmt.Errorf("advertisement of %d bytes: %w", len(b), ErrMalformed)
	}
	a.Addr, a.Hops, a.Parent = AddressFromBytes(b[0], b[1]), b[2], Unresolved
	if len(b) >= AdvertisementSize {
		a.Parent = AddressFromBytes(b[3], b[4])
	}
	return
}

// Command operations.
const (
	// OpSetSamplingPeriod sets the sampling period to Arg*100 ms.
	OpSetSamplingPeriod byte = 0x01
)

// Command statuses reported in an Ack.
const (
	StatusOK          byte = 0x00
	StatusUnsupported byte = 0x01
	StatusInvalid     byte = 0x02
)

// Command is a request flooded from the sink to one node, or to all when
// Target is Broadcast. Seq distinguishes new commands from rebroadcasts.
type Command struct {
	Target NodeAddress
	Seq    byte
	Op     byte
	Arg    byte
}

// CommandSize is the encoded size of a Command.
const CommandSize = 5

// Bytes encodes [targetHigh][targetLow][seq][op][arg].
func (c Command) Bytes() []byte {
	return []byte{c.Target.High(), c.Target.Low(), c.Seq, c.Op, c.Arg}
}

// ParseCommand decodes a command payload.
func ParseCommand(b []byte) (c Command, err error) {
	if len(b) < CommandSize {
		return c, fmt.Errorf("command of %d bytes: %w", len(b), ErrMalformed)
	}
	c.Target = AddressFromBytes(b[0], b[1])
	c.Seq, c.Op, c.Arg = b[2], b[3], b[4]
	return
}

// Ack answers a Command.
type Ack struct {
	Source NodeAddress
	Seq    byte
	Status byte
}

// AckSize is the encoded size of an Ack.
const AckSize = 4

// Bytes encodes [sourceHigh][sourceLow][seq][status].
func (a Ack) Bytes() []byte {
	return []byte{a.Source.High(), a.Source.Low(), a.Seq, a.Status}
}

// ParseAck decodes an ack payload.
func ParseAck(b []byte) (a Ack, err error) {
	if len(b) < AckSize {
		return a, fmt.Errorf("ack of %d bytes: %w", len(b), ErrMalformed)
	}
	a.Source = AddressFromBytes(b[0], b[1])
	a.Seq, a.Status = b[2], b[3]
	return
}
