// Package msgs defines the protobuf messages exchanged with the cloud.
package msgs

import (
	"github.com/golang/protobuf/proto"
)

// Telemetry is one point received by the sink.
type Telemetry struct {
	Source     uint32 `protobuf:"varint,1,opt,name=source,proto3" json:"source,omitempty"`
	Value      int32  `protobuf:"zigzag32,2,opt,name=value,proto3" json:"value,omitempty"`
	PeriodMs   uint32 `protobuf:"varint,3,opt,name=period_ms,proto3" json:"period_ms,omitempty"`
	ReceivedAt int64  `protobuf:"varint,4,opt,name=received_at,proto3" json:"received_at,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Telemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Telemetry) Reset() { *m = Telemetry{} }

// String implements proto.Message.
func (m *Telemetry) String() string { return proto.CompactTextString(m) }

// Command is a request from the cloud to one node, or to all nodes when
// Target is 0xffff.
type Command struct {
	Target uint32 `protobuf:"varint,1,opt,name=target,proto3" json:"target,omitempty"`
	Op     uint32 `protobuf:"varint,2,opt,name=op,proto3" json:"op,omitempty"`
	Arg    uint32 `protobuf:"varint,3,opt,name=arg,proto3" json:"arg,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Command) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Command) Reset() { *m = Command{} }

// String implements proto.Message.
func (m *Command) String() string { return proto.CompactTextString(m) }

// Ack reports the outcome of a Command at the node.
type Ack struct {
	Source uint32 `protobuf:"varint,1,opt,name=source,proto3" json:"source,omitempty"`
	Seq    uint32 `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	Status uint32 `protobuf:"varint,3,opt,name=status,proto3" json:"status,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Ack) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Ack) Reset() { *m = Ack{} }

// String implements proto.Message.
func (m *Ack) String() string { return proto.CompactTextString(m) }
