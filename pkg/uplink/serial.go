package uplink

import (
	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/protocol"
)

// commandFrameSize is [channel][type][5 byte command][checksum].
const commandFrameSize = 3 + 5

// ByteSource yields received bytes without blocking. uart.Port satisfies it.
type ByteSource interface {
	ReadRx() (byte, bool)
}

// SerialCommands accepts cloud commands from the host on the uplink serial
// port. Frames use the uplink format [channel][type][payload][checksum]
// with channel mesh.CommandChannel and a command payload. Bytes that do not
// start a valid frame are skipped one at a time.
type SerialCommands struct {
	Port  ByteSource
	Queue *CommandQueue

	buf []byte
}

// NewSerialCommands creates a SerialCommands feeding q.
func NewSerialCommands(port ByteSource, q *CommandQueue) *SerialCommands {
	return &SerialCommands{Port: port, Queue: q, buf: make([]byte, 0, commandFrameSize)}
}

// Poll consumes all buffered bytes and queues complete commands.
func (s *SerialCommands) Poll() {
	for {
		b, ok := s.Port.ReadRx()
		if !ok {
			return
		}
		s.buf = append(s.buf, b)
		for len(s.buf) == commandFrameSize {
			if cmd, ok := s.decode(); ok {
				s.buf = s.buf[:0]
				s.Queue.Push(cmd)
				break
			}
			glog.V(2).Infof("uplink: resync, skip 0x%02x", s.buf[0])
			s.buf = append(s.buf[:0], s.buf[1:]...)
		}
	}
}

func (s *SerialCommands) decode() (mesh.Command, bool) {
	if s.buf[0] != mesh.CommandChannel {
		return mesh.Command{}, false
	}
	f, err := protocol.Decode(s.buf[1:])
	if err != nil || f.Type != protocol.TypeData {
		return mesh.Command{}, false
	}
	cmd, err := mesh.ParseCommand(f.Payload)
	return cmd, err == nil
}

// ProcessCloudCommand polls the port, then sends at most one queued
// command.
func (s *SerialCommands) ProcessCloudCommand() {
	s.Poll()
	s.Queue.ProcessCloudCommand()
}
