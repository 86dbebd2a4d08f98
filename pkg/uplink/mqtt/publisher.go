package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/telemetry"
	"github.com/robotalks/meshnode/pkg/uplink/msgs"
)

// Topics relative to the queue prefix.
const (
	TopicCommand = "command"
)

// TelemetryTopic is the topic of points from src.
func TelemetryTopic(src mesh.NodeAddress) string {
	return fmt.Sprintf("telemetry/%04x", uint16(src))
}

// AckTopic is the topic of command acks from src.
func AckTopic(src mesh.NodeAddress) string {
	return fmt.Sprintf("ack/%04x", uint16(src))
}

// PubSub is the part of Queue used by Publisher.
type PubSub interface {
	Pub(topic string, payload []byte) paho.Token
	Sub(topic string, handler Handler) paho.Token
}

// CommandPusher accepts decoded cloud commands. uplink.CommandQueue
// satisfies it.
type CommandPusher interface {
	Push(cmd mesh.Command) (mesh.Command, error)
}

// Publisher implements uplink.Sink over MQTT.
type Publisher struct {
	Queue    PubSub
	Commands CommandPusher
}

// NewPublisher creates a Publisher and subscribes to cloud commands when
// cmds is not nil.
func NewPublisher(q PubSub, cmds CommandPusher) *Publisher {
	p := &Publisher{Queue: q, Commands: cmds}
	if cmds != nil {
		q.Sub(TopicCommand, p.handleCommand)
	}
	return p
}

// PublishTelemetry implements uplink.Sink. Publishing is asynchronous.
func (p *Publisher) PublishTelemetry(pt telemetry.Point, at time.Time) error {
	b, err := proto.Marshal(&msgs.Telemetry{
		Source:     uint32(pt.Source),
		Value:      int32(pt.Value),
		PeriodMs:   uint32(pt.Period()),
		ReceivedAt: at.UnixNano() / int64(time.Millisecond),
	})
	if err != nil {
		return err
	}
	p.Queue.Pub(TelemetryTopic(pt.Source), b)
	return nil
}

// PublishAck implements uplink.Sink.
func (p *Publisher) PublishAck(ack mesh.Ack) error {
	b, err := proto.Marshal(&msgs.Ack{
		Source: uint32(ack.Source),
		Seq:    uint32(ack.Seq),
		Status: uint32(ack.Status),
	})
	if err != nil {
		return err
	}
	p.Queue.Pub(AckTopic(ack.Source), b)
	return nil
}

func (p *Publisher) handleCommand(topic string, payload []byte) {
	var m msgs.Command
	if err := proto.Unmarshal(payload, &m); err != nil {
		glog.Warningf("invalid command on %q: %v", topic, err)
		return
	}
	if m.Target > 0xffff || m.Op > 0xff || m.Arg > 0xff {
		glog.Warningf("command out of range: %s", m.String())
		return
	}
	p.Commands.Push(mesh.Command{
		Target: mesh.NodeAddress(m.Target),
		Op:     byte(m.Op),
		Arg:    byte(m.Arg),
	})
}
