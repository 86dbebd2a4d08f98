package mesh

import (
	"errors"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/protocol"
)

// DefaultIdleTimeout is the number of idle scheduler ticks after which a
// partially received window is dropped.
const DefaultIdleTimeout = 10

// CommandFunc executes a command addressed to this node and returns the
// status reported in the ack.
type CommandFunc func(cmd Command) byte

// DispatchStats counts received frames.
type DispatchStats struct {
	Frames        uint64
	ChecksumDrops uint64
	Timeouts      uint64
	Ignored       uint64
	Relayed       uint64
	Commands      uint64
}

// Dispatcher consumes bytes received from the radio, one at a time.
type Dispatcher struct {
	Router    *Router
	Forwarder Forwarder
	// OnCommand executes commands addressed to this node.
	OnCommand CommandFunc
	// Fallback receives frames of unknown packet types.
	Fallback func(env *protocol.Envelope)
	// IdleTimeout is the number of Idle calls tolerated inside a window.
	IdleTimeout int

	parser  *protocol.Parser
	idle    int
	timing  bool
	lastSeq byte
	seenSeq bool

	frames, drops, timeouts, ignored, relayed, commands atomic.Uint64
}

// NewDispatcher creates a Dispatcher parsing windows of the router's layout.
func NewDispatcher(r *Router, fwd Forwarder) *Dispatcher {
	return &Dispatcher{
		Router:      r,
		Forwarder:   fwd,
		IdleTimeout: DefaultIdleTimeout,
		parser:      protocol.NewParser(r.Layout),
	}
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Frames:        d.frames.Load(),
		ChecksumDrops: d.drops.Load(),
		Timeouts:      d.timeouts.Load(),
		Ignored:       d.ignored.Load(),
		Relayed:       d.relayed.Load(),
		Commands:      d.commands.Load(),
	}
}

// ProcessHostCommand consumes one received byte.
func (d *Dispatcher) ProcessHostCommand(b byte) {
	pr := d.parser.Parse(b)
	d.timer(pr)
	if pr.Err != nil {
		if errors.Is(pr.Err, protocol.ErrChecksumMismatch) {
			d.drops.Add(1)
		}
		glog.Warningf("%s: drop frame: %v", d.Router.Address(), pr.Err)
		return
	}
	if pr.Envelope != nil {
		d.frames.Add(1)
		d.dispatch(pr.Envelope)
	}
}

// Idle is called on a scheduler tick without a received byte.
func (d *Dispatcher) Idle() {
	if !d.timing {
		return
	}
	d.idle++
	if d.idle < d.IdleTimeout {
		return
	}
	pr := d.parser.Timeout()
	d.timer(pr)
	if pr.Dropped > 0 {
		d.timeouts.Add(1)
		glog.V(2).Infof("%s: partial window of %d bytes dropped", d.Router.Address(), pr.Dropped)
	}
}

func (d *Dispatcher) timer(pr protocol.ParseResult) {
	switch pr.WhatAboutTimer() {
	case protocol.TimerRestart:
		d.timing, d.idle = true, 0
	case protocol.TimerStop:
		d.timing, d.idle = false, 0
	}
}

func (d *Dispatcher) dispatch(env *protocol.Envelope) {
	self := d.Router.Address()
	switch env.Frame.Type {
	case protocol.TypeRoute:
		adv, err := ParseAdvertisement(env.Frame.Payload)
		if err != nil || adv.Addr == self {
			d.ignored.Add(1)
			return
		}
		if d.Router.Routes.Heard(adv) {
			glog.Infof("%s: parent %s, %d hops", self, adv.Addr, adv.Hops+1)
		}
	case protocol.TypeData:
		if !env.AddressedTo(uint16(self)) {
			d.ignored.Add(1)
			return
		}
		if env.Channel == CommandChannel {
			d.command(env.Frame.Payload)
			return
		}
		if env.IsBroadcast() {
			d.ignored.Add(1)
			return
		}
		if _, err := d.Forwarder.Forward(env.Channel, env.Frame.Payload); err == nil {
			d.relayed.Add(1)
		}
	default:
		if d.Fallback != nil {
			d.Fallback(env)
			return
		}
		d.ignored.Add(1)
	}
}

func (d *Dispatcher) command(payload []byte) {
	cmd, err := ParseCommand(payload)
	if err != nil || d.Router.Role == RoleSink {
		d.ignored.Add(1)
		return
	}
	if d.seenSeq && cmd.Seq == d.lastSeq {
		return
	}
	d.seenSeq, d.lastSeq = true, cmd.Seq
	d.commands.Add(1)

	self := d.Router.Address()
	if cmd.Target == self || cmd.Target == Broadcast {
		status := StatusUnsupported
		if d.OnCommand != nil {
			status = d.OnCommand(cmd)
		}
		glog.Infof("%s: command op %d arg %d seq %d: status %d", self, cmd.Op, cmd.Arg, cmd.Seq, status)
		d.Forwarder.Forward(AckChannel, Ack{Source: self, Seq: cmd.Seq, Status: status}.Bytes())
		if cmd.Target == self {
			return
		}
	}
	d.Router.SendAck(Broadcast.High(), Broadcast.Low(), CommandChannel, cmd.Bytes())
}
