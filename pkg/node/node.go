// Package node assembles a complete mesh node.
package node

import (
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/protocol"
	"github.com/robotalks/meshnode/pkg/sched"
	"github.com/robotalks/meshnode/pkg/uplink"
)

// RadioPort is the byte pipe to the radio module. uart.Port satisfies it.
type RadioPort interface {
	mesh.RadioSender
	sched.ByteSource
}

// Spec describes the parts of a node.
type Spec struct {
	Role        mesh.Role
	Address     mesh.NodeAddress
	Layout      protocol.Layout
	RouteExpiry int
	// PeriodCode is the initial sampling period in units of 100 ms.
	PeriodCode byte

	Radio   RadioPort
	Sampler sched.Sampler
	Jitter  sched.Jitter
	// Uplink is the secondary serial port of a sink.
	Uplink io.Writer
	// Sinks receive telemetry and acks at a sink.
	Sinks        []uplink.Sink
	CommandQueue int
	Diagnostics  mesh.DiagnosticFunc
}

// Node is an assembled node.
type Node struct {
	Role       mesh.Role
	Address    mesh.NodeAddress
	Flags      *sched.Flags
	Router     *mesh.Router
	Forwarder  mesh.Forwarder
	Dispatcher *mesh.Dispatcher
	Scheduler  *sched.Scheduler

	// sink only
	Mux      *uplink.Mux
	Commands *uplink.CommandQueue
}

// Build wires a node from spec.
func Build(spec Spec) (*Node, error) {
	if spec.Radio == nil {
		return nil, fmt.Errorf("node %s: radio is required", spec.Address)
	}
	if !spec.Address.IsResolved() {
		return nil, fmt.Errorf("node address %s is reserved", spec.Address)
	}
	self := mesh.StaticAddress(spec.Address)
	n := &Node{
		Role:    spec.Role,
		Address: spec.Address,
		Flags:   sched.NewFlags(),
	}

	n.Router = mesh.NewRouter(spec.Role, self, spec.Radio)
	n.Router.Layout = spec.Layout
	n.Router.Diagnostics = spec.Diagnostics
	if spec.RouteExpiry != 0 {
		n.Router.Routes.Expiry = spec.RouteExpiry
	}

	var pub mesh.Publisher
	if spec.Role == mesh.RoleSink {
		n.Router.Uplink = spec.Uplink
		n.Mux = uplink.NewMux(spec.Sinks...)
		n.Commands = uplink.NewCommandQueue(n.Router, spec.CommandQueue)
		pub = n.Mux
	}
	n.Forwarder = mesh.NewForwarder(n.Router, pub)
	n.Dispatcher = mesh.NewDispatcher(n.Router, n.Forwarder)

	s := sched.New(n.Flags, spec.Role, self)
	s.Host = spec.Radio
	s.Commands = n.Dispatcher
	s.Sampler = spec.Sampler
	s.Forwarder = n.Forwarder
	s.Routes = n.Router
	if spec.Jitter != nil {
		s.Jitter = spec.Jitter
	}
	if spec.PeriodCode != 0 {
		s.SetSamplingPeriod(spec.PeriodCode)
	}
	if n.Commands != nil {
		s.Cloud = n.Commands
	}
	n.Scheduler = s
	n.Dispatcher.OnCommand = s.HandleCommand

	glog.Infof("%s: %s, %s radio layout", n.Address, n.Role, spec.Layout)
	return n, nil
}
