package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/node"
	"github.com/robotalks/meshnode/pkg/protocol"
	"github.com/robotalks/meshnode/pkg/sched"
	"github.com/robotalks/meshnode/pkg/telemetry"
	"github.com/robotalks/meshnode/pkg/uart"
	"github.com/robotalks/meshnode/pkg/uplink"
)

// Tick is the virtual time advanced by one Step.
const Tick = sched.TickMillis * time.Millisecond

const ticksPerSecond = int(time.Second / Tick)

// Topology names a way of linking the nodes of a Mesh.
type Topology string

// Topologies.
const (
	// TopologyLine links node i with i+1, the sink at one end.
	TopologyLine Topology = "line"
	// TopologyStar links every node to the sink only.
	TopologyStar Topology = "star"
	// TopologyFull links all nodes.
	TopologyFull Topology = "full"
)

// Options configures a Mesh.
type Options struct {
	// Nodes is the total number of nodes including the sink.
	Nodes    int
	Topology Topology
	Layout   protocol.Layout
	// PeriodCode is the initial sampling period of every node.
	PeriodCode byte
	Seed       int64
	// Base is the address of the sink, other nodes follow.
	Base mesh.NodeAddress
	// Ambient is the mean temperature in Celsius reported by the sensors.
	Ambient float64
}

// Member is one simulated node.
type Member struct {
	*node.Node
	Radio  *Radio
	Sensor *telemetry.SampleBuffer
	Temp   float64
}

// Mesh is a set of nodes sharing a Medium under a virtual clock.
type Mesh struct {
	Medium   *Medium
	Members  []*Member
	Recorder *Recorder
	Start    time.Time

	lock   sync.Mutex
	ticks  int
	byAddr map[mesh.NodeAddress]*Member
	rng    *rand.Rand
}

// NewMesh builds a mesh. The first member is the sink.
func NewMesh(opts Options) (*Mesh, error) {
	if opts.Nodes < 1 {
		return nil, fmt.Errorf("mesh needs at least one node")
	}
	if opts.Base == 0 {
		opts.Base = 1
	}
	if opts.Topology == "" {
		opts.Topology = TopologyLine
	}
	m := &Mesh{
		Medium:   NewMedium(opts.Seed),
		Recorder: &Recorder{},
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		byAddr:   make(map[mesh.NodeAddress]*Member),
		rng:      rand.New(rand.NewSource(opts.Seed)),
	}
	for i := 0; i < opts.Nodes; i++ {
		addr := opts.Base + mesh.NodeAddress(i)
		if !addr.IsResolved() {
			return nil, fmt.Errorf("address %s is reserved", addr)
		}
		role := mesh.RoleNode
		if i == 0 {
			role = mesh.RoleSink
		}
		radio := m.Medium.Attach(addr, 0, 0)
		sensor := &telemetry.SampleBuffer{}
		spec := node.Spec{
			Role:       role,
			Address:    addr,
			Layout:     opts.Layout,
			PeriodCode: opts.PeriodCode,
			Radio:      radio.Port,
			Sampler:    sensor,
			Jitter:     rand.New(rand.NewSource(opts.Seed + int64(addr))),
		}
		if role == mesh.RoleSink {
			spec.Sinks = []uplink.Sink{m.Recorder}
		}
		n, err := node.Build(spec)
		if err != nil {
			return nil, err
		}
		if n.Mux != nil {
			// only called while stepping
			n.Mux.Now = m.now
		}
		mem := &Member{
			Node:   n,
			Radio:  radio,
			Sensor: sensor,
			Temp:   opts.Ambient + float64(i),
		}
		m.Members = append(m.Members, mem)
		m.byAddr[addr] = mem
	}
	m.connect(opts.Topology)
	return m, nil
}

func (m *Mesh) connect(t Topology) {
	for i, a := range m.Members {
		for j := i + 1; j < len(m.Members); j++ {
			b := m.Members[j]
			switch {
			case t == TopologyFull,
				t == TopologyLine && j == i+1,
				t == TopologyStar && i == 0:
				m.Medium.Link(a.Address, b.Address)
			}
		}
	}
}

// Sink returns the sink member.
func (m *Mesh) Sink() *Member {
	return m.Members[0]
}

// Member finds a member by address.
func (m *Mesh) Member(addr mesh.NodeAddress) *Member {
	return m.byAddr[addr]
}

// Now returns the virtual time.
func (m *Mesh) Now() time.Time {
	return m.Start.Add(m.Elapsed())
}

func (m *Mesh) now() time.Time {
	return m.Start.Add(time.Duration(m.ticks) * Tick)
}

// Elapsed returns the virtual time since the mesh started.
func (m *Mesh) Elapsed() time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()
	return time.Duration(m.ticks) * Tick
}

// Do runs fn with the simulation paused.
func (m *Mesh) Do(fn func()) {
	m.lock.Lock()
	defer m.lock.Unlock()
	fn()
}

// Step advances virtual time by one Tick.
func (m *Mesh) Step() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.step()
}

// Advance advances virtual time by at least d.
func (m *Mesh) Advance(d time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()
	for n := int((d + Tick - 1) / Tick); n > 0; n-- {
		m.step()
	}
}

func (m *Mesh) step() {
	m.ticks++
	second := m.ticks%ticksPerSecond == 0
	for _, mem := range m.Members {
		mem.Sensor.Push(telemetry.RawFromTemperature(mem.Temp + m.rng.NormFloat64()*0.3))
		mem.Flags.Raise2ms()
		if second {
			mem.Flags.Raise1s()
		}
		mem.Scheduler.RunOnce()
	}
	m.Medium.Step()
}

// Run advances virtual time in real time scaled by speed until ctx is done.
func (m *Mesh) Run(ctx context.Context, speed float64) error {
	if speed <= 0 {
		speed = 1
	}
	interval := time.Duration(math.Max(float64(time.Millisecond), float64(10*Tick)/speed))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	step := time.Duration(float64(interval) * speed)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Advance(step)
		}
	}
}

// NodeStatus is a snapshot of one member.
type NodeStatus struct {
	Address   mesh.NodeAddress
	Role      mesh.Role
	Parent    mesh.NodeAddress
	Hops      byte
	Period    int
	Neighbors []mesh.NodeAddress
	Router    mesh.RouterStats
	Dispatch  mesh.DispatchStats
	Scheduler sched.Stats
	Radio     uart.Stats
}

// Status snapshots all members ordered by address.
func (m *Mesh) Status() []NodeStatus {
	m.lock.Lock()
	defer m.lock.Unlock()
	list := make([]NodeStatus, 0, len(m.Members))
	for _, mem := range m.Members {
		list = append(list, NodeStatus{
			Address:   mem.Address,
			Role:      mem.Role,
			Parent:    mem.Router.ParentAddress(),
			Hops:      mem.Router.Routes.Hops(),
			Period:    mem.Scheduler.SamplingPeriod(),
			Neighbors: m.Medium.Neighbors(mem.Address),
			Router:    mem.Router.Stats(),
			Dispatch:  mem.Dispatcher.Stats(),
			Scheduler: mem.Scheduler.Stats(),
			Radio:     mem.Radio.Port.Stats(),
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Address < list[j].Address })
	return list
}

// SendCommand queues a cloud command at the sink.
func (m *Mesh) SendCommand(cmd mesh.Command) (mesh.Command, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.Sink().Commands.Push(cmd)
}

// Converged reports whether every node has a route to the sink.
func (m *Mesh) Converged() bool {
	for _, st := range m.Status() {
		if st.Hops == mesh.Unreachable {
			return false
		}
	}
	return true
}
