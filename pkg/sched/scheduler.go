// Package sched runs the foreground loop of a node.
//
// Two timer sources raise tick flags every 2 ms and every second. The
// Scheduler runs the matching task once per raised flag and clears the
// flag only after the task body completes. Task bodies never block.
package sched

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/telemetry"
)

// Jitter bounds.
const (
	EpochJitterMin   = 20
	EpochJitterRange = 120
	RouteIntervalMin = 3
	RouteJitterRange = 3
)

// TickMillis is the period of the fast task.
const TickMillis = 2

// ByteSource yields received bytes without blocking. uart.Port satisfies it.
type ByteSource interface {
	ReadRx() (byte, bool)
}

// CommandProcessor consumes received bytes one at a time.
type CommandProcessor interface {
	ProcessHostCommand(b byte)
}

// IdleProcessor is optionally implemented by a CommandProcessor that wants
// to know about fast ticks without a received byte.
type IdleProcessor interface {
	Idle()
}

// CloudProcessor handles one pending cloud command per call.
type CloudProcessor interface {
	ProcessCloudCommand()
}

// Sampler is the ADC sample buffer.
type Sampler interface {
	ReadSample() (uint16, bool)
	Clear()
}

// Maintainer runs route maintenance. mesh.Router satisfies it.
type Maintainer interface {
	Maintain()
}

// Jitter draws random offsets. *rand.Rand satisfies it.
type Jitter interface {
	Intn(n int) int
}

// Stats counts scheduler activity.
type Stats struct {
	Ticks2ms    uint64
	Ticks1s     uint64
	Epochs      uint64
	Points      uint64
	NoSample    uint64
	Maintenance uint64
}

// Scheduler owns the two periodic tasks and all of their state.
type Scheduler struct {
	Flags     *Flags
	Role      mesh.Role
	Self      mesh.AddressSource
	Host      ByteSource
	Commands  CommandProcessor
	Cloud     CloudProcessor
	Sampler   Sampler
	Forwarder mesh.Forwarder
	Routes    Maintainer
	Jitter    Jitter

	period atomic.Int32

	// fast task
	epochTicks  int
	epochTarget int

	// slow task
	routeSecs   int
	routeTarget int

	ticks2ms, ticks1s, epochs, points, noSample, maintenance atomic.Uint64
}

// New creates a Scheduler with the default sampling period and a time
// seeded jitter source.
func New(flags *Flags, role mesh.Role, self mesh.AddressSource) *Scheduler {
	s := &Scheduler{
		Flags:  flags,
		Role:   role,
		Self:   self,
		Jitter: rand.New(rand.NewSource(time.Now().UnixNano() + int64(self.Address()))),
	}
	s.period.Store(telemetry.DefaultSamplingPeriod)
	return s
}

// SamplingPeriod returns the sampling period in milliseconds.
func (s *Scheduler) SamplingPeriod() int {
	return int(s.period.Load())
}

// SetSamplingPeriod sets the period to 100*code ms, at least 1000 ms. It
// takes effect from the next epoch.
func (s *Scheduler) SetSamplingPeriod(code byte) {
	ms := telemetry.PeriodFromCode(code)
	s.period.Store(int32(ms))
	glog.Infof("%s: sampling period %dms", s.Self.Address(), ms)
}

// HandleCommand executes commands addressed to this node.
func (s *Scheduler) HandleCommand(cmd mesh.Command) byte {
	switch cmd.Op {
	case mesh.OpSetSamplingPeriod:
		if cmd.Arg == 0 {
			return mesh.StatusInvalid
		}
		s.SetSamplingPeriod(cmd.Arg)
		return mesh.StatusOK
	}
	return mesh.StatusUnsupported
}

// EpochTarget returns the length of the current sampling epoch in ms, or
// zero before the first tick.
func (s *Scheduler) EpochTarget() int {
	return s.epochTarget * TickMillis
}

// RouteTarget returns the current route maintenance interval in seconds,
// or zero before the first tick.
func (s *Scheduler) RouteTarget() int {
	return s.routeTarget
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks2ms:    s.ticks2ms.Load(),
		Ticks1s:     s.ticks1s.Load(),
		Epochs:      s.epochs.Load(),
		Points:      s.points.Load(),
		NoSample:    s.noSample.Load(),
		Maintenance: s.maintenance.Load(),
	}
}

// RunOnce runs each task whose flag is raised.
func (s *Scheduler) RunOnce() {
	if s.Flags.Pending2ms() {
		s.run2ms()
		s.Flags.tick2ms.Store(false)
	}
	if s.Flags.Pending1s() {
		s.run1s()
		s.Flags.tick1s.Store(false)
	}
}

// Run implements Runnable.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.Flags.Wake():
			s.RunOnce()
		}
	}
}

// Name implements Named.
func (s *Scheduler) Name() string {
	return "scheduler"
}

func (s *Scheduler) run2ms() {
	s.ticks2ms.Add(1)
	if s.Host != nil && s.Commands != nil {
		if b, ok := s.Host.ReadRx(); ok {
			s.Commands.ProcessHostCommand(b)
		} else if idle, ok := s.Commands.(IdleProcessor); ok {
			idle.Idle()
		}
	}

	if s.epochTarget == 0 {
		s.drawEpoch()
	}
	s.epochTicks++
	if s.epochTicks < s.epochTarget {
		return
	}
	s.epochs.Add(1)
	s.sample()
	s.epochTicks = 0
	s.drawEpoch()
}

func (s *Scheduler) drawEpoch() {
	ms := s.SamplingPeriod()/2 + EpochJitterMin + s.Jitter.Intn(EpochJitterRange)
	s.epochTarget = ms / TickMillis
}

func (s *Scheduler) sample() {
	if s.Sampler == nil {
		return
	}
	raw, ok := s.Sampler.ReadSample()
	if !ok {
		s.noSample.Add(1)
		return
	}
	s.Sampler.Clear()
	if s.Role == mesh.RoleSink || s.Forwarder == nil {
		return
	}
	pt := telemetry.NewPoint(raw, s.SamplingPeriod(), s.Self.Address())
	if _, err := s.Forwarder.Forward(mesh.DataChannel, pt.Bytes()); err == nil {
		s.points.Add(1)
		glog.V(2).Infof("%s: point %s", s.Self.Address(), pt)
	}
}

func (s *Scheduler) run1s() {
	s.ticks1s.Add(1)
	if s.Role == mesh.RoleSink && s.Cloud != nil {
		s.Cloud.ProcessCloudCommand()
	}
	if s.routeTarget == 0 {
		s.drawRoute()
	}
	s.routeSecs++
	if s.routeSecs < s.routeTarget {
		return
	}
	s.routeSecs = 0
	s.drawRoute()
	if s.Routes != nil {
		s.maintenance.Add(1)
		s.Routes.Maintain()
	}
}

func (s *Scheduler) drawRoute() {
	s.routeTarget = RouteIntervalMin + s.Jitter.Intn(RouteJitterRange)
}
