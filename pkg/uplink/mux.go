package uplink

import (
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/meshnode/pkg/framework"
	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/telemetry"
)

// Sink receives decoded uplink messages.
type Sink interface {
	PublishTelemetry(pt telemetry.Point, at time.Time) error
	PublishAck(ack mesh.Ack) error
}

// Mux implements mesh.Publisher, dispatching to multiple Sinks.
type Mux struct {
	// Now is the clock stamping received telemetry.
	Now func() time.Time

	lock  sync.RWMutex
	sinks []Sink
}

// NewMux creates a Mux with sinks.
func NewMux(sinks ...Sink) *Mux {
	return &Mux{Now: time.Now, sinks: sinks}
}

// Add adds a Sink.
func (m *Mux) Add(s Sink) *Mux {
	m.lock.Lock()
	m.sinks = append(m.sinks, s)
	m.lock.Unlock()
	return m
}

// Publish implements mesh.Publisher.
func (m *Mux) Publish(channel byte, payload []byte) error {
	m.lock.RLock()
	sinks := m.sinks
	m.lock.RUnlock()

	var errs fx.AggregatedError
	switch channel {
	case mesh.DataChannel:
		pt, err := telemetry.ParsePoint(payload)
		if err != nil {
			return err
		}
		at := m.Now()
		glog.V(1).Infof("telemetry %s", pt)
		for _, s := range sinks {
			errs.Add(s.PublishTelemetry(pt, at))
		}
	case mesh.AckChannel:
		ack, err := mesh.ParseAck(payload)
		if err != nil {
			return err
		}
		glog.Infof("ack from %s seq %d status %d", ack.Source, ack.Seq, ack.Status)
		for _, s := range sinks {
			errs.Add(s.PublishAck(ack))
		}
	default:
		glog.V(1).Infof("uplink: ignore channel %d", channel)
	}
	return errs.Aggregate()
}
