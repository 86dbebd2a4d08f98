package sim

import (
	"sync"
	"time"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/telemetry"
)

// Reading is a telemetry point as received by the sink.
type Reading struct {
	telemetry.Point
	At time.Time
}

// Recorder is an uplink.Sink keeping everything the sink publishes.
type Recorder struct {
	lock     sync.Mutex
	readings []Reading
	acks     []mesh.Ack
}

// PublishTelemetry implements uplink.Sink.
func (r *Recorder) PublishTelemetry(pt telemetry.Point, at time.Time) error {
	r.lock.Lock()
	r.readings = append(r.readings, Reading{Point: pt, At: at})
	r.lock.Unlock()
	return nil
}

// PublishAck implements uplink.Sink.
func (r *Recorder) PublishAck(ack mesh.Ack) error {
	r.lock.Lock()
	r.acks = append(r.acks, ack)
	r.lock.Unlock()
	return nil
}

// Readings returns the recorded points.
func (r *Recorder) Readings() []Reading {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Reading(nil), r.readings...)
}

// Acks returns the recorded acks.
func (r *Recorder) Acks() []mesh.Ack {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]mesh.Ack(nil), r.acks...)
}

// Latest returns the last reading of every source.
func (r *Recorder) Latest() map[mesh.NodeAddress]Reading {
	r.lock.Lock()
	defer r.lock.Unlock()
	latest := make(map[mesh.NodeAddress]Reading)
	for _, rd := range r.readings {
		latest[rd.Source] = rd
	}
	return latest
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.lock.Lock()
	r.readings, r.acks = nil, nil
	r.lock.Unlock()
}
