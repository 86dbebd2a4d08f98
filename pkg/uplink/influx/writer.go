// Package influx writes sink telemetry to InfluxDB.
package influx

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/telemetry"
)

// Measurement is the name of telemetry points.
const Measurement = "telemetry"

// Config selects the InfluxDB bucket.
type Config struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// PointWriter queues points for writing. The non-blocking api.WriteAPI
// satisfies it.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Writer implements uplink.Sink.
type Writer struct {
	API PointWriter

	client influxdb2.Client
	errs   <-chan error
}

// New connects to InfluxDB with cfg. Writes are batched in the background.
func New(cfg Config) (*Writer, error) {
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx: url and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	api := client.WriteAPI(cfg.Org, cfg.Bucket)
	return &Writer{API: api, client: client, errs: api.Errors()}, nil
}

// NewPoint converts a telemetry point.
func NewPoint(pt telemetry.Point, at time.Time) *write.Point {
	return influxdb2.NewPoint(Measurement,
		map[string]string{"source": fmt.Sprintf("%04x", uint16(pt.Source))},
		map[string]interface{}{
			"temperature": int64(pt.Value),
			"period_ms":   int64(pt.Period()),
		},
		at)
}

// PublishTelemetry implements uplink.Sink. It never blocks.
func (w *Writer) PublishTelemetry(pt telemetry.Point, at time.Time) error {
	w.API.WritePoint(NewPoint(pt, at))
	return nil
}

// PublishAck implements uplink.Sink. Acks are not stored.
func (w *Writer) PublishAck(mesh.Ack) error {
	return nil
}

// Name implements Named.
func (w *Writer) Name() string {
	return "influx"
}

// Run implements Runnable. It logs asynchronous write errors and closes
// the client when ctx is done.
func (w *Writer) Run(ctx context.Context) error {
	defer w.close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.errs:
			if !ok {
				w.errs = nil
				continue
			}
			glog.Warningf("influx write: %v", err)
		}
	}
}

func (w *Writer) close() {
	if w.client == nil {
		return
	}
	if f, ok := w.API.(interface{ Flush() }); ok {
		f.Flush()
	}
	w.client.Close()
}
