package influx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/telemetry"
)

type pointRecorder struct {
	points []*write.Point
}

func (r *pointRecorder) WritePoint(p *write.Point) {
	r.points = append(r.points, p)
}

func TestNewPoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	p := NewPoint(telemetry.NewPoint(2048, 2000, 0x0a0b), at)
	assert.Equal(t, Measurement, p.Name())
	require.Len(t, p.TagList(), 1)
	assert.Equal(t, "source", p.TagList()[0].Key)
	assert.Equal(t, "0a0b", p.TagList()[0].Value)
	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(-26), fields["temperature"])
	assert.Equal(t, int64(2000), fields["period_ms"])
	assert.Equal(t, at, p.Time())
}

func TestWriterPublish(t *testing.T) {
	rec := &pointRecorder{}
	w := &Writer{API: rec}
	require.NoError(t, w.PublishTelemetry(telemetry.NewPoint(1800, 1500, 0x0001), time.Now()))
	require.NoError(t, w.PublishAck(mesh.Ack{}))
	assert.Len(t, rec.points, 1)
}

func TestWriterRun(t *testing.T) {
	errs := make(chan error, 1)
	w := &Writer{API: &pointRecorder{}, errs: errs}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	errs <- errors.New("unauthorized")
	close(errs)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("writer did not stop")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{URL: "http://localhost:8086"})
	require.Error(t, err)
}
