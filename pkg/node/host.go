package node

import (
	"fmt"

	"github.com/robotalks/meshnode/pkg/config"
	fx "github.com/robotalks/meshnode/pkg/framework"
	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/sched"
	"github.com/robotalks/meshnode/pkg/telemetry"
	"github.com/robotalks/meshnode/pkg/uart"
	"github.com/robotalks/meshnode/pkg/uplink"
	"github.com/robotalks/meshnode/pkg/uplink/influx"
	"github.com/robotalks/meshnode/pkg/uplink/mqtt"
)

// Host is a node running on a host with serial ports.
type Host struct {
	*Node

	Radio     *uart.Port
	Runnables []fx.Runnable
}

// FromConfig opens the ports and services named by cfg and builds a node
// on them. The returned runnables stand in for the interrupt sources and
// the foreground loop.
func FromConfig(cfg *config.Config) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	role, _ := cfg.NodeRole()
	layout, _ := cfg.RadioLayout()
	addr, err := cfg.NodeAddress()
	if err != nil {
		return nil, err
	}

	h := &Host{}
	radio, radioHW, err := uart.OpenSerial(cfg.Radio.Port, cfg.Radio.Baud, cfg.Radio.TxBuffer, cfg.Radio.RxBuffer)
	if err != nil {
		return nil, err
	}
	h.Radio = radio
	h.Runnables = append(h.Runnables, radioHW)

	samples := &telemetry.SampleBuffer{}
	if cfg.ThermalZone != "" {
		h.Runnables = append(h.Runnables, &telemetry.ThermalSensor{Path: cfg.ThermalZone, Buffer: samples})
	}

	spec := Spec{
		Role:         role,
		Address:      addr,
		Layout:       layout,
		RouteExpiry:  cfg.RouteExpiry,
		PeriodCode:   cfg.PeriodCode(),
		Radio:        radio,
		Sampler:      samples,
		CommandQueue: cfg.CommandQueue,
	}

	var queue *mqtt.Queue
	var up *uart.Port
	if role == mesh.RoleSink {
		if cfg.Uplink.Port != "" {
			var upHW *uart.StreamHardware
			up, upHW, err = uart.OpenSerial(cfg.Uplink.Port, cfg.Uplink.Baud, cfg.Uplink.TxBuffer, cfg.Uplink.RxBuffer)
			if err != nil {
				return nil, err
			}
			spec.Uplink = up
			h.Runnables = append(h.Runnables, upHW)
		}
		if cfg.MQTTBrokerURL != "" {
			if queue, err = mqtt.NewQueueFromURL(cfg.MQTTBrokerURL); err != nil {
				return nil, fmt.Errorf("mqtt: %w", err)
			}
			h.Runnables = append(h.Runnables, queue)
		}
		if cfg.Influx.URL != "" {
			w, err := influx.New(cfg.Influx)
			if err != nil {
				return nil, err
			}
			spec.Sinks = append(spec.Sinks, w)
			h.Runnables = append(h.Runnables, w)
		}
	}

	n, err := Build(spec)
	if err != nil {
		return nil, err
	}
	h.Node = n
	if queue != nil {
		n.Mux.Add(mqtt.NewPublisher(queue, n.Commands))
	}
	if up != nil {
		n.Scheduler.Cloud = uplink.NewSerialCommands(up, n.Commands)
	}
	for _, t := range sched.Tickers(n.Flags) {
		h.Runnables = append(h.Runnables, t)
	}
	h.Runnables = append(h.Runnables, n.Scheduler)
	return h, nil
}

var _ uplink.Sink = (*influx.Writer)(nil)
var _ uplink.Sink = (*mqtt.Publisher)(nil)
