package node

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/meshnode/pkg/config"
	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/protocol"
	"github.com/robotalks/meshnode/pkg/telemetry"
	"github.com/robotalks/meshnode/pkg/uart"
)

type nullHardware struct{}

func (nullHardware) SendByte(byte)       {}
func (nullHardware) SetTxInterrupt(bool) {}

func TestBuildNode(t *testing.T) {
	radio := uart.NewPort("radio", nullHardware{}, 0, 0)
	n, err := Build(Spec{
		Role:       mesh.RoleNode,
		Address:    0x0002,
		Layout:     protocol.LayoutFull,
		PeriodCode: 20,
		Radio:      radio,
		Sampler:    &telemetry.SampleBuffer{},
	})
	require.NoError(t, err)
	assert.IsType(t, &mesh.ForwardToParent{}, n.Forwarder)
	assert.Nil(t, n.Commands)
	assert.Nil(t, n.Scheduler.Cloud)
	assert.Equal(t, 2000, n.Scheduler.SamplingPeriod())
	assert.Equal(t, protocol.LayoutFull, n.Router.Layout)

	// commands reach the scheduler through the dispatcher
	assert.Equal(t, mesh.StatusOK, n.Dispatcher.OnCommand(mesh.Command{Op: mesh.OpSetSamplingPeriod, Arg: 30}))
	assert.Equal(t, 3000, n.Scheduler.SamplingPeriod())
}

func TestBuildSink(t *testing.T) {
	radio := uart.NewPort("radio", nullHardware{}, 0, 0)
	var up bytes.Buffer
	n, err := Build(Spec{
		Role:        mesh.RoleSink,
		Address:     0x0001,
		RouteExpiry: 5,
		Radio:       radio,
		Uplink:      &up,
	})
	require.NoError(t, err)
	assert.IsType(t, &mesh.ForwardToUplink{}, n.Forwarder)
	require.NotNil(t, n.Commands)
	assert.Equal(t, n.Commands, n.Scheduler.Cloud)
	assert.Equal(t, 5, n.Router.Routes.Expiry)

	_, err = n.Forwarder.Forward(mesh.DataChannel, telemetry.NewPoint(2048, 1500, 0x0002).Bytes())
	require.NoError(t, err)
	assert.Equal(t, 7, up.Len())
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(Spec{Address: 1})
	require.Error(t, err)
	_, err = Build(Spec{Address: mesh.Unresolved, Radio: uart.NewPort("r", nullHardware{}, 0, 0)})
	require.Error(t, err)
}

func TestFromConfigInvalid(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Role = "relay"
	_, err := FromConfig(cfg)
	require.Error(t, err)

	cfg = config.NewConfig()
	cfg.Address = 0x0002
	cfg.Radio.Port = "/nonexistent/tty"
	_, err = FromConfig(cfg)
	require.Error(t, err)
}
