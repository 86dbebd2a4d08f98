package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/protocol"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
role: sink
address: 0x0001
layout: full
radio:
  port: /dev/ttyS1
uplink:
  port: /dev/ttyS2
mqtt_url: mqtt://broker:1883/mesh
influx:
  url: http://influx:8086
  bucket: mesh
`), 0644))

	c := NewConfig()
	require.NoError(t, c.LoadFile(path))
	require.NoError(t, c.Validate())
	role, _ := c.NodeRole()
	assert.Equal(t, mesh.RoleSink, role)
	layout, _ := c.RadioLayout()
	assert.Equal(t, protocol.LayoutFull, layout)
	addr, err := c.NodeAddress()
	require.NoError(t, err)
	assert.Equal(t, mesh.NodeAddress(1), addr)
	assert.Equal(t, "/dev/ttyS1", c.Radio.Port)
	// untouched fields keep their defaults
	assert.Equal(t, 9600, c.Radio.Baud)
	assert.Equal(t, "mesh", c.Influx.Bucket)

	require.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MESH_ROLE":     "sink",
		"MESH_ADDRESS":  "0x0a0b",
		"MESH_MQTT_URL": "mqtt://localhost/mesh",
	}
	c := NewConfig()
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, "sink", c.Role)
	assert.Equal(t, uint16(0x0a0b), c.Address)
	assert.Equal(t, "mqtt://localhost/mesh", c.MQTTBrokerURL)

	env["MESH_ADDRESS"] = "zzz"
	require.Error(t, c.ApplyEnv(func(k string) string { return env[k] }))
}

func TestValidate(t *testing.T) {
	c := NewConfig()
	c.Role = "relay"
	require.Error(t, c.Validate())

	c = NewConfig()
	c.Layout = "short"
	require.Error(t, c.Validate())

	c = NewConfig()
	c.SamplingPeriod = 500
	require.Error(t, c.Validate())

	c = NewConfig()
	c.Address = 0xffff
	_, err := c.NodeAddress()
	require.Error(t, err)
}

func TestPeriodCode(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, byte(15), c.PeriodCode())
	c.SamplingPeriod = 100000
	assert.Equal(t, byte(0xff), c.PeriodCode())
}

func TestAddressFromID(t *testing.T) {
	addr, err := AddressFromID("0a0bdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, mesh.NodeAddress(0x0a0b), addr)

	addr, err = AddressFromID("0000ff")
	require.NoError(t, err)
	assert.Equal(t, mesh.NodeAddress(1), addr)

	addr, err = AddressFromID("ffff00")
	require.NoError(t, err)
	assert.Equal(t, mesh.NodeAddress(0xfffe), addr)

	_, err = AddressFromID("ab")
	require.Error(t, err)
	_, err = AddressFromID("xyz123")
	require.Error(t, err)
}
