// Package config holds the configuration of a node.
//
// Values come from built-in defaults, then MESH_* environment variables,
// then command line flags. The -config flag loads a YAML file at the
// point it appears on the command line, so flags after it override the
// file.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/protocol"
	"github.com/robotalks/meshnode/pkg/telemetry"
	"github.com/robotalks/meshnode/pkg/uplink/influx"
)

// SerialConfig configures one host serial port.
type SerialConfig struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	TxBuffer int    `yaml:"tx_buffer"`
	RxBuffer int    `yaml:"rx_buffer"`
}

// Config defines the configuration of a node.
type Config struct {
	Role string `yaml:"role"`

	// Address of this node, zero derives one from the machine ID.
	Address uint16 `yaml:"address"`

	// Layout of the radio window, "legacy" or "full".
	Layout string `yaml:"layout"`

	// SamplingPeriod in milliseconds.
	SamplingPeriod int `yaml:"sampling_period"`

	// RouteExpiry in maintenance cycles.
	RouteExpiry int `yaml:"route_expiry"`

	ThermalZone string       `yaml:"thermal_zone"`
	Radio       SerialConfig `yaml:"radio"`
	Uplink      SerialConfig `yaml:"uplink"`

	// MQTTBrokerURL, e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt_url"`

	Influx       influx.Config `yaml:"influx"`
	CommandQueue int           `yaml:"command_queue"`
}

var defaultConfig = Config{
	Role:           "node",
	Layout:         "legacy",
	SamplingPeriod: telemetry.DefaultSamplingPeriod,
	RouteExpiry:    mesh.DefaultRouteExpiry,
	ThermalZone:    telemetry.DefaultThermalZone,
	Radio:          SerialConfig{Port: "/dev/ttyUSB0", Baud: 9600},
	Uplink:         SerialConfig{Baud: 115200},
	CommandQueue:   16,
}

func init() {
	if err := defaultConfig.ApplyEnv(os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// ApplyEnv overrides fields from MESH_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"MESH_ROLE":         &c.Role,
		"MESH_LAYOUT":       &c.Layout,
		"MESH_RADIO_PORT":   &c.Radio.Port,
		"MESH_UPLINK_PORT":  &c.Uplink.Port,
		"MESH_MQTT_URL":     &c.MQTTBrokerURL,
		"MESH_INFLUX_URL":   &c.Influx.URL,
		"MESH_INFLUX_TOKEN": &c.Influx.Token,
	}
	for name, ptr := range strs {
		if val := getenv(name); val != "" {
			*ptr = val
		}
	}
	if val := getenv("MESH_ADDRESS"); val != "" {
		addr, err := strconv.ParseUint(val, 0, 16)
		if err != nil {
			return fmt.Errorf("MESH_ADDRESS: %w", err)
		}
		c.Address = uint16(addr)
	}
	return nil
}

// LoadFile merges a YAML file into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.Func("config", "YAML config file, applied where it appears", c.LoadFile)
	flag.StringVar(&c.Role, "role", c.Role, "Node role: node or sink")
	flag.Func("address", "Node address, 0 derives it from the machine ID", func(s string) error {
		addr, err := strconv.ParseUint(s, 0, 16)
		c.Address = uint16(addr)
		return err
	})
	flag.StringVar(&c.Layout, "layout", c.Layout, "Radio window layout: legacy or full")
	flag.IntVar(&c.SamplingPeriod, "period", c.SamplingPeriod, "Sampling period in milliseconds")
	flag.StringVar(&c.Radio.Port, "radio", c.Radio.Port, "Radio serial port")
	flag.IntVar(&c.Radio.Baud, "radio-baud", c.Radio.Baud, "Radio serial baud rate")
	flag.StringVar(&c.Uplink.Port, "uplink", c.Uplink.Port, "Uplink serial port (sink)")
	flag.IntVar(&c.Uplink.Baud, "uplink-baud", c.Uplink.Baud, "Uplink serial baud rate")
	flag.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL (sink)")
	flag.StringVar(&c.ThermalZone, "thermal-zone", c.ThermalZone, "Temperature source")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NodeRole parses Role.
func (c *Config) NodeRole() (mesh.Role, error) {
	return mesh.ParseRole(c.Role)
}

// RadioLayout parses Layout.
func (c *Config) RadioLayout() (protocol.Layout, error) {
	return protocol.ParseLayout(c.Layout)
}

// PeriodCode is the sampling period as a command argument.
func (c *Config) PeriodCode() byte {
	code := c.SamplingPeriod / 100
	if code > 0xff {
		code = 0xff
	}
	return byte(code)
}

// NodeAddress returns Address or one derived from the machine ID.
func (c *Config) NodeAddress() (mesh.NodeAddress, error) {
	if c.Address != 0 {
		if !mesh.NodeAddress(c.Address).IsResolved() {
			return 0, fmt.Errorf("address 0x%04x is reserved", c.Address)
		}
		return mesh.NodeAddress(c.Address), nil
	}
	return MachineAddress()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := c.NodeRole(); err != nil {
		return err
	}
	if _, err := c.RadioLayout(); err != nil {
		return err
	}
	if c.SamplingPeriod < telemetry.MinSamplingPeriod {
		return fmt.Errorf("sampling period %dms below %dms", c.SamplingPeriod, telemetry.MinSamplingPeriod)
	}
	if c.Radio.Port == "" {
		return fmt.Errorf("radio port is required")
	}
	return nil
}
