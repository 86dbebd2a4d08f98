package sim

import (
	"flag"
	"fmt"

	"github.com/robotalks/meshnode/pkg/protocol"
)

// Config defines the flags of a simulated mesh.
type Config struct {
	Options
	LayoutName   string
	TopologyName string
	LossRate     float64
	CorruptRate  float64
}

var defaultConfig = Config{
	Options: Options{
		Nodes:      5,
		PeriodCode: 15,
		Seed:       1,
		Ambient:    21,
	},
	LayoutName:   "legacy",
	TopologyName: string(TopologyLine),
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.IntVar(&c.Nodes, "nodes", c.Nodes, "Number of simulated nodes including the sink")
	flag.StringVar(&c.TopologyName, "topology", c.TopologyName, "Topology: line, star or full")
	flag.StringVar(&c.LayoutName, "layout", c.LayoutName, "Radio window layout: legacy or full")
	flag.Int64Var(&c.Seed, "seed", c.Seed, "Random seed")
	flag.Float64Var(&c.Ambient, "ambient", c.Ambient, "Ambient temperature in Celsius")
	flag.Float64Var(&c.LossRate, "loss", c.LossRate, "Probability a burst misses a receiver")
	flag.Float64Var(&c.CorruptRate, "corrupt", c.CorruptRate, "Probability a burst arrives corrupted")
}

// NewConfig creates a config from the flags.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewMesh builds the mesh described by c.
func (c *Config) NewMesh() (*Mesh, error) {
	layout, err := protocol.ParseLayout(c.LayoutName)
	if err != nil {
		return nil, err
	}
	opts := c.Options
	opts.Layout = layout
	opts.Topology = Topology(c.TopologyName)
	switch opts.Topology {
	case TopologyLine, TopologyStar, TopologyFull:
	default:
		return nil, fmt.Errorf("unknown topology %q", c.TopologyName)
	}
	m, err := NewMesh(opts)
	if err != nil {
		return nil, err
	}
	m.Medium.LossRate = c.LossRate
	m.Medium.CorruptRate = c.CorruptRate
	return m, nil
}
