package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/protocol"
)

func addrs(list []mesh.NodeAddress) (out []uint16) {
	for _, a := range list {
		out = append(out, uint16(a))
	}
	return
}

func newLine(t *testing.T, layout protocol.Layout) *Mesh {
	m, err := NewMesh(Options{
		Nodes:      4,
		Topology:   TopologyLine,
		Layout:     layout,
		PeriodCode: 15,
		Seed:       7,
		Ambient:    20,
	})
	require.NoError(t, err)
	return m
}

func TestLineFormsTree(t *testing.T) {
	for _, layout := range []protocol.Layout{protocol.LayoutLegacy, protocol.LayoutFull} {
		t.Run(layout.String(), func(t *testing.T) {
			m := newLine(t, layout)
			assert.False(t, m.Converged())

			m.Advance(30 * time.Second)
			require.True(t, m.Converged())
			for i, st := range m.Status() {
				assert.Equal(t, byte(i), st.Hops, "node %s", st.Address)
				if i == 0 {
					assert.Equal(t, mesh.Unresolved, st.Parent)
					continue
				}
				assert.Equal(t, m.Members[i-1].Address, st.Parent)
			}

			latest := m.Recorder.Latest()
			for _, mem := range m.Members[1:] {
				rd, ok := latest[mem.Address]
				require.True(t, ok, "no telemetry from %s", mem.Address)
				assert.InDelta(t, mem.Temp, float64(rd.Value), 2)
				assert.Equal(t, 1500, rd.Period())
				assert.True(t, rd.At.After(m.Start))
			}
			_, ok := latest[m.Sink().Address]
			assert.False(t, ok, "sink telemetry is not forwarded")
		})
	}
}

func TestCommandFloodAndAck(t *testing.T) {
	m := newLine(t, protocol.LayoutLegacy)
	m.Advance(30 * time.Second)
	require.True(t, m.Converged())

	cmd, err := m.SendCommand(mesh.Command{Target: 4, Op: mesh.OpSetSamplingPeriod, Arg: 30})
	require.NoError(t, err)
	m.Advance(10 * time.Second)

	assert.Equal(t, 3000, m.Member(4).Scheduler.SamplingPeriod())
	assert.Equal(t, 1500, m.Member(3).Scheduler.SamplingPeriod())
	assert.Contains(t, m.Recorder.Acks(), mesh.Ack{Source: 4, Seq: cmd.Seq, Status: mesh.StatusOK})

	m.Advance(10 * time.Second)
	assert.Equal(t, 3000, m.Recorder.Latest()[4].Period())
}

func TestParentLossReroutes(t *testing.T) {
	m, err := NewMesh(Options{Nodes: 3, Topology: TopologyFull, PeriodCode: 20, Seed: 3})
	require.NoError(t, err)
	m.Advance(20 * time.Second)
	require.True(t, m.Converged())
	assert.Equal(t, mesh.NodeAddress(1), m.Member(3).Router.ParentAddress())

	// 3 can only reach the sink through 2 now
	m.Medium.Unlink(1, 3)
	m.Advance(60 * time.Second)
	assert.Equal(t, mesh.NodeAddress(2), m.Member(3).Router.ParentAddress())
	assert.Equal(t, byte(2), m.Member(3).Router.Routes.Hops())
}

func TestPartitionDoesNotLoop(t *testing.T) {
	m := newLine(t, protocol.LayoutLegacy)
	m.Advance(30 * time.Second)
	require.True(t, m.Converged())

	m.Medium.Unlink(1, 2)
	for i := 0; i < 60; i++ {
		m.Advance(time.Second)
		parents := make(map[mesh.NodeAddress]mesh.NodeAddress)
		for _, st := range m.Status() {
			parents[st.Address] = st.Parent
			if st.Parent.IsResolved() {
				require.LessOrEqual(t, st.Hops, byte(3), "node %s counting up", st.Address)
			}
		}
		for addr, parent := range parents {
			if parent.IsResolved() {
				require.NotEqual(t, addr, parents[parent], "%s and %s route through each other", addr, parent)
			}
		}
	}
	for _, mem := range m.Members[1:] {
		assert.Equal(t, mesh.Unresolved, mem.Router.ParentAddress(), "node %s", mem.Address)
	}

	m.Medium.Link(1, 2)
	m.Advance(40 * time.Second)
	assert.True(t, m.Converged())
}

func TestNewMeshErrors(t *testing.T) {
	_, err := NewMesh(Options{})
	assert.Error(t, err)
	_, err = NewMesh(Options{Nodes: 2, Base: 0xFFFF})
	assert.Error(t, err)
}

func TestStepClock(t *testing.T) {
	m, err := NewMesh(Options{Nodes: 2, Topology: TopologyStar})
	require.NoError(t, err)
	m.Step()
	assert.Equal(t, Tick, m.Elapsed())
	m.Advance(3 * time.Millisecond)
	assert.Equal(t, 3*Tick, m.Elapsed())
	assert.Equal(t, m.Start.Add(6*time.Millisecond), m.Now())
	assert.True(t, m.Medium.Linked(1, 2))
}
