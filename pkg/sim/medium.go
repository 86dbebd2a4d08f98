// Package sim simulates a mesh in memory.
//
// A Medium stands in for the air: whatever a radio transmits during a step
// arrives, byte for byte, at the receive interrupt of every linked radio.
// Mesh builds complete nodes on a Medium and advances virtual time in
// 2 ms ticks.
package sim

import (
	"math/rand"

	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/mesh"
	"github.com/robotalks/meshnode/pkg/uart"
)

// Radio is the simulated radio module behind a node's uart.Port.
type Radio struct {
	Addr mesh.NodeAddress
	Port *uart.Port

	armed bool
	burst []byte
}

// SendByte implements uart.Hardware.
func (r *Radio) SendByte(b byte) {
	r.burst = append(r.burst, b)
}

// SetTxInterrupt implements uart.Hardware.
func (r *Radio) SetTxInterrupt(enabled bool) {
	r.armed = enabled
}

type link struct {
	a, b mesh.NodeAddress
}

func linkOf(a, b mesh.NodeAddress) link {
	if a > b {
		a, b = b, a
	}
	return link{a, b}
}

// MediumStats counts traffic on the medium.
type MediumStats struct {
	Bursts    uint64
	Bytes     uint64
	Lost      uint64
	Corrupted uint64
}

// Medium connects radios.
type Medium struct {
	// LossRate is the probability a burst misses one receiver.
	LossRate float64
	// CorruptRate is the probability a burst arrives with one bad byte.
	CorruptRate float64

	rng    *rand.Rand
	radios []*Radio
	byAddr map[mesh.NodeAddress]*Radio
	links  map[link]bool
	stats  MediumStats
}

// NewMedium creates an empty medium.
func NewMedium(seed int64) *Medium {
	return &Medium{
		rng:    rand.New(rand.NewSource(seed)),
		byAddr: make(map[mesh.NodeAddress]*Radio),
		links:  make(map[link]bool),
	}
}

// Attach creates the radio and port of a node.
func (m *Medium) Attach(addr mesh.NodeAddress, txSize, rxSize int) *Radio {
	r := &Radio{Addr: addr}
	r.Port = uart.NewPort(addr.String(), r, txSize, rxSize)
	m.radios = append(m.radios, r)
	m.byAddr[addr] = r
	return r
}

// Link makes two radios hear each other.
func (m *Medium) Link(a, b mesh.NodeAddress) {
	m.links[linkOf(a, b)] = true
}

// Unlink separates two radios.
func (m *Medium) Unlink(a, b mesh.NodeAddress) {
	delete(m.links, linkOf(a, b))
}

// Linked reports whether two radios hear each other.
func (m *Medium) Linked(a, b mesh.NodeAddress) bool {
	return m.links[linkOf(a, b)]
}

// Neighbors lists the radios linked to addr.
func (m *Medium) Neighbors(addr mesh.NodeAddress) (addrs []mesh.NodeAddress) {
	for _, r := range m.radios {
		if r.Addr != addr && m.Linked(addr, r.Addr) {
			addrs = append(addrs, r.Addr)
		}
	}
	return
}

// Stats returns the traffic counters.
func (m *Medium) Stats() MediumStats {
	return m.stats
}

// Step fires the transmit interrupt of every armed radio until its ring
// drains, then delivers the transmitted bytes to linked radios.
func (m *Medium) Step() {
	for _, r := range m.radios {
		for r.armed {
			r.Port.TxInterrupt()
		}
		if len(r.burst) == 0 {
			continue
		}
		m.stats.Bursts++
		m.stats.Bytes += uint64(len(r.burst))
		for _, peer := range m.radios {
			if peer == r || !m.Linked(r.Addr, peer.Addr) {
				continue
			}
			m.deliver(r, peer)
		}
		r.burst = r.burst[:0]
	}
}

func (m *Medium) deliver(from, to *Radio) {
	if m.LossRate > 0 && m.rng.Float64() < m.LossRate {
		m.stats.Lost++
		glog.V(3).Infof("sim: burst %s -> %s lost", from.Addr, to.Addr)
		return
	}
	corrupt := -1
	if m.CorruptRate > 0 && m.rng.Float64() < m.CorruptRate {
		corrupt = m.rng.Intn(len(from.burst))
		m.stats.Corrupted++
	}
	for i, b := range from.burst {
		if i == corrupt {
			b ^= byte(1 + m.rng.Intn(255))
		}
		to.Port.RxInterrupt(b)
	}
}
