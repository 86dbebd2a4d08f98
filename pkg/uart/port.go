// Package uart provides the interrupt-driven serial transport.
//
// A Port is a pure byte pipe. Foreground code calls Write and Read, which
// only touch the TX and RX rings and never block. The hardware side calls
// TxInterrupt whenever the transmit register is empty and the transmit
// interrupt is armed, and RxInterrupt for every received byte.
package uart

import (
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/ringbuf"
)

// DefaultBufferSize is the default capacity of each ring.
const DefaultBufferSize = 256

// ErrQueueOverflow is returned by Write when the TX ring drops bytes.
var ErrQueueOverflow = ringbuf.ErrQueueOverflow

// Hardware is the register-level side of a UART.
type Hardware interface {
	// SendByte loads one byte into the transmit register.
	SendByte(b byte)
	// SetTxInterrupt arms or disarms the transmit-empty interrupt.
	SetTxInterrupt(enabled bool)
}

// TxState is the transmit state of a Port.
type TxState int32

const (
	// TxIdle means no transmission is pending.
	TxIdle TxState = iota
	// TxTransmitting means the transmit interrupt is armed and draining.
	TxTransmitting
)

func (s TxState) String() string {
	if s == TxTransmitting {
		return "transmitting"
	}
	return "idle"
}

// Stats counts bytes through a Port.
type Stats struct {
	TxQueued  uint64
	TxDropped uint64
	TxSent    uint64
	RxQueued  uint64
	RxDropped uint64
}

// Port is one physical serial port.
type Port struct {
	Name string

	hw    Hardware
	tx    *ringbuf.Buffer
	rx    *ringbuf.Buffer
	state atomic.Int32

	txQueued, txDropped, txSent atomic.Uint64
	rxQueued, rxDropped         atomic.Uint64
}

// NewPort creates a Port with rings of the given sizes.
func NewPort(name string, hw Hardware, txSize, rxSize int) *Port {
	if txSize <= 0 {
		txSize = DefaultBufferSize
	}
	if rxSize <= 0 {
		rxSize = DefaultBufferSize
	}
	return &Port{
		Name: name,
		hw:   hw,
		tx:   ringbuf.New(txSize),
		rx:   ringbuf.New(rxSize),
	}
}

// State returns the current transmit state.
func (p *Port) State() TxState {
	return TxState(p.state.Load())
}

// Stats returns a snapshot of the byte counters.
func (p *Port) Stats() Stats {
	return Stats{
		TxQueued:  p.txQueued.Load(),
		TxDropped: p.txDropped.Load(),
		TxSent:    p.txSent.Load(),
		RxQueued:  p.rxQueued.Load(),
		RxDropped: p.rxDropped.Load(),
	}
}

// Write queues p for transmission. The count may be less than len(p) when
// the TX ring is full; in that case ErrQueueOverflow is returned
// and the tail of p is dropped.
func (p *Port) Write(b []byte) (int, error) {
	n, err := p.tx.Write(b)
	p.txQueued.Add(uint64(n))
	if err != nil {
		p.txDropped.Add(uint64(len(b) - n))
		glog.Warningf("%s: TX buffer overflow, %d of %d bytes dropped", p.Name, len(b)-n, len(b))
	}
	if n > 0 {
		p.arm()
	}
	return n, err
}

// Read copies buffered received bytes into b. It returns 0, nil when
// nothing has been received.
func (p *Port) Read(b []byte) (int, error) {
	return p.rx.Read(b)
}

// ReadRx returns one received byte if available.
func (p *Port) ReadRx() (byte, bool) {
	return p.rx.Get()
}

// Buffered returns the number of received bytes waiting to be read.
func (p *Port) Buffered() int {
	return p.rx.Len()
}

// Pending returns the number of bytes waiting to be transmitted.
func (p *Port) Pending() int {
	return p.tx.Len()
}

// Free returns the room left in the TX ring. It only grows until the next
// Write.
func (p *Port) Free() int {
	return p.tx.Cap() - p.tx.Len()
}

// TxInterrupt moves one byte from the TX ring to the hardware and disarms
// the interrupt once the ring drains.
func (p *Port) TxInterrupt() {
	if c, ok := p.tx.Get(); ok {
		p.hw.SendByte(c)
		p.txSent.Add(1)
	}
	if !p.tx.IsEmpty() {
		return
	}
	p.hw.SetTxInterrupt(false)
	p.state.Store(int32(TxIdle))
	// A foreground Write may have queued bytes after the emptiness check
	// but before the state went idle; its arm attempt failed then.
	if !p.tx.IsEmpty() {
		p.arm()
	}
}

// RxInterrupt queues one received byte. A full ring drops it.
func (p *Port) RxInterrupt(c byte) {
	if p.rx.Put(c) {
		p.rxQueued.Add(1)
		return
	}
	p.rxDropped.Add(1)
}

func (p *Port) arm() {
	if p.state.CompareAndSwap(int32(TxIdle), int32(TxTransmitting)) {
		p.hw.SetTxInterrupt(true)
	}
}
