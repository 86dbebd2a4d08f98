package uart

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"

	fx "github.com/robotalks/meshnode/pkg/framework"
)

// StreamHardware drives a Port from an io.ReadWriter, e.g. a host serial
// port. Its Run method takes the place of the UART interrupt handler: a
// reader feeds RxInterrupt and, while the transmit interrupt is armed, a
// writer drains the Port through TxInterrupt.
type StreamHardware struct {
	Stream io.ReadWriter

	port    *Port
	armed   atomic.Bool
	armCh   chan struct{}
	pending []byte
}

// NewStreamPort creates a Port backed by rw.
func NewStreamPort(name string, rw io.ReadWriter, txSize, rxSize int) (*Port, *StreamHardware) {
	hw := &StreamHardware{Stream: rw, armCh: make(chan struct{}, 1)}
	hw.port = NewPort(name, hw, txSize, rxSize)
	return hw.port, hw
}

// OpenSerial opens a host serial device and wraps it as a Port.
func OpenSerial(name string, baud int, txSize, rxSize int) (*Port, *StreamHardware, error) {
	s, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	port, hw := NewStreamPort(name, s, txSize, rxSize)
	return port, hw, nil
}

// SendByte implements Hardware. It is only called from the TX pump.
func (h *StreamHardware) SendByte(b byte) {
	h.pending = append(h.pending, b)
}

// SetTxInterrupt implements Hardware.
func (h *StreamHardware) SetTxInterrupt(enabled bool) {
	h.armed.Store(enabled)
	if enabled {
		select {
		case h.armCh <- struct{}{}:
		default:
		}
	}
}

// Name implements Named.
func (h *StreamHardware) Name() string {
	return "uart:" + h.port.Name
}

// Run implements Runnable.
func (h *StreamHardware) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.readLoop(ctx)
	}()
	for {
		select {
		case <-ctx.Done():
			if closer, ok := h.Stream.(io.Closer); ok {
				closer.Close()
			}
			<-errCh
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-h.armCh:
			if err := h.drain(); err != nil {
				return err
			}
		}
	}
}

func (h *StreamHardware) drain() error {
	for h.armed.Load() {
		h.port.TxInterrupt()
	}
	if len(h.pending) == 0 {
		return nil
	}
	glog.V(4).Infof("%s: TX % x", h.port.Name, h.pending)
	_, err := h.Stream.Write(h.pending)
	h.pending = h.pending[:0]
	return err
}

func (h *StreamHardware) readLoop(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		n, err := h.Stream.Read(buf)
		for _, b := range buf[:n] {
			h.port.RxInterrupt(b)
		}
		if err != nil && err != io.EOF {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == io.EOF && n == 0 {
			// tarm/serial reports a read timeout as EOF.
			continue
		}
	}
}

var _ fx.Runnable = (*StreamHardware)(nil)
