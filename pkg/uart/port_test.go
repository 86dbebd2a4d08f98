package uart

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeHardware struct {
	sent   []byte
	armed  bool
	armLog []bool
}

func (h *fakeHardware) SendByte(b byte) {
	h.sent = append(h.sent, b)
}

func (h *fakeHardware) SetTxInterrupt(enabled bool) {
	h.armed = enabled
	h.armLog = append(h.armLog, enabled)
}

// pump emulates the transmit-empty interrupt firing while armed.
func (h *fakeHardware) pump(p *Port) {
	for h.armed {
		p.TxInterrupt()
	}
}

func TestWriteArmsOnce(t *testing.T) {
	hw := &fakeHardware{}
	p := NewPort("test", hw, 8, 8)
	require.Equal(t, TxIdle, p.State())

	n, err := p.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, TxTransmitting, p.State())
	require.True(t, hw.armed)

	n, err = p.Write([]byte{4})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []bool{true}, hw.armLog)

	hw.pump(p)
	require.Equal(t, []byte{1, 2, 3, 4}, hw.sent)
	require.Equal(t, TxIdle, p.State())
	require.Equal(t, []bool{true, false}, hw.armLog)
	require.Equal(t, uint64(4), p.Stats().TxSent)
}

func TestFree(t *testing.T) {
	hw := &fakeHardware{}
	p := NewPort("test", hw, 8, 8)
	require.Equal(t, 8, p.Free())
	_, err := p.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 5, p.Free())
	require.Equal(t, 3, p.Pending())
	hw.pump(p)
	require.Equal(t, 8, p.Free())
}

func TestWriteOverflow(t *testing.T) {
	hw := &fakeHardware{}
	p := NewPort("test", hw, 32, 32)
	in := make([]byte, 64)
	for i := range in {
		in[i] = byte(i)
	}
	n, err := p.Write(in)
	require.ErrorIs(t, err, ErrQueueOverflow)
	require.Equal(t, 32, n)
	require.Equal(t, uint64(32), p.Stats().TxDropped)

	hw.pump(p)
	require.Equal(t, in[:32], hw.sent)
}

func TestEmptyWriteStaysIdle(t *testing.T) {
	hw := &fakeHardware{}
	p := NewPort("test", hw, 8, 8)
	n, err := p.Write(nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, TxIdle, p.State())
	require.Empty(t, hw.armLog)
}

func TestReceive(t *testing.T) {
	p := NewPort("test", &fakeHardware{}, 4, 4)
	buf := make([]byte, 8)
	n, err := p.Read(buf)
	require.NoError(t, err)
	require.Zero(t, n)

	for b := byte(1); b <= 6; b++ {
		p.RxInterrupt(b)
	}
	st := p.Stats()
	require.Equal(t, uint64(4), st.RxQueued)
	require.Equal(t, uint64(2), st.RxDropped)
	require.Equal(t, 4, p.Buffered())

	c, ok := p.ReadRx()
	require.True(t, ok)
	require.Equal(t, byte(1), c)
	n, err = p.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4}, buf[:n])
}

type pipeStream struct {
	r    *io.PipeReader
	w    *io.PipeWriter
	lock sync.Mutex
	out  bytes.Buffer
}

func newPipeStream() *pipeStream {
	r, w := io.Pipe()
	return &pipeStream{r: r, w: w}
}

func (s *pipeStream) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *pipeStream) Write(p []byte) (int, error) {
	s.lock.Lock()
	s.out.Write(p)
	s.lock.Unlock()
	return len(p), nil
}

func (s *pipeStream) Close() error { return s.r.Close() }

func (s *pipeStream) written() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]byte(nil), s.out.Bytes()...)
}

func TestStreamHardware(t *testing.T) {
	stream := newPipeStream()
	port, hw := NewStreamPort("stream", stream, 16, 16)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hw.Run(ctx) }()

	_, err := port.Write([]byte("hello"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return bytes.Equal(stream.written(), []byte("hello"))
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return port.State() == TxIdle }, time.Second, time.Millisecond)

	go stream.w.Write([]byte{7, 8, 9})
	require.Eventually(t, func() bool { return port.Buffered() == 3 }, time.Second, time.Millisecond)
	buf := make([]byte, 4)
	n, _ := port.Read(buf)
	require.Equal(t, []byte{7, 8, 9}, buf[:n])

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("stream hardware did not stop")
	}
}
