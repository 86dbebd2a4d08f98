// Package ringbuf provides a fixed-capacity byte FIFO shared between
// exactly one producer and one consumer.
//
// The producer may run in interrupt context (a UART RX handler) while the
// consumer runs in the foreground loop, or the other way round for TX.
// Only the producer moves tail and only the consumer moves head; the
// element count is the single word both sides touch and it is updated
// atomically after the bytes are in place.
package ringbuf

import (
	"errors"
	"sync/atomic"
)

// ErrQueueOverflow indicates part of a write was dropped because the buffer
// was full. The accepted prefix is still stored.
var ErrQueueOverflow = errors.New("queue overflow")

// Buffer is a single-producer/single-consumer byte ring.
type Buffer struct {
	data  []byte
	head  int // next read position, consumer owned
	tail  int // next write position, producer owned
	count atomic.Int32
}

// New creates a Buffer holding at most capacity bytes.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Cap returns the capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return int(b.count.Load())
}

// IsEmpty reports whether nothing is buffered.
func (b *Buffer) IsEmpty() bool {
	return b.count.Load() == 0
}

// IsFull reports whether no more bytes can be accepted.
func (b *Buffer) IsFull() bool {
	return int(b.count.Load()) == len(b.data)
}

// Write enqueues as much of p as fits, starting from the front. When the
// buffer cannot hold all of p the remainder is dropped and
// ErrQueueOverflow is returned together with the accepted count.
func (b *Buffer) Write(p []byte) (int, error) {
	free := len(b.data) - int(b.count.Load())
	n := len(p)
	if n > free {
		n = free
	}
	if n > 0 {
		first := copy(b.data[b.tail:], p[:n])
		copy(b.data, p[first:n])
		b.tail = (b.tail + n) % len(b.data)
		b.count.Add(int32(n))
	}
	if n < len(p) {
		return n, ErrQueueOverflow
	}
	return n, nil
}

// Put enqueues a single byte. It returns false and drops c when full.
func (b *Buffer) Put(c byte) bool {
	if int(b.count.Load()) >= len(b.data) {
		return false
	}
	b.data[b.tail] = c
	b.tail = (b.tail + 1) % len(b.data)
	b.count.Add(1)
	return true
}

// Read dequeues up to len(p) bytes. It never blocks: with nothing buffered
// it returns 0, nil.
func (b *Buffer) Read(p []byte) (int, error) {
	n := int(b.count.Load())
	if n > len(p) {
		n = len(p)
	}
	if n > 0 {
		first := copy(p[:n], b.data[b.head:])
		copy(p[first:n], b.data)
		b.head = (b.head + n) % len(b.data)
		b.count.Add(-int32(n))
	}
	return n, nil
}

// Get dequeues one byte. ok is false when the buffer is empty.
func (b *Buffer) Get() (c byte, ok bool) {
	if b.count.Load() == 0 {
		return 0, false
	}
	c = b.data[b.head]
	b.head = (b.head + 1) % len(b.data)
	b.count.Add(-1)
	return c, true
}
