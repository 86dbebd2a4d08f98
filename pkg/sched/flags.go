package sched

import "sync/atomic"

// Flags are the tick flags raised by timer interrupts and consumed by the
// Scheduler. Raising a flag that is already set coalesces the ticks.
type Flags struct {
	tick2ms atomic.Bool
	tick1s  atomic.Bool
	wakeCh  chan struct{}
}

// NewFlags creates cleared flags.
func NewFlags() *Flags {
	return &Flags{wakeCh: make(chan struct{}, 1)}
}

// Raise2ms sets the 2 ms flag. It never blocks.
func (f *Flags) Raise2ms() {
	f.tick2ms.Store(true)
	f.wake()
}

// Raise1s sets the 1 s flag. It never blocks.
func (f *Flags) Raise1s() {
	f.tick1s.Store(true)
	f.wake()
}

// Pending2ms reports whether the 2 ms flag is set.
func (f *Flags) Pending2ms() bool {
	return f.tick2ms.Load()
}

// Pending1s reports whether the 1 s flag is set.
func (f *Flags) Pending1s() bool {
	return f.tick1s.Load()
}

// Wake is signaled after a flag is raised.
func (f *Flags) Wake() <-chan struct{} {
	return f.wakeCh
}

func (f *Flags) wake() {
	select {
	case f.wakeCh <- struct{}{}:
	default:
	}
}
