// Package cpu models a single-core processor that halts between interrupts.
//
// Interrupt sources are goroutines. Each calls Interrupt with its handler;
// the handler runs on the caller's goroutine and every context currently
// parked in Enter is then woken, the way a pending interrupt ends WFI.
package cpu

import (
	"sync"
	"time"

	"emcore-go/services/energy"
	"emcore-go/x/logx"
)

// DefaultMaxNap bounds one halt so that a wake racing the sleep decision is
// noticed without another interrupt.
const DefaultMaxNap = 5 * time.Millisecond

type Stats struct {
	Interrupts uint32
	Entries    [energy.NumLevels]uint32
	Residency  [energy.NumLevels]time.Duration
}

type Option func(*CPU)

func WithMaxNap(d time.Duration) Option { return func(c *CPU) { c.maxNap = d } }
func WithLogger(l *logx.Logger) Option  { return func(c *CPU) { c.log = l } }

type CPU struct {
	mu     sync.Mutex
	wake   chan struct{} // closed and replaced on every interrupt
	halt   chan struct{}
	halted bool
	stats  Stats

	maxNap time.Duration
	log    *logx.Logger
}

func New(opts ...Option) *CPU {
	c := &CPU{
		wake:   make(chan struct{}),
		halt:   make(chan struct{}),
		maxNap: DefaultMaxNap,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Enter parks the caller at level until the next interrupt, the nap bound or
// Halt. EM0 returns at once.
func (c *CPU) Enter(l energy.Level) {
	if l == energy.EM0 || int(l) >= energy.NumLevels {
		return
	}
	c.mu.Lock()
	if c.halted {
		c.mu.Unlock()
		return
	}
	w := c.wake
	c.stats.Entries[l]++
	c.mu.Unlock()

	start := time.Now()
	t := time.NewTimer(c.maxNap)
	select {
	case <-w:
	case <-t.C:
	case <-c.halt:
	}
	t.Stop()

	c.mu.Lock()
	c.stats.Residency[l] += time.Since(start)
	c.mu.Unlock()
}

// Interrupt runs h in interrupt context and wakes every sleeper. Handlers of
// different sources may run concurrently; they share state only through
// critical sections.
func (c *CPU) Interrupt(h func()) {
	if h != nil {
		h()
	}
	c.Wake()
}

// Wake ends every pending Enter without running a handler.
func (c *CPU) Wake() {
	c.mu.Lock()
	close(c.wake)
	c.wake = make(chan struct{})
	c.stats.Interrupts++
	c.mu.Unlock()
}

// Halt releases all sleepers for good; later Enter calls return at once.
func (c *CPU) Halt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.halted {
		return
	}
	c.halted = true
	close(c.halt)
	c.log.Debugf("halted after %d interrupts", c.stats.Interrupts)
}

func (c *CPU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
