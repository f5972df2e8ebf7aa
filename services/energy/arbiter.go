// Package energy arbitrates how deeply the processor may sleep.
//
// Independent producers (a conversion in progress, a bus transaction, a timed
// wait) each Block the deepest level they can tolerate and Unblock it when
// done. EnterBestSleep then halts at the shallowest level anyone still holds,
// or at the deepest level when nobody holds anything.
package energy

import (
	"emcore-go/x/critical"
)

// Level is a processor energy mode, shallowest (EM0, running) to deepest.
type Level uint8

const (
	EM0 Level = iota
	EM1
	EM2
	EM3
	EM4

	NumLevels = int(EM4) + 1
)

func (l Level) String() string {
	switch l {
	case EM0:
		return "EM0"
	case EM1:
		return "EM1"
	case EM2:
		return "EM2"
	case EM3:
		return "EM3"
	case EM4:
		return "EM4"
	}
	return "EM?"
}

func (l Level) valid() bool { return l <= EM4 }

// Sleeper halts the processor at the given level until the next interrupt.
// Enter(EM0) is never called.
type Sleeper interface {
	Enter(level Level)
}

type Option func(*Arbiter)

// WithDeepestLevel caps the level actually entered. The decision itself is
// unchanged; only the hardware request is limited. Useful where the deepest
// mode breaks the debugger.
func WithDeepestLevel(l Level) Option {
	return func(a *Arbiter) {
		if l.valid() {
			a.deepest = l
		}
	}
}

type Arbiter struct {
	cs      critical.Section
	blocks  [NumLevels]uint32
	entered [NumLevels]uint32 // EnterBestSleep outcomes, per level entered
	sleeper Sleeper
	deepest Level
}

func NewArbiter(s Sleeper, opts ...Option) *Arbiter {
	a := &Arbiter{sleeper: s, deepest: EM4}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Block forbids sleeping deeper than level until the matching Unblock.
func (a *Arbiter) Block(level Level) {
	if !level.valid() {
		return
	}
	st := a.cs.Enter()
	a.blocks[level]++
	a.cs.Exit(st)
}

// Unblock releases one Block. Unblocking a level nobody holds is a no-op.
func (a *Arbiter) Unblock(level Level) {
	if !level.valid() {
		return
	}
	st := a.cs.Enter()
	if a.blocks[level] > 0 {
		a.blocks[level]--
	}
	a.cs.Exit(st)
}

// Decision returns the shallowest blocked level, or EM4 when none is blocked.
func (a *Arbiter) Decision() Level {
	st := a.cs.Enter()
	d := a.decisionLocked()
	a.cs.Exit(st)
	return d
}

func (a *Arbiter) decisionLocked() Level {
	for l := EM0; l < EM4; l++ {
		if a.blocks[l] > 0 {
			return l
		}
	}
	return EM4
}

// EnterBestSleep halts at the current decision and returns the level that was
// requested from the hardware. EM0 returns at once without sleeping.
func (a *Arbiter) EnterBestSleep() Level {
	st := a.cs.Enter()
	l := a.decisionLocked()
	if l > a.deepest {
		l = a.deepest
	}
	a.entered[l]++
	a.cs.Exit(st)

	if l == EM0 || a.sleeper == nil {
		return l
	}
	a.sleeper.Enter(l)
	return l
}

// Count returns the number of outstanding blocks on level.
func (a *Arbiter) Count(level Level) uint32 {
	if !level.valid() {
		return 0
	}
	st := a.cs.Enter()
	n := a.blocks[level]
	a.cs.Exit(st)
	return n
}

// Counts returns a snapshot of all block counters.
func (a *Arbiter) Counts() [NumLevels]uint32 {
	st := a.cs.Enter()
	c := a.blocks
	a.cs.Exit(st)
	return c
}

// Entered returns how often each level was chosen by EnterBestSleep.
func (a *Arbiter) Entered() [NumLevels]uint32 {
	st := a.cs.Enter()
	c := a.entered
	a.cs.Exit(st)
	return c
}
