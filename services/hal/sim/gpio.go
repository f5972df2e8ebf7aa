package sim

import (
	"errors"
	"sync"
)

// LED is a push-pull output. Changes are reported to an optional observer.
type LED struct {
	name string

	mu          sync.Mutex
	on          bool
	transitions uint32
	observe     func(name string, on bool)
}

func NewLED(name string) *LED { return &LED{name: name} }

// Observe registers f to be called on every change of state.
func (l *LED) Observe(f func(name string, on bool)) {
	l.mu.Lock()
	l.observe = f
	l.mu.Unlock()
}

func (l *LED) Set(on bool) {
	l.mu.Lock()
	changed := l.on != on
	l.on = on
	if changed {
		l.transitions++
	}
	f := l.observe
	l.mu.Unlock()
	if changed && f != nil {
		f(l.name, on)
	}
}

func (l *LED) Toggle() { l.Set(!l.On()) }

func (l *LED) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

func (l *LED) Transitions() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transitions
}

func (l *LED) Name() string { return l.name }

var errNoHandler = errors.New("sim: nil edge handler")

// EdgeLine is an input whose rising edges raise an interrupt.
type EdgeLine struct {
	env Env

	mu      sync.Mutex
	handler func()
	pulses  uint32
}

func NewEdgeLine(env Env) *EdgeLine { return &EdgeLine{env: env} }

func (e *EdgeLine) OnRising(h func()) error {
	if h == nil {
		return errNoHandler
	}
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
	return nil
}

// Pulse drives the line high and low again. With no handler attached the
// edge is lost, as on an unconfigured pin.
func (e *EdgeLine) Pulse() {
	e.mu.Lock()
	h := e.handler
	e.pulses++
	e.mu.Unlock()
	if h != nil {
		e.env.IRQ.Interrupt(h)
	}
}

func (e *EdgeLine) Pulses() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pulses
}
