// Package joystick turns threshold-crossing interrupts from the joystick ADC
// into at most one scheduler command per wake cycle.
package joystick

import (
	"emcore-go/services/scheduler"
	"emcore-go/services/telemetry"
	"emcore-go/types"
	"emcore-go/x/critical"
	"emcore-go/x/logx"
	"emcore-go/x/timex"
)

// Poster receives classified commands. scheduler.Scheduler implements it.
type Poster interface {
	Post(cmd scheduler.Command)
}

// SensorPower is the motion sensor as driven by Up and Down.
type SensorPower interface {
	Enable() error
	Disable() error
}

type Stats struct {
	Interrupts   uint32 // threshold events seen
	Suppressed   uint32 // events ignored while latched
	Unrecognised uint32 // samples outside every band
	Posted       uint32
}

type Option func(*Gate)

func WithBands(b []Band) Option              { return func(g *Gate) { g.bands = b } }
func WithLogger(l *logx.Logger) Option       { return func(g *Gate) { g.log = l } }
func WithEmitter(e telemetry.Emitter) Option { return func(g *Gate) { g.emit = e } }

// Gate is the debounce latch in front of the scheduler.
type Gate struct {
	cs      critical.Section
	latched bool
	stats   Stats

	bands  []Band
	poster Poster
	sensor SensorPower
	log    *logx.Logger
	emit   telemetry.Emitter
}

func NewGate(p Poster, sensor SensorPower, opts ...Option) *Gate {
	g := &Gate{
		bands:  DefaultBands,
		poster: p,
		sensor: sensor,
		emit:   telemetry.Discard,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// OnThreshold handles one compare-window interrupt carrying sample. The first
// call after Disarm acts on it; later calls are counted and dropped until the
// main loop disarms the gate again.
func (g *Gate) OnThreshold(sample uint32) {
	st := g.cs.Enter()
	g.stats.Interrupts++
	if g.latched {
		g.stats.Suppressed++
		g.cs.Exit(st)
		return
	}
	g.latched = true
	g.cs.Exit(st)

	dir := Classify(g.bands, sample)
	ev := types.InputEvent{Sample: sample, Direction: dir.String(), TS: timex.NowMs()}

	switch dir {
	case Up:
		if err := g.sensor.Enable(); err != nil {
			g.log.Warnf("sensor enable: %v", err)
		}
	case Down:
		if err := g.sensor.Disable(); err != nil {
			g.log.Warnf("sensor disable: %v", err)
		}
	}

	if cmd, ok := CommandFor(dir); ok {
		g.poster.Post(cmd)
		ev.Command = cmd.String()
		st = g.cs.Enter()
		g.stats.Posted++
		if dir == Unknown {
			g.stats.Unrecognised++
		}
		g.cs.Exit(st)
	}
	g.emit.Emit(telemetry.Event{Topic: telemetry.TopicInput, Payload: ev})
}

// Disarm re-enables the gate. Call it from the main loop immediately before
// sleeping.
func (g *Gate) Disarm() {
	st := g.cs.Enter()
	g.latched = false
	g.cs.Exit(st)
}

func (g *Gate) Latched() bool {
	st := g.cs.Enter()
	l := g.latched
	g.cs.Exit(st)
	return l
}

func (g *Gate) Stats() Stats {
	st := g.cs.Enter()
	s := g.stats
	g.cs.Exit(st)
	return s
}
