// Package tap classifies single and double taps reported by the motion
// sensor. The edge interrupt only opens a window; reading the sensor, waiting
// out the window and classifying happen from the main loop.
package tap

import (
	"time"

	"emcore-go/services/telemetry"
	"emcore-go/types"
	"emcore-go/x/critical"
	"emcore-go/x/logx"
	"emcore-go/x/timex"
)

// DefaultWindow is the longest gap the sensor allows between the taps of a
// double tap.
const DefaultWindow = 280 * time.Millisecond

type State uint8

const (
	Idle State = iota
	Armed
	Waiting
	Classified
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Waiting:
		return "waiting"
	case Classified:
		return "classified"
	}
	return "invalid"
}

// Sensor exposes the tap status register and its interrupt latch.
type Sensor interface {
	TapFlags() (Flags, error)
	ResetLatch() error
}

// Waiter blocks the caller for d, sleeping as deep as the rest of the
// system allows.
type Waiter interface {
	Wait(d time.Duration)
}

// WaitFunc adapts a function to Waiter.
type WaitFunc func(d time.Duration)

func (f WaitFunc) Wait(d time.Duration) { f(d) }

type Indicator interface {
	Set(on bool)
}

type Option func(*Classifier)

func WithWindow(d time.Duration) Option      { return func(c *Classifier) { c.window = d } }
func WithLogger(l *logx.Logger) Option       { return func(c *Classifier) { c.log = l } }
func WithEmitter(e telemetry.Emitter) Option { return func(c *Classifier) { c.emit = e } }

type Classifier struct {
	cs     critical.Section
	state  State
	counts [3]uint32 // indexed by Gesture

	window time.Duration
	sensor Sensor
	wait   Waiter
	status Indicator
	log    *logx.Logger
	emit   telemetry.Emitter
}

func New(sensor Sensor, wait Waiter, status Indicator, opts ...Option) *Classifier {
	c := &Classifier{
		window: DefaultWindow,
		sensor: sensor,
		wait:   wait,
		status: status,
		emit:   telemetry.Discard,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnEdge runs from the sensor's interrupt line. Edges that arrive while a
// window is already open are absorbed by it.
func (c *Classifier) OnEdge() {
	st := c.cs.Enter()
	if c.state == Idle {
		c.state = Armed
	}
	c.cs.Exit(st)
}

// Handle processes a pending window, if any, and returns its gesture. It
// blocks for the window length and must only be called from the main loop.
func (c *Classifier) Handle() Gesture {
	st := c.cs.Enter()
	if c.state != Armed {
		c.cs.Exit(st)
		return NoGesture
	}
	c.cs.Exit(st)

	first := c.read()
	c.setState(Waiting)
	c.wait.Wait(c.window)
	second := c.read()

	// Latched status survives the read; always clear it.
	if err := c.sensor.ResetLatch(); err != nil {
		c.log.Warnf("latch reset: %v", err)
	}
	c.setState(Classified)

	g := Classify(first, second)
	switch g {
	case DoubleTap:
		c.status.Set(true)
	case SingleTap:
		c.status.Set(false)
	}
	if g != NoGesture {
		c.log.Debugf("%v tap (0x%02x, 0x%02x)", g, first.Raw, second.Raw)
		c.emit.Emit(telemetry.Event{
			Topic: telemetry.TopicTap,
			Payload: types.TapEvent{
				Gesture: g.String(),
				First:   first.Raw,
				Second:  second.Raw,
				TS:      timex.NowMs(),
			},
		})
	}

	st = c.cs.Enter()
	c.counts[g]++
	c.state = Idle
	c.cs.Exit(st)
	return g
}

func (c *Classifier) read() Flags {
	f, err := c.sensor.TapFlags()
	if err != nil {
		c.log.Warnf("status read: %v", err)
		return Flags{}
	}
	return f
}

func (c *Classifier) setState(s State) {
	st := c.cs.Enter()
	c.state = s
	c.cs.Exit(st)
}

func (c *Classifier) State() State {
	st := c.cs.Enter()
	s := c.state
	c.cs.Exit(st)
	return s
}

// Pending reports whether a window is waiting for Handle.
func (c *Classifier) Pending() bool { return c.State() == Armed }

// Counts returns how many windows ended in each gesture.
func (c *Classifier) Counts() (none, single, double uint32) {
	st := c.cs.Enter()
	defer c.cs.Exit(st)
	return c.counts[NoGesture], c.counts[SingleTap], c.counts[DoubleTap]
}
