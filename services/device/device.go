// Package device assembles the energy arbiter, the command scheduler, the
// joystick gate and the tap classifier on top of a Hardware set and runs the
// main loop.
package device

import (
	"context"
	"errors"
	"time"

	"emcore-go/drivers/bma280"
	"emcore-go/errcode"
	"emcore-go/services/config"
	"emcore-go/services/energy"
	"emcore-go/services/joystick"
	"emcore-go/services/scheduler"
	"emcore-go/services/tap"
	"emcore-go/services/telemetry"
	"emcore-go/types"
	"emcore-go/x/logx"
	"emcore-go/x/timex"
)

const statsInterval = time.Second

type Option func(*Core)

func WithLogger(l *logx.Logger) Option       { return func(c *Core) { c.log = l } }
func WithEmitter(e telemetry.Emitter) Option { return func(c *Core) { c.emit = e } }

type Core struct {
	cfg config.Config
	hw  Hardware

	Arbiter   *energy.Arbiter
	Scheduler *scheduler.Scheduler
	Gate      *joystick.Gate
	Tap       *tap.Classifier

	sensor *sensorPort
	log    *logx.Logger
	emit   telemetry.Emitter

	started   bool
	lastStats time.Time
}

// New wires the core. It touches no hardware; see Start.
func New(cfg config.Config, hw Hardware, opts ...Option) (*Core, error) {
	if hw.Sleeper == nil || hw.Counter == nil || hw.Timer == nil || hw.ADC == nil ||
		hw.TapLine == nil || hw.SPI == nil || hw.LED0 == nil || hw.LED1 == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "device.new", Msg: "incomplete hardware"}
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	bands, err := BandsFrom(cfg.Joystick.Bands)
	if err != nil {
		return nil, err
	}

	c := &Core{cfg: cfg, hw: hw, emit: telemetry.Discard}
	for _, o := range opts {
		o(c)
	}

	e := cfg.Energy
	c.Arbiter = energy.NewArbiter(hw.Sleeper, energy.WithDeepestLevel(energy.Level(e.Deepest)))
	wait := func(d time.Duration) { c.Arbiter.Delay(hw.Timer, d, energy.Level(e.Timer)) }

	dev := bma280.New(&linkSPI{bus: hw.SPI, arb: c.Arbiter, level: energy.Level(e.Link)})
	dev.Configure(bma280.Config{Delay: wait})
	c.sensor = &sensorPort{dev: dev, emit: c.emit, log: c.log.WithTag("bma280")}

	wave := &reportingLED{out: hw.LED0, index: 0, emit: c.emit}
	status := &reportingLED{out: hw.LED1, index: 1, emit: c.emit}

	s := cfg.Scheduler
	c.Scheduler = scheduler.New(scheduler.Config{
		PeriodMs:    s.PeriodMs,
		StepMs:      s.StepMs,
		InitialOnMs: s.InitialOnMs,
		ResetOnMs:   s.ResetOnMs,
		RefHz:       s.RefHz,
		CounterMax:  s.CounterMax,
	}, hw.Counter, wave, status, c.sensor,
		scheduler.WithLogger(c.log.WithTag("sched")),
		scheduler.WithEmitter(c.emit))

	c.Gate = joystick.NewGate(c.Scheduler, c.sensor,
		joystick.WithBands(bands),
		joystick.WithLogger(c.log.WithTag("joy")),
		joystick.WithEmitter(c.emit))

	c.Tap = tap.New(c.sensor, tap.WaitFunc(wait), status,
		tap.WithWindow(timex.Ms(cfg.Tap.WindowMs)),
		tap.WithLogger(c.log.WithTag("tap")),
		tap.WithEmitter(c.emit))

	return c, nil
}

// BandsFrom resolves configured bands and rejects overlapping ones.
func BandsFrom(in []config.Band) ([]joystick.Band, error) {
	out := make([]joystick.Band, 0, len(in))
	for _, b := range in {
		d, ok := joystick.ParseDirection(b.Dir)
		if !ok {
			return nil, &errcode.E{C: errcode.InvalidConfig, Op: "device.bands", Msg: "unknown direction " + b.Dir}
		}
		out = append(out, joystick.Band{Dir: d, Lo: b.Lo, Hi: b.Hi})
	}
	if a, b, ok := joystick.Overlapping(out); ok {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "device.bands", Msg: "overlapping bands " + a.Dir.String() + "/" + b.Dir.String()}
	}
	return out, nil
}

// Start takes the standing energy blocks, programs the first period, brings
// the motion sensor up and back to deep suspend, and enables the input
// interrupts.
func (c *Core) Start() error {
	if c.started {
		return errcode.Busy
	}
	e := c.cfg.Energy
	c.Arbiter.Block(energy.Level(e.Counter))
	c.Arbiter.Block(energy.Level(e.ADC))
	if e.LinkStanding {
		c.Arbiter.Block(energy.Level(e.Link))
	}

	c.hw.Counter.Attach(c.Scheduler.OnUnderflow, c.Scheduler.OnCompareMatch)
	c.Scheduler.Init()

	if err := c.hw.TapLine.OnRising(c.Tap.OnEdge); err != nil {
		return errcode.Wrap(errcode.Error, "device.start", err)
	}
	if err := c.sensor.Init(); err != nil {
		// The core runs without taps; Up retries the bring-up.
		c.log.Warnf("motion sensor init: %v", err)
	}
	if err := c.hw.ADC.Start(c.Gate.OnThreshold); err != nil {
		return errcode.Wrap(errcode.Error, "device.start", err)
	}

	c.started = true
	c.publishState("running", "ok")
	c.log.Infof("started: deepest %v, decision %v", energy.Level(e.Deepest), c.Arbiter.Decision())
	return nil
}

// Step is one pass of the main loop: finish any tap window, re-arm the
// joystick, then sleep as deep as allowed until the next interrupt.
func (c *Core) Step() energy.Level {
	c.Tap.Handle()
	c.Gate.Disarm()
	return c.Arbiter.EnterBestSleep()
}

// Run loops Step until ctx is cancelled. Cancellation is noticed at the next
// wake.
func (c *Core) Run(ctx context.Context) error {
	if !c.started {
		return errors.New("device: Run before Start")
	}
	for {
		select {
		case <-ctx.Done():
			c.publishSleepStats()
			c.publishState("stopped", "ok")
			return nil
		default:
		}
		c.Step()
		if now := time.Now(); now.Sub(c.lastStats) >= statsInterval {
			c.lastStats = now
			c.publishSleepStats()
		}
	}
}

// SensorEnabled reports whether the motion sensor is out of deep suspend.
func (c *Core) SensorEnabled() bool { return c.sensor.Enabled() }

func (c *Core) SleepStats() types.SleepStats {
	return types.SleepStats{
		Blocks:  c.Arbiter.Counts(),
		Entered: c.Arbiter.Entered(),
		TS:      timex.NowMs(),
	}
}

func (c *Core) publishSleepStats() {
	c.emit.Emit(telemetry.Event{Topic: telemetry.TopicSleep, Payload: c.SleepStats()})
}

func (c *Core) publishState(level, status string) {
	c.emit.Emit(telemetry.Event{
		Topic:    telemetry.TopicState,
		Payload:  types.CoreState{Level: level, Status: status, TS: timex.NowMs()},
		Retained: true,
	})
}
