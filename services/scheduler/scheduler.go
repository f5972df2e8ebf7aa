// Package scheduler batches user commands between period boundaries of a
// low-energy counter and turns the resulting on-time into a rectangular
// waveform.
//
// Commands are posted from the input interrupt and only counted. At every
// underflow the pending counts are drained in a fixed order (None, Increase,
// Decrease, Reset), the on-time is updated and the counter is reprogrammed.
// A burst of mixed inputs therefore replays identically whatever order the
// interrupts fired in.
package scheduler

import (
	"emcore-go/services/telemetry"
	"emcore-go/types"
	"emcore-go/x/critical"
	"emcore-go/x/logx"
	"emcore-go/x/mathx"
	"emcore-go/x/timex"
)

// Counter is the low-energy down-counter. Compare channel 0 holds the top
// (period) and channel 1 the on-time match.
type Counter interface {
	Stop()
	// WaitSync blocks until pending writes have crossed into the counter's
	// clock domain.
	WaitSync()
	SetPrescaler(shift uint8)
	SetCompare(ch int, ticks uint32)
	Clear()
	Start()
}

// Indicator is a binary output.
type Indicator interface {
	Set(on bool)
}

// Sensor is the motion sensor as seen from a Reset.
type Sensor interface {
	Disable() error
}

type Config struct {
	PeriodMs    uint32
	StepMs      uint32
	InitialOnMs uint32
	ResetOnMs   uint32
	RefHz       uint32 // counter reference clock
	CounterMax  uint32 // largest programmable compare value
}

type Option func(*Scheduler)

func WithLogger(l *logx.Logger) Option { return func(s *Scheduler) { s.log = l } }

func WithEmitter(e telemetry.Emitter) Option { return func(s *Scheduler) { s.emit = e } }

type Scheduler struct {
	cfg Config

	cs     critical.Section
	tally  Tally
	onMs   int64
	duty   DutyCycle
	drains uint32

	counter Counter
	wave    Indicator // follows the duty cycle
	status  Indicator // cleared by Reset
	sensor  Sensor

	log  *logx.Logger
	emit telemetry.Emitter
}

func New(cfg Config, counter Counter, wave, status Indicator, sensor Sensor, opts ...Option) *Scheduler {
	if cfg.ResetOnMs > cfg.PeriodMs {
		cfg.ResetOnMs = cfg.PeriodMs
	}
	s := &Scheduler{
		cfg:     cfg,
		counter: counter,
		wave:    wave,
		status:  status,
		sensor:  sensor,
		emit:    telemetry.Discard,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init programs the initial duty cycle and starts the counter.
func (s *Scheduler) Init() {
	s.onMs = mathx.Clamp(int64(s.cfg.InitialOnMs), 0, int64(s.cfg.PeriodMs))
	s.program()
	s.log.Infof("period %d ms, on-time %d ms, %d ticks, shift %d",
		s.cfg.PeriodMs, s.onMs, s.duty.PeriodTicks, s.duty.DivisorShift)
}

// Post counts one occurrence of cmd. Safe from interrupt context; never
// blocks.
func (s *Scheduler) Post(cmd Command) {
	if int(cmd) >= NumCommands {
		cmd = CmdNone
	}
	st := s.cs.Enter()
	s.tally[cmd]++
	s.cs.Exit(st)
}

// OnUnderflow runs at each period boundary. It drains the tally, applies it
// and, if anything was pending, reprograms the counter. The waveform output
// goes low.
func (s *Scheduler) OnUnderflow() {
	st := s.cs.Enter()
	pending := s.tally
	s.tally = Tally{}
	s.cs.Exit(st)

	if !pending.Empty() {
		s.apply(pending)
		s.program()
	}
	s.wave.Set(false)
}

// OnCompareMatch runs when the counter reaches the on-time compare value;
// the waveform output goes high until the next underflow.
func (s *Scheduler) OnCompareMatch() {
	s.wave.Set(true)
}

func (s *Scheduler) apply(p Tally) {
	period := int64(s.cfg.PeriodMs)
	step := int64(s.cfg.StepMs)
	on := s.onMs

	for cmd := CmdNone; int(cmd) < NumCommands; cmd++ {
		n := p[cmd]
		if n == 0 {
			continue
		}
		switch cmd {
		case CmdNone:
			s.log.Debugf("%d unclassified input(s) drained", n)
		case CmdIncrease:
			on = mathx.StepClamp(on, step, n, 0, period)
		case CmdDecrease:
			on = mathx.StepClamp(on, -step, n, 0, period)
		case CmdReset:
			for i := uint32(0); i < n; i++ {
				on = int64(s.cfg.ResetOnMs)
				s.status.Set(false)
				if err := s.sensor.Disable(); err != nil {
					s.log.Warnf("sensor disable on reset: %v", err)
				}
			}
		}
	}

	st := s.cs.Enter()
	s.onMs = on
	s.drains++
	s.cs.Exit(st)
}

// program recomputes the duty cycle and rewrites the counter. The counter is
// stopped and synchronised before new compare values are written, then
// restarted from zero.
func (s *Scheduler) program() {
	st := s.cs.Enter()
	on := s.onMs
	s.cs.Exit(st)

	d := ComputeDuty(uint32(on), s.cfg.PeriodMs, s.cfg.RefHz, s.cfg.CounterMax)

	c := s.counter
	c.Stop()
	c.WaitSync()
	c.SetPrescaler(d.DivisorShift)
	c.SetCompare(0, d.PeriodTicks)
	c.SetCompare(1, d.OnTimeTicks)
	c.Clear()
	c.WaitSync()
	c.Start()
	c.WaitSync()

	st = s.cs.Enter()
	s.duty = d
	s.cs.Exit(st)

	s.emit.Emit(telemetry.Event{
		Topic:    telemetry.TopicDuty,
		Retained: true,
		Payload: types.DutyValue{
			OnTimeMs:     d.OnTimeMs,
			PeriodMs:     d.PeriodMs,
			PeriodTicks:  d.PeriodTicks,
			OnTimeTicks:  d.OnTimeTicks,
			DivisorShift: d.DivisorShift,
			TS:           timex.NowMs(),
		},
	})
}

// OnTimeMs returns the current on-time.
func (s *Scheduler) OnTimeMs() uint32 {
	st := s.cs.Enter()
	on := s.onMs
	s.cs.Exit(st)
	return uint32(on)
}

// Duty returns the most recently programmed duty cycle.
func (s *Scheduler) Duty() DutyCycle {
	st := s.cs.Enter()
	d := s.duty
	s.cs.Exit(st)
	return d
}

// Pending returns a snapshot of the undrained tally.
func (s *Scheduler) Pending() Tally {
	st := s.cs.Enter()
	t := s.tally
	s.cs.Exit(st)
	return t
}

// Drains returns how many period boundaries found pending commands.
func (s *Scheduler) Drains() uint32 {
	st := s.cs.Enter()
	n := s.drains
	s.cs.Exit(st)
	return n
}
