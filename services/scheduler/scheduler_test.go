package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"

	"emcore-go/services/telemetry"
	"emcore-go/types"
)

// fakeCounter records the programming sequence.
type fakeCounter struct {
	mu      sync.Mutex
	calls   []string
	compare [2]uint32
	shift   uint8
}

func (c *fakeCounter) rec(s string) {
	c.mu.Lock()
	c.calls = append(c.calls, s)
	c.mu.Unlock()
}

func (c *fakeCounter) Stop()                    { c.rec("stop") }
func (c *fakeCounter) WaitSync()                { c.rec("sync") }
func (c *fakeCounter) SetPrescaler(shift uint8) { c.shift = shift; c.rec(fmt.Sprintf("prescale %d", shift)) }
func (c *fakeCounter) SetCompare(ch int, ticks uint32) {
	c.compare[ch] = ticks
	c.rec(fmt.Sprintf("comp%d %d", ch, ticks))
}
func (c *fakeCounter) Clear() { c.rec("clear") }
func (c *fakeCounter) Start() { c.rec("start") }

func (c *fakeCounter) reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}

type fakeLED struct{ on, touched bool }

func (l *fakeLED) Set(on bool) { l.on, l.touched = on, true }

type fakeSensor struct {
	disables int
	err      error
}

func (s *fakeSensor) Disable() error { s.disables++; return s.err }

type recEmitter struct{ evs []telemetry.Event }

func (r *recEmitter) Emit(ev telemetry.Event) bool { r.evs = append(r.evs, ev); return true }

var testCfg = Config{
	PeriodMs:    1750,
	StepMs:      500,
	InitialOnMs: 20,
	ResetOnMs:   20,
	RefHz:       1000,
	CounterMax:  65535,
}

type rig struct {
	s       *Scheduler
	counter *fakeCounter
	wave    *fakeLED
	status  *fakeLED
	sensor  *fakeSensor
	em      *recEmitter
}

func newRig(cfg Config) *rig {
	r := &rig{
		counter: &fakeCounter{},
		wave:    &fakeLED{},
		status:  &fakeLED{on: true},
		sensor:  &fakeSensor{},
		em:      &recEmitter{},
	}
	r.s = New(cfg, r.counter, r.wave, r.status, r.sensor, WithEmitter(r.em))
	r.s.Init()
	return r
}

func TestIncreaseThenReset(t *testing.T) {
	r := newRig(testCfg)
	if got := r.s.OnTimeMs(); got != 20 {
		t.Fatalf("initial on-time = %d, want 20", got)
	}

	for i := 0; i < 3; i++ {
		r.s.Post(CmdIncrease)
	}
	r.s.OnUnderflow()
	if got := r.s.OnTimeMs(); got != 1520 {
		t.Fatalf("after 3 increases on-time = %d, want 1520", got)
	}
	if r.counter.compare[1] != 1520 || r.counter.compare[0] != 1750 {
		t.Fatalf("counter compares = %v", r.counter.compare)
	}

	r.s.Post(CmdReset)
	r.s.OnUnderflow()
	if got := r.s.OnTimeMs(); got != 20 {
		t.Fatalf("after reset on-time = %d, want 20", got)
	}
	if r.status.on {
		t.Fatal("status indicator still on after reset")
	}
	if r.wave.on {
		t.Fatal("waveform high after underflow")
	}
	if r.sensor.disables != 1 {
		t.Fatalf("sensor disabled %d times, want 1", r.sensor.disables)
	}
}

func TestClampAtBothEnds(t *testing.T) {
	r := newRig(testCfg)
	for i := 0; i < 10; i++ {
		r.s.Post(CmdIncrease)
	}
	r.s.OnUnderflow()
	if got := r.s.OnTimeMs(); got != 1750 {
		t.Fatalf("saturated on-time = %d, want 1750", got)
	}
	for i := 0; i < 10; i++ {
		r.s.Post(CmdDecrease)
	}
	r.s.OnUnderflow()
	if got := r.s.OnTimeMs(); got != 0 {
		t.Fatalf("drained on-time = %d, want 0", got)
	}
}

func TestFixedDrainOrder(t *testing.T) {
	// Posting order does not matter: Increase, Decrease then Reset.
	r := newRig(testCfg)
	r.s.Post(CmdReset)
	r.s.Post(CmdDecrease)
	r.s.Post(CmdIncrease)
	r.s.Post(CmdIncrease)
	r.s.OnUnderflow()
	if got := r.s.OnTimeMs(); got != 20 {
		t.Fatalf("on-time = %d, want 20 (reset last)", got)
	}

	r = newRig(testCfg)
	r.s.Post(CmdDecrease)
	r.s.Post(CmdIncrease)
	r.s.Post(CmdIncrease)
	r.s.OnUnderflow()
	// 20 -> 520 -> 1020, then -> 520.
	if got := r.s.OnTimeMs(); got != 520 {
		t.Fatalf("on-time = %d, want 520", got)
	}
}

// Splitting the canonical expansion of a tally over several consecutive
// drains gives the same result as one drain.
func TestDrainSplitEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		var seq []Command
		for c := CmdNone; int(c) < NumCommands; c++ {
			for n := rng.Intn(4); n > 0; n-- {
				seq = append(seq, c)
			}
		}

		one := newRig(testCfg)
		for _, c := range seq {
			one.s.Post(c)
		}
		one.s.OnUnderflow()

		split := newRig(testCfg)
		for i, c := range seq {
			split.s.Post(c)
			if rng.Intn(2) == 0 || i == len(seq)-1 {
				split.s.OnUnderflow()
			}
		}

		if a, b := one.s.OnTimeMs(), split.s.OnTimeMs(); a != b {
			t.Fatalf("seq %v: single drain %d, split drains %d", seq, a, b)
		}
	}
}

func TestPostOutOfRangeCountsAsNone(t *testing.T) {
	r := newRig(testCfg)
	r.s.Post(Command(42))
	if p := r.s.Pending(); p[CmdNone] != 1 {
		t.Fatalf("pending = %v, want one None", p)
	}
	r.s.OnUnderflow()
	if got := r.s.OnTimeMs(); got != 20 {
		t.Fatalf("None changed on-time to %d", got)
	}
	if !r.s.Pending().Empty() {
		t.Fatal("tally not cleared by drain")
	}
}

func TestIdleUnderflowDoesNotReprogram(t *testing.T) {
	r := newRig(testCfg)
	r.counter.reset()
	r.s.OnUnderflow()
	if len(r.counter.calls) != 0 {
		t.Fatalf("counter touched on empty drain: %v", r.counter.calls)
	}
	if r.s.Drains() != 0 {
		t.Fatalf("drains = %d, want 0", r.s.Drains())
	}
}

func TestProgramSequence(t *testing.T) {
	r := newRig(testCfg)
	want := []string{
		"stop", "sync", "prescale 0", "comp0 1750", "comp1 20",
		"clear", "sync", "start", "sync",
	}
	if !reflect.DeepEqual(r.counter.calls, want) {
		t.Fatalf("program sequence\n got %v\nwant %v", r.counter.calls, want)
	}
}

func TestWaveformFollowsCounter(t *testing.T) {
	r := newRig(testCfg)
	r.s.OnCompareMatch()
	if !r.wave.on {
		t.Fatal("waveform low after compare match")
	}
	r.s.OnUnderflow()
	if r.wave.on {
		t.Fatal("waveform high after underflow")
	}
}

func TestSensorErrorDoesNotAbortReset(t *testing.T) {
	r := newRig(testCfg)
	r.sensor.err = errors.New("spi down")
	r.s.Post(CmdIncrease)
	r.s.Post(CmdReset)
	r.s.Post(CmdReset)
	r.s.OnUnderflow()
	if got := r.s.OnTimeMs(); got != 20 {
		t.Fatalf("on-time = %d, want 20", got)
	}
	if r.sensor.disables != 2 {
		t.Fatalf("disables = %d, want one per reset", r.sensor.disables)
	}
}

func TestDutyPublishedRetained(t *testing.T) {
	r := newRig(testCfg)
	r.s.Post(CmdIncrease)
	r.s.OnUnderflow()
	if len(r.em.evs) != 2 {
		t.Fatalf("emitted %d events, want 2 (init + drain)", len(r.em.evs))
	}
	ev := r.em.evs[1]
	if !ev.Retained || ev.Topic.String() != "core/duty" {
		t.Fatalf("unexpected event %+v", ev)
	}
	d := ev.Payload.(types.DutyValue)
	if d.OnTimeMs != 520 || d.OnTimeTicks != 520 || d.PeriodTicks != 1750 {
		t.Fatalf("duty payload = %+v", d)
	}
}

func TestInitClampsOversizedOnTime(t *testing.T) {
	cfg := testCfg
	cfg.InitialOnMs = 5000
	r := newRig(cfg)
	if got := r.s.OnTimeMs(); got != cfg.PeriodMs {
		t.Fatalf("on-time = %d, want %d", got, cfg.PeriodMs)
	}
}
