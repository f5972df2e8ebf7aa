package sim

import (
	"sync"
	"time"

	"emcore-go/x/timex"
)

// LETimer is a low-energy down-counter with two compare channels. It counts
// from compare 0 to zero; compare 1 fires when the count passes it and an
// underflow fires at zero, after which it reloads from compare 0.
type LETimer struct {
	env   Env
	refHz uint32

	mu          sync.Mutex
	shift       uint8
	comp        [2]uint32
	stop        chan struct{}
	onUnderflow func()
	onCompare   func()
	starts      uint32
}

func NewLETimer(env Env, refHz uint32) *LETimer {
	return &LETimer{env: env, refHz: refHz}
}

// Attach sets the interrupt handlers. Call before Start.
func (t *LETimer) Attach(underflow, compare func()) {
	t.mu.Lock()
	t.onUnderflow, t.onCompare = underflow, compare
	t.mu.Unlock()
}

func (t *LETimer) Stop() {
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.mu.Unlock()
}

// WaitSync returns at once; simulated registers have no clock-domain
// crossing.
func (t *LETimer) WaitSync() {}

func (t *LETimer) SetPrescaler(shift uint8) {
	t.mu.Lock()
	t.shift = shift
	t.mu.Unlock()
}

func (t *LETimer) SetCompare(ch int, ticks uint32) {
	if ch < 0 || ch >= len(t.comp) {
		return
	}
	t.mu.Lock()
	t.comp[ch] = ticks
	t.mu.Unlock()
}

// Clear reloads the count; the next Start begins a full period.
func (t *LETimer) Clear() {}

func (t *LETimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil || t.comp[0] == 0 {
		return
	}
	t.stop = make(chan struct{})
	t.starts++

	tick := t.env.scale(timex.TickPeriod(t.refHz, t.shift))
	top, match := t.comp[0], min(t.comp[1], t.comp[0])
	go t.run(t.stop, time.Duration(top-match)*tick, time.Duration(match)*tick, t.onCompare, t.onUnderflow)
}

func (t *LETimer) run(stop <-chan struct{}, low, high time.Duration, compare, underflow func()) {
	tm := time.NewTimer(low)
	defer tm.Stop()
	for {
		if !wait(tm, stop) {
			return
		}
		t.env.IRQ.Interrupt(compare)

		resetTimer(tm, high)
		if !wait(tm, stop) {
			return
		}
		// The handler may reprogram the counter, which ends this run.
		t.env.IRQ.Interrupt(underflow)
		resetTimer(tm, low)
	}
}

// wait blocks until tm fires and reports whether the run is still live.
func wait(tm *time.Timer, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	case <-tm.C:
	}
	select {
	case <-stop:
		return false
	default:
		return true
	}
}

// Running reports whether the counter is counting.
func (t *LETimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Starts returns how many times the counter was (re)started.
func (t *LETimer) Starts() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.starts
}

func (t *LETimer) Compare(ch int) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.comp[ch]
}
