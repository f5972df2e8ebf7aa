package energy

import (
	"math/rand"
	"sync"
	"testing"
	"time"
)

// recSleeper records every level it was asked to enter.
type recSleeper struct {
	mu      sync.Mutex
	entered []Level
}

func (s *recSleeper) Enter(l Level) {
	s.mu.Lock()
	s.entered = append(s.entered, l)
	s.mu.Unlock()
}

func (s *recSleeper) calls() []Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Level(nil), s.entered...)
}

func TestDecisionBusyThenDeepest(t *testing.T) {
	a := NewArbiter(&recSleeper{})
	a.Block(EM0)
	if got := a.Decision(); got != EM0 {
		t.Fatalf("counts [1,0,0,0,0]: decision %v, want EM0", got)
	}
	a.Unblock(EM0)
	if got := a.Decision(); got != EM4 {
		t.Fatalf("all zero: decision %v, want EM4", got)
	}
}

func TestUnblockAtZeroStaysZero(t *testing.T) {
	a := NewArbiter(nil)
	a.Unblock(EM2)
	a.Unblock(EM2)
	if n := a.Count(EM2); n != 0 {
		t.Fatalf("count after unmatched unblocks = %d, want 0", n)
	}
	a.Block(EM2)
	if n := a.Count(EM2); n != 1 {
		t.Fatalf("count after one block = %d, want 1", n)
	}
}

func TestOutOfRangeLevelsIgnored(t *testing.T) {
	a := NewArbiter(nil)
	a.Block(Level(9))
	a.Unblock(Level(9))
	if a.Counts() != [NumLevels]uint32{} {
		t.Fatalf("out-of-range level changed counters: %v", a.Counts())
	}
	if a.Count(Level(9)) != 0 {
		t.Fatal("Count on invalid level must be 0")
	}
}

// For any sequence of block/unblock calls the decision is the shallowest
// level with a nonzero counter, or EM4 when all are zero.
func TestDecisionMatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewArbiter(nil)
	var model [NumLevels]int

	for i := 0; i < 5000; i++ {
		l := Level(rng.Intn(NumLevels))
		if rng.Intn(2) == 0 {
			a.Block(l)
			model[l]++
		} else {
			a.Unblock(l)
			if model[l] > 0 {
				model[l]--
			}
		}

		want := EM4
		for lv := 0; lv < NumLevels; lv++ {
			if model[lv] > 0 {
				want = Level(lv)
				break
			}
		}
		got := a.Decision()
		if got != want {
			t.Fatalf("step %d: decision %v, want %v (model %v)", i, got, want, model)
		}
		if got != EM4 && a.Count(got) == 0 {
			t.Fatalf("step %d: decision %v has zero count", i, got)
		}
	}
}

func TestEnterBestSleep(t *testing.T) {
	s := &recSleeper{}
	a := NewArbiter(s)

	a.Block(EM0)
	if got := a.EnterBestSleep(); got != EM0 {
		t.Fatalf("busy: entered %v", got)
	}
	if len(s.calls()) != 0 {
		t.Fatal("EM0 must not reach the sleeper")
	}
	a.Unblock(EM0)

	a.Block(EM3)
	a.Block(EM1)
	a.EnterBestSleep()
	a.Unblock(EM1)
	a.EnterBestSleep()
	a.Unblock(EM3)
	a.EnterBestSleep()

	want := []Level{EM1, EM3, EM4}
	got := s.calls()
	if len(got) != len(want) {
		t.Fatalf("sleeper calls %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sleeper calls %v, want %v", got, want)
		}
	}
	if e := a.Entered(); e[EM0] != 1 || e[EM1] != 1 || e[EM3] != 1 || e[EM4] != 1 {
		t.Fatalf("entered stats %v", e)
	}
}

func TestDeepestLevelCap(t *testing.T) {
	s := &recSleeper{}
	a := NewArbiter(s, WithDeepestLevel(EM3))
	if got := a.Decision(); got != EM4 {
		t.Fatalf("decision %v, want EM4 (cap must not alter the decision)", got)
	}
	if got := a.EnterBestSleep(); got != EM3 {
		t.Fatalf("entered %v, want EM3", got)
	}
}

func TestConcurrentBlockUnblockBalanced(t *testing.T) {
	a := NewArbiter(nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(l Level) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				a.Block(l)
				a.Unblock(l)
			}
		}(Level(g % NumLevels))
	}
	wg.Wait()
	if a.Counts() != [NumLevels]uint32{} {
		t.Fatalf("counters not balanced: %v", a.Counts())
	}
}

// fakeTimer fires from its own goroutine, like an interrupt.
type fakeTimer struct {
	armed chan time.Duration
}

func (f *fakeTimer) After(d time.Duration, fire func()) {
	f.armed <- d
	go func() {
		time.Sleep(d)
		fire()
	}()
}

// napSleeper stands in for a halted core: it just yields briefly.
type napSleeper struct {
	mu     sync.Mutex
	levels map[Level]int
}

func (n *napSleeper) Enter(l Level) {
	n.mu.Lock()
	n.levels[l]++
	n.mu.Unlock()
	time.Sleep(time.Millisecond)
}

func TestDelayBlocksLevelForItsDuration(t *testing.T) {
	s := &napSleeper{levels: map[Level]int{}}
	a := NewArbiter(s)
	a.Block(EM3) // standing block from another producer
	tm := &fakeTimer{armed: make(chan time.Duration, 1)}

	start := time.Now()
	a.Delay(tm, 20*time.Millisecond, EM1)
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("Delay returned before the timer fired")
	}
	if d := <-tm.armed; d != 20*time.Millisecond {
		t.Fatalf("timer armed with %v", d)
	}
	if a.Count(EM1) != 0 {
		t.Fatal("Delay leaked its EM1 block")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.levels[EM1] == 0 || s.levels[EM3] != 0 {
		t.Fatalf("expected sleeps at EM1 only, got %v", s.levels)
	}
}
