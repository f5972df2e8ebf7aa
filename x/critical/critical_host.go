//go:build !(rp2040 || rp2350)

package critical

import "sync"

// State is the token returned by Enter and handed back to Exit.
type State struct{}

// Section serialises interrupt-context goroutines against the main loop.
// The zero value is ready to use.
type Section struct {
	mu sync.Mutex
}

func (s *Section) Enter() State {
	s.mu.Lock()
	return State{}
}

func (s *Section) Exit(State) { s.mu.Unlock() }
