package energy

import (
	"sync/atomic"
	"time"
)

// Timer is a one-shot hardware timer. fire runs in interrupt context once d
// has elapsed, and must wake a sleeping processor.
type Timer interface {
	After(d time.Duration, fire func())
}

// Delay blocks the caller for d without spinning: it holds level for the
// duration of the wait (the timer's clock must keep running), arms t, and
// sleeps until the expiry interrupt has been observed. There is no
// cancellation; the wait always runs to completion.
func (a *Arbiter) Delay(t Timer, d time.Duration, level Level) {
	var done atomic.Bool

	a.Block(level)
	defer a.Unblock(level)

	t.After(d, func() { done.Store(true) })
	for !done.Load() {
		a.EnterBestSleep()
	}
}
