package sim

import (
	"sync/atomic"
	"time"
)

// OneShot is a general-purpose timer used for bounded waits.
type OneShot struct {
	env   Env
	armed atomic.Uint32
}

func NewOneShot(env Env) *OneShot { return &OneShot{env: env} }

// After runs fire in interrupt context once d has elapsed.
func (o *OneShot) After(d time.Duration, fire func()) {
	o.armed.Add(1)
	time.AfterFunc(o.env.scale(d), func() { o.env.IRQ.Interrupt(fire) })
}

// Armed returns how many waits have been started.
func (o *OneShot) Armed() uint32 { return o.armed.Load() }
