//go:build rp2040 || rp2350

package critical

import "runtime/interrupt"

// State carries the interrupt mask that was active before Enter.
type State = interrupt.State

// Section masks interrupts for its duration. The zero value is ready to use.
type Section struct{}

func (*Section) Enter() State { return interrupt.Disable() }

func (*Section) Exit(st State) { interrupt.Restore(st) }
