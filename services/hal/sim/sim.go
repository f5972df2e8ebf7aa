// Package sim provides goroutine-backed stand-ins for the board's
// peripherals. Every event is delivered through an Interrupter so that the
// core sees it exactly as it would see a hardware interrupt.
package sim

import "time"

// Interrupter runs a handler in interrupt context. cpu.CPU implements it.
type Interrupter interface {
	Interrupt(h func())
}

// Env is shared by all simulated peripherals of one board.
type Env struct {
	IRQ Interrupter
	// Speedup divides every simulated duration; 0 and 1 mean real time.
	Speedup uint32
}

func (e Env) scale(d time.Duration) time.Duration {
	if e.Speedup > 1 {
		return d / time.Duration(e.Speedup)
	}
	return d
}

// resetTimer safely stops, drains, and resets a timer.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}
