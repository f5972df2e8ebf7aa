package scheduler

// DutyCycle is the counter programming derived from an on-time.
type DutyCycle struct {
	OnTimeMs     uint32
	PeriodMs     uint32
	PeriodTicks  uint32 // compare 0: counter top
	OnTimeTicks  uint32 // compare 1: waveform goes high
	DivisorShift uint8  // prescaler, clock divided by 1<<DivisorShift
}

// maxShift bounds the prescaler; a 4-bit field divides by at most 2^15.
const maxShift = 15

// ComputeDuty converts period and on-time to ticks of a refHz clock and halves
// both until the period fits counterMax. onMs is clamped to periodMs.
func ComputeDuty(onMs, periodMs, refHz, counterMax uint32) DutyCycle {
	if onMs > periodMs {
		onMs = periodMs
	}
	period := uint64(refHz) * uint64(periodMs) / 1000
	on := uint64(refHz) * uint64(onMs) / 1000

	var shift uint8
	for period > uint64(counterMax) && shift < maxShift {
		period /= 2
		on /= 2
		shift++
	}
	// A counterMax smaller than 2^-15 of the period cannot be met by the
	// prescaler alone; saturate rather than program an overflowing top.
	if period > uint64(counterMax) {
		period = uint64(counterMax)
	}
	if on > period {
		on = period
	}
	return DutyCycle{
		OnTimeMs:     onMs,
		PeriodMs:     periodMs,
		PeriodTicks:  uint32(period),
		OnTimeTicks:  uint32(on),
		DivisorShift: shift,
	}
}
