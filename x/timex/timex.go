package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms converts a millisecond count to a Duration.
func Ms(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }

// TickPeriod returns the duration of one counter tick for a reference clock of
// refHz divided by 2^shift. refHz==0 is coerced to 1 to avoid division by zero.
func TickPeriod(refHz uint32, shift uint8) time.Duration {
	if refHz == 0 {
		refHz = 1
	}
	return time.Duration((uint64(time.Second) << shift) / uint64(refHz))
}
