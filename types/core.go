package types

// ------------------------
// Duty cycle (retained)
// ------------------------

type DutyValue struct {
	OnTimeMs     uint32 `json:"on_time_ms"`
	PeriodMs     uint32 `json:"period_ms"`
	PeriodTicks  uint32 `json:"period_ticks"`
	OnTimeTicks  uint32 `json:"on_time_ticks"`
	DivisorShift uint8  `json:"divisor_shift"`
	TS           int64  `json:"ts_ms"`
}

// ------------------------
// Joystick input
// ------------------------

type InputEvent struct {
	Sample    uint32 `json:"sample"`
	Direction string `json:"direction"`         // "up","down","left","right","press","idle","unknown"
	Command   string `json:"command,omitempty"` // scheduler command posted, if any
	TS        int64  `json:"ts_ms"`
}

// ------------------------
// Tap gestures
// ------------------------

type TapEvent struct {
	Gesture string `json:"gesture"` // "single", "double"
	First   byte   `json:"first"`   // raw status snapshots
	Second  byte   `json:"second"`
	TS      int64  `json:"ts_ms"`
}
