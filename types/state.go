package types

// ------------------------
// Core run state (retained)
// ------------------------

type CoreState struct {
	Level  string `json:"level"`  // "starting", "running", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}

// ------------------------
// Energy arbiter diagnostics
// ------------------------

type SleepStats struct {
	Blocks  [5]uint32 `json:"blocks"`  // outstanding blocks per level EM0..EM4
	Entered [5]uint32 `json:"entered"` // sleep requests per level
	TS      int64     `json:"ts_ms"`
}
