package types

// ------------------------
// Indicators
// ------------------------

type LEDValue struct {
	Index int  `json:"index"`
	On    bool `json:"on"`
}

// ------------------------
// Motion sensor power
// ------------------------

type SensorState struct {
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"` // machine-readable short code
	TS      int64  `json:"ts_ms"`
}
