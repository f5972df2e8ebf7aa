package bma280

// Register map (subset used by the tap configuration).
const (
	RegIntStatus0  = 0x09
	RegPMURange    = 0x0f
	RegPMUBW       = 0x10
	RegPMULPW      = 0x11
	RegSoftReset   = 0x14
	RegIntEn0      = 0x16
	RegIntMap0     = 0x19
	RegIntRstLatch = 0x21
	RegInt8        = 0x2a
	RegInt9        = 0x2b
)

const (
	readBit = 0x80

	softResetCmd = 0xb6

	pmuLPWDeepSuspend = 1 << 5

	// INT_STATUS_0 / INT_EN_0 / INT_MAP_0 share the tap bit positions.
	bitSingleTap = 1 << 5
	bitDoubleTap = 1 << 4

	latchResetInt = 1 << 7
	latchMode     = 0b0011

	pmuRangeSetting = 0b1010
	pmuBWSetting    = 0b01100 // 125 Hz

	// quiet 30 ms, shock 50 ms, duration 200 ms
	int8TapTiming = 0b011
	// two samples, lowest threshold
	int9TapSampTh = (0b01 << 6) | 0b00001
)

// Status is a raw INT_STATUS_0 value.
type Status byte

func (s Status) SingleTap() bool { return s&bitSingleTap != 0 }
func (s Status) DoubleTap() bool { return s&bitDoubleTap != 0 }
