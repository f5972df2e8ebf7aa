package tap

// Flags is one snapshot of the sensor's tap status.
type Flags struct {
	Single bool
	Double bool
	Raw    byte // undecoded status register, for diagnostics
}

type Gesture uint8

const (
	NoGesture Gesture = iota
	SingleTap
	DoubleTap
)

func (g Gesture) String() string {
	switch g {
	case SingleTap:
		return "single"
	case DoubleTap:
		return "double"
	}
	return "none"
}

// Classify decides a gesture from the snapshots taken at the start and the
// end of the window. A window must open on a single tap; a double-tap flag
// by the end of it upgrades the gesture.
func Classify(first, second Flags) Gesture {
	if !first.Single {
		return NoGesture
	}
	switch {
	case second.Double:
		return DoubleTap
	case !second.Single:
		return SingleTap
	}
	return NoGesture
}
