package joystick

import "emcore-go/services/scheduler"

// Direction is the joystick position inferred from one ADC sample.
type Direction uint8

const (
	Unknown Direction = iota
	Idle
	Up
	Down
	Left
	Right
	Press
)

func (d Direction) String() string {
	switch d {
	case Idle:
		return "idle"
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Press:
		return "press"
	}
	return "unknown"
}

// ParseDirection is the inverse of Direction.String for the six banded
// directions.
func ParseDirection(s string) (Direction, bool) {
	for d := Idle; d <= Press; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return Unknown, false
}

// Band is an open interval (Lo, Hi) of raw 12-bit samples.
type Band struct {
	Dir    Direction
	Lo, Hi uint32
}

func (b Band) Contains(sample uint32) bool { return sample > b.Lo && sample < b.Hi }

// DefaultBands is the resistor ladder of the board's five-way joystick
// sampled against VDD.
var DefaultBands = []Band{
	{Up, 3300, 3800},
	{Right, 2800, 3300},
	{Left, 2200, 2800},
	{Down, 1700, 2200},
	{Press, 0, 200},
	{Idle, 3800, 4096},
}

// Classify returns the direction of the first band containing sample, or
// Unknown. Samples on a band edge belong to no band.
func Classify(bands []Band, sample uint32) Direction {
	for _, b := range bands {
		if b.Contains(sample) {
			return b.Dir
		}
	}
	return Unknown
}

// CommandFor maps a direction to the scheduler command it posts. Up and Down
// act on the motion sensor directly and post nothing.
func CommandFor(d Direction) (scheduler.Command, bool) {
	switch d {
	case Right:
		return scheduler.CmdIncrease, true
	case Left:
		return scheduler.CmdDecrease, true
	case Press:
		return scheduler.CmdReset, true
	case Up, Down:
		return scheduler.CmdNone, false
	}
	return scheduler.CmdNone, true
}

// Overlapping reports the first pair of bands whose open intervals share a
// sample, if any.
func Overlapping(bands []Band) (a, b Band, ok bool) {
	for i := range bands {
		for j := i + 1; j < len(bands); j++ {
			x, y := bands[i], bands[j]
			if max(x.Lo, y.Lo)+1 < min(x.Hi, y.Hi) {
				return x, y, true
			}
		}
	}
	return Band{}, Band{}, false
}
