package scheduler

// Command is a user request accumulated between period boundaries.
// The numeric order is the order in which a drain applies them.
type Command uint8

const (
	CmdNone Command = iota
	CmdIncrease
	CmdDecrease
	CmdReset

	NumCommands = int(CmdReset) + 1
)

func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdIncrease:
		return "increase"
	case CmdDecrease:
		return "decrease"
	case CmdReset:
		return "reset"
	}
	return "unknown"
}

// Tally holds pending occurrence counts, indexed by Command.
type Tally [NumCommands]uint32

// Empty reports whether no command is pending.
func (t Tally) Empty() bool {
	for _, n := range t {
		if n != 0 {
			return false
		}
	}
	return true
}
