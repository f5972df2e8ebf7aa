package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Joystick samples used by the script verbs, one per band.
var samples = map[string]uint32{
	"up":    3500,
	"right": 3000,
	"left":  2500,
	"down":  2000,
	"press": 100,
	"idle":  4000,
}

type stepKind int

const (
	stepJoy stepKind = iota
	stepHold
	stepTap
	stepWait
	stepStats
)

type step struct {
	kind   stepKind
	sample uint32
	count  int
	dur    time.Duration
	double bool
	text   string
}

// parseScript reads ';' or newline separated commands:
//
//	right [n] | left [n] | up | down | press | idle | raw <sample>
//	hold <dir> <duration>
//	tap single | tap double [gap]
//	wait <duration>
//	stats
func parseScript(src string) ([]step, error) {
	var out []step
	for _, line := range strings.FieldsFunc(src, func(r rune) bool { return r == ';' || r == '\n' }) {
		words, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("script %q: %w", line, err)
		}
		if len(words) == 0 || strings.HasPrefix(words[0], "#") {
			continue
		}
		st, err := parseStep(words)
		if err != nil {
			return nil, fmt.Errorf("script %q: %w", line, err)
		}
		st.text = strings.Join(words, " ")
		out = append(out, st)
	}
	return out, nil
}

func parseStep(w []string) (step, error) {
	verb, args := w[0], w[1:]
	if s, ok := samples[verb]; ok {
		n := 1
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				return step{}, fmt.Errorf("bad count %q", args[0])
			}
			n = v
		}
		return step{kind: stepJoy, sample: s, count: n}, nil
	}

	switch verb {
	case "raw":
		if len(args) != 1 {
			return step{}, fmt.Errorf("raw needs a sample")
		}
		v, err := parseUint(args[0])
		if err != nil {
			return step{}, err
		}
		return step{kind: stepJoy, sample: v, count: 1}, nil
	case "hold":
		if len(args) != 2 {
			return step{}, fmt.Errorf("hold needs a direction and a duration")
		}
		s, ok := samples[args[0]]
		if !ok {
			return step{}, fmt.Errorf("unknown direction %q", args[0])
		}
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return step{}, err
		}
		return step{kind: stepHold, sample: s, dur: d}, nil
	case "tap":
		if len(args) == 0 {
			return step{}, fmt.Errorf("tap needs single or double")
		}
		switch args[0] {
		case "single":
			return step{kind: stepTap}, nil
		case "double":
			gap := 100 * time.Millisecond
			if len(args) > 1 {
				d, err := time.ParseDuration(args[1])
				if err != nil {
					return step{}, err
				}
				gap = d
			}
			return step{kind: stepTap, double: true, dur: gap}, nil
		}
		return step{}, fmt.Errorf("unknown tap %q", args[0])
	case "wait":
		if len(args) != 1 {
			return step{}, fmt.Errorf("wait needs a duration")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return step{}, err
		}
		return step{kind: stepWait, dur: d}, nil
	case "stats":
		return step{kind: stepStats}, nil
	}
	return step{}, fmt.Errorf("unknown command %q", verb)
}

func parseUint(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return uint32(v), nil
}
