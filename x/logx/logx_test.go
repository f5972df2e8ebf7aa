package logx

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsAndTags(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelWarn).WithTag("sched")

	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warnf("busy %d", 3)
	l.Errorf("bad %s", "x")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("messages below level leaked: %q", out)
	}
	for _, want := range []string{"[sched] WARN: busy 3", "[sched] ERROR: bad x"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	l.Infof("no panic")
	if l.WithTag("x") != nil {
		t.Fatal("WithTag on nil logger should stay nil")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"none": LevelNone, "error": LevelError, "warn": LevelWarn,
		"info": LevelInfo, "debug": LevelDebug, "bogus": LevelInfo,
	} {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}
