// config/config_test.go
package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"emcore-go/bus"
	"emcore-go/errcode"
)

func TestDefaultIsNormal(t *testing.T) {
	c := Default()
	if err := c.Normalize(); err != nil {
		t.Fatalf("Normalize(Default()): %v", err)
	}
	if c.Scheduler.RefHz != 1000 {
		t.Fatalf("ref Hz at EM3 = %d, want 1000", c.Scheduler.RefHz)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
scheduler:
  step_ms: 250
  initial_on_ms: 9999
energy:
  counter: 2
  deepest: 7
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Scheduler.StepMs != 250 {
		t.Fatalf("step = %d", c.Scheduler.StepMs)
	}
	if c.Scheduler.PeriodMs != 1750 {
		t.Fatalf("period default lost: %d", c.Scheduler.PeriodMs)
	}
	if c.Scheduler.InitialOnMs != 1750 {
		t.Fatalf("initial on-time not clamped: %d", c.Scheduler.InitialOnMs)
	}
	if c.Scheduler.RefHz != 32768 {
		t.Fatalf("ref Hz at EM2 = %d, want 32768", c.Scheduler.RefHz)
	}
	if c.Energy.Deepest != 4 {
		t.Fatalf("deepest not clamped: %d", c.Energy.Deepest)
	}
	if len(c.Joystick.Bands) != 6 {
		t.Fatalf("default bands lost: %v", c.Joystick.Bands)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"syntax":    "scheduler: [",
		"direction": "joystick:\n  bands:\n    - {dir: sideways, lo: 1, hi: 9}\n",
		"empty":     "joystick:\n  bands:\n    - {dir: up, lo: 9, hi: 9}\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); errcode.Of(err) != errcode.InvalidConfig {
			t.Fatalf("%s: err = %v, want invalid_config", name, err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.yaml")
	if err := os.WriteFile(path, []byte("tap:\n  window_ms: 300\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Tap.WindowMs != 300 {
		t.Fatalf("window = %d", c.Tap.WindowMs)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("missing file err = %v", err)
	}
}

func TestEmbeddedConfigs(t *testing.T) {
	for _, dev := range []string{"pico", "sim"} {
		c, err := Embedded(dev)
		if err != nil {
			t.Fatalf("Embedded(%q): %v", dev, err)
		}
		if c.Device != dev {
			t.Fatalf("device = %q, want %q", c.Device, dev)
		}
	}
	if _, err := Embedded("toaster"); err == nil {
		t.Fatal("expected error for unknown device")
	}
}

func TestConfig_PublishSectionsRetained(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService(nil)

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "pico")
	if err := svc.Start(ctx, conn); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Subscribe afterwards; retained messages should arrive immediately.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 5 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if len(m.Topic) != 2 || m.Topic[0] != configPrefix {
				t.Fatalf("unexpected topic: %v", m.Topic)
			}
			got[m.Topic[1]] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 retained sections, got %d (%v)", len(got), got)
	}
	s, ok := got["scheduler"].(Scheduler)
	if !ok || s.PeriodMs != 1750 {
		t.Fatalf("scheduler section = %#v", got["scheduler"])
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService(nil)

	// No device ID in context
	if err := svc.publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing device ID, got nil")
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService(nil)

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "unknown-device")
	if err := svc.publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for missing embedded config, got nil")
	}
}
