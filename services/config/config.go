package config

import (
	"context"
	"errors"
	"os"

	"emcore-go/bus"
	"emcore-go/errcode"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// Energy levels as plain integers so the file format stays flat.
const (
	em0 = iota
	em1
	em2
	em3
	em4
)

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

type Config struct {
	Device    string    `yaml:"device"`
	LogLevel  string    `yaml:"log_level"`
	Scheduler Scheduler `yaml:"scheduler"`
	Energy    Energy    `yaml:"energy"`
	Joystick  Joystick  `yaml:"joystick"`
	Tap       Tap       `yaml:"tap"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type Scheduler struct {
	PeriodMs    uint32 `yaml:"period_ms"`
	StepMs      uint32 `yaml:"step_ms"`
	InitialOnMs uint32 `yaml:"initial_on_ms"`
	ResetOnMs   uint32 `yaml:"reset_on_ms"`
	RefHz       uint32 `yaml:"ref_hz"` // 0: pick from counter level
	CounterMax  uint32 `yaml:"counter_max"`
}

// Energy holds the standing sleep blocks of each peripheral.
type Energy struct {
	Deepest      int  `yaml:"deepest"`
	Counter      int  `yaml:"counter"`
	ADC          int  `yaml:"adc"`
	Link         int  `yaml:"link"`
	Timer        int  `yaml:"timer"`
	LinkStanding bool `yaml:"link_standing"` // hold Link for the whole run
}

type Band struct {
	Dir string `yaml:"dir"`
	Lo  uint32 `yaml:"lo"`
	Hi  uint32 `yaml:"hi"`
}

type Joystick struct {
	ThresholdLow  uint32 `yaml:"threshold_low"`
	ThresholdHigh uint32 `yaml:"threshold_high"`
	Bands         []Band `yaml:"bands"`
}

type Tap struct {
	WindowMs uint32 `yaml:"window_ms"`
}

type Telemetry struct {
	QueueLen    int `yaml:"queue_len"`
	BusQueueLen int `yaml:"bus_queue_len"`
}

var directions = map[string]bool{
	"up": true, "down": true, "left": true, "right": true, "press": true, "idle": true,
}

// Default returns the board's stock tuning.
func Default() Config {
	return Config{
		Device:   "pico",
		LogLevel: "info",
		Scheduler: Scheduler{
			PeriodMs:    1750,
			StepMs:      500,
			InitialOnMs: 20,
			ResetOnMs:   20,
			CounterMax:  0xffff,
		},
		Energy: Energy{
			Deepest:      em3,
			Counter:      em3,
			ADC:          em3,
			Link:         em1,
			Timer:        em1,
			LinkStanding: true,
		},
		Joystick: Joystick{
			ThresholdLow:  0,
			ThresholdHigh: 3800,
			Bands: []Band{
				{"up", 3300, 3800},
				{"right", 2800, 3300},
				{"left", 2200, 2800},
				{"down", 1700, 2200},
				{"press", 0, 200},
				{"idle", 3800, 4096},
			},
		},
		Tap:       Tap{WindowMs: 280},
		Telemetry: Telemetry{QueueLen: 32, BusQueueLen: 16},
	}
}

// Parse decodes YAML over Default and normalises the result. Keys absent
// from the document keep their default values.
func Parse(raw []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, &errcode.E{C: errcode.InvalidConfig, Op: "config.parse", Err: err}
	}
	if err := c.Normalize(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses a YAML file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &errcode.E{C: errcode.InvalidConfig, Op: "config.load", Err: err}
	}
	return Parse(raw)
}

// Normalize clamps numeric fields into range and rejects what cannot be
// repaired.
func (c *Config) Normalize() error {
	d := Default()
	s := &c.Scheduler
	if s.PeriodMs == 0 {
		s.PeriodMs = d.Scheduler.PeriodMs
	}
	if s.StepMs == 0 {
		s.StepMs = d.Scheduler.StepMs
	}
	if s.CounterMax == 0 {
		s.CounterMax = d.Scheduler.CounterMax
	}
	s.InitialOnMs = min(s.InitialOnMs, s.PeriodMs)
	s.ResetOnMs = min(s.ResetOnMs, s.PeriodMs)

	e := &c.Energy
	for _, l := range []*int{&e.Deepest, &e.Counter, &e.ADC, &e.Link, &e.Timer} {
		*l = max(em0, min(*l, em4))
	}
	if s.RefHz == 0 {
		s.RefHz = RefHzFor(e.Counter)
	}

	if c.Tap.WindowMs == 0 {
		c.Tap.WindowMs = d.Tap.WindowMs
	}
	if c.Telemetry.QueueLen <= 0 {
		c.Telemetry.QueueLen = d.Telemetry.QueueLen
	}
	if c.Telemetry.BusQueueLen <= 0 {
		c.Telemetry.BusQueueLen = d.Telemetry.BusQueueLen
	}

	j := &c.Joystick
	if j.ThresholdHigh < j.ThresholdLow {
		j.ThresholdLow, j.ThresholdHigh = j.ThresholdHigh, j.ThresholdLow
	}
	if len(j.Bands) == 0 {
		j.Bands = d.Joystick.Bands
	}
	for _, b := range j.Bands {
		if !directions[b.Dir] {
			return &errcode.E{C: errcode.InvalidConfig, Op: "config.joystick", Msg: "unknown direction " + b.Dir}
		}
		if b.Hi <= b.Lo {
			return &errcode.E{C: errcode.InvalidConfig, Op: "config.joystick", Msg: "empty band " + b.Dir}
		}
	}
	return nil
}

// RefHzFor returns the counter reference clock available at an energy level:
// the 1 kHz ULFRCO in EM3, the 32768 Hz LFXO above it.
func RefHzFor(level int) uint32 {
	if level >= em3 {
		return 1000
	}
	return 32768
}

// -----------------------------------------------------------------------------
// Embedded configuration lookup
// -----------------------------------------------------------------------------

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Embedded returns the normalised built-in config for device.
func Embedded(device string) (Config, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return Config{}, &errcode.E{C: errcode.InvalidConfig, Op: "config.embedded", Msg: "no embedded config for device: " + device}
	}
	c, err := Parse(raw)
	if err != nil {
		return Config{}, err
	}
	if c.Device == "" {
		c.Device = device
	}
	return c, nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

// ConfigService publishes each section of the active config as a retained
// message under config/<section>.
type ConfigService struct {
	Name string
	cfg  *Config
}

// NewConfigService publishes cfg if non-nil, otherwise the embedded config of
// the device named in the start context.
func NewConfigService(cfg *Config) *ConfigService {
	return &ConfigService{Name: serviceName, cfg: cfg}
}

func (s *ConfigService) resolve(ctx context.Context) (Config, error) {
	if s.cfg != nil {
		return *s.cfg, nil
	}
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return Config{}, errors.New("missing device ID in context")
	}
	return Embedded(device)
}

func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	c, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	sections := []struct {
		key string
		val any
	}{
		{"scheduler", c.Scheduler},
		{"energy", c.Energy},
		{"joystick", c.Joystick},
		{"tap", c.Tap},
		{"telemetry", c.Telemetry},
	}
	for _, sec := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, sec.key), sec.val, true))
	}
	return nil
}

// Start publishes the config synchronously; retained messages reach later
// subscribers.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) error {
	return s.publishConfig(ctx, conn)
}
