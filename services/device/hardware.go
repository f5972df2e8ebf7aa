package device

import (
	"sync"

	"emcore-go/drivers/bma280"
	"emcore-go/errcode"
	"emcore-go/services/energy"
	"emcore-go/services/scheduler"
	"emcore-go/services/tap"
	"emcore-go/services/telemetry"
	"emcore-go/types"
	"emcore-go/x/logx"
	"emcore-go/x/timex"

	"tinygo.org/x/drivers"
)

// ADC raises onThreshold, in interrupt context, for conversions inside its
// compare window.
type ADC interface {
	Start(onThreshold func(sample uint32)) error
}

// EdgeLine raises h, in interrupt context, on each rising edge.
type EdgeLine interface {
	OnRising(h func()) error
}

// Counter is the period counter together with its interrupt lines.
type Counter interface {
	scheduler.Counter
	Attach(underflow, compare func())
}

type Indicator interface {
	Set(on bool)
}

// Hardware lists the peripherals the core is assembled from.
type Hardware struct {
	Sleeper energy.Sleeper
	Counter Counter
	Timer   energy.Timer // one-shot, for bounded waits
	ADC     ADC
	TapLine EdgeLine
	SPI     drivers.SPI
	LED0    Indicator // duty-cycle waveform
	LED1    Indicator // tap status
}

// -----------------------------------------------------------------------------
// Link guard
// -----------------------------------------------------------------------------

// linkSPI holds the link's energy level for the length of every transaction.
type linkSPI struct {
	bus   drivers.SPI
	arb   *energy.Arbiter
	level energy.Level
}

func (l *linkSPI) Tx(w, r []byte) error {
	l.arb.Block(l.level)
	defer l.arb.Unblock(l.level)
	return l.bus.Tx(w, r)
}

func (l *linkSPI) Transfer(b byte) (byte, error) {
	l.arb.Block(l.level)
	defer l.arb.Unblock(l.level)
	return l.bus.Transfer(b)
}

// -----------------------------------------------------------------------------
// Motion sensor port
// -----------------------------------------------------------------------------

// sensorPort serialises whole register sequences; Enable runs from the
// joystick interrupt while the main loop may be reading tap status.
type sensorPort struct {
	mu   sync.Mutex
	dev  *bma280.Device
	emit telemetry.Emitter
	log  *logx.Logger
}

func (s *sensorPort) Enable() error {
	s.mu.Lock()
	err := s.dev.Enable()
	s.mu.Unlock()
	s.report(true, err)
	return err
}

func (s *sensorPort) Disable() error {
	s.mu.Lock()
	err := s.dev.Disable()
	s.mu.Unlock()
	s.report(false, err)
	return err
}

func (s *sensorPort) Init() error {
	s.mu.Lock()
	err := s.dev.Init()
	s.mu.Unlock()
	s.report(false, err)
	return err
}

func (s *sensorPort) TapFlags() (tap.Flags, error) {
	s.mu.Lock()
	st, err := s.dev.ReadStatus()
	s.mu.Unlock()
	if err != nil {
		return tap.Flags{}, err
	}
	return tap.Flags{Single: st.SingleTap(), Double: st.DoubleTap(), Raw: byte(st)}, nil
}

func (s *sensorPort) ResetLatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.ResetLatch()
}

func (s *sensorPort) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Enabled()
}

func (s *sensorPort) report(enabled bool, err error) {
	v := types.SensorState{Enabled: enabled, TS: timex.NowMs()}
	if err != nil {
		v.Enabled = s.Enabled()
		v.Error = string(errcode.Of(err))
		s.log.Warnf("sensor %s: %v", onOff(enabled), err)
	}
	s.emit.Emit(telemetry.Event{Topic: telemetry.TopicSensor, Payload: v, Retained: true})
}

// -----------------------------------------------------------------------------
// Indicators
// -----------------------------------------------------------------------------

// reportingLED mirrors every change onto core/led/<index>.
type reportingLED struct {
	out   Indicator
	index int
	emit  telemetry.Emitter
}

func (l *reportingLED) Set(on bool) {
	l.out.Set(on)
	l.emit.Emit(telemetry.Event{
		Topic:    telemetry.TopicLED(l.index),
		Payload:  types.LEDValue{Index: l.index, On: on},
		Retained: true,
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
