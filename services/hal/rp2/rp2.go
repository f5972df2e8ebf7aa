//go:build rp2040 || rp2350

// Package rp2 binds the core to a Raspberry Pi Pico: GPIO LEDs, the INT1 pin
// interrupt, SPI0 with a software chip select and a polled ADC standing in
// for a compare-window converter.
package rp2

import (
	"machine"
	"time"

	"emcore-go/services/energy"

	"tinygo.org/x/drivers"
)

// Board pin plan.
const (
	PinLED0    = machine.LED // GP25, on-board
	PinLED1    = machine.GP15
	PinTapINT1 = machine.GP14
	PinSPISCK  = machine.GP18
	PinSPISDO  = machine.GP19
	PinSPISDI  = machine.GP16
	PinSPICS   = machine.GP17
	PinJoyADC  = machine.ADC0 // GP26
)

// SPIFrequency matches the sensor's documented 4-wire maximum with margin.
const SPIFrequency = 100 * machine.KHz

// -----------------------------------------------------------------------------
// Sleep
// -----------------------------------------------------------------------------

// Sleeper parks the main goroutine. The scheduler idles the core (WFE) while
// every goroutine is blocked; deeper levels just nap longer between checks.
type Sleeper struct{}

var naps = [energy.NumLevels]time.Duration{
	energy.EM1: 500 * time.Microsecond,
	energy.EM2: 2 * time.Millisecond,
	energy.EM3: 5 * time.Millisecond,
	energy.EM4: 10 * time.Millisecond,
}

func (Sleeper) Enter(l energy.Level) {
	if int(l) < len(naps) && naps[l] > 0 {
		time.Sleep(naps[l])
	}
}

// Direct runs handlers in place. Timer and poller handlers already execute
// on their own goroutine; sleepers re-check state after every nap.
type Direct struct{}

func (Direct) Interrupt(h func()) {
	if h != nil {
		h()
	}
}

// -----------------------------------------------------------------------------
// GPIO
// -----------------------------------------------------------------------------

type LED struct{ p machine.Pin }

func NewLED(p machine.Pin) *LED {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return &LED{p: p}
}

func (l *LED) Set(on bool) { l.p.Set(on) }

func (l *LED) Toggle() {
	if l.p.Get() {
		l.p.Low()
	} else {
		l.p.High()
	}
}

// EdgeLine is a pulled-down input with a rising-edge pin interrupt.
type EdgeLine struct{ p machine.Pin }

func NewEdgeLine(p machine.Pin) *EdgeLine {
	p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return &EdgeLine{p: p}
}

func (e *EdgeLine) OnRising(h func()) error {
	return e.p.SetInterrupt(machine.PinRising, func(machine.Pin) { h() })
}

// -----------------------------------------------------------------------------
// SPI
// -----------------------------------------------------------------------------

var _ drivers.SPI = (*csSPI)(nil)

// csSPI frames every Tx with the chip-select line.
type csSPI struct {
	bus *machine.SPI
	cs  machine.Pin
}

// NewSPI configures SPI0 in mode 3 for the motion sensor.
func NewSPI() (drivers.SPI, error) {
	cs := PinSPICS
	cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cs.High()
	bus := machine.SPI0
	if err := bus.Configure(machine.SPIConfig{
		Frequency: SPIFrequency,
		SCK:       PinSPISCK,
		SDO:       PinSPISDO,
		SDI:       PinSPISDI,
		Mode:      3,
	}); err != nil {
		return nil, err
	}
	return &csSPI{bus: bus, cs: cs}, nil
}

func (s *csSPI) Tx(w, r []byte) error {
	s.cs.Low()
	err := s.bus.Tx(w, r)
	s.cs.High()
	return err
}

func (s *csSPI) Transfer(b byte) (byte, error) { return s.bus.Transfer(b) }

// -----------------------------------------------------------------------------
// ADC
// -----------------------------------------------------------------------------

// ADC polls the joystick ladder and reports conversions inside [Low, High).
type ADC struct {
	adc       machine.ADC
	low, high uint32
	interval  time.Duration
}

func NewADC(low, high uint32) *ADC {
	machine.InitADC()
	a := machine.ADC{Pin: PinJoyADC}
	a.Configure(machine.ADCConfig{})
	return &ADC{adc: a, low: low, high: high, interval: 5 * time.Millisecond}
}

func (a *ADC) Start(onThreshold func(sample uint32)) error {
	go func() {
		for {
			// machine.ADC returns a left-aligned 16-bit value.
			s := uint32(a.adc.Get() >> 4)
			if s >= a.low && s < a.high {
				onThreshold(s)
			}
			time.Sleep(a.interval)
		}
	}()
	return nil
}
