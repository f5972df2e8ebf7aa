//go:build linux

// Package linuxio drives the indicator LEDs and the motion sensor's INT1 line
// through the Linux GPIO character device.
package linuxio

import (
	"fmt"
	"sync"

	"emcore-go/x/logx"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "emcore"

// Interrupter runs a handler in interrupt context. cpu.CPU implements it.
type Interrupter interface {
	Interrupt(h func())
}

// LED is an output line.
type LED struct {
	line *gpiocdev.Line
	log  *logx.Logger

	mu sync.Mutex
	on bool
}

// OpenLED requests offset on chip (e.g. "gpiochip0") as an output, initially
// off.
func OpenLED(chip string, offset int, log *logx.Logger) (*LED, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chip, err)
	}
	defer c.Close()

	line, err := c.RequestLine(offset,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("request LED line %d: %w", offset, err)
	}
	return &LED{line: line, log: log}, nil
}

func (l *LED) Set(on bool) {
	v := 0
	if on {
		v = 1
	}
	l.mu.Lock()
	l.on = on
	l.mu.Unlock()
	if err := l.line.SetValue(v); err != nil {
		l.log.Warnf("led %d: %v", l.line.Offset(), err)
	}
}

func (l *LED) Toggle() {
	l.mu.Lock()
	on := !l.on
	l.mu.Unlock()
	l.Set(on)
}

// Close drives the LED off and releases the line.
func (l *LED) Close() error {
	_ = l.line.SetValue(0)
	return l.line.Close()
}

// EdgeLine watches an input for rising edges. The line is requested when a
// handler is attached.
type EdgeLine struct {
	chip   string
	offset int
	irq    Interrupter

	mu   sync.Mutex
	line *gpiocdev.Line
}

func NewEdgeLine(chip string, offset int, irq Interrupter) *EdgeLine {
	return &EdgeLine{chip: chip, offset: offset, irq: irq}
}

func (e *EdgeLine) OnRising(h func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.line != nil {
		return fmt.Errorf("edge line %d already watched", e.offset)
	}
	c, err := gpiocdev.NewChip(e.chip)
	if err != nil {
		return fmt.Errorf("open gpio chip %s: %w", e.chip, err)
	}
	defer c.Close()

	line, err := c.RequestLine(e.offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { e.irq.Interrupt(h) }))
	if err != nil {
		return fmt.Errorf("request edge line %d: %w", e.offset, err)
	}
	e.line = line
	return nil
}

// Close reconfigures the line as a pulled-down input and releases it.
func (e *EdgeLine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.line == nil {
		return nil
	}
	_ = e.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown)
	err := e.line.Close()
	e.line = nil
	return err
}
