// Package bma280 drives the tap engine of a Bosch BMA280 accelerometer over
// 4-wire SPI.
//
// Each register access is one two-byte frame. Reads send 0x80|addr and take
// the value from the second byte clocked back:
//
//	err := d.Enable()         // soft reset, clear latch, configure taps
//	st, err := d.ReadStatus() // INT_STATUS_0
//	err = d.ResetLatch()
//
// The chip-select line must be handled by the SPI implementation.
package bma280

import (
	"time"

	"emcore-go/errcode"

	"tinygo.org/x/drivers"
)

// ResetSettle is how long the part needs after a soft reset.
const ResetSettle = 2 * time.Millisecond

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Delay blocks for d. Battery targets pass a wait that sleeps through the
	// energy arbiter. Default time.Sleep.
	Delay func(d time.Duration)
}

// Device wraps an SPI connection to a BMA280.
type Device struct {
	bus drivers.SPI
	cfg Config

	w, r    [2]byte
	enabled bool
}

// New creates a Device on an already configured SPI bus. It does not touch
// the part.
func New(bus drivers.SPI) *Device {
	return &Device{bus: bus, cfg: Config{Delay: time.Sleep}}
}

func (d *Device) Configure(cfgs ...Config) {
	if len(cfgs) == 0 {
		return
	}
	c := cfgs[0]
	if c.Delay == nil {
		c.Delay = time.Sleep
	}
	d.cfg = c
}

// Read returns the value of register addr.
func (d *Device) Read(addr byte) (byte, error) {
	d.w = [2]byte{readBit | addr, 0}
	if err := d.bus.Tx(d.w[:], d.r[:]); err != nil {
		return 0, errcode.Wrap(errcode.BusError, "bma280.read", err)
	}
	return d.r[1], nil
}

// Write stores v into register addr.
func (d *Device) Write(addr, v byte) error {
	d.w = [2]byte{addr &^ readBit, v}
	if err := d.bus.Tx(d.w[:], d.r[:]); err != nil {
		return errcode.Wrap(errcode.BusError, "bma280.write", err)
	}
	return nil
}

func (d *Device) ReadStatus() (Status, error) {
	v, err := d.Read(RegIntStatus0)
	return Status(v), err
}

// ResetLatch clears latched interrupts and keeps latch mode selected. It is
// safe to call when nothing is latched.
func (d *Device) ResetLatch() error {
	return d.Write(RegIntRstLatch, latchResetInt|latchMode)
}

// Enable soft-resets the part, clears stale interrupts and programs single and
// double tap detection routed to INT1.
func (d *Device) Enable() error {
	if err := d.Write(RegSoftReset, softResetCmd); err != nil {
		return err
	}
	d.cfg.Delay(ResetSettle)

	if _, err := d.Read(RegIntRstLatch); err != nil {
		return err
	}
	if err := d.ResetLatch(); err != nil {
		return err
	}
	if _, err := d.Read(RegIntRstLatch); err != nil {
		return err
	}
	if err := d.configureTaps(); err != nil {
		return err
	}
	d.enabled = true
	return nil
}

func (d *Device) configureTaps() error {
	seq := [...]struct{ reg, val byte }{
		{RegPMURange, pmuRangeSetting},
		{RegPMUBW, pmuBWSetting},
		{RegInt8, int8TapTiming},
		{RegInt9, int9TapSampTh},
		{RegIntMap0, bitSingleTap | bitDoubleTap},
		{RegIntEn0, bitSingleTap | bitDoubleTap},
		{RegIntRstLatch, latchMode},
	}
	for _, s := range seq {
		if err := d.Write(s.reg, s.val); err != nil {
			return err
		}
	}
	return nil
}

// Disable puts the part into deep suspend. Register contents are lost; the
// next Enable reprograms them.
func (d *Device) Disable() error {
	if _, err := d.Read(RegPMULPW); err != nil {
		return err
	}
	if err := d.Write(RegPMULPW, pmuLPWDeepSuspend); err != nil {
		return err
	}
	d.enabled = false
	return nil
}

// Init verifies the link by running a full bring-up and leaves the part in
// deep suspend.
func (d *Device) Init() error {
	if err := d.Enable(); err != nil {
		return err
	}
	return d.Disable()
}

// Enabled reports whether the last Enable succeeded and no Disable followed.
func (d *Device) Enabled() bool { return d.enabled }
