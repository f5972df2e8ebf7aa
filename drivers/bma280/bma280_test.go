package bma280

import (
	"errors"
	"testing"
	"time"

	"emcore-go/errcode"
)

// regSPI models the part's register file behind 2-byte frames.
type regSPI struct {
	regs   [64]byte
	frames [][2]byte
	err    error
}

func (s *regSPI) Tx(w, r []byte) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, [2]byte{w[0], w[1]})
	addr := w[0] &^ readBit
	if w[0]&readBit != 0 {
		if len(r) > 1 {
			r[1] = s.regs[addr]
		}
		return nil
	}
	s.regs[addr] = w[1]
	return nil
}

func (s *regSPI) Transfer(b byte) (byte, error) { return 0, nil }

func (s *regSPI) writes() [][2]byte {
	var out [][2]byte
	for _, f := range s.frames {
		if f[0]&readBit == 0 {
			out = append(out, f)
		}
	}
	return out
}

func TestReadFrame(t *testing.T) {
	bus := &regSPI{}
	bus.regs[RegIntStatus0] = 0x20
	d := New(bus)

	st, err := d.ReadStatus()
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if !st.SingleTap() || st.DoubleTap() {
		t.Fatalf("status 0x%02x decoded wrong", byte(st))
	}
	if bus.frames[0] != [2]byte{0x89, 0x00} {
		t.Fatalf("read frame = % x, want 89 00", bus.frames[0])
	}
}

func TestEnableSequence(t *testing.T) {
	bus := &regSPI{}
	d := New(bus)
	var slept []time.Duration
	d.Configure(Config{Delay: func(dd time.Duration) { slept = append(slept, dd) }})

	if err := d.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if len(slept) != 1 || slept[0] != ResetSettle {
		t.Fatalf("delays %v, want one %v", slept, ResetSettle)
	}

	want := [][2]byte{
		{RegSoftReset, 0xb6},
		{RegIntRstLatch, 0x83},
		{RegPMURange, 0x0a},
		{RegPMUBW, 0x0c},
		{RegInt8, 0x03},
		{RegInt9, 0x41},
		{RegIntMap0, 0x30},
		{RegIntEn0, 0x30},
		{RegIntRstLatch, 0x03},
	}
	got := bus.writes()
	if len(got) != len(want) {
		t.Fatalf("writes % x, want % x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("write %d = % x, want % x", i, got[i], want[i])
		}
	}
	if !d.Enabled() {
		t.Fatal("Enabled() false after Enable")
	}
}

func TestInitLeavesDeepSuspend(t *testing.T) {
	bus := &regSPI{}
	d := New(bus)
	d.Configure(Config{Delay: func(time.Duration) {}})
	if err := d.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if bus.regs[RegPMULPW] != 1<<5 {
		t.Fatalf("PMU_LPW = 0x%02x, want deep suspend", bus.regs[RegPMULPW])
	}
	if d.Enabled() {
		t.Fatal("Enabled() true after Init")
	}
}

func TestResetLatchIdempotent(t *testing.T) {
	bus := &regSPI{}
	d := New(bus)
	for i := 0; i < 3; i++ {
		if err := d.ResetLatch(); err != nil {
			t.Fatalf("ResetLatch: %v", err)
		}
	}
	if bus.regs[RegIntRstLatch] != 0x83 {
		t.Fatalf("INT_RST_LATCH = 0x%02x", bus.regs[RegIntRstLatch])
	}
}

func TestBusErrorWrapped(t *testing.T) {
	cause := errors.New("no clock")
	d := New(&regSPI{err: cause})
	_, err := d.Read(RegIntStatus0)
	if errcode.Of(err) != errcode.BusError {
		t.Fatalf("code = %q, want bus_error", errcode.Of(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
	if err := d.Enable(); errcode.Of(err) != errcode.BusError {
		t.Fatalf("Enable err = %v", err)
	}
	if d.Enabled() {
		t.Fatal("Enabled() true after failed Enable")
	}
}
