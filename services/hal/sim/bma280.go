package sim

import (
	"sync"
	"time"

	"emcore-go/drivers/bma280"

	"tinygo.org/x/drivers"
)

var _ drivers.SPI = (*BMA280)(nil)

// LatchHold is how long the model keeps a tap flag set in INT_STATUS_0
// before its temporary latch expires.
const LatchHold = 250 * time.Millisecond

const (
	bitSingle = 1 << 5
	bitDouble = 1 << 4
)

// BMA280 models the accelerometer's register file and tap engine behind a
// two-byte SPI frame. Tap flags are raised by SingleTap and DoubleTap and
// pulse the INT1 line when mapped.
type BMA280 struct {
	env  Env
	int1 *EdgeLine
	now  func() time.Time

	mu        sync.Mutex
	regs      [64]byte
	suspended bool
	status    byte
	statusAt  time.Time
	half      []byte // Transfer reassembly
	frames    uint32
}

func NewBMA280(env Env, int1 *EdgeLine) *BMA280 {
	return &BMA280{env: env, int1: int1, now: time.Now}
}

// Tx exchanges whole frames: for each pair (w[i], w[i+1]) the register value
// read, if any, is returned in r[i+1].
func (b *BMA280) Tx(w, r []byte) error {
	for i := 0; i+1 < len(w); i += 2 {
		v := b.exchange(w[i], w[i+1])
		if i+1 < len(r) {
			r[i], r[i+1] = 0, v
		}
	}
	return nil
}

// Transfer clocks a single byte; frames complete on every second byte.
func (b *BMA280) Transfer(c byte) (byte, error) {
	b.mu.Lock()
	b.half = append(b.half, c)
	if len(b.half) < 2 {
		b.mu.Unlock()
		return 0, nil
	}
	a0, a1 := b.half[0], b.half[1]
	b.half = b.half[:0]
	b.mu.Unlock()
	return b.exchange(a0, a1), nil
}

func (b *BMA280) exchange(a0, a1 byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames++
	addr := a0 &^ 0x80
	if int(addr) >= len(b.regs) {
		return 0
	}
	if a0&0x80 != 0 {
		if addr == bma280.RegIntStatus0 {
			return b.statusLocked()
		}
		return b.regs[addr]
	}

	switch addr {
	case bma280.RegSoftReset:
		if a1 == 0xb6 {
			b.regs = [64]byte{}
			b.suspended = false
			b.status = 0
		}
	case bma280.RegPMULPW:
		b.regs[addr] = a1
		b.suspended = a1&(1<<5) != 0
	case bma280.RegIntRstLatch:
		if a1&0x80 != 0 {
			b.status = 0
		}
		b.regs[addr] = a1 &^ 0x80
	default:
		b.regs[addr] = a1
	}
	return 0
}

func (b *BMA280) statusLocked() byte {
	if b.status != 0 && b.now().Sub(b.statusAt) > b.env.scale(LatchHold) {
		b.status = 0
	}
	return b.status
}

// raise sets flag if that tap kind is enabled and reports whether INT1 should
// pulse.
func (b *BMA280) raise(flag byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.suspended || b.regs[bma280.RegIntEn0]&flag == 0 {
		return false
	}
	b.status = flag
	b.statusAt = b.now()
	return b.regs[bma280.RegIntMap0]&flag != 0
}

// SingleTap knocks the board once.
func (b *BMA280) SingleTap() {
	if b.raise(bitSingle) && b.int1 != nil {
		b.int1.Pulse()
	}
}

// DoubleTap knocks the board twice, gap apart. The first knock reports as a
// single tap; the second replaces it with the double-tap flag.
func (b *BMA280) DoubleTap(gap time.Duration) {
	b.SingleTap()
	time.AfterFunc(b.env.scale(gap), func() {
		if b.raise(bitDouble) && b.int1 != nil {
			b.int1.Pulse()
		}
	})
}

func (b *BMA280) Suspended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suspended
}

func (b *BMA280) Reg(addr byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[addr&0x3f]
}

// Frames returns how many register frames crossed the bus.
func (b *BMA280) Frames() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}
