package scheduler

import "testing"

func TestComputeDuty(t *testing.T) {
	cases := []struct {
		name              string
		on, period, refHz uint32
		wantPeriod        uint32
		wantOn            uint32
		wantShift         uint8
	}{
		{"ulfrco fits", 20, 1750, 1000, 1750, 20, 0},
		{"lfxo fits", 20, 1750, 32768, 57344, 655, 0},
		{"lfxo halves once", 20, 2000, 32768, 32768, 327, 1},
		{"lfxo four seconds", 1000, 4000, 32768, 32768, 8192, 2},
		{"on clamped to period", 9000, 1750, 1000, 1750, 1750, 0},
		{"zero on", 0, 2000, 32768, 32768, 0, 1},
	}
	for _, c := range cases {
		d := ComputeDuty(c.on, c.period, c.refHz, 65535)
		if d.PeriodTicks != c.wantPeriod || d.OnTimeTicks != c.wantOn || d.DivisorShift != c.wantShift {
			t.Fatalf("%s: got period=%d on=%d shift=%d, want %d %d %d", c.name,
				d.PeriodTicks, d.OnTimeTicks, d.DivisorShift, c.wantPeriod, c.wantOn, c.wantShift)
		}
	}
}

func TestComputeDutySaturates(t *testing.T) {
	// 2^15 halvings of 100 s at 32768 Hz still leave 100 ticks above a max of 10.
	d := ComputeDuty(50000, 100000, 32768, 10)
	if d.DivisorShift != maxShift {
		t.Fatalf("shift = %d, want %d", d.DivisorShift, maxShift)
	}
	if d.PeriodTicks != 10 || d.OnTimeTicks > d.PeriodTicks {
		t.Fatalf("saturated duty = %+v", d)
	}
}
