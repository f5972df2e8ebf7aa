package sim

import (
	"sync"
	"time"
)

// IdleSample is what the joystick ladder reads at rest.
const IdleSample = 4000

// DefaultSampleInterval matches a 200 Hz repeated conversion.
const DefaultSampleInterval = 5 * time.Millisecond

// ADC converts the joystick ladder continuously and raises the compare
// interrupt for every conversion that lands inside [low, high).
type ADC struct {
	env       Env
	low, high uint32
	interval  time.Duration

	mu          sync.Mutex
	sample      uint32
	handler     func(uint32)
	stop        chan struct{}
	conversions uint32
}

func NewADC(env Env, low, high uint32) *ADC {
	return &ADC{env: env, low: low, high: high, interval: DefaultSampleInterval, sample: IdleSample}
}

// Set moves the joystick; the value holds until the next Set.
func (a *ADC) Set(sample uint32) {
	a.mu.Lock()
	a.sample = sample
	a.mu.Unlock()
}

// Hold sets sample for d, then returns the joystick to rest.
func (a *ADC) Hold(sample uint32, d time.Duration) {
	a.Set(sample)
	time.AfterFunc(a.env.scale(d), func() { a.Set(IdleSample) })
}

// Convert performs one conversion of sample without moving the joystick. It
// does nothing before Start.
func (a *ADC) Convert(sample uint32) {
	a.mu.Lock()
	h := a.handler
	a.conversions++
	a.mu.Unlock()
	if h != nil && a.InWindow(sample) {
		a.env.IRQ.Interrupt(func() { h(sample) })
	}
}

func (a *ADC) Sample() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sample
}

func (a *ADC) InWindow(s uint32) bool { return s >= a.low && s < a.high }

// Start begins repeated conversion. onThreshold runs in interrupt context.
func (a *ADC) Start(onThreshold func(sample uint32)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil {
		return nil
	}
	a.handler = onThreshold
	a.stop = make(chan struct{})
	go a.run(a.stop, onThreshold)
	return nil
}

// Conversions returns how many samples were converted.
func (a *ADC) Conversions() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conversions
}

func (a *ADC) Stop() {
	a.mu.Lock()
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	a.mu.Unlock()
}

func (a *ADC) run(stop <-chan struct{}, onThreshold func(uint32)) {
	tk := time.NewTicker(a.env.scale(a.interval))
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
		}
		a.mu.Lock()
		s := a.sample
		a.conversions++
		a.mu.Unlock()
		if a.InWindow(s) {
			a.env.IRQ.Interrupt(func() { onThreshold(s) })
		}
	}
}
