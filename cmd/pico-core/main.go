//go:build rp2040 || rp2350

// Command pico-core runs the low-energy control core on a Raspberry Pi Pico
// with a BMA280 on SPI0, a five-way joystick on ADC0 and two LEDs. Logs go
// to UART0 at 115200 baud.
package main

import (
	"context"
	"machine"
	"time"

	"emcore-go/bus"
	"emcore-go/services/config"
	"emcore-go/services/device"
	"emcore-go/services/hal/rp2"
	"emcore-go/services/hal/sim"
	"emcore-go/services/telemetry"
	"emcore-go/x/logx"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

func main() {
	// Allow a serial console to attach before we print.
	time.Sleep(2 * time.Second)

	_ = uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	cfg, err := config.Embedded("pico")
	if err != nil {
		println("[main] config:", err.Error())
		return
	}
	log := logx.NewWriter(uartx.UART0, logx.ParseLevel(cfg.LogLevel))
	log.Infof("[main] boot, device %s", cfg.Device)

	ctx := context.Background()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, cfg.Device)

	b := bus.NewBus(cfg.Telemetry.BusQueueLen)
	pub := telemetry.NewPublisher(b.NewConnection("core"), cfg.Telemetry.QueueLen)
	go pub.Run(ctx)
	if err := config.NewConfigService(&cfg).Start(ctx, b.NewConnection("config")); err != nil {
		log.Errorf("[main] config service: %v", err)
	}

	spi, err := rp2.NewSPI()
	if err != nil {
		log.Errorf("[main] spi: %v", err)
		return
	}

	// The RP2040 has no low-energy compare counter; timer goroutines stand in
	// for it and deliver their interrupts in place.
	env := sim.Env{IRQ: rp2.Direct{}}
	hw := device.Hardware{
		Sleeper: rp2.Sleeper{},
		Counter: sim.NewLETimer(env, cfg.Scheduler.RefHz),
		Timer:   sim.NewOneShot(env),
		ADC:     rp2.NewADC(cfg.Joystick.ThresholdLow, cfg.Joystick.ThresholdHigh),
		TapLine: rp2.NewEdgeLine(rp2.PinTapINT1),
		SPI:     spi,
		LED0:    rp2.NewLED(rp2.PinLED0),
		LED1:    rp2.NewLED(rp2.PinLED1),
	}

	core, err := device.New(cfg, hw, device.WithLogger(log), device.WithEmitter(pub))
	if err != nil {
		log.Errorf("[main] core: %v", err)
		return
	}
	if err := core.Start(); err != nil {
		log.Errorf("[main] start: %v", err)
		return
	}
	_ = core.Run(ctx)
}
