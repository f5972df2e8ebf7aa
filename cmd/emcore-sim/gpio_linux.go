//go:build linux

package main

import (
	"emcore-go/services/device"
	"emcore-go/services/hal/linuxio"
	"emcore-go/x/logx"
)

func openGPIOLEDs(chip string, off0, off1 int, log *logx.Logger) (device.Indicator, device.Indicator, func(), error) {
	l0, err := linuxio.OpenLED(chip, off0, log)
	if err != nil {
		return nil, nil, nil, err
	}
	l1, err := linuxio.OpenLED(chip, off1, log)
	if err != nil {
		l0.Close()
		return nil, nil, nil, err
	}
	return l0, l1, func() {
		l0.Close()
		l1.Close()
	}, nil
}

func openGPIOEdge(chip string, offset int, irq linuxio.Interrupter) (device.EdgeLine, func()) {
	l := linuxio.NewEdgeLine(chip, offset, irq)
	return l, func() { l.Close() }
}
