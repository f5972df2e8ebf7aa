//go:build !linux

package main

import (
	"errors"

	"emcore-go/services/device"
	"emcore-go/x/logx"
)

func openGPIOLEDs(string, int, int, *logx.Logger) (device.Indicator, device.Indicator, func(), error) {
	return nil, nil, nil, errors.New("--gpio-chip needs Linux")
}

type noEdge struct{}

func (noEdge) OnRising(func()) error { return errors.New("--int1 needs Linux") }

func openGPIOEdge(string, int, interface{ Interrupt(func()) }) (device.EdgeLine, func()) {
	return noEdge{}, func() {}
}
