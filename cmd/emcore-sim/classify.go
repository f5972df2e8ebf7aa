package main

import (
	"fmt"

	"emcore-go/services/device"
	"emcore-go/services/joystick"

	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <sample>...",
		Short: "Show the direction and command for raw joystick samples",
		Long: `Classify raw 12-bit joystick samples against the configured bands.

Usage:
  emcore-sim classify 3500 3000 2500 2000 100 4000
  emcore-sim classify --config core.yaml 0x0c80`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}
	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().String("device", "sim", "Embedded config to use when --config is not given")
	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	bands, err := device.BandsFrom(cfg.Joystick.Bands)
	if err != nil {
		return err
	}
	for _, a := range args {
		s, err := parseUint(a)
		if err != nil {
			return err
		}
		d := joystick.Classify(bands, s)
		action := "sensor "
		if c, ok := joystick.CommandFor(d); ok {
			action = c.String()
		} else if d == joystick.Up {
			action += "on"
		} else {
			action += "off"
		}
		if s < cfg.Joystick.ThresholdLow || s >= cfg.Joystick.ThresholdHigh {
			action += " (outside compare window, no interrupt)"
		}
		fmt.Printf("%5d  %-7s %s\n", s, d, action)
	}
	return nil
}
