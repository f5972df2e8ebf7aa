package main

import (
	"fmt"

	"emcore-go/services/energy"
	"emcore-go/services/scheduler"

	"github.com/spf13/cobra"
)

func dutyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duty <on-ms>...",
		Short: "Show the counter programming for on-times",
		Long: `Show the compare values and prescaler the scheduler would program for each
on-time, given the configured period and the clock the counter level selects.

Usage:
  emcore-sim duty 20 520 1750
  emcore-sim duty --period 4000 --level 2 1000`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDuty,
	}
	cmd.Flags().Uint32("period", 0, "Period in ms (default: from config)")
	cmd.Flags().Int("level", -1, "Counter energy level (default: from config)")
	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().String("device", "sim", "Embedded config to use when --config is not given")
	return cmd
}

func runDuty(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetUint32("period"); p > 0 {
		cfg.Scheduler.PeriodMs = p
	}
	if l, _ := cmd.Flags().GetInt("level"); l >= 0 {
		cfg.Energy.Counter = l
		cfg.Scheduler.RefHz = 0
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	s := cfg.Scheduler
	fmt.Printf("period %dms, counter %v at %d Hz, max %d\n",
		s.PeriodMs, energy.Level(cfg.Energy.Counter), s.RefHz, s.CounterMax)

	for _, a := range args {
		on, err := parseUint(a)
		if err != nil {
			return err
		}
		d := scheduler.ComputeDuty(on, s.PeriodMs, s.RefHz, s.CounterMax)
		fmt.Printf("  on %5dms  top %5d  compare %5d  prescale /%d\n",
			d.OnTimeMs, d.PeriodTicks, d.OnTimeTicks, 1<<d.DivisorShift)
	}
	return nil
}
