package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "emcore-sim",
		Short: "Run the low-energy control core against simulated hardware",
		Long: `emcore-sim assembles the energy arbiter, the command scheduler, the joystick
gate and the tap classifier on simulated peripherals, drives them from a
script and prints the core's telemetry.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(dutyCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
