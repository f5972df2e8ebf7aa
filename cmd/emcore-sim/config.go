package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the normalised configuration",
		Long: `Print the configuration the core would run with, after defaults are applied
and values are clamped.

Usage:
  emcore-sim config --device pico
  emcore-sim config --config core.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().String("device", "sim", "Embedded config to use when --config is not given")
	return cmd
}
