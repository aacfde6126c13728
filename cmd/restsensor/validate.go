package main

import (
	"fmt"

	"github.com/jpalmerr/restsensor/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a restsensor configuration file without polling anything.

This command parses the file, expands environment variables, validates all
fields and compiles every template and expression. JSON paths that do not
compile are reported as warnings: those sub-sensors stay absent at runtime
while the rest keep working.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  restsensor validate -c sensors.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sensors, err := config.BuildSensors(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	gridSensors := len(sensors) - len(cfg.Resources)
	subSensors := 0
	var warnings []string
	for _, s := range sensors {
		for _, sub := range s.SubSensors() {
			subSensors++
			if err := sub.PathError(); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s/%s: %v", s.Name(), sub.ID(), err))
			}
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Resources:     %d direct + %d from grids = %d total\n",
		len(cfg.Resources), gridSensors, len(sensors))
	fmt.Fprintf(out, "  Sub-sensors:   %d\n", subSensors)
	for _, w := range warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}

	return nil
}
