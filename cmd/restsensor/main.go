// Package main is the entry point for the restsensor CLI.
//
// restsensor can be run either as a library (SDK) or as a standalone binary
// with a YAML or TOML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	restsensor serve -c sensors.yaml    # Poll and serve the dashboard
//	restsensor validate -c sensors.yaml # Validate configuration
//	restsensor probe -c sensors.yaml    # Poll once and print the result
//	restsensor version                  # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "restsensor",
	Short: "Poll REST endpoints into sensors",
	Long: `restsensor polls HTTP resources and turns each response into a
primary sensor value plus any number of sub-sensors extracted with JSONPath.

Every resource is fetched once per cycle; all of its sensors are derived
from that single response.

Quick start:
  1. Create a config file (sensors.yaml)
  2. Run: restsensor serve -c sensors.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  poll_interval: 30s
  resources:
    - name: Weather
      resource: https://api.example.com/weather
      value_template: '{{ .value_json.temp }}'
      sensors:
        humidity:
          json_path: $.humidity
          value_template: '{{ .value }}'`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this restsensor binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "restsensor %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// newLogger creates a JSON logger on stderr at the level named by the
// --log-level flag.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", name, err)
	}

	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})), nil
}
