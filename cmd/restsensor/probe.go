package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jpalmerr/restsensor"
	"github.com/jpalmerr/restsensor/config"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Poll every resource once and print the sensors",
	Long: `Run a single poll cycle over every configured resource and print the
resulting sensor states as JSON. Nothing is served.

Useful for developing templates and JSON paths against a live API.

Example:
  restsensor probe -c sensors.yaml
  restsensor probe -c sensors.yaml --sensor Weather`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	probeCmd.Flags().String("sensor", "", "only print the sensor with this name")
	probeCmd.Flags().Duration("timeout", 30*time.Second, "overall deadline for the cycle")
	_ = probeCmd.MarkFlagRequired("config")
}

type probeSubSensor struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value *string `json:"value"`
	Error string  `json:"error,omitempty"`
}

type probeSensor struct {
	Name       string           `json:"name"`
	URL        string           `json:"url"`
	Value      string           `json:"value"`
	Unit       string           `json:"unit,omitempty"`
	Available  bool             `json:"available"`
	StatusCode int              `json:"status_code"`
	LatencyMs  int64            `json:"latency_ms"`
	Error      string           `json:"error,omitempty"`
	Sensors    []probeSubSensor `json:"sensors"`
}

func runProbe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	only, _ := cmd.Flags().GetString("sensor")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	opts, err := config.Options(cfg)
	if err != nil {
		return fmt.Errorf("failed to build sensors: %w", err)
	}
	opts = append(opts, restsensor.WithLogger(logger))

	m, err := restsensor.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer m.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var out []probeSensor
	for _, snap := range m.Update(ctx) {
		if only != "" && snap.Name != only {
			continue
		}
		out = append(out, toProbeSensor(snap))
	}
	if only != "" && len(out) == 0 {
		return fmt.Errorf("sensor %q not found", only)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toProbeSensor(snap restsensor.Snapshot) probeSensor {
	p := probeSensor{
		Name:       snap.Name,
		URL:        snap.URL,
		Value:      snap.Value,
		Unit:       snap.Unit,
		Available:  snap.Available,
		StatusCode: snap.StatusCode,
		LatencyMs:  snap.Latency.Milliseconds(),
		Sensors:    make([]probeSubSensor, len(snap.SubSensors)),
	}
	switch {
	case snap.FetchErr != nil:
		p.Error = snap.FetchErr.Error()
	case snap.RenderErr != nil:
		p.Error = snap.RenderErr.Error()
	}

	for i, sub := range snap.SubSensors {
		ps := probeSubSensor{ID: sub.ID, Name: sub.Name}
		if sub.Present {
			v := sub.Value
			ps.Value = &v
		}
		switch {
		case sub.RenderErr != nil:
			ps.Error = sub.RenderErr.Error()
		case sub.Err != nil:
			ps.Error = sub.Err.Error()
		}
		p.Sensors[i] = ps
	}
	return p
}
