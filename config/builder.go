package config

import (
	"fmt"
	"sort"

	"github.com/jpalmerr/restsensor"
)

// BuildSensors converts parsed configuration into SDK Sensor objects.
//
// Resources come first in file order, followed by expanded grids.
func BuildSensors(cfg *Config) ([]restsensor.Sensor, error) {
	var sensors []restsensor.Sensor

	for _, rc := range cfg.Resources {
		s, err := buildSensor(rc)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", rc.Name, err)
		}
		sensors = append(sensors, s)
	}

	for _, gc := range cfg.Grids {
		sensorOpts, err := sensorOptions(gc.ResourceConfig)
		if err != nil {
			return nil, fmt.Errorf("grid %q: %w", gc.Name, err)
		}
		grid, err := restsensor.NewSensorGrid(gc.Name,
			restsensor.WithURLTemplate(gc.URLTemplate),
			restsensor.WithDimensions(gc.Dimensions),
			restsensor.WithGridResourceOptions(resourceOptions(gc.ResourceConfig)...),
			restsensor.WithGridSensorOptions(sensorOpts...),
		)
		if err != nil {
			return nil, fmt.Errorf("grid %q: %w", gc.Name, err)
		}
		sensors = append(sensors, grid...)
	}

	return sensors, nil
}

// Options returns the monitor options described by cfg, sensors included.
func Options(cfg *Config) ([]restsensor.Option, error) {
	sensors, err := BuildSensors(cfg)
	if err != nil {
		return nil, err
	}

	opts := []restsensor.Option{
		restsensor.WithSensors(sensors...),
		restsensor.WithPort(cfg.Port),
		restsensor.WithPollingInterval(cfg.PollInterval.Duration()),
	}
	if cfg.Title != "" {
		opts = append(opts, restsensor.WithTitle(cfg.Title))
	}
	return opts, nil
}

func buildSensor(rc ResourceConfig) (restsensor.Sensor, error) {
	res, err := restsensor.NewResource(rc.Resource, resourceOptions(rc)...)
	if err != nil {
		return restsensor.Sensor{}, err
	}
	opts, err := sensorOptions(rc)
	if err != nil {
		return restsensor.Sensor{}, err
	}
	return restsensor.NewSensor(rc.Name, res, opts...)
}

func resourceOptions(rc ResourceConfig) []restsensor.ResourceOption {
	var opts []restsensor.ResourceOption

	if rc.Method != "" {
		opts = append(opts, restsensor.WithMethod(rc.Method))
	}
	if len(rc.Headers) > 0 {
		opts = append(opts, restsensor.WithHeaders(mapToKeyValuePairs(rc.Headers)...))
	}
	if rc.Payload != "" {
		opts = append(opts, restsensor.WithPayload(rc.Payload))
	}
	switch rc.Authentication {
	case "":
		// credentials without a scheme default to basic
		if rc.Username != "" && rc.Password != "" {
			opts = append(opts, restsensor.WithBasicAuth(rc.Username, rc.Password))
		}
	case "basic":
		opts = append(opts, restsensor.WithBasicAuth(rc.Username, rc.Password))
	case "digest":
		opts = append(opts, restsensor.WithDigestAuth(rc.Username, rc.Password))
	}
	if rc.VerifySSL != nil {
		opts = append(opts, restsensor.WithVerifySSL(*rc.VerifySSL))
	}
	if rc.Timeout != 0 {
		opts = append(opts, restsensor.WithTimeout(rc.Timeout.Duration()))
	}
	return opts
}

func sensorOptions(rc ResourceConfig) ([]restsensor.SensorOption, error) {
	var opts []restsensor.SensorOption

	if rc.Unit != "" {
		opts = append(opts, restsensor.WithUnit(rc.Unit))
	}
	if rc.ValueTemplate != "" {
		opts = append(opts, restsensor.WithValueTemplate(rc.ValueTemplate))
	}
	if rc.ValueExpr != "" {
		opts = append(opts, restsensor.WithValueExpr(rc.ValueExpr))
	}
	if rc.Interval != 0 {
		opts = append(opts, restsensor.WithInterval(rc.Interval.Duration()))
	}

	if len(rc.Sensors) > 0 {
		subs := make([]restsensor.SubSensor, 0, len(rc.Sensors))
		for _, sc := range rc.Sensors {
			sub, err := buildSubSensor(sc)
			if err != nil {
				return nil, fmt.Errorf("sensor %q: %w", sc.ID, err)
			}
			subs = append(subs, sub)
		}
		opts = append(opts, restsensor.WithSubSensors(subs...))
	}

	return opts, nil
}

func buildSubSensor(sc SubSensorConfig) (restsensor.SubSensor, error) {
	var opts []restsensor.SubSensorOption

	if sc.FriendlyName != "" {
		opts = append(opts, restsensor.WithFriendlyName(sc.FriendlyName))
	}
	if sc.ValueTemplate != "" {
		opts = append(opts, restsensor.WithSubValueTemplate(sc.ValueTemplate))
	}
	if sc.ValueExpr != "" {
		opts = append(opts, restsensor.WithSubValueExpr(sc.ValueExpr))
	}

	return restsensor.NewSubSensor(sc.ID, sc.JSONPath, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
