package restsensor

import (
	"errors"
	"fmt"
)

// gridConfig holds configuration during sensor grid construction.
type gridConfig struct {
	urlTemplate     string
	dimensions      map[string][]string
	resourceOptions []ResourceOption
	sensorOptions   []SensorOption
}

// GridOption configures sensor grid generation for [NewSensorGrid].
type GridOption func(*gridConfig) error

// WithURLTemplate sets the URL template for sensor generation.
// The template uses Go's text/template syntax with dimension keys as variables.
//
// Example:
//
//	WithURLTemplate("https://api.example.com/weather?city={{.city}}")
func WithURLTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if tmpl == "" {
			return errors.New("URL template required")
		}
		cfg.urlTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the dimension values for cartesian product expansion.
// Each key becomes a template variable; every combination of values yields
// one sensor.
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

// WithGridResourceOptions applies resource options (method, headers, auth,
// timeout) to every generated resource.
func WithGridResourceOptions(opts ...ResourceOption) GridOption {
	return func(cfg *gridConfig) error {
		cfg.resourceOptions = append(cfg.resourceOptions, opts...)
		return nil
	}
}

// WithGridSensorOptions applies sensor options (unit, value template,
// sub-sensors, interval) to every generated sensor.
func WithGridSensorOptions(opts ...SensorOption) GridOption {
	return func(cfg *gridConfig) error {
		cfg.sensorOptions = append(cfg.sensorOptions, opts...)
		return nil
	}
}
