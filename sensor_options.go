package restsensor

import (
	"errors"
	"time"
)

// sensorConfig holds mutable state during sensor construction.
type sensorConfig struct {
	unit          string
	valueTemplate string
	valueExpr     string
	subs          []SubSensor
	interval      time.Duration
}

// SensorOption configures a [Sensor] during construction.
//
// Built-in options: [WithUnit], [WithValueTemplate], [WithValueExpr],
// [WithSubSensors], [WithInterval].
type SensorOption func(*sensorConfig) error

// WithUnit sets the unit of measurement reported with the value.
func WithUnit(unit string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.unit = unit
		return nil
	}
}

// WithValueTemplate renders the primary value with a Go text/template.
//
// The template sees .value (the raw body) and .value_json (the parsed body,
// nil when it is not JSON). Sprig functions are available.
//
// Example:
//
//	restsensor.WithValueTemplate("{{ .value_json.main.temp | printf \"%.1f\" }}")
func WithValueTemplate(tmpl string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.valueTemplate = tmpl
		return nil
	}
}

// WithValueExpr renders the primary value with an expr-lang expression over
// value and value_json.
//
// Example:
//
//	restsensor.WithValueExpr("value_json.main.temp - 273.15")
func WithValueExpr(expression string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.valueExpr = expression
		return nil
	}
}

// WithSubSensors appends sub-sensors fed by the same response body.
// Evaluation follows the order given.
func WithSubSensors(subs ...SubSensor) SensorOption {
	return func(cfg *sensorConfig) error {
		for _, s := range subs {
			if s.id == "" {
				return errors.New("sub-sensor must be created with NewSubSensor")
			}
		}
		cfg.subs = append(cfg.subs, subs...)
		return nil
	}
}

// WithInterval sets a custom polling interval for this sensor.
//
// The interval must be at least 1 second and at most 1 hour. If not
// specified, the monitor's [WithPollingInterval] applies.
func WithInterval(d time.Duration) SensorOption {
	return func(cfg *sensorConfig) error {
		if d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		if d > time.Hour {
			return errors.New("interval must not exceed 1 hour")
		}
		cfg.interval = d
		return nil
	}
}

// subSensorConfig holds mutable state during sub-sensor construction.
type subSensorConfig struct {
	friendlyName  string
	valueTemplate string
	valueExpr     string
}

// SubSensorOption configures a [SubSensor] during construction.
type SubSensorOption func(*subSensorConfig) error

// WithFriendlyName sets the display name of a sub-sensor.
func WithFriendlyName(name string) SubSensorOption {
	return func(cfg *subSensorConfig) error {
		cfg.friendlyName = name
		return nil
	}
}

// WithSubValueTemplate renders the extracted node with a Go text/template.
// .value is the node as text, .value_json the node itself.
func WithSubValueTemplate(tmpl string) SubSensorOption {
	return func(cfg *subSensorConfig) error {
		cfg.valueTemplate = tmpl
		return nil
	}
}

// WithSubValueExpr renders the extracted node with an expr-lang expression.
func WithSubValueExpr(expression string) SubSensorOption {
	return func(cfg *subSensorConfig) error {
		cfg.valueExpr = expression
		return nil
	}
}
