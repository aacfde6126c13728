package restsensor

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// monitorConfig holds mutable state during Monitor construction.
type monitorConfig struct {
	title             string
	sensors           []Sensor
	pollingInterval   time.Duration
	port              int
	maxConcurrency    int
	logger            *slog.Logger
	snapshotCallbacks []func(Snapshot)
	registry          *prometheus.Registry
}

// Option configures a [Monitor] during construction.
//
// Built-in options: [WithSensor], [WithSensors], [WithPollingInterval],
// [WithPort], [WithMaxConcurrency], [WithLogger], [WithSnapshotCallback],
// [WithTitle], [WithMetricsRegistry].
type Option func(*monitorConfig) error

// WithSensor adds a single [Sensor]. Can be called multiple times.
func WithSensor(s Sensor) Option {
	return func(cfg *monitorConfig) error {
		cfg.sensors = append(cfg.sensors, s)
		return nil
	}
}

// WithSensors adds several sensors at once.
func WithSensors(sensors ...Sensor) Option {
	return func(cfg *monitorConfig) error {
		cfg.sensors = append(cfg.sensors, sensors...)
		return nil
	}
}

// WithPollingInterval sets how often sensors without their own interval are
// polled. Defaults to 15 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the API and dashboard. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *monitorConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency limits how many resources are fetched at the same time.
// Defaults to 10.
//
// Returns an error if the value is zero or negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *monitorConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSnapshotCallback registers a function called after every poll with
// the sensor's new [Snapshot].
//
// Callbacks run synchronously, in registration order, after the snapshot is
// stored. They must not block. Panics are recovered and logged.
//
// Example:
//
//	restsensor.WithSnapshotCallback(func(s restsensor.Snapshot) {
//	    if !s.Available {
//	        log.Printf("%s unreachable: %v", s.Name, s.FetchErr)
//	    }
//	})
//
// Nil callbacks are silently ignored.
func WithSnapshotCallback(cb func(Snapshot)) Option {
	return func(cfg *monitorConfig) error {
		if cb == nil {
			return nil
		}
		cfg.snapshotCallbacks = append(cfg.snapshotCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title. Defaults to "REST Sensor".
func WithTitle(title string) Option {
	return func(cfg *monitorConfig) error {
		cfg.title = title
		return nil
	}
}

// WithMetricsRegistry registers the monitor's Prometheus metrics with reg
// and serves reg at /metrics. By default each Monitor gets its own registry
// with the Go and process collectors.
//
// Returns an error if the registry is nil.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(cfg *monitorConfig) error {
		if reg == nil {
			return errors.New("metrics registry cannot be nil")
		}
		cfg.registry = reg
		return nil
	}
}
