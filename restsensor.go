package restsensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/restsensor/dashboard"
	"github.com/jpalmerr/restsensor/internal/metrics"
	"github.com/jpalmerr/restsensor/internal/poller"
	"github.com/jpalmerr/restsensor/internal/sensor"
	"github.com/jpalmerr/restsensor/internal/server"
	"github.com/jpalmerr/restsensor/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultPollingInterval = 15 * time.Second
	defaultPort            = 8080
	defaultMaxConcurrency  = 10
)

// Monitor polls a set of sensors and serves their state.
//
// Monitor is created using [New] with functional options. It can run its own
// scheduler and HTTP server via [Monitor.Start], or be driven by a host
// scheduler through [Monitor.Update].
//
//	m, err := restsensor.New(restsensor.WithSensor(s))
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	m.Start(ctx) // blocks until context cancelled
type Monitor struct {
	title             string
	sensors           []Sensor
	pollingInterval   time.Duration
	port              int
	maxConcurrency    int
	logger            *slog.Logger
	snapshotCallbacks []func(Snapshot)

	registry     *prometheus.Registry
	collector    *metrics.Collector
	store        *store.MemoryStore
	fetchers     []*poller.Fetcher
	coordinators []*sensor.Coordinator
	urls         []string
}

// New creates a new [Monitor] with the given options.
//
// At least one sensor must be configured via [WithSensor] or [WithSensors],
// and sensor names must be unique. Defaults:
//   - Polling interval: 15 seconds
//   - Port: 8080
//   - Max concurrency: 10
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		sensors:         []Sensor{},
		pollingInterval: defaultPollingInterval,
		port:            defaultPort,
		maxConcurrency:  defaultMaxConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.sensors) == 0 {
		return nil, errors.New("at least one sensor is required")
	}

	// names key the store, the API and the scheduler
	seen := make(map[string]bool, len(cfg.sensors))
	for _, s := range cfg.sensors {
		if seen[s.name] {
			return nil, fmt.Errorf("duplicate sensor name: %q", s.name)
		}
		seen[s.name] = true
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Monitor{
		title:             cfg.title,
		sensors:           cfg.sensors,
		pollingInterval:   cfg.pollingInterval,
		port:              cfg.port,
		maxConcurrency:    cfg.maxConcurrency,
		logger:            logger,
		snapshotCallbacks: cfg.snapshotCallbacks,
		registry:          registry,
		collector:         metrics.NewWithRegistry(registry),
		store:             store.NewMemoryStore(),
	}

	for _, s := range m.sensors {
		f := poller.NewFetcher(s.resource.request(), logger)
		c := sensor.NewCoordinator(s.coordinatorConfig(), f, logger, m.collector)

		m.fetchers = append(m.fetchers, f)
		m.coordinators = append(m.coordinators, c)
		m.urls = append(m.urls, redactURL(s.resource.url))

		// seed the store so the API lists every sensor before the first poll
		m.store.Update(toStoreState(c.Snapshot(), m.urls[len(m.urls)-1]))
	}

	return m, nil
}

// Start begins polling sensors and serving the API and dashboard.
//
// Start blocks until ctx is cancelled:
//
//   - every sensor is polled immediately, then at its interval
//   - each new snapshot is stored, then passed to snapshot callbacks
//   - the HTTP server listens on the configured port
//
// Returns nil on graceful shutdown, or an error if the HTTP server fails to
// start.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("restsensor starting", "sensor_count", len(m.sensors))
	m.logger.Info("polling configured", "interval", m.pollingInterval.String())
	m.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", m.port))

	if ctx.Err() != nil {
		return nil
	}
	defer m.Close()

	tasks := make([]poller.Task[sensor.Snapshot], len(m.coordinators))
	for i, c := range m.coordinators {
		tasks[i] = c
	}

	scheduler := poller.NewScheduler(tasks, m.pollingInterval, m.maxConcurrency, m.logger)
	scheduler.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for snap := range scheduler.Results() {
			m.publish(snap)
		}
	}()

	// stop the scheduler, then drain its results
	cleanup := func() {
		scheduler.Stop()
		wg.Wait()
	}

	metricsHandler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	httpServer := server.NewServer(m.store, m.port, dashboard.Assets, m.title, metricsHandler, m.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	m.logger.Info("restsensor stopped")
	return nil
}

// Update polls every sensor once, in configuration order, and returns the
// new snapshots. It is the entry point for hosts that bring their own
// scheduler; results are stored and passed to callbacks as in [Monitor.Start].
func (m *Monitor) Update(ctx context.Context) []Snapshot {
	out := make([]Snapshot, len(m.coordinators))
	for i, c := range m.coordinators {
		out[i] = m.publish(c.Update(ctx))
	}
	return out
}

// Snapshots returns the latest snapshot of every sensor in configuration
// order. Before the first poll each value is [StateUnknown].
func (m *Monitor) Snapshots() []Snapshot {
	out := make([]Snapshot, len(m.coordinators))
	for i, c := range m.coordinators {
		out[i] = toPublicSnapshot(c.Snapshot(), m.urls[i])
	}
	return out
}

// Snapshot returns the latest snapshot of the named sensor.
func (m *Monitor) Snapshot(name string) (Snapshot, bool) {
	for i, c := range m.coordinators {
		if c.Name() == name {
			return toPublicSnapshot(c.Snapshot(), m.urls[i]), true
		}
	}
	return Snapshot{}, false
}

// Sensors returns a copy of the configured sensors.
func (m *Monitor) Sensors() []Sensor {
	cp := make([]Sensor, len(m.sensors))
	copy(cp, m.sensors)
	return cp
}

// Port returns the configured HTTP port.
func (m *Monitor) Port() int {
	return m.port
}

// PollingInterval returns the global polling interval.
func (m *Monitor) PollingInterval() time.Duration {
	return m.pollingInterval
}

// Close releases idle HTTP connections. [Monitor.Start] calls it on return.
func (m *Monitor) Close() {
	for _, f := range m.fetchers {
		f.Close()
	}
}

// publish stores snap, fires callbacks and logs the outcome.
func (m *Monitor) publish(snap sensor.Snapshot) Snapshot {
	url := m.urlFor(snap.Name)

	// store first so callbacks observe persisted data
	m.store.Update(toStoreState(snap, url))

	public := toPublicSnapshot(snap, url)
	for _, cb := range m.snapshotCallbacks {
		invokeCallbackSafe(cb, public, m.logger)
	}

	logAttrs := []any{
		"sensor", snap.Name,
		"value", snap.Value,
		"available", snap.Available,
		"status_code", snap.StatusCode,
		"latency_ms", snap.Latency.Milliseconds(),
	}
	if !snap.Available {
		m.logger.Warn("poll completed with error", logAttrs...)
	} else {
		m.logger.Debug("poll completed", logAttrs...)
	}
	return public
}

func (m *Monitor) urlFor(name string) string {
	for i, c := range m.coordinators {
		if c.Name() == name {
			return m.urls[i]
		}
	}
	return ""
}

// toStoreState converts a coordinator snapshot to its storage form.
func toStoreState(snap sensor.Snapshot, url string) store.SensorState {
	subs := make([]store.SubSensorState, len(snap.Subs))
	for i, sub := range snap.Subs {
		state := store.SubSensorState{ID: sub.ID, Name: sub.Name}
		if sub.Present {
			v := sub.Value
			state.Value = &v
		}
		switch {
		case sub.RenderErr != nil:
			state.Error = errString(sub.RenderErr)
		case sub.Err != nil:
			state.Error = errString(sub.Err)
		}
		subs[i] = state
	}

	return store.SensorState{
		Name:           snap.Name,
		URL:            url,
		Value:          snap.Value,
		Unit:           snap.Unit,
		Available:      snap.Available,
		StatusCode:     snap.StatusCode,
		ResponseTimeMs: snap.Latency.Milliseconds(),
		CheckedAt:      snap.CheckedAt,
		Error:          errString(snap.FetchErr),
		Sensors:        subs,
	}
}

func errString(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}

// redactURL hides credentials embedded in the URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// invokeCallbackSafe calls a snapshot callback with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func invokeCallbackSafe(cb func(Snapshot), snap Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("snapshot callback panicked",
				"panic", r,
				"sensor", snap.Name,
				"correlation_id", uuid.NewString(),
			)
		}
	}()
	cb(snap)
}
