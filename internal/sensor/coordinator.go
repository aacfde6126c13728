package sensor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/restsensor/internal/poller"
	"github.com/jpalmerr/restsensor/internal/render"
)

// Fetcher performs the HTTP exchange of one cycle. [*poller.Fetcher]
// implements it.
type Fetcher interface {
	Update(ctx context.Context) poller.FetchResult
}

// Recorder observes every completed cycle. [*metrics.Collector] implements it.
type Recorder interface {
	ObserveCycle(snap Snapshot)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCycle(Snapshot) {}

// Config describes the sensors fed by one resource.
type Config struct {
	Name     string
	Unit     string
	Interval time.Duration
	Renderer render.Renderer
	Subs     []SubConfig
}

// Coordinator runs the fetch, parse, render and extract pipeline for one
// resource and publishes the result as a single [Snapshot].
//
// Readers calling [Coordinator.Snapshot] observe either the previous or the
// next complete snapshot, never a mix. Coordinators share no state with each
// other and can run on separate goroutines.
type Coordinator struct {
	name       string
	interval   time.Duration
	fetcher    Fetcher
	primary    *PrimaryValue
	extractors []*SubValueExtractor
	logger     *slog.Logger
	recorder   Recorder

	cycleMu sync.Mutex // one cycle at a time

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewCoordinator wires a coordinator. logger and recorder may be nil.
func NewCoordinator(cfg Config, fetcher Fetcher, logger *slog.Logger, recorder Recorder) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	extractors := make([]*SubValueExtractor, len(cfg.Subs))
	subs := make([]SubState, len(cfg.Subs))
	for i, sc := range cfg.Subs {
		extractors[i] = NewSubValueExtractor(sc)
		subs[i] = SubState{ID: extractors[i].ID(), Name: extractors[i].Name(), Err: ErrNoDocument}
	}

	return &Coordinator{
		name:       cfg.Name,
		interval:   cfg.Interval,
		fetcher:    fetcher,
		primary:    NewPrimaryValue(cfg.Name, cfg.Unit, cfg.Renderer),
		extractors: extractors,
		logger:     logger.With("resource", cfg.Name),
		recorder:   recorder,
		snapshot: Snapshot{
			Name:     cfg.Name,
			Unit:     cfg.Unit,
			Value:    StateUnknown,
			ParseErr: ErrNoBody,
			Subs:     subs,
		},
	}
}

// Name returns the resource name.
func (c *Coordinator) Name() string { return c.name }

// Interval returns the configured polling interval, or 0 for the default.
func (c *Coordinator) Interval() time.Duration { return c.interval }

// Run implements [poller.Task].
func (c *Coordinator) Run(ctx context.Context) Snapshot {
	return c.Update(ctx)
}

// Update runs one cycle: fetch, shared parse, primary value, then every
// extractor in configuration order. It always completes; failures are
// recorded on the returned snapshot.
func (c *Coordinator) Update(ctx context.Context) Snapshot {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	res := c.fetcher.Update(ctx)
	doc, parseErr := ParseDocument(res)

	primary := c.primary.Evaluate(res, doc)
	if primary.RenderErr != nil {
		c.logRenderFailure("primary value render failed", c.name, primary.RenderErr)
	}

	subs := make([]SubState, len(c.extractors))
	for i, e := range c.extractors {
		subs[i] = e.Evaluate(doc)
		if subs[i].RenderErr != nil {
			c.logRenderFailure("sub-sensor render failed", e.ID(), subs[i].RenderErr)
		}
	}

	snap := Snapshot{
		Name:       c.name,
		Unit:       c.primary.Unit(),
		Value:      primary.Value,
		Available:  primary.Available,
		StatusCode: res.StatusCode,
		Latency:    res.Latency,
		CheckedAt:  res.FetchedAt,
		FetchErr:   res.Err,
		ParseErr:   parseErr,
		RenderErr:  primary.RenderErr,
		Subs:       subs,
	}
	if snap.CheckedAt.IsZero() {
		snap.CheckedAt = time.Now()
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	c.recorder.ObserveCycle(snap.Clone())
	return snap.Clone()
}

// Snapshot returns a copy of the last complete snapshot. Before the first
// Update it reports the unknown value, unavailable, with every sub-sensor
// absent.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Clone()
}

// logRenderFailure logs at debug; a renderer panic is a bug and logs at error.
func (c *Coordinator) logRenderFailure(msg, sensor string, err error) {
	var pe *render.PanicError
	if errors.As(err, &pe) {
		c.logger.Error(msg,
			"sensor", sensor,
			"correlation_id", pe.CorrelationID,
			"error", err.Error(),
		)
		return
	}
	c.logger.Debug(msg, "sensor", sensor, "error", err.Error())
}
