// Package metrics exports restsensor poll outcomes as Prometheus metrics.
package metrics

import (
	"github.com/jpalmerr/restsensor/internal/sensor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "restsensor"

// Collector holds all Prometheus metrics for restsensor. It implements
// [sensor.Recorder].
type Collector struct {
	// Fetch metrics
	FetchTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	HTTPStatus    *prometheus.GaugeVec

	// Sensor metrics
	Available          *prometheus.GaugeVec
	ParseFailures      *prometheus.CounterVec
	ExtractionFailures *prometheus.CounterVec
	RenderFailures     *prometheus.CounterVec
	LastUpdate         *prometheus.GaugeVec
}

// NewWithRegistry creates a collector registered with reg. Each monitor
// passes its own registry so collectors never share global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Total number of fetch cycles by outcome",
			},
			[]string{"resource", "result"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Fetch latency in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"resource"},
		),
		HTTPStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_status_code",
				Help:      "HTTP status code of the last completed fetch",
			},
			[]string{"resource"},
		),
		Available: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sensor_available",
				Help:      "Whether the last fetch succeeded (1) or not (0)",
			},
			[]string{"resource"},
		),
		ParseFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "parse_failures_total",
				Help:      "Total number of response bodies that were not JSON documents",
			},
			[]string{"resource"},
		),
		ExtractionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_failures_total",
				Help:      "Total number of sub-sensor extractions that produced no value",
			},
			[]string{"resource", "sensor", "kind"},
		),
		RenderFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "render_failures_total",
				Help:      "Total number of value template or expression failures",
			},
			[]string{"resource", "sensor"},
		),
		LastUpdate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_update_timestamp",
				Help:      "Unix timestamp of the last completed cycle",
			},
			[]string{"resource"},
		),
	}
}

// ObserveCycle records one completed cycle.
func (c *Collector) ObserveCycle(snap sensor.Snapshot) {
	res := snap.Name

	if snap.Available {
		c.FetchTotal.WithLabelValues(res, "success").Inc()
		c.Available.WithLabelValues(res).Set(1)
		c.HTTPStatus.WithLabelValues(res).Set(float64(snap.StatusCode))
	} else {
		c.FetchTotal.WithLabelValues(res, "failure").Inc()
		c.Available.WithLabelValues(res).Set(0)
	}
	c.FetchDuration.WithLabelValues(res).Observe(snap.Latency.Seconds())
	c.LastUpdate.WithLabelValues(res).Set(float64(snap.CheckedAt.Unix()))

	// Only a body someone tried to extract from counts as a parse failure.
	if snap.Available && snap.ParseErr != nil && len(snap.Subs) > 0 {
		c.ParseFailures.WithLabelValues(res).Inc()
	}

	if snap.RenderErr != nil {
		c.RenderFailures.WithLabelValues(res, "").Inc()
	}
	for _, sub := range snap.Subs {
		if !sub.Present {
			c.ExtractionFailures.WithLabelValues(res, sub.ID, sensor.FailureKind(sub.Err)).Inc()
		}
		if sub.RenderErr != nil {
			c.RenderFailures.WithLabelValues(res, sub.ID).Inc()
		}
	}
}

var _ sensor.Recorder = (*Collector)(nil)
