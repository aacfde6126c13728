package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jpalmerr/restsensor/internal/metrics"
	"github.com/jpalmerr/restsensor/internal/sensor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.FetchTotal == nil {
		t.Error("FetchTotal is nil")
	}
	if m.ExtractionFailures == nil {
		t.Error("ExtractionFailures is nil")
	}
}

func TestObserveCycle_Success(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveCycle(sensor.Snapshot{
		Name:       "weather",
		Value:      "21",
		Available:  true,
		StatusCode: 200,
		Latency:    50 * time.Millisecond,
		CheckedAt:  time.Unix(1700000000, 0),
		Subs: []sensor.SubState{
			{ID: "temp", Value: "21", Present: true},
			{ID: "wind", Err: sensor.ErrNoMatch},
		},
	})

	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues("weather", "success")); got != 1 {
		t.Errorf("fetch_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Available.WithLabelValues("weather")); got != 1 {
		t.Errorf("sensor_available = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPStatus.WithLabelValues("weather")); got != 200 {
		t.Errorf("http_status_code = %v, want 200", got)
	}
	if got := testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("weather", "wind", "no_match")); got != 1 {
		t.Errorf("extraction_failures_total{wind} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastUpdate.WithLabelValues("weather")); got != 1700000000 {
		t.Errorf("last_update_timestamp = %v", got)
	}
}

func TestObserveCycle_Failure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveCycle(sensor.Snapshot{
		Name:     "weather",
		Value:    sensor.StateUnknown,
		FetchErr: errors.New("connection refused"),
		ParseErr: sensor.ErrNoBody,
		Subs:     []sensor.SubState{{ID: "temp", Err: sensor.ErrNoDocument}},
	})

	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues("weather", "failure")); got != 1 {
		t.Errorf("fetch_total{failure} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Available.WithLabelValues("weather")); got != 0 {
		t.Errorf("sensor_available = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.ParseFailures.WithLabelValues("weather")); got != 0 {
		t.Errorf("parse_failures_total = %v, want 0 when fetch failed", got)
	}
	if got := testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("weather", "temp", "no_document")); got != 1 {
		t.Errorf("extraction_failures_total{no_document} = %v, want 1", got)
	}
}

func TestObserveCycle_ParseAndRenderFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveCycle(sensor.Snapshot{
		Name:      "status",
		Value:     sensor.StateUnknown,
		Available: true,
		ParseErr:  sensor.ErrNotJSON,
		RenderErr: errors.New("bad template"),
		Subs: []sensor.SubState{
			{ID: "a", Err: sensor.ErrNoDocument},
			{ID: "b", Present: true, Value: sensor.StateUnknown, RenderErr: errors.New("bad expr")},
		},
	})

	if got := testutil.ToFloat64(m.ParseFailures.WithLabelValues("status")); got != 1 {
		t.Errorf("parse_failures_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RenderFailures.WithLabelValues("status", "")); got != 1 {
		t.Errorf("render_failures_total{primary} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RenderFailures.WithLabelValues("status", "b")); got != 1 {
		t.Errorf("render_failures_total{b} = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	if len(families) == 0 {
		t.Error("no metric families gathered")
	}
}
