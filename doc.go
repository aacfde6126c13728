// Package restsensor polls HTTP resources and turns each response into a
// primary sensor value plus any number of sub-sensor values extracted from
// the JSON body with JSONPath.
//
// One request per resource per cycle feeds every sensor built on it: the
// body is rendered into the primary value, parsed as JSON once, and that
// single document is shared by all sub-sensors.
//
// # Quick Start
//
//	res, _ := restsensor.NewResource("https://api.example.com/weather")
//	temp, _ := restsensor.NewSubSensor("temperature", "$.main.temp",
//	    restsensor.WithFriendlyName("Temperature"),
//	)
//	s, _ := restsensor.NewSensor("Weather", res,
//	    restsensor.WithValueTemplate("{{ .value_json.weather | len }}"),
//	    restsensor.WithSubSensors(temp),
//	)
//	m, _ := restsensor.New(restsensor.WithSensor(s))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	m.Start(ctx) // blocks until context is cancelled
//
// Hosts with their own scheduler call [Monitor.Update] instead of Start.
//
// # Values
//
// The primary value is the raw body, or the output of a value template
// (Go text/template with sprig functions) or a value expression (expr-lang).
// Both see value, the text, and value_json, the parsed body.
//
// A sub-sensor takes the first node its path matches. Strings are used
// verbatim, numbers in shortest form, booleans as true/false, objects and
// arrays as compact JSON. Its own template or expression then sees that text
// as value and the node as value_json.
//
// # Failures
//
// Nothing a resource returns can stop polling:
//
//   - unreachable resource: Available=false, Value [StateUnknown], every sub-sensor absent
//   - body not JSON: primary unaffected, every sub-sensor absent
//   - bad or unmatched path: that sub-sensor absent, the others unaffected
//   - template or expression error: that value becomes [StateUnknown]
//
// # Architecture
//
//   - internal/poller: HTTP fetcher and tick-and-check scheduler with worker pool
//   - internal/render: template and expression renderers
//   - internal/sensor: primary value, sub-value extractors, per-resource coordinator
//   - internal/store: in-memory state with pub/sub for real-time updates
//   - internal/server: HTTP API, Server-Sent Events, Prometheus metrics
//   - internal/metrics: Prometheus collector
//   - dashboard: embedded web UI
package restsensor
