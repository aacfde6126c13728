// Package sensor implements the extraction and fan-out pipeline of
// restsensor.
//
// One [Coordinator] exists per configured resource. Each cycle it asks its
// [Fetcher] for the body, parses the body as JSON once into a [Document],
// renders the primary value through a [PrimaryValue], and evaluates every
// [SubValueExtractor] against the shared document. The outcome is published
// as one immutable [Snapshot].
//
// Failure isolation:
//
//   - transport failure: primary unavailable, value "unknown", all sub-sensors absent
//   - body is not JSON: sub-sensors absent, primary unaffected
//   - bad path or no match: that sub-sensor absent, siblings unaffected
//   - render failure: value "unknown", availability unaffected
package sensor
