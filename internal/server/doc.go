// Package server provides the HTTP surface of restsensor.
//
// It serves the embedded dashboard at "/", the current sensor states at
// "/api/sensors" and "/api/sensors/{name}", a Server-Sent Events stream at
// "/api/sse" and, when configured, Prometheus metrics at "/metrics".
//
// The server shuts down gracefully when its context is cancelled, with a
// 5-second timeout for in-flight requests.
package server
