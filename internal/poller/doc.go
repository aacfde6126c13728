// Package poller performs the HTTP side of restsensor.
//
// The main components are:
//
//   - [Request]: Immutable description of one HTTP exchange (method, URL,
//     headers, payload, auth, TLS verification, timeout)
//   - [Client]: HTTP client wrapper with per-request timeout and size limits,
//     basic and digest authentication
//   - [Fetcher]: Owns one Request and turns every exchange into a [FetchResult]
//   - [Scheduler]: Runs periodic [Task] values through a worker pool
//
// Users of the restsensor library should not need to interact with this
// package directly. Configuration is done through the main restsensor package.
package poller
