// Package store keeps the latest state of every resource and fans updates
// out to subscribers.
//
// The main components are:
//
//   - [Store]: interface for storage and subscription
//   - [MemoryStore]: in-memory implementation with pub/sub
//   - [SensorState]: JSON representation of a resource and its sub-sensors
//
// Subscribers receive updates via channels with non-blocking sends; a slow
// subscriber misses updates rather than stalling the poll loop.
package store
