package store

import "time"

// SubSensorState is the storage representation of one sub-sensor.
type SubSensorState struct {
	// ID is the sub-sensor slug, unique within its resource.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Value is the extracted value. nil means the sub-sensor is absent
	// this cycle.
	Value *string `json:"value"`

	// Error explains why Value is nil, or why it fell back to "unknown".
	Error *string `json:"error,omitempty"`
}

// SensorState represents the current state of one resource and its
// sub-sensors in storage.
//
// SensorState is optimized for JSON serialization (used by the REST API and
// SSE). It is decoupled from the sensor package's types so the wire format
// can evolve independently.
type SensorState struct {
	// Name is the resource's display name.
	Name string `json:"name"`

	// URL is the resource URL with credentials redacted.
	URL string `json:"url"`

	// Value is the primary value, "unknown" when none could be determined.
	Value string `json:"value"`

	// Unit is the unit of measurement, if configured.
	Unit string `json:"unit,omitempty"`

	// Available is false when the last fetch failed at the transport level.
	Available bool `json:"available"`

	// StatusCode is the HTTP status of the last fetch, 0 when none arrived.
	StatusCode int `json:"status_code"`

	// ResponseTimeMs is the request latency in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// CheckedAt is the timestamp of the last cycle.
	CheckedAt time.Time `json:"checked_at"`

	// Error contains the fetch error, if the last fetch failed.
	Error *string `json:"error"`

	// Sensors are the sub-sensors in configuration order.
	Sensors []SubSensorState `json:"sensors"`
}

// Clone returns a copy that shares no slices with s.
func (s SensorState) Clone() SensorState {
	if s.Sensors != nil {
		subs := make([]SubSensorState, len(s.Sensors))
		copy(subs, s.Sensors)
		s.Sensors = subs
	}
	return s
}

// Store defines the interface for storing and subscribing to sensor states.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// Update stores a new state and notifies all subscribers.
	// The state is keyed by Name and replaces the previous one as a whole.
	Update(state SensorState)

	// Get returns the state stored under name.
	Get(name string) (SensorState, bool)

	// GetAll returns all currently stored states sorted by name.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []SensorState

	// Subscribe returns a channel that receives state updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan SensorState

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan SensorState)
}
