package restsensor

import (
	"time"

	"github.com/jpalmerr/restsensor/internal/sensor"
)

// StateUnknown is the value reported when no real value could be determined:
// before the first poll, after a transport failure, or when the value
// template or expression failed.
const StateUnknown = sensor.StateUnknown

// SubSnapshot is the state of one sub-sensor after a poll.
type SubSnapshot struct {
	// ID is the sub-sensor slug.
	ID string

	// Name is the friendly name.
	Name string

	// Value is the extracted (and rendered) value. Meaningful only when
	// Present is true.
	Value string

	// Present is false when the body was not JSON, the path was invalid, or
	// it matched nothing.
	Present bool

	// Err explains why Present is false. Use errors.Is with [ErrNotJSON],
	// [ErrNoMatch] and friends, or errors.As with *[QueryError].
	Err error

	// RenderErr is set when the template or expression failed and Value fell
	// back to [StateUnknown].
	RenderErr error
}

// Snapshot is the complete state of one [Sensor] after a poll.
//
// Every field comes from the same poll: the primary value and the
// sub-sensors are never a mix of two cycles.
type Snapshot struct {
	// Name is the sensor's display name.
	Name string

	// URL is the polled URL with credentials redacted.
	URL string

	// Unit is the unit of measurement, if configured.
	Unit string

	// Value is the primary value, or [StateUnknown].
	Value string

	// Available is false when the fetch failed at the transport level.
	Available bool

	// StatusCode is the HTTP status of the response, 0 if none arrived.
	StatusCode int

	// Latency is the request duration.
	Latency time.Duration

	// CheckedAt is when the poll completed.
	CheckedAt time.Time

	// FetchErr is the transport error, if any.
	FetchErr error

	// RenderErr is the value template or expression error, if any.
	RenderErr error

	// SubSensors are in configuration order.
	SubSensors []SubSnapshot
}

// SubSensor returns the state of the sub-sensor with the given id.
func (s Snapshot) SubSensor(id string) (SubSnapshot, bool) {
	for _, sub := range s.SubSensors {
		if sub.ID == id {
			return sub, true
		}
	}
	return SubSnapshot{}, false
}

// Failure kinds reported on [SubSnapshot.Err].
var (
	ErrNoBody     = sensor.ErrNoBody
	ErrNotJSON    = sensor.ErrNotJSON
	ErrNoDocument = sensor.ErrNoDocument
	ErrNoMatch    = sensor.ErrNoMatch
)

// QueryError reports a JSON path that could not be compiled or evaluated.
type QueryError = sensor.QueryError

// toPublicSnapshot converts the coordinator's snapshot into the public type.
func toPublicSnapshot(snap sensor.Snapshot, url string) Snapshot {
	subs := make([]SubSnapshot, len(snap.Subs))
	for i, sub := range snap.Subs {
		subs[i] = SubSnapshot{
			ID:        sub.ID,
			Name:      sub.Name,
			Value:     sub.Value,
			Present:   sub.Present,
			Err:       sub.Err,
			RenderErr: sub.RenderErr,
		}
	}

	return Snapshot{
		Name:       snap.Name,
		URL:        url,
		Unit:       snap.Unit,
		Value:      snap.Value,
		Available:  snap.Available,
		StatusCode: snap.StatusCode,
		Latency:    snap.Latency,
		CheckedAt:  snap.CheckedAt,
		FetchErr:   snap.FetchErr,
		RenderErr:  snap.RenderErr,
		SubSensors: subs,
	}
}
