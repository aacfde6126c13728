package sensor

import "time"

// SubState is the value of one sub-sensor after a cycle.
type SubState struct {
	ID   string
	Name string

	// Value is meaningful only when Present is true.
	Value   string
	Present bool

	// Err explains why Present is false.
	Err error

	// RenderErr is set when the expression failed and Value fell back to
	// StateUnknown. Present stays true in that case.
	RenderErr error
}

// Snapshot is the complete observed state of one resource after a cycle.
//
// A Snapshot is a value: Coordinator hands out copies, so holding one never
// races with the next cycle.
type Snapshot struct {
	Name      string
	Unit      string
	Value     string
	Available bool

	StatusCode int
	Latency    time.Duration
	CheckedAt  time.Time

	// FetchErr is the transport failure, if any.
	FetchErr error

	// ParseErr is why the shared JSON parse produced no document.
	ParseErr error

	// RenderErr is the primary expression failure, if any.
	RenderErr error

	// Subs are in configuration order.
	Subs []SubState
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	if s.Subs != nil {
		subs := make([]SubState, len(s.Subs))
		copy(subs, s.Subs)
		s.Subs = subs
	}
	return s
}

// Sub returns the sub-sensor state with the given id.
func (s Snapshot) Sub(id string) (SubState, bool) {
	for _, sub := range s.Subs {
		if sub.ID == id {
			return sub, true
		}
	}
	return SubState{}, false
}
