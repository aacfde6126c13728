package store

import (
	"sort"
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// States are keyed by resource name; each Update replaces the whole state,
// sub-sensors included, so a reader never sees sub-sensors from one cycle
// next to a primary value from another.
//
// Subscribers receive updates via buffered channels. Updates are sent
// non-blocking; if a subscriber's buffer is full, the update is dropped for
// that subscriber.
type MemoryStore struct {
	mu          sync.RWMutex
	states      map[string]SensorState
	subscribers map[chan SensorState]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:      make(map[string]SensorState),
		subscribers: make(map[chan SensorState]struct{}),
	}
}

// Update stores a [SensorState] and notifies all subscribers.
func (m *MemoryStore) Update(state SensorState) {
	state = state.Clone()

	m.mu.Lock()
	m.states[state.Name] = state
	m.mu.Unlock()

	m.notifySubscribers(state)
}

// Get returns a copy of the state stored under name.
func (m *MemoryStore) Get(name string) (SensorState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[name]
	if !ok {
		return SensorState{}, false
	}
	return state.Clone(), true
}

// GetAll returns a snapshot of all stored states, sorted by name.
func (m *MemoryStore) GetAll() []SensorState {
	m.mu.RLock()
	results := make([]SensorState, 0, len(m.states))
	for _, state := range m.states {
		results = append(results, state.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})
	return results
}

// Subscribe creates a new subscription and returns a channel for receiving
// updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan SensorState {
	ch := make(chan SensorState, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan SensorState) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends state to every subscriber without blocking.
func (m *MemoryStore) notifySubscribers(state SensorState) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- state.Clone():
		default:
			// slow subscriber, drop
		}
	}
}
