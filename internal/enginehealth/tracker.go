// Package enginehealth snapshots operational state for internal/adminapi:
// per-mapping resolver state counts, dispatcher queue depth, and
// rehydration-source circuit state. Adapted from the teacher's
// internal/health.Tracker map+mutex state-snapshot shape; the HTTP-specific
// checker/circuit machinery it also carried has no counterpart here, since
// the engine's own remote dependencies already get circuit breaking at the
// call site (internal/configsource/awsssm, internal/ruleprovider.HTTPSource).
package enginehealth

import (
	"sync"

	"github.com/omarluq/mapping-engine/internal/mapping"
)

// CircuitStateFunc reports a rehydration source's current circuit-breaker
// state as a string (e.g. "closed", "open", "half-open").
type CircuitStateFunc func() string

// Snapshot is a point-in-time view of engine health.
type Snapshot struct {
	ResolverCounts       map[string]int
	DispatcherQueueDepth int
	SourceCircuits       map[string]string
}

// Tracker aggregates mapping-resolver state transitions (by subscribing as
// a mapping.MappingChangeListener), dispatcher queue depth, and
// rehydration-source circuit state into a single queryable snapshot.
type Tracker struct {
	mu             sync.RWMutex
	mappingStates  map[mapping.ID]mapping.State
	dispatcher     *mapping.Dispatcher
	sourceCircuits map[string]CircuitStateFunc
}

// NewTracker builds a Tracker reporting dispatcher's queue depth alongside
// whatever mapping states and source circuits are registered.
func NewTracker(dispatcher *mapping.Dispatcher) *Tracker {
	return &Tracker{
		mappingStates:  make(map[mapping.ID]mapping.State),
		dispatcher:     dispatcher,
		sourceCircuits: make(map[string]CircuitStateFunc),
	}
}

// OnChange implements mapping.MappingChangeListener, recording the latest
// state observed for each mapping. Register it on a mapping.Service via
// Subscribe.
func (t *Tracker) OnChange(event mapping.MappingChangeEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mappingStates[event.Mapping.ID()] = event.Type
}

// RegisterSourceCircuit records a named rehydration source's circuit-state
// getter (e.g. wrapping a gobreaker.CircuitBreaker.State().String()).
func (t *Tracker) RegisterSourceCircuit(name string, stateFunc CircuitStateFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sourceCircuits[name] = stateFunc
}

// Snapshot returns the current aggregated view.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[string]int, 3)
	for _, state := range t.mappingStates {
		counts[state.String()]++
	}

	circuits := make(map[string]string, len(t.sourceCircuits))
	for name, fn := range t.sourceCircuits {
		circuits[name] = fn()
	}

	depth := 0
	if t.dispatcher != nil {
		depth = t.dispatcher.QueueDepth()
	}

	return Snapshot{
		ResolverCounts:       counts,
		DispatcherQueueDepth: depth,
		SourceCircuits:       circuits,
	}
}

var _ mapping.MappingChangeListener = (*Tracker)(nil)
