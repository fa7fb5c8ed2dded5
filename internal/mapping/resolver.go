package mapping

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/omarluq/mapping-engine/internal/configdomain"
)

// State is a Mapping Resolver's availability: the tri-state machine of
// spec §4.3. REMOVED is the zero value, matching "all resolvers start in
// REMOVED".
type State int

const (
	// REMOVED means no non-partial provider succeeded on the last
	// recompute; the property map is empty (invariants I1, I2).
	REMOVED State = iota
	// CREATED means the mapping just became available after being REMOVED.
	CREATED
	// UPDATED means the mapping was already available and a recompute saw
	// its cached failure appear or clear. A recompute that changes only the
	// property content keeps the current state and reports no transition.
	UPDATED
)

func (s State) String() string {
	switch s {
	case REMOVED:
		return "REMOVED"
	case CREATED:
		return "CREATED"
	case UPDATED:
		return "UPDATED"
	default:
		return "UNKNOWN"
	}
}

// Mapping is the read-only facade exposed to listeners and consumers: an
// identity plus a way to resolve its current property map.
type Mapping interface {
	ID() ID
	Resolve() (PropertyMap, error)
}

// Resolver owns everything for one mapping identity: the bound-provider
// set, the cached property map, the dependency set, the availability
// state, and the cached failure. A single mutex guards all of it (spec
// §4.3, §5).
type Resolver struct {
	id        ID
	store     configdomain.Accessor
	mu        sync.Mutex
	providers *providerSet
	props     PropertyMap
	deps      *dependencySet
	state     State
	cachedErr *MappingError
}

func newResolver(id ID, store configdomain.Accessor) *Resolver {
	return &Resolver{
		id:        id,
		store:     store,
		providers: newProviderSet(),
		props:     PropertyMap{},
		deps:      newDependencySet(),
	}
}

// ID returns the mapping identity this resolver owns.
func (r *Resolver) ID() ID {
	return r.id
}

// State returns the current availability state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Resolve returns a deep clone of the cached property map (spec §4.3
// Resolve API, P7). If a failure is cached, recompute runs once more to
// produce a fresh cause and the resulting error is propagated. If the
// state is REMOVED, an empty map is returned (not an error).
func (r *Resolver) Resolve() (PropertyMap, error) {
	r.mu.Lock()
	hasErr := r.cachedErr != nil
	r.mu.Unlock()

	if hasErr {
		r.Recompute()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cachedErr != nil {
		return nil, r.cachedErr
	}
	if r.state == REMOVED {
		return PropertyMap{}, nil
	}
	return r.props.Clone(), nil
}

// Bind adds p to the bound-provider set and recomputes atomically. Returns
// the new state and whether a transition actually occurred.
func (r *Resolver) Bind(p Provider) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers.add(p)
	return r.recomputeLocked()
}

// Unbind removes p from the bound-provider set, immediately clears the
// dependency set (spec I3, P8), and recomputes atomically. Returns the new
// state, whether a transition occurred, and whether p had been bound.
func (r *Resolver) Unbind(p Provider) (State, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasPresent := r.providers.remove(p)
	r.deps.clear()
	state, changed := r.recomputeLocked()
	return state, changed, wasPresent
}

// Rebind replaces oldP with newP. When oldP and newP are the same
// reference this is a no-op structural change (just a forced recompute);
// otherwise it clears the dependency set first (spec §9 Open Questions:
// clear on any unbind, and on any rebind where old and new differ).
func (r *Resolver) Rebind(oldP, newP Provider) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if oldP != newP {
		r.providers.remove(oldP)
		r.providers.add(newP)
		r.deps.clear()
	}
	return r.recomputeLocked()
}

// IsAffectedBy reports whether event touches an entity within this
// resolver's tracked dependency set (spec §4.3 "Affects detection").
func (r *Resolver) IsAffectedBy(event configdomain.ConfigChangeEvent) bool {
	return r.deps.isAffectedBy(event)
}

// Recompute runs the recompute algorithm (spec §4.3) under the resolver's
// lock and returns the new state and whether a transition occurred.
func (r *Resolver) Recompute() (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recomputeLocked()
}

// recomputeLocked implements the recompute() algorithm of spec §4.3.
// Caller must hold r.mu.
func (r *Resolver) recomputeLocked() (State, bool) {
	prevState := r.state
	prevErrPresent := r.cachedErr != nil

	newProps := PropertyMap{}
	var newErr *MappingError
	hadCompleteProvider := false

	deps := newDependencySet()
	providers := r.providers.snapshot()

providerLoop:
	for _, p := range providers {
		accessor := newTrackingAccessor(r.store, deps)
		result, err := safeProvide(p, r.id, accessor)

		switch {
		case err == nil:
			for k, v := range result {
				newProps[k] = v
			}
			if !p.IsPartial() {
				newErr = nil
				hadCompleteProvider = true
			}
		case errors.Is(err, ErrUnavailable):
			hadCompleteProvider = false
			break providerLoop
		default:
			if me, ok := AsMappingError(p.Name(), err); ok {
				if newErr == nil {
					newErr = me
				}
				if !p.IsPartial() {
					hadCompleteProvider = true
				}
			}
		}
	}

	r.deps = deps

	var newState State
	switch {
	case !hadCompleteProvider:
		newState = REMOVED
		newProps = PropertyMap{}
		newErr = nil
	case (prevErrPresent != (newErr != nil)) || prevState == REMOVED:
		if prevState == REMOVED {
			newState = CREATED
		} else {
			newState = UPDATED
		}
	default:
		newState = prevState
	}

	r.props = newProps
	r.cachedErr = newErr
	r.state = newState

	changed := newState != prevState

	log.Debug().
		Stringer("mapping_id", logID{r.id}).
		Str("prev_state", prevState.String()).
		Str("new_state", newState.String()).
		Bool("changed", changed).
		Msg("mapping resolver recomputed")

	return newState, changed
}

// safeProvide invokes p.Provide, converting a panic into an
// UnexpectedProviderError so a misbehaving provider can never crash the
// resolver's goroutine (spec §5: "a misbehaving provider blocks its
// resolver only").
func safeProvide(p Provider, id ID, accessor configdomain.Accessor) (result PropertyMap, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = NewMappingError(p.Name(), &UnexpectedProviderError{
				Provider: p.Name(),
				Cause:    panicError{rec},
			})
		}
	}()
	return p.Provide(id, accessor)
}

type panicError struct{ v any }

func (p panicError) Error() string {
	if err, ok := p.v.(error); ok {
		return err.Error()
	}
	return "panic in provider"
}

// logID adapts ID for zerolog's Stringer field without importing fmt at
// every call site.
type logID struct{ id ID }

func (l logID) String() string { return l.id.String() }

var _ Mapping = (*Resolver)(nil)
