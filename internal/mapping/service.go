// Package mapping implements the reactive core: Mapping Identity and
// Value (spec §3), the Mapping Resolver state machine and recompute
// algorithm (spec §4.3), the Provider Registry (spec §4.4/component 2),
// the Mapping Service (spec §4.4/component 4), the Event Dispatcher
// (spec §4.5), and the Dependency-Tracking Config Proxy (spec §4.6).
package mapping

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/omarluq/mapping-engine/internal/configdomain"
)

// Service is the Mapping Service (spec §4.4): the directory of resolvers
// keyed by Id, and the routing point for bind/unbind/rebind and abstract
// store notifications.
type Service struct {
	store      configdomain.Accessor
	dispatcher *Dispatcher
	registry   *Registry
	listeners  *providerListenerSet

	mu        sync.RWMutex
	resolvers map[ID]*Resolver
	closed    bool
}

// NewService builds a Mapping Service reading through store and dispatching
// MappingChangeEvents through dispatcher. The caller owns dispatcher's
// lifecycle (construct before, Shutdown after, the Service).
func NewService(store configdomain.Accessor, dispatcher *Dispatcher) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		registry:   NewRegistry(),
		listeners:  newProviderListenerSet(),
		resolvers:  make(map[ID]*Resolver),
	}
}

// Subscribe registers l to receive every MappingChangeEvent emitted by any
// resolver owned by this service.
func (s *Service) Subscribe(l MappingChangeListener) {
	s.listeners.add(l)
}

// Unsubscribe deregisters a listener previously passed to Subscribe.
func (s *Service) Unsubscribe(l MappingChangeListener) {
	s.listeners.remove(l)
}

// GetMapping looks up the mapping for name with no instance tag. A
// resolver is constructed lazily if one does not exist yet (spec I4).
// Returns (nil, false) if the resulting resolver is REMOVED.
//
// Lookups with no instance are resolved against the wildcard-instance Id
// internally, so a provider that declares interest via CanProvideFor for
// "any instance of this name" participates in the very first lookup
// (spec §4.4 "unknown-instance lookups use a wildcard instance marker").
func (s *Service) GetMapping(name string) (Mapping, bool) {
	return s.getMapping(wildcardOf(name))
}

// GetMappingInstance looks up the mapping for name scoped to instance.
func (s *Service) GetMappingInstance(name, instance string) (Mapping, bool) {
	return s.getMapping(NewInstanceID(name, instance))
}

func (s *Service) getMapping(id ID) (Mapping, bool) {
	r := s.getOrCreateResolver(id)
	if r.State() == REMOVED {
		return nil, false
	}
	return r, true
}

func (s *Service) getOrCreateResolver(id ID) *Resolver {
	s.mu.RLock()
	r, ok := s.resolvers[id]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	if r, ok = s.resolvers[id]; ok {
		s.mu.Unlock()
		return r
	}

	r = newResolver(id, s.store)
	for _, p := range s.registry.Snapshot() {
		if p.CanProvideFor(id) {
			r.providers.add(p)
		}
	}
	state, changed := r.Recompute()
	s.resolvers[id] = r
	s.mu.Unlock()

	s.emit(r, state, changed)
	return r
}

// Bind registers p and, for every existing resolver whose CanProvideFor(id)
// is true, binds p into it and recomputes (spec §4.4 control flow for
// external bind). If p is already registered, Bind behaves like
// Rebind(p, p): every existing resolver currently holding p is forced to
// recompute (spec P5 idempotent bind).
func (s *Service) Bind(p Provider) error {
	if s.isClosed() {
		return ErrClosedService
	}

	if !s.registry.Add(p) {
		return s.Rebind(p, p)
	}

	for _, r := range s.resolverSnapshot() {
		if !p.CanProvideFor(r.ID()) {
			continue
		}
		state, changed := r.Bind(p)
		s.emit(r, state, changed)
	}
	return nil
}

// Unbind removes p from the registry and every resolver currently holding
// it, recomputing each. Returns whether p had been registered.
func (s *Service) Unbind(p Provider) (bool, error) {
	if s.isClosed() {
		return false, ErrClosedService
	}

	wasRegistered := s.registry.Remove(p)

	for _, r := range s.resolverSnapshot() {
		state, changed, wasPresent := r.Unbind(p)
		if wasPresent {
			s.emit(r, state, changed)
		}
	}
	return wasRegistered, nil
}

// Rebind replaces oldP with newP across the registry and every resolver
// that held oldP, recomputing each. newP additionally binds into any
// resolver it newly concerns (same discovery rule as Bind).
func (s *Service) Rebind(oldP, newP Provider) error {
	if s.isClosed() {
		return ErrClosedService
	}

	s.registry.Remove(oldP)
	s.registry.Add(newP)

	for _, r := range s.resolverSnapshot() {
		held := r.providers.contains(oldP)
		switch {
		case held:
			state, changed := r.Rebind(oldP, newP)
			s.emit(r, state, changed)
		case newP.CanProvideFor(r.ID()):
			state, changed := r.Bind(newP)
			s.emit(r, state, changed)
		}
	}
	return nil
}

// OnChange implements configdomain.ConfigChangeListener: it recomputes
// every resolver whose dependency set is affected by event (spec P4), in
// resolver-snapshot order, and dispatches any resulting transitions.
func (s *Service) OnChange(event configdomain.ConfigChangeEvent) {
	for _, r := range s.resolverSnapshot() {
		if !r.IsAffectedBy(event) {
			continue
		}
		state, changed := r.Recompute()
		s.emit(r, state, changed)
	}
}

// Snapshot returns every mapping this service currently knows about
// (including REMOVED ones), for read-only introspection such as
// internal/adminapi. It never triggers resolver creation.
func (s *Service) Snapshot() []Mapping {
	resolvers := s.resolverSnapshot()
	out := make([]Mapping, len(resolvers))
	for i, r := range resolvers {
		out[i] = r
	}
	return out
}

func (s *Service) resolverSnapshot() []*Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Resolver, 0, len(s.resolvers))
	for _, r := range s.resolvers {
		out = append(out, r)
	}
	return out
}

func (s *Service) emit(r *Resolver, state State, changed bool) {
	if !changed {
		return
	}

	event := MappingChangeEvent{Type: state, Mapping: r}
	log.Debug().
		Str("mapping_id", r.ID().String()).
		Str("event_type", state.String()).
		Msg("mapping service dispatching change event")

	for _, l := range s.listeners.snapshot() {
		if err := s.dispatcher.Dispatch(l, event); err != nil {
			log.Warn().Err(err).Str("mapping_id", r.ID().String()).Msg("dropped mapping change event: dispatcher closed")
		}
	}
}

func (s *Service) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Shutdown marks the service closed; subsequent Bind/Unbind/Rebind calls
// return ErrClosedService. It does not shut down the dispatcher or the
// store, which may be shared by other collaborators.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

var _ configdomain.ConfigChangeListener = (*Service)(nil)
