// Package configstore implements the Abstract Config Store (spec §4.1): the
// holder of typed configuration entities that emits ConfigChangeEvents when
// mutated. File watching and document parsing are external collaborators;
// this package only exposes the mutation API external loaders call into.
package configstore

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/omarluq/mapping-engine/internal/configdomain"
)

// typeState holds everything the store knows about one ConfigType.
type typeState struct {
	singleton configdomain.Entity            // nil if this type is a group type or unset
	group     map[string]configdomain.Entity // nil if this type is a singleton type
}

// Store is the in-memory Abstract Config Store. All methods are safe for
// concurrent use. Reads take an RLock; mutations take a full Lock and
// compute a diff against the pre-mutation snapshot before emitting a single
// ConfigChangeEvent.
type Store struct {
	mu        sync.RWMutex
	types     map[configdomain.ConfigType]*typeState
	listeners []configdomain.ConfigChangeListener
}

// New creates an empty Abstract Config Store.
func New() *Store {
	return &Store{
		types: make(map[configdomain.ConfigType]*typeState),
	}
}

// Get returns the singleton entity for t, if any.
func (s *Store) Get(t configdomain.ConfigType) mo.Option[configdomain.Entity] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.types[t]
	if !ok || st.singleton == nil {
		return mo.None[configdomain.Entity]()
	}
	return mo.Some(st.singleton)
}

// GetGroup returns the group entity for t+id, if any.
func (s *Store) GetGroup(t configdomain.ConfigType, id string) mo.Option[configdomain.Entity] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.types[t]
	if !ok || st.group == nil {
		return mo.None[configdomain.Entity]()
	}
	e, ok := st.group[id]
	if !ok {
		return mo.None[configdomain.Entity]()
	}
	return mo.Some(e)
}

// All lazily enumerates every group entity for t. Returns nil if t has no
// known group entities.
func (s *Store) All(t configdomain.ConfigType) []configdomain.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.types[t]
	if !ok || st.group == nil {
		return nil
	}
	return lo.Values(st.group)
}

// Subscribe registers a listener for ConfigChangeEvents. Listeners receive
// events in production order.
func (s *Store) Subscribe(l configdomain.ConfigChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Unsubscribe removes a previously registered listener. No-op if l was
// never registered.
func (s *Store) Unsubscribe(l configdomain.ConfigChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = lo.Filter(s.listeners, func(x configdomain.ConfigChangeListener, _ int) bool {
		return !sameListener(x, l)
	})
}

// sameListener compares listener identity. Func-adapted listeners are not
// comparable via ==, so equality there always reports false rather than
// panicking.
func sameListener(a, b configdomain.ConfigChangeListener) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

// PutSingleton upserts the singleton entity for its type. Emits a
// ConfigChangeEvent with a single Added or Updated entry, or no event at
// all if the entity is unchanged (same Version).
func (s *Store) PutSingleton(e configdomain.Entity) {
	s.mu.Lock()
	st := s.stateFor(e.Type())
	prev := st.singleton
	st.singleton = e
	s.mu.Unlock()

	switch {
	case prev == nil:
		s.publish(configdomain.ConfigChangeEvent{Added: []configdomain.Entity{e}})
	case prev.Version() != e.Version():
		s.publish(configdomain.ConfigChangeEvent{Updated: []configdomain.Entity{e}})
	}
}

// RemoveSingleton deletes the singleton entity for t, if present. Emits a
// Removed event, or nothing if there was nothing to remove.
func (s *Store) RemoveSingleton(t configdomain.ConfigType) {
	s.mu.Lock()
	st, ok := s.types[t]
	var prev configdomain.Entity
	if ok {
		prev = st.singleton
		st.singleton = nil
	}
	s.mu.Unlock()

	if prev != nil {
		s.publish(configdomain.ConfigChangeEvent{Removed: []configdomain.Entity{prev}})
	}
}

// PutGroup upserts one group entity. Emits Added/Updated accordingly, or no
// event if unchanged.
func (s *Store) PutGroup(e configdomain.Entity) {
	s.mu.Lock()
	st := s.stateFor(e.Type())
	if st.group == nil {
		st.group = make(map[string]configdomain.Entity)
	}
	prev, existed := st.group[e.InstanceID()]
	st.group[e.InstanceID()] = e
	s.mu.Unlock()

	switch {
	case !existed:
		s.publish(configdomain.ConfigChangeEvent{Added: []configdomain.Entity{e}})
	case prev.Version() != e.Version():
		s.publish(configdomain.ConfigChangeEvent{Updated: []configdomain.Entity{e}})
	}
}

// RemoveGroup deletes one group entity, if present.
func (s *Store) RemoveGroup(t configdomain.ConfigType, id string) {
	s.mu.Lock()
	st, ok := s.types[t]
	var prev configdomain.Entity
	var existed bool
	if ok && st.group != nil {
		prev, existed = st.group[id]
		delete(st.group, id)
	}
	s.mu.Unlock()

	if existed {
		s.publish(configdomain.ConfigChangeEvent{Removed: []configdomain.Entity{prev}})
	}
}

// SyncGroup replaces the entire set of group entities for t with entities,
// computing added/updated/removed against the previous set and emitting a
// single ConfigChangeEvent for the whole batch. No event is emitted if
// nothing actually changed. Intended for bulk reloads (e.g. "re-read the
// whole LdapConfig directory").
func (s *Store) SyncGroup(t configdomain.ConfigType, entities []configdomain.Entity) {
	next := make(map[string]configdomain.Entity, len(entities))
	for _, e := range entities {
		next[e.InstanceID()] = e
	}

	s.mu.Lock()
	st := s.stateFor(t)
	prevGroup := st.group
	st.group = next
	s.mu.Unlock()

	var added, updated, removed []configdomain.Entity
	for id, e := range next {
		prev, existed := prevGroup[id]
		switch {
		case !existed:
			added = append(added, e)
		case prev.Version() != e.Version():
			updated = append(updated, e)
		}
	}
	for id, prev := range prevGroup {
		if _, stillThere := next[id]; !stillThere {
			removed = append(removed, prev)
		}
	}

	event := configdomain.ConfigChangeEvent{Added: added, Updated: updated, Removed: removed}
	if !event.IsEmpty() {
		s.publish(event)
	}
}

func (s *Store) stateFor(t configdomain.ConfigType) *typeState {
	st, ok := s.types[t]
	if !ok {
		st = &typeState{}
		s.types[t] = st
	}
	return st
}

func (s *Store) publish(event configdomain.ConfigChangeEvent) {
	s.mu.RLock()
	listeners := make([]configdomain.ConfigChangeListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	log.Debug().
		Int("added", len(event.Added)).
		Int("updated", len(event.Updated)).
		Int("removed", len(event.Removed)).
		Int("listeners", len(listeners)).
		Msg("config store publishing change event")

	for _, l := range listeners {
		l.OnChange(event)
	}
}

var _ configdomain.Accessor = (*Store)(nil)
