package mapping

import (
	"sync"

	"github.com/samber/mo"

	"github.com/omarluq/mapping-engine/internal/configdomain"
)

// fakeEntity is a minimal configdomain.Entity for tests.
type fakeEntity struct {
	typ     configdomain.ConfigType
	kind    configdomain.Kind
	id      string
	version int64
}

func (e fakeEntity) Type() configdomain.ConfigType { return e.typ }
func (e fakeEntity) Kind() configdomain.Kind       { return e.kind }
func (e fakeEntity) InstanceID() string            { return e.id }
func (e fakeEntity) Version() int64                { return e.version }

func singletonEntity(typ string, version int64) fakeEntity {
	return fakeEntity{typ: configdomain.ConfigType(typ), kind: configdomain.Singleton, version: version}
}

func groupEntity(typ, id string, version int64) fakeEntity {
	return fakeEntity{typ: configdomain.ConfigType(typ), kind: configdomain.Group, id: id, version: version}
}

// fakeStore is a bare-bones configdomain.Accessor for tests that don't need
// the full configstore.Store.
type fakeStore struct {
	mu        sync.Mutex
	singles   map[configdomain.ConfigType]configdomain.Entity
	groups    map[configdomain.ConfigType]map[string]configdomain.Entity
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		singles: make(map[configdomain.ConfigType]configdomain.Entity),
		groups:  make(map[configdomain.ConfigType]map[string]configdomain.Entity),
	}
}

func (s *fakeStore) Get(t configdomain.ConfigType) mo.Option[configdomain.Entity] {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.singles[t]
	if !ok {
		return mo.None[configdomain.Entity]()
	}
	return mo.Some(e)
}

func (s *fakeStore) GetGroup(t configdomain.ConfigType, id string) mo.Option[configdomain.Entity] {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[t]
	if !ok {
		return mo.None[configdomain.Entity]()
	}
	e, ok := g[id]
	if !ok {
		return mo.None[configdomain.Entity]()
	}
	return mo.Some(e)
}

func (s *fakeStore) All(t configdomain.ConfigType) []configdomain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.groups[t]
	out := make([]configdomain.Entity, 0, len(g))
	for _, e := range g {
		out = append(out, e)
	}
	return out
}

func (s *fakeStore) putGroup(e configdomain.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[e.Type()]
	if !ok {
		g = make(map[string]configdomain.Entity)
		s.groups[e.Type()] = g
	}
	g[e.InstanceID()] = e
}

var _ configdomain.Accessor = (*fakeStore)(nil)

// fakeProvider is a configurable Provider for tests.
type fakeProvider struct {
	name       string
	rank       int32
	partial    bool
	canProvide func(ID) bool
	provide    func(ID, configdomain.Accessor) (PropertyMap, error)
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Rank() int32     { return p.rank }
func (p *fakeProvider) IsPartial() bool { return p.partial }

func (p *fakeProvider) CanProvideFor(id ID) bool {
	if p.canProvide == nil {
		return true
	}
	return p.canProvide(id)
}

func (p *fakeProvider) Provide(id ID, accessor configdomain.Accessor) (PropertyMap, error) {
	return p.provide(id, accessor)
}

func okProvider(name string, rank int32, partial bool, props PropertyMap) *fakeProvider {
	return &fakeProvider{
		name: name, rank: rank, partial: partial,
		provide: func(ID, configdomain.Accessor) (PropertyMap, error) {
			return props, nil
		},
	}
}

func scalarMap(kv map[string]any) PropertyMap {
	out := make(PropertyMap, len(kv))
	for k, v := range kv {
		out[k] = Scalar(v)
	}
	return out
}

var _ MappingChangeListener = (*recordingMappingListener)(nil)

type recordingMappingListener struct {
	mu     sync.Mutex
	events []MappingChangeEvent
}

func (l *recordingMappingListener) OnChange(e MappingChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingMappingListener) snapshot() []MappingChangeEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]MappingChangeEvent, len(l.events))
	copy(out, l.events)
	return out
}
