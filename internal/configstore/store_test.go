package configstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/mapping-engine/internal/configdomain"
	"github.com/omarluq/mapping-engine/internal/configstore"
)

type fakeEntity struct {
	typ     configdomain.ConfigType
	kind    configdomain.Kind
	id      string
	version int64
}

func (e fakeEntity) Type() configdomain.ConfigType { return e.typ }
func (e fakeEntity) Kind() configdomain.Kind        { return e.kind }
func (e fakeEntity) InstanceID() string             { return e.id }
func (e fakeEntity) Version() int64                 { return e.version }

func singleton(typ string, version int64) fakeEntity {
	return fakeEntity{typ: configdomain.ConfigType(typ), kind: configdomain.Singleton, version: version}
}

func group(typ, id string, version int64) fakeEntity {
	return fakeEntity{typ: configdomain.ConfigType(typ), kind: configdomain.Group, id: id, version: version}
}

type recordingListener struct {
	events []configdomain.ConfigChangeEvent
}

func (r *recordingListener) OnChange(e configdomain.ConfigChangeEvent) {
	r.events = append(r.events, e)
}

func TestStore_SingletonLifecycle(t *testing.T) {
	s := configstore.New()
	l := &recordingListener{}
	s.Subscribe(l)

	s.PutSingleton(singleton("Net", 1))
	require.Len(t, l.events, 1)
	assert.Len(t, l.events[0].Added, 1)

	// same version: no event
	s.PutSingleton(singleton("Net", 1))
	require.Len(t, l.events, 1)

	// new version: updated
	s.PutSingleton(singleton("Net", 2))
	require.Len(t, l.events, 2)
	assert.Len(t, l.events[1].Updated, 1)

	got := s.Get("Net")
	require.True(t, got.IsPresent())
	assert.Equal(t, int64(2), got.MustGet().Version())

	s.RemoveSingleton("Net")
	require.Len(t, l.events, 3)
	assert.Len(t, l.events[2].Removed, 1)
	assert.False(t, s.Get("Net").IsPresent())
}

func TestStore_GroupLifecycle(t *testing.T) {
	s := configstore.New()
	l := &recordingListener{}
	s.Subscribe(l)

	s.PutGroup(group("Ldap", "ldap-1", 1))
	s.PutGroup(group("Ldap", "ldap-2", 1))
	require.Len(t, l.events, 2)

	all := s.All("Ldap")
	assert.Len(t, all, 2)

	s.RemoveGroup("Ldap", "ldap-1")
	require.Len(t, l.events, 3)
	assert.Len(t, s.All("Ldap"), 1)
	assert.False(t, s.GetGroup("Ldap", "ldap-1").IsPresent())
}

func TestStore_SyncGroupDiffsAndEmitsOnce(t *testing.T) {
	s := configstore.New()
	s.PutGroup(group("Ldap", "a", 1))
	s.PutGroup(group("Ldap", "b", 1))

	l := &recordingListener{}
	s.Subscribe(l)

	// b unchanged, c added; "a" from before removed by omission.
	s.SyncGroup("Ldap", []configdomain.Entity{
		group("Ldap", "b", 1),
		group("Ldap", "c", 1),
	})

	require.Len(t, l.events, 1)
	ev := l.events[0]
	assert.Len(t, ev.Added, 1)
	assert.Len(t, ev.Removed, 1)
	assert.Empty(t, ev.Updated)

	// Syncing the identical set again emits nothing.
	s.SyncGroup("Ldap", []configdomain.Entity{
		group("Ldap", "b", 1),
		group("Ldap", "c", 1),
	})
	require.Len(t, l.events, 1)
}

func TestStore_UnsubscribeStopsDelivery(t *testing.T) {
	s := configstore.New()
	l := &recordingListener{}
	s.Subscribe(l)
	s.Unsubscribe(l)

	s.PutSingleton(singleton("Net", 1))
	assert.Empty(t, l.events)
}
