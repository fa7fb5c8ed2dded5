package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/mapping-engine/internal/configdomain"
)

func newTestService(t *testing.T) (*Service, *Dispatcher) {
	t.Helper()
	d := NewDispatcher(4)
	t.Cleanup(d.Shutdown)
	return NewService(newFakeStore(), d), d
}

func TestService_LazyResolverCreationAndLookupMiss(t *testing.T) {
	svc, _ := newTestService(t)

	_, ok := svc.GetMapping("unbound")
	assert.False(t, ok, "a name with no bound providers must resolve to REMOVED")
}

func TestService_BindDiscoversExistingResolvers(t *testing.T) {
	svc, _ := newTestService(t)

	_, ok := svc.GetMapping("db")
	require.False(t, ok)

	p := okProvider("p", 0, false, scalarMap(map[string]any{"host": "x"}))
	require.NoError(t, svc.Bind(p))

	m, ok := svc.GetMapping("db")
	require.True(t, ok)
	props, err := m.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "x", props["host"].ScalarValue())
}

func TestService_BindTwiceIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	_, _ = svc.GetMapping("db")

	p := okProvider("p", 0, false, scalarMap(map[string]any{"host": "x"}))
	require.NoError(t, svc.Bind(p))
	require.NoError(t, svc.Bind(p))

	assert.Equal(t, 1, svc.registry.Size())
}

func TestService_UnbindRemovesContribution(t *testing.T) {
	svc, _ := newTestService(t)
	_, _ = svc.GetMapping("db")

	p := okProvider("p", 0, false, scalarMap(map[string]any{"host": "x"}))
	require.NoError(t, svc.Bind(p))

	_, ok := svc.GetMapping("db")
	require.True(t, ok)

	wasBound, err := svc.Unbind(p)
	require.NoError(t, err)
	assert.True(t, wasBound)

	_, ok = svc.GetMapping("db")
	assert.False(t, ok)
}

func TestService_OnConfigChangeRecomputesAffectedResolvers(t *testing.T) {
	store := newFakeStore()
	store.putGroup(groupEntity("LdapConfig", "ldap-1", 1))
	d := NewDispatcher(4)
	t.Cleanup(d.Shutdown)
	svc := NewService(store, d)
	_, _ = svc.GetMapping("ldap")

	calls := 0
	p := &fakeProvider{
		name: "ldap", rank: 0, partial: false,
		provide: func(id ID, accessor configdomain.Accessor) (PropertyMap, error) {
			calls++
			accessor.GetGroup("LdapConfig", "ldap-1")
			return scalarMap(map[string]any{"ok": true}), nil
		},
	}
	require.NoError(t, svc.Bind(p))
	require.Equal(t, 1, calls)

	svc.OnChange(configdomain.ConfigChangeEvent{
		Updated: []configdomain.Entity{groupEntity("LdapConfig", "ldap-1", 2)},
	})
	assert.Equal(t, 2, calls)
}

func TestService_ListenerReceivesDispatchedEvents(t *testing.T) {
	svc, _ := newTestService(t)
	listener := &recordingMappingListener{}
	svc.Subscribe(listener)
	_, _ = svc.GetMapping("db")

	p := okProvider("p", 0, false, scalarMap(map[string]any{"host": "x"}))
	require.NoError(t, svc.Bind(p))

	require.Eventually(t, func() bool {
		return len(listener.snapshot()) == 1
	}, time.Second, time.Millisecond)

	events := listener.snapshot()
	assert.Equal(t, CREATED, events[0].Type)
}

func TestService_SnapshotListsKnownMappings(t *testing.T) {
	svc, _ := newTestService(t)
	_, _ = svc.GetMapping("db")
	_, _ = svc.GetMapping("ldap")

	snap := svc.Snapshot()
	ids := make([]string, len(snap))
	for i, m := range snap {
		ids[i] = m.ID().Name
	}
	assert.ElementsMatch(t, []string{"db", "ldap"}, ids)
}

func TestService_ShutdownRejectsFurtherMutation(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Shutdown()

	err := svc.Bind(okProvider("p", 0, false, nil))
	assert.ErrorIs(t, err, ErrClosedService)
}
