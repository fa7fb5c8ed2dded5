package mapping

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMapping struct{ id ID }

func (m stubMapping) ID() ID                        { return m.id }
func (m stubMapping) Resolve() (PropertyMap, error) { return nil, nil }

func TestDispatcher_DeliversToListener(t *testing.T) {
	d := NewDispatcher(2)
	defer d.Shutdown()

	var received int32
	listener := MappingChangeListenerFunc(func(MappingChangeEvent) {
		atomic.AddInt32(&received, 1)
	})

	require.NoError(t, d.Dispatch(listener, MappingChangeEvent{Type: CREATED, Mapping: stubMapping{id: NewID("x")}}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) == 1
	}, time.Second, time.Millisecond)
}

func TestDispatcher_PreservesPerMappingOrder(t *testing.T) {
	d := NewDispatcher(8)
	defer d.Shutdown()

	var mu sync.Mutex
	var seen []State

	listener := MappingChangeListenerFunc(func(e MappingChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type)
	})

	id := NewID("same")
	for _, s := range []State{CREATED, UPDATED, UPDATED, REMOVED} {
		require.NoError(t, d.Dispatch(listener, MappingChangeEvent{Type: s, Mapping: stubMapping{id: id}}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 4
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{CREATED, UPDATED, UPDATED, REMOVED}, seen)
}

func TestDispatcher_PanicInListenerDoesNotStopOthers(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Shutdown()

	var after int32
	panicking := MappingChangeListenerFunc(func(MappingChangeEvent) {
		panic("listener boom")
	})
	healthy := MappingChangeListenerFunc(func(MappingChangeEvent) {
		atomic.AddInt32(&after, 1)
	})

	id := NewID("x")
	require.NoError(t, d.Dispatch(panicking, MappingChangeEvent{Type: CREATED, Mapping: stubMapping{id: id}}))
	require.NoError(t, d.Dispatch(healthy, MappingChangeEvent{Type: CREATED, Mapping: stubMapping{id: id}}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&after) == 1
	}, time.Second, time.Millisecond)
}

func TestDispatcher_ShutdownRejectsFurtherDispatch(t *testing.T) {
	d := NewDispatcher(1)
	d.Shutdown()

	err := d.Dispatch(MappingChangeListenerFunc(func(MappingChangeEvent) {}), MappingChangeEvent{
		Type: CREATED, Mapping: stubMapping{id: NewID("x")},
	})
	assert.ErrorIs(t, err, ErrClosedService)
}
