package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_AddRemoveContains(t *testing.T) {
	r := NewRegistry()
	p := okProvider("p", 0, false, nil)

	assert.True(t, r.Add(p))
	assert.False(t, r.Add(p), "adding an already-registered provider reports false")
	assert.True(t, r.Contains(p))
	assert.Equal(t, 1, r.Size())

	assert.True(t, r.Remove(p))
	assert.False(t, r.Contains(p))
	assert.False(t, r.Remove(p))
}

func TestRegistry_SnapshotIsRankOrdered(t *testing.T) {
	r := NewRegistry()
	low := okProvider("low", 0, false, nil)
	high := okProvider("high", 10, false, nil)

	r.Add(high)
	r.Add(low)

	snap := r.Snapshot()
	assert.Same(t, low, snap[0])
	assert.Same(t, high, snap[1])
}
