package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderSet_OrdersByRankThenBindOrder(t *testing.T) {
	s := newProviderSet()
	b := okProvider("b", 0, false, nil)
	a := okProvider("a", 5, false, nil)
	c := okProvider("c", 0, false, nil)

	s.add(b)
	s.add(a)
	s.add(c)

	snap := s.snapshot()
	require.Len(t, snap, 3)
	assert.Same(t, b, snap[0])
	assert.Same(t, c, snap[1])
	assert.Same(t, a, snap[2])
}

func TestProviderSet_AddIsIdempotentByReference(t *testing.T) {
	s := newProviderSet()
	p := okProvider("p", 0, false, nil)

	s.add(p)
	s.add(p)

	assert.Equal(t, 1, s.size())
}

func TestProviderSet_RemoveReportsPresence(t *testing.T) {
	s := newProviderSet()
	p := okProvider("p", 0, false, nil)

	assert.False(t, s.remove(p))
	s.add(p)
	assert.True(t, s.remove(p))
	assert.False(t, s.contains(p))
}
