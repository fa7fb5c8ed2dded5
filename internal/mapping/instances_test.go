package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstances_AllSubsumesEverything(t *testing.T) {
	all := AllInstances()
	assert.True(t, all.IsAll())
	assert.True(t, all.Contains("anything"))
}

func TestInstances_EnumeratedSet(t *testing.T) {
	some := SomeInstances("a", "b")
	assert.False(t, some.IsAll())
	assert.True(t, some.Contains("a"))
	assert.False(t, some.Contains("c"))
}

func TestInstances_WithIDLeavesAllUnchanged(t *testing.T) {
	all := AllInstances()
	assert.True(t, all.withID("x").IsAll(), "adding an id to ALL must leave it ALL")

	some := SomeInstances("a")
	extended := some.withID("b")
	assert.True(t, extended.Contains("a"))
	assert.True(t, extended.Contains("b"))
	assert.False(t, some.Contains("b"), "withID must not mutate the receiver")
}
