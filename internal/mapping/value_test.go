package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_CloneIsIndependent(t *testing.T) {
	original := Mapping(map[string]Value{
		"seq": Sequence(Scalar(int64(1)), Scalar(int64(2))),
	})

	clone := original.Clone()
	cloneSeq := clone.MappingValue()["seq"].SequenceValue()
	cloneSeq[0] = Scalar(int64(999))

	origSeq := original.MappingValue()["seq"].SequenceValue()
	assert.Equal(t, int64(1), origSeq[0].ScalarValue(), "mutating the clone's nested slice must not affect the original")
}

func TestValue_Equal(t *testing.T) {
	a := Sequence(Scalar(int64(1)), Scalar("x"))
	b := Sequence(Scalar(int64(1)), Scalar("x"))
	c := Sequence(Scalar(int64(1)), Scalar("y"))

	assert.True(t, a.equal(b))
	assert.False(t, a.equal(c))
}

func TestPropertyMap_EqualAndClone(t *testing.T) {
	m1 := scalarMap(map[string]any{"k": int64(1)})
	m2 := scalarMap(map[string]any{"k": int64(1)})
	m3 := scalarMap(map[string]any{"k": int64(2)})

	assert.True(t, m1.Equal(m2))
	assert.False(t, m1.Equal(m3))

	cloned := m1.Clone()
	assert.True(t, m1.Equal(cloned))
}
