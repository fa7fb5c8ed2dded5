package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omarluq/mapping-engine/internal/configdomain"
)

func TestDependencySet_TrackAllThenIDIsNoop(t *testing.T) {
	d := newDependencySet()
	d.trackAll("LdapConfig")
	d.trackID("LdapConfig", "ldap-1")

	snap := d.snapshot()
	assert.True(t, snap["LdapConfig"].IsAll())
}

func TestDependencySet_IsAffectedBySingletonAlwaysMatchesTrackedType(t *testing.T) {
	d := newDependencySet()
	d.trackAll("Routing")

	affected := d.isAffectedBy(configdomain.ConfigChangeEvent{
		Updated: []configdomain.Entity{singletonEntity("Routing", 2)},
	})
	assert.True(t, affected)
}

func TestDependencySet_ClearEmptiesEdges(t *testing.T) {
	d := newDependencySet()
	d.trackID("LdapConfig", "ldap-1")
	assert.NotEmpty(t, d.snapshot())

	d.clear()
	assert.Empty(t, d.snapshot())
}
