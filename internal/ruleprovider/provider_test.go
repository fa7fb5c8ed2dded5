package ruleprovider_test

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/mapping-engine/internal/configdomain"
	"github.com/omarluq/mapping-engine/internal/mapping"
	"github.com/omarluq/mapping-engine/internal/ruleprovider"
)

type noopAccessor struct{}

func (noopAccessor) Get(configdomain.ConfigType) mo.Option[configdomain.Entity] {
	return mo.None[configdomain.Entity]()
}

func (noopAccessor) GetGroup(configdomain.ConfigType, string) mo.Option[configdomain.Entity] {
	return mo.None[configdomain.Entity]()
}

func (noopAccessor) All(configdomain.ConfigType) []configdomain.Entity { return nil }

func TestRuleProvider_ProvideReturnsDeclaredProperties(t *testing.T) {
	rule := &ruleprovider.Rule{
		MappingName: "LdapConnection",
		Rank:        5,
		Properties:  map[string]string{"host": "ldap.internal", "port": "389"},
		Dependent:   map[string][]string{"LdapConfig": {"host"}},
	}
	p := ruleprovider.NewRuleProvider("rules/ldap.rule", rule)

	assert.Equal(t, "rules/ldap.rule", p.Name())
	assert.Equal(t, int32(5), p.Rank())
	assert.False(t, p.IsPartial())
	assert.True(t, p.CanProvideFor(mapping.NewID("LdapConnection")))
	assert.True(t, p.CanProvideFor(mapping.NewInstanceID("LdapConnection", "primary")))
	assert.False(t, p.CanProvideFor(mapping.NewID("Other")))

	props, err := p.Provide(mapping.NewID("LdapConnection"), noopAccessor{})
	require.NoError(t, err)
	assert.Equal(t, "ldap.internal", props["host"].ScalarValue())
	assert.Equal(t, "389", props["port"].ScalarValue())
}
