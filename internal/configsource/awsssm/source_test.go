package awsssm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_ParseEntitiesGroupsByInstanceSegment(t *testing.T) {
	s := &Source{
		cfg: Config{PathPrefix: "/mapping-engine/LdapConfig", ConfigType: "LdapConfig"},
	}

	raw := []byte(`[
		{"name":"/mapping-engine/LdapConfig/ldap-1/host","value":"ldap1.internal"},
		{"name":"/mapping-engine/LdapConfig/ldap-1/port","value":"389"},
		{"name":"/mapping-engine/LdapConfig/ldap-2/host","value":"ldap2.internal"}
	]`)

	entities := s.parseEntities(raw)
	assert.Len(t, entities, 2)

	byInstance := make(map[string]*entity)
	for _, e := range entities {
		ssmE := e.(*entity)
		byInstance[ssmE.InstanceID()] = ssmE
	}

	host1, ok := byInstance["ldap-1"].Attr("host")
	assert.True(t, ok)
	assert.Equal(t, "ldap1.internal", host1)

	port1, ok := byInstance["ldap-1"].Attr("port")
	assert.True(t, ok)
	assert.Equal(t, "389", port1)

	host2, ok := byInstance["ldap-2"].Attr("host")
	assert.True(t, ok)
	assert.Equal(t, "ldap2.internal", host2)
}

func TestSource_ParseEntitiesSkipsMalformedPaths(t *testing.T) {
	s := &Source{cfg: Config{PathPrefix: "/mapping-engine/LdapConfig", ConfigType: "LdapConfig"}}

	raw := []byte(`[{"name":"/mapping-engine/LdapConfig/ldap-1","value":"no-attribute-segment"}]`)
	entities := s.parseEntities(raw)
	assert.Empty(t, entities)
}

func TestConfig_Defaults(t *testing.T) {
	var c Config
	assert.Equal(t, defaultPollInterval, c.effectivePollInterval())
	assert.Equal(t, defaultPollInterval/2, c.effectiveCacheTTL())
}
