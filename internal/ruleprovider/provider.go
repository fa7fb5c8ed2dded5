package ruleprovider

import (
	"github.com/omarluq/mapping-engine/internal/configdomain"
	"github.com/omarluq/mapping-engine/internal/mapping"
)

// RuleProvider adapts a parsed Rule into a mapping.Provider. It contributes
// the rule's Properties verbatim as scalar values for the mapping named by
// the rule, and declares its informative dependent.configs intent by
// touching the same config types (and, if the lookup is instance-scoped,
// the same instance) through the accessor during Provide.
type RuleProvider struct {
	name      string
	rank      int32
	partial   bool
	mapping   string
	props     map[string]string
	dependent map[string][]string
}

// NewRuleProvider builds a RuleProvider from a parsed rule. name identifies
// the provider for logging (typically the source file path or registry id).
func NewRuleProvider(name string, rule *Rule) *RuleProvider {
	return &RuleProvider{
		name:      name,
		rank:      rule.Rank,
		partial:   rule.Partial,
		mapping:   rule.MappingName,
		props:     rule.Properties,
		dependent: rule.Dependent,
	}
}

func (p *RuleProvider) Name() string         { return p.name }
func (p *RuleProvider) Rank() int32          { return p.rank }
func (p *RuleProvider) IsPartial() bool      { return p.partial }
func (p *RuleProvider) MappingName() string  { return p.mapping }

// CanProvideFor matches any identity (with or without an instance) whose
// name equals the rule's mapping name.
func (p *RuleProvider) CanProvideFor(id mapping.ID) bool {
	return id.Name == p.mapping
}

// Provide returns the rule's declared properties and reads through accessor
// once per declared dependent config, so the Dependency-Tracking Config
// Proxy records the edges the rule document advertises.
func (p *RuleProvider) Provide(id mapping.ID, accessor configdomain.Accessor) (mapping.PropertyMap, error) {
	for typ := range p.dependent {
		ct := configdomain.ConfigType(typ)
		if id.HasInstance() {
			accessor.GetGroup(ct, id.Instance)
		} else {
			accessor.Get(ct)
		}
	}

	out := make(mapping.PropertyMap, len(p.props))
	for k, v := range p.props {
		out[k] = mapping.Scalar(v)
	}
	return out, nil
}

var _ mapping.Provider = (*RuleProvider)(nil)
