package mapping

import (
	"github.com/samber/mo"

	"github.com/omarluq/mapping-engine/internal/configdomain"
)

// trackingAccessor is the Dependency-Tracking Config Proxy (spec §4.6). It
// wraps the Abstract Config Store and, for every read performed during one
// Provider.Provide invocation, records a dependency edge into deps. Reads
// are delegated to the underlying accessor verbatim; the wildcard instance
// marker used during initial discovery (spec §4.4) is never recorded.
type trackingAccessor struct {
	underlying configdomain.Accessor
	deps       *dependencySet
}

func newTrackingAccessor(underlying configdomain.Accessor, deps *dependencySet) configdomain.Accessor {
	return &trackingAccessor{underlying: underlying, deps: deps}
}

// Get records a dependency on ALL instances of t (a singleton read always
// depends on the whole type) and delegates to the underlying store.
func (p *trackingAccessor) Get(t configdomain.ConfigType) mo.Option[configdomain.Entity] {
	p.deps.trackAll(t)
	return p.underlying.Get(t)
}

// GetGroup records a dependency on id (unless t is already tracked as ALL)
// and delegates to the underlying store. The synthetic wildcard instance
// used during initial bind discovery is never recorded.
func (p *trackingAccessor) GetGroup(t configdomain.ConfigType, id string) mo.Option[configdomain.Entity] {
	if id != wildcardInstance {
		p.deps.trackID(t, id)
	}
	return p.underlying.GetGroup(t, id)
}

// All records a dependency on ALL instances of t and delegates to the
// underlying store.
func (p *trackingAccessor) All(t configdomain.ConfigType) []configdomain.Entity {
	p.deps.trackAll(t)
	return p.underlying.All(t)
}

var _ configdomain.Accessor = (*trackingAccessor)(nil)
