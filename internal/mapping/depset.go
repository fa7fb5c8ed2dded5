package mapping

import (
	"sync"

	"github.com/omarluq/mapping-engine/internal/configdomain"
)

// dependencySet is the set of (ConfigType, Instances) edges a resolver's
// most recent recompute discovered through the Dependency-Tracking Config
// Proxy. It is monotonically derived only from the providers currently
// bound (spec I3): every recompute rebuilds it from scratch, and unbinding
// any provider clears it immediately so stale edges never outlive the
// provider that produced them.
type dependencySet struct {
	mu   sync.Mutex
	deps map[configdomain.ConfigType]Instances
}

func newDependencySet() *dependencySet {
	return &dependencySet{deps: make(map[configdomain.ConfigType]Instances)}
}

// trackAll records a dependency on every instance of t.
func (d *dependencySet) trackAll(t configdomain.ConfigType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deps[t] = AllInstances()
}

// trackID records a dependency on one instance of t, unless t is already
// tracked as ALL.
func (d *dependencySet) trackID(t configdomain.ConfigType, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.deps[t]
	if !ok {
		d.deps[t] = SomeInstances(id)
		return
	}
	d.deps[t] = existing.withID(id)
}

// clear empties the set (spec I3, P8).
func (d *dependencySet) clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deps = make(map[configdomain.ConfigType]Instances)
}

// isAffectedBy reports whether any entity in the event falls within a
// tracked (type, instances) edge (spec §4.3 "Affects detection").
func (d *dependencySet) isAffectedBy(event configdomain.ConfigChangeEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range event.All() {
		instances, tracked := d.deps[e.Type()]
		if !tracked {
			continue
		}
		if instances.IsAll() || e.Kind() == configdomain.Singleton || instances.Contains(e.InstanceID()) {
			return true
		}
	}
	return false
}

// snapshot returns a copy of the current edges, for introspection/tests.
func (d *dependencySet) snapshot() map[configdomain.ConfigType]Instances {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[configdomain.ConfigType]Instances, len(d.deps))
	for k, v := range d.deps {
		out[k] = v
	}
	return out
}
