package mapping

// Registry is the Provider Registry (spec component 2): the global,
// ranked view of every bound provider, independent of which mappings they
// currently contribute to. It exists so the Mapping Service can answer
// "who is bound right now" without walking every resolver, and so a
// global unbind/rebind can find every resolver a provider might touch.
type Registry struct {
	providers *providerSet
}

// NewRegistry builds an empty Provider Registry.
func NewRegistry() *Registry {
	return &Registry{providers: newProviderSet()}
}

// Add registers p. Returns false if p was already registered.
func (r *Registry) Add(p Provider) bool {
	if r.providers.contains(p) {
		return false
	}
	r.providers.add(p)
	return true
}

// Remove unregisters p. Returns true if p had been registered.
func (r *Registry) Remove(p Provider) bool {
	return r.providers.remove(p)
}

// Contains reports whether p is currently registered.
func (r *Registry) Contains(p Provider) bool {
	return r.providers.contains(p)
}

// Snapshot returns every registered provider in rank order.
func (r *Registry) Snapshot() []Provider {
	return r.providers.snapshot()
}

// Size returns the number of registered providers.
func (r *Registry) Size() int {
	return r.providers.size()
}
