package configdomain

import "github.com/samber/mo"

// Accessor is the read surface of the Abstract Config Store, as seen by
// mapping providers. The Dependency-Tracking Config Proxy wraps an Accessor
// and delegates every call to it verbatim, recording dependency edges on
// the side.
type Accessor interface {
	// Get returns the singleton entity for type, if any.
	Get(t ConfigType) mo.Option[Entity]
	// GetGroup returns the group entity for type+id, if any.
	GetGroup(t ConfigType, id string) mo.Option[Entity]
	// All lazily enumerates every group entity for type.
	All(t ConfigType) []Entity
}
