package mapping

import "github.com/omarluq/mapping-engine/internal/configdomain"

// Provider is the contract an external plugin implements to contribute
// properties to one or more mappings. Implementations are supplied by the
// host platform (template/scripted providers, metatype-default providers,
// per-domain providers); the engine only ever calls through this interface.
type Provider interface {
	// Name identifies the provider for logging; it need not be unique.
	Name() string

	// Rank is this provider's priority. Higher ranks override lower ones on
	// key conflicts; ties are broken by registration order (later wins).
	Rank() int32

	// IsPartial reports whether this provider contributes only some keys.
	// A mapping needs at least one successful non-partial provider before
	// it is considered AVAILABLE.
	IsPartial() bool

	// CanProvideFor reports whether this provider is willing to produce
	// properties for id. Must be stable for the provider's lifetime.
	CanProvideFor(id ID) bool

	// Provide computes the property map for id, reading through accessor.
	// It may return ErrUnavailable, a *MappingError, or any other error
	// (treated as an UnexpectedProviderError), or succeed with a
	// (possibly empty) PropertyMap.
	Provide(id ID, accessor configdomain.Accessor) (PropertyMap, error)
}
