package mapping

import "fmt"

// wildcardInstance is the sentinel instance tag used internally for lookups
// that name no instance (spec §4.4): Service.GetMapping resolves such a
// lookup against the wildcard-instance Id, so providers willing to serve any
// instance still get a chance to declare interest before any real instance
// is ever looked up.
const wildcardInstance = "*"

// ID is a mapping identity: a required name plus an optional instance tag.
// Two IDs are equal iff both name and instance match; an ID with no
// instance is distinct from one with the same name and any instance,
// including the wildcard. ID is comparable and usable as a map key.
type ID struct {
	Name     string
	Instance string
	hasInst  bool
}

// NewID creates an identity with no instance tag.
func NewID(name string) ID {
	return ID{Name: name}
}

// NewInstanceID creates an identity scoped to one instance.
func NewInstanceID(name, instance string) ID {
	return ID{Name: name, Instance: instance, hasInst: true}
}

// HasInstance reports whether this ID carries an instance tag.
func (id ID) HasInstance() bool {
	return id.hasInst
}

// IsWildcard reports whether this ID uses the internal wildcard instance
// marker used during initial bind-time discovery.
func (id ID) IsWildcard() bool {
	return id.hasInst && id.Instance == wildcardInstance
}

// wildcardOf returns the wildcard-instance variant of name, used for the
// instance-less lookups described in spec §4.4.
func wildcardOf(name string) ID {
	return NewInstanceID(name, wildcardInstance)
}

// String renders the ID for logging.
func (id ID) String() string {
	if !id.hasInst {
		return id.Name
	}
	return fmt.Sprintf("%s[%s]", id.Name, id.Instance)
}
