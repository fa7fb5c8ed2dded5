package mapping

// MappingChangeEvent is the notification fired whenever a resolver's state
// transitions (spec §6.1). Type is one of CREATED, UPDATED, REMOVED;
// Mapping exposes the identity and a way to resolve the current content.
type MappingChangeEvent struct {
	Type    State
	Mapping Mapping
}

// MappingChangeListener is the sink for MappingChangeEvents (spec §6.1).
type MappingChangeListener interface {
	OnChange(event MappingChangeEvent)
}

// MappingChangeListenerFunc adapts a plain function to MappingChangeListener.
type MappingChangeListenerFunc func(event MappingChangeEvent)

// OnChange calls f.
func (f MappingChangeListenerFunc) OnChange(event MappingChangeEvent) {
	f(event)
}
