package mapping

// Value is the closed set of property-map value shapes a provider may
// return: a scalar, an ordered sequence of scalars, a set of scalars, or a
// nested mapping. Spec §9 restricts values to this closed set specifically
// so that cloning can be a structural switch instead of general-purpose
// reflective deep-copy.
//
// Scalar values are bool, int64, float64, string, or rune (char).
type Value struct {
	kind     valueKind
	scalar   any
	sequence []Value
	set      []Value
	mapping  map[string]Value
}

type valueKind int

const (
	kindScalar valueKind = iota
	kindSequence
	kindSet
	kindMapping
)

// Scalar wraps a bool, int64, float64, string, or rune.
func Scalar(v any) Value {
	return Value{kind: kindScalar, scalar: v}
}

// Sequence wraps an ordered list of scalar values.
func Sequence(items ...Value) Value {
	return Value{kind: kindSequence, sequence: items}
}

// Set wraps an unordered collection of scalar values.
func Set(items ...Value) Value {
	return Value{kind: kindSet, set: items}
}

// Mapping wraps a nested string-keyed map of values.
func Mapping(m map[string]Value) Value {
	return Value{kind: kindMapping, mapping: m}
}

// IsScalar, IsSequence, IsSet, IsMapping report the value's kind.
func (v Value) IsScalar() bool   { return v.kind == kindScalar }
func (v Value) IsSequence() bool { return v.kind == kindSequence }
func (v Value) IsSet() bool      { return v.kind == kindSet }
func (v Value) IsMapping() bool  { return v.kind == kindMapping }

// ScalarValue returns the wrapped scalar, or nil if this is not a scalar.
func (v Value) ScalarValue() any {
	if v.kind != kindScalar {
		return nil
	}
	return v.scalar
}

// SequenceValue returns the wrapped sequence, or nil if this is not one.
func (v Value) SequenceValue() []Value {
	if v.kind != kindSequence {
		return nil
	}
	return v.sequence
}

// SetValue returns the wrapped set, or nil if this is not one.
func (v Value) SetValue() []Value {
	if v.kind != kindSet {
		return nil
	}
	return v.set
}

// MappingValue returns the wrapped nested map, or nil if this is not one.
func (v Value) MappingValue() map[string]Value {
	if v.kind != kindMapping {
		return nil
	}
	return v.mapping
}

// Clone performs a structural deep copy: nested mappings, sequences, and
// sets are copied recursively so that mutating the clone never affects the
// original. Scalars are copied by value (they are never pointer types in a
// well-formed Value).
func (v Value) Clone() Value {
	switch v.kind {
	case kindSequence:
		cloned := make([]Value, len(v.sequence))
		for i, item := range v.sequence {
			cloned[i] = item.Clone()
		}
		return Value{kind: kindSequence, sequence: cloned}
	case kindSet:
		cloned := make([]Value, len(v.set))
		for i, item := range v.set {
			cloned[i] = item.Clone()
		}
		return Value{kind: kindSet, set: cloned}
	case kindMapping:
		cloned := make(map[string]Value, len(v.mapping))
		for k, item := range v.mapping {
			cloned[k] = item.Clone()
		}
		return Value{kind: kindMapping, mapping: cloned}
	default:
		return Value{kind: kindScalar, scalar: v.scalar}
	}
}

// PropertyMap is the resolved key-value dictionary a resolver caches and
// returns from Resolve.
type PropertyMap map[string]Value

// Clone returns a deep, independent copy of the map (spec §9, P7).
func (m PropertyMap) Clone() PropertyMap {
	if m == nil {
		return nil
	}
	out := make(PropertyMap, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports structural equality between two property maps. recompute()
// does not call it: its state decision looks only at error presence.
func (m PropertyMap) Equal(other PropertyMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !v.equal(ov) {
			return false
		}
	}
	return true
}

func (v Value) equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case kindScalar:
		return v.scalar == other.scalar
	case kindSequence, kindSet:
		a, b := v.itemsOf(), other.itemsOf()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].equal(b[i]) {
				return false
			}
		}
		return true
	case kindMapping:
		if len(v.mapping) != len(other.mapping) {
			return false
		}
		for k, item := range v.mapping {
			oitem, ok := other.mapping[k]
			if !ok || !item.equal(oitem) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) itemsOf() []Value {
	if v.kind == kindSequence {
		return v.sequence
	}
	return v.set
}
