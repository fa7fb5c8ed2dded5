package adminapi

import "github.com/omarluq/mapping-engine/internal/mapping"

// Inspector is the narrow read-only surface adminapi needs from a
// mapping.Service: the current mapping snapshot. Defined as an interface so
// handlers can be tested against a fake without constructing a full Service.
type Inspector interface {
	Snapshot() []mapping.Mapping
}

var _ Inspector = (*mapping.Service)(nil)
