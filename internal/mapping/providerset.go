package mapping

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// providerEntry pairs a bound provider with its registration sequence
// number, used to break rank ties (spec §3: "higher wins ties broken by
// registration order").
type providerEntry struct {
	provider Provider
	seq      uint64
}

// providerSet is a rank-ascending, bind-order-tiebroken collection of
// providers, guarded by a single mutex. Both the global Provider Registry
// and each Mapping Resolver's bound-provider set are a providerSet;
// iteration always works over a stable snapshot (spec §5 "Provider Registry
// is a sorted set... iteration snapshots the set").
type providerSet struct {
	mu      sync.Mutex
	entries []providerEntry
	nextSeq uint64
}

func newProviderSet() *providerSet {
	return &providerSet{}
}

// add inserts p, re-sorting by (rank asc, seq asc). Identity is by
// reference: the same provider can only appear once.
func (s *providerSet) add(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.provider == p {
			return
		}
	}

	s.entries = append(s.entries, providerEntry{provider: p, seq: s.nextSeq})
	s.nextSeq++
	s.sortLocked()
}

// remove drops p. Returns true if p was present.
func (s *providerSet) remove(p Provider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.provider == p {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// contains reports whether p is currently a member.
func (s *providerSet) contains(p Provider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.provider == p {
			return true
		}
	}
	return false
}

// snapshot returns the current membership in ascending rank order (ties by
// bind order), safe to iterate without holding the set's lock.
func (s *providerSet) snapshot() []Provider {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Map(s.entries, func(e providerEntry, _ int) Provider {
		return e.provider
	})
}

// size returns the current membership count.
func (s *providerSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *providerSet) sortLocked() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		ri, rj := s.entries[i].provider.Rank(), s.entries[j].provider.Rank()
		if ri != rj {
			return ri < rj
		}
		return s.entries[i].seq < s.entries[j].seq
	})
}
