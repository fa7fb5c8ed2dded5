package mapping

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_DeterminismOfMerge is P1: for a fixed set of bound providers
// and a fixed store snapshot, repeated resolves yield structurally equal
// maps.
func TestProperty_DeterminismOfMerge(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("repeated resolve is deterministic", prop.ForAll(
		func(n int) bool {
			r := newTestResolver()
			for i := 0; i < n; i++ {
				r.Bind(okProvider("p", int32(i), false, scalarMap(map[string]any{"k": int64(i)})))
			}

			first, err := r.Resolve()
			if err != nil {
				return false
			}
			second, err := r.Resolve()
			if err != nil {
				return false
			}
			return first.Equal(second)
		},
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}

// TestProperty_RankDominance is P2: for any key provided by two providers
// A < B by rank, the resolved value for that key is B's.
func TestProperty_RankDominance(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("higher rank wins on key conflict", prop.ForAll(
		func(rankA, rankB int32, valA, valB int64) bool {
			if rankA == rankB {
				rankB++
			}
			lo, hi := rankA, rankB
			loVal, hiVal := valA, valB
			if rankA > rankB {
				lo, hi = rankB, rankA
				loVal, hiVal = valB, valA
			}

			r := newTestResolver()
			r.Bind(okProvider("lo", lo, false, scalarMap(map[string]any{"k": loVal})))
			r.Bind(okProvider("hi", hi, false, scalarMap(map[string]any{"k": hiVal})))

			props, err := r.Resolve()
			if err != nil {
				return false
			}
			return props["k"].ScalarValue() == hiVal
		},
		gen.Int32Range(-100, 100),
		gen.Int32Range(-100, 100),
		gen.Int64Range(0, 1000),
		gen.Int64Range(0, 1000),
	))

	properties.TestingRun(t)
}

// TestProperty_IdempotentBind covers the registry half of P5: bind(p)
// followed immediately by bind(p) leaves exactly one registered provider.
// It does not count the emitted events.
func TestProperty_IdempotentBind(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("double bind is idempotent", prop.ForAll(
		func(val int64) bool {
			svc, d := newServiceForProperty()
			defer d.Shutdown()
			_, _ = svc.GetMapping("db")

			p := okProvider("p", 0, false, scalarMap(map[string]any{"k": val}))
			if err := svc.Bind(p); err != nil {
				return false
			}
			if err := svc.Bind(p); err != nil {
				return false
			}

			return svc.registry.Size() == 1
		},
		gen.Int64Range(0, 1000),
	))

	properties.TestingRun(t)
}

func newServiceForProperty() (*Service, *Dispatcher) {
	d := NewDispatcher(2)
	return NewService(newFakeStore(), d), d
}
