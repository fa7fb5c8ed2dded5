package mapping

import (
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// DefaultWorkers is the Event Dispatcher's default bounded worker-pool size
// (spec §4.5).
const DefaultWorkers = 16

// laneBuffer bounds how many pending deliveries a single lane holds before
// Dispatch starts applying backpressure to the caller.
const laneBuffer = 64

type dispatchJob struct {
	listener MappingChangeListener
	event    MappingChangeEvent
}

// Dispatcher is the Event Dispatcher (spec §4.5): a bounded worker pool that
// delivers MappingChangeEvents to listeners off the resolver's critical
// path. Events for a single mapping are routed to the same lane by a hash
// of the mapping Id, so a single listener always observes events for one
// mapping in emission order even though the pool runs many lanes
// concurrently; no ordering is guaranteed across mappings or listeners.
type Dispatcher struct {
	lanes  []chan dispatchJob
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewDispatcher builds a Dispatcher with the given number of worker lanes.
// A non-positive count falls back to DefaultWorkers.
func NewDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	d := &Dispatcher{lanes: make([]chan dispatchJob, workers)}
	for i := range d.lanes {
		d.lanes[i] = make(chan dispatchJob, laneBuffer)
	}

	d.wg.Add(workers)
	for i := range d.lanes {
		go d.runLane(d.lanes[i])
	}

	return d
}

// Dispatch enqueues event for delivery to listener. It blocks only if the
// target lane's buffer is full (bounded-pool backpressure); it never runs
// the listener synchronously. Returns ErrClosedService after Shutdown.
func (d *Dispatcher) Dispatch(listener MappingChangeListener, event MappingChangeEvent) error {
	if d.closed.Load() {
		return ErrClosedService
	}

	lane := d.lanes[d.route(event.Mapping.ID())]
	lane <- dispatchJob{listener: listener, event: event}
	return nil
}

// route picks a stable lane index for id so all of its events serialize
// through the same worker.
func (d *Dispatcher) route(id ID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id.String()))
	return int(h.Sum32()) % len(d.lanes)
}

func (d *Dispatcher) runLane(jobs chan dispatchJob) {
	defer d.wg.Done()
	for job := range jobs {
		d.deliver(job)
	}
}

// deliver runs one listener, converting a panic into a logged failure so a
// misbehaving listener never affects another listener or its resolver
// (spec §7 "Listener exceptions are swallowed (logged) and never propagate
// back into the resolver").
func (d *Dispatcher) deliver(job dispatchJob) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("mapping_id", job.event.Mapping.ID().String()).
				Str("event_type", job.event.Type.String()).
				Msg("mapping change listener panicked")
		}
	}()

	job.listener.OnChange(job.event)
}

// QueueDepth returns the total number of deliveries currently buffered
// across all lanes, for operational visibility (internal/enginehealth).
func (d *Dispatcher) QueueDepth() int {
	total := 0
	for _, lane := range d.lanes {
		total += len(lane)
	}
	return total
}

// Shutdown closes every lane and waits (best-effort) for in-flight
// deliveries to drain. Further Dispatch calls return ErrClosedService.
func (d *Dispatcher) Shutdown() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	for _, lane := range d.lanes {
		close(lane)
	}
	d.wg.Wait()
}
