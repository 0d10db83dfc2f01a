// Package queue implements the Queue Scheduler, spec.md §4.5: a
// single-threaded, cooperative dispatcher over nine named FIFO queues,
// drained in a fixed order to quiescence on every event-loop tick. It is
// modeled on giantswarm-muster/internal/reconciler's workQueue, stripped of
// its concurrency (sync.Mutex/sync.Cond, multi-worker Get/Done) since
// spec.md §5 puts all mutation on one goroutine -- there is nothing here
// for a second goroutine to race with.
package queue

import "unitengine/internal/unit"

// Name identifies one of the nine queues. The order of these constants is
// the drain order of spec.md §4.5 and MUST NOT be reordered.
type Name int

const (
	Load Name = iota
	TargetDeps
	GC
	Cleanup
	CGroupRealize
	CGroupEmpty
	CGroupOOM
	StopWhenUnneeded
	DBus

	numQueues
)

func (n Name) String() string {
	switch n {
	case Load:
		return "load"
	case TargetDeps:
		return "target-deps"
	case GC:
		return "gc"
	case Cleanup:
		return "cleanup"
	case CGroupRealize:
		return "cgroup-realize"
	case CGroupEmpty:
		return "cgroup-empty"
	case CGroupOOM:
		return "cgroup-oom"
	case StopWhenUnneeded:
		return "stop-when-unneeded"
	case DBus:
		return "dbus"
	default:
		return "unknown"
	}
}

// Bit is the unit.QueueMask bit corresponding to a queue, giving O(1)
// membership checks without walking any queue's contents (spec.md §8
// "queue/flag coherence").
func Bit(n Name) unit.QueueMask {
	return 1 << unit.QueueMask(n)
}

// Handler processes one unit popped off a queue. It returns the set of
// queues the unit should additionally be enqueued on as a side effect of
// processing it (e.g. the notifier enqueues D-Bus and stop-when-unneeded
// as side effects of a state transition); the scheduler does not infer
// this on its own.
type Handler func(id string) []Name

// Scheduler holds the nine FIFOs and the membership mask mirrored on each
// Unit via Bit.
type Scheduler struct {
	fifos    [numQueues][]string
	handlers [numQueues]Handler
}

// New returns an empty scheduler. Handlers are wired in with SetHandler
// before the first Drain call; a queue with no handler is drained as a
// no-op (its entries are simply dequeued), which is only correct for
// queues a particular embedding chooses not to use.
func New() *Scheduler {
	return &Scheduler{}
}

// SetHandler installs the processing function for queue n.
func (s *Scheduler) SetHandler(n Name, h Handler) {
	s.handlers[n] = h
}

// Enqueue adds id to queue n unless it's already a member, mirroring the
// QueueMask bit on u per spec.md §8's queue/flag coherence property.
func (s *Scheduler) Enqueue(u *unit.Unit, n Name) {
	bit := Bit(n)
	if u.Queues.Has(bit) {
		return
	}
	u.Queues.Set(bit)
	s.fifos[n] = append(s.fifos[n], u.ID())
}

// Len reports how many units are currently queued on n.
func (s *Scheduler) Len(n Name) int {
	return len(s.fifos[n])
}

// dequeueAll drains queue n to empty, clearing each popped unit's bit
// before invoking the handler so a handler that re-enqueues the same unit
// (common for level-triggered queues) observes a clean slate.
func (s *Scheduler) dequeueAll(n Name, lookup func(id string) (*unit.Unit, bool)) {
	h := s.handlers[n]
	for len(s.fifos[n]) > 0 {
		id := s.fifos[n][0]
		s.fifos[n] = s.fifos[n][1:]
		if u, ok := lookup(id); ok {
			u.Queues.Clear(Bit(n))
		}
		if h == nil {
			continue
		}
		for _, next := range h(id) {
			if u, ok := lookup(id); ok {
				s.Enqueue(u, next)
			}
		}
	}
}

// Drain runs one full pass over all nine queues in spec.md §4.5 order,
// repeating the pass until every queue is empty (level-triggered: a
// handler may re-enqueue work mid-drain, spec.md §4.5 "Draining is
// level-triggered").
func (s *Scheduler) Drain(lookup func(id string) (*unit.Unit, bool)) {
	for s.AnyPending() {
		for n := Name(0); n < numQueues; n++ {
			s.dequeueAll(n, lookup)
		}
	}
}

// DrainQueue runs a single queue to empty, the way Drain does internally
// for each of the nine queues in turn. Exposed for callers (the Manager)
// that need to interpose batch logic -- the garbage collector's mark/sweep
// needs every GC-queue candidate at once, not one at a time -- between two
// queues in the fixed order.
func (s *Scheduler) DrainQueue(n Name, lookup func(id string) (*unit.Unit, bool)) {
	s.dequeueAll(n, lookup)
}

// Peek returns a snapshot of the ids currently queued on n without
// dequeuing them.
func (s *Scheduler) Peek(n Name) []string {
	out := make([]string, len(s.fifos[n]))
	copy(out, s.fifos[n])
	return out
}

// Clear empties queue n without invoking its handler, clearing the
// membership bit on every unit it can resolve via lookup. Used after a
// caller has processed a queue's contents itself (batch GC) instead of
// through the per-id Handler protocol.
func (s *Scheduler) Clear(n Name, lookup func(id string) (*unit.Unit, bool)) {
	for _, id := range s.fifos[n] {
		if u, ok := lookup(id); ok {
			u.Queues.Clear(Bit(n))
		}
	}
	s.fifos[n] = nil
}

// AnyPending reports whether any queue still has work.
func (s *Scheduler) AnyPending() bool {
	for n := Name(0); n < numQueues; n++ {
		if len(s.fifos[n]) > 0 {
			return true
		}
	}
	return false
}
