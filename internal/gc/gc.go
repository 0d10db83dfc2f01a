// Package gc implements the Garbage Collector, spec.md §4.6: three-color
// mark/sweep restricted to the GC queue, tracing reachability along strong
// dependency edges and honoring each unit's collect_mode. Grounded on
// giantswarm-muster/internal/orchestrator's dependency-ordered
// shutdown walk (internal/orchestrator/orchestrator.go), generalized from a
// one-shot shutdown traversal into a repeatable mark/sweep keyed by a
// monotonically increasing marker rather than a visited set cleared per run.
package gc

import (
	"unitengine/internal/depgraph"
	"unitengine/internal/metrics"
	"unitengine/internal/queue"
	"unitengine/internal/unit"
	"unitengine/internal/vtable"
	"unitengine/pkg/logging"
)

// stride is added to the global marker on every sweep. Units stamped in any
// earlier sweep compare as "white" (unmarked) for the new sweep without
// needing an explicit reset pass, per spec.md §4.6 ("gc_marker is
// incremented by a type-specific stride").
const stride = 1

// Collector runs spec.md §4.6's sweep over units enqueued on the GC queue.
type Collector struct {
	Graph   *depgraph.Graph
	VTables *vtable.Registry
	marker  uint64
}

// New returns a Collector wired to the dependency graph and vtable
// registry it consults for reachability and the per-type may_gc veto.
func New(g *depgraph.Graph, tables *vtable.Registry) *Collector {
	return &Collector{Graph: g, VTables: tables}
}

// MayGC implements spec.md §4.6's may_gc predicate: no job, not active, not
// referenced by any UnitRef, not perpetual, and the per-type MayGC callback
// (if any) agrees. Watched PIDs are an external collaborator's concern
// (process supervision is out of scope, spec.md §1) and are represented
// here only via the per-type callback, which is expected to veto if it is
// still tracking one.
func (c *Collector) MayGC(u *unit.Unit) bool {
	if u.JobID != "" {
		return false
	}
	if u.Active == unit.Active || u.Active == unit.Activating || u.Active == unit.Reloading {
		return false
	}
	if u.Perpetual {
		return false
	}
	if unit.Pinned(u) {
		return false
	}
	switch u.CollectMode {
	case unit.CollectInactive:
		if u.Active != unit.Inactive {
			return false
		}
	case unit.CollectInactiveOrFailed:
		if u.Active != unit.Inactive && u.Active != unit.Failed {
			return false
		}
	}
	if c.VTables != nil {
		if t := c.VTables.Lookup(u.Type); t != nil && t.MayGC != nil {
			return t.MayGC(u)
		}
	}
	return true
}

// Sweep runs one mark/sweep pass over candidates (units currently on the GC
// queue), marking everything reachable from a retained root via a strong
// edge, and enqueues every unreachable, collectible unit on the cleanup
// queue, spec.md §4.6 ("unreachable units are moved to the cleanup queue").
func (c *Collector) Sweep(candidates []*unit.Unit, lookup func(id string) (*unit.Unit, bool), sched *queue.Scheduler) {
	c.marker += stride
	mark := c.marker

	var roots []*unit.Unit
	for _, u := range candidates {
		if !c.MayGC(u) {
			roots = append(roots, u)
		}
	}
	for _, root := range roots {
		c.markReachable(root, mark, lookup)
	}

	collected := 0
	for _, u := range candidates {
		if u.GCMarker() == mark {
			continue
		}
		if !c.MayGC(u) {
			continue
		}
		logging.Debug("GC", "unit %s unreachable and collectible, enqueueing cleanup", u.ID())
		sched.Enqueue(u, queue.Cleanup)
		collected++
	}
	metrics.RecordGCSweep(collected)
}

func (c *Collector) markReachable(u *unit.Unit, mark uint64, lookup func(id string) (*unit.Unit, bool)) {
	if u.GCMarker() == mark {
		return
	}
	u.SetGCMarker(mark)
	if c.Graph == nil {
		return
	}
	for _, peerID := range c.Graph.StrongPeers(depgraph.UnitID(u.ID())) {
		peer, ok := lookup(string(peerID))
		if !ok {
			continue
		}
		c.markReachable(peer, mark, lookup)
	}
}
