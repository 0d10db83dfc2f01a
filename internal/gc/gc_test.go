package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"unitengine/internal/depgraph"
	"unitengine/internal/queue"
	"unitengine/internal/unit"
)

func lookupFn(units map[string]*unit.Unit) func(string) (*unit.Unit, bool) {
	return func(id string) (*unit.Unit, bool) {
		u, ok := units[id]
		return u, ok
	}
}

func TestSweepCollectsUnreferencedInactive(t *testing.T) {
	g := depgraph.New()
	c := New(g, nil)
	sched := queue.New()

	u := unit.New("a.service", unit.TypeService)
	units := map[string]*unit.Unit{"a.service": u}

	c.Sweep([]*unit.Unit{u}, lookupFn(units), sched)

	assert.Equal(t, 1, sched.Len(queue.Cleanup), "expected unreferenced inactive unit swept")
}

func TestSweepRetainsActiveUnit(t *testing.T) {
	g := depgraph.New()
	c := New(g, nil)
	sched := queue.New()

	u := unit.New("a.service", unit.TypeService)
	u.Active = unit.Active
	units := map[string]*unit.Unit{"a.service": u}

	c.Sweep([]*unit.Unit{u}, lookupFn(units), sched)

	if sched.Len(queue.Cleanup) != 0 {
		t.Error("expected active unit retained")
	}
}

func TestSweepCollectModeInactiveRetainsFailed(t *testing.T) {
	g := depgraph.New()
	c := New(g, nil)
	sched := queue.New()

	u := unit.New("a.service", unit.TypeService)
	u.Active = unit.Failed
	u.CollectMode = unit.CollectInactive
	units := map[string]*unit.Unit{"a.service": u}

	c.Sweep([]*unit.Unit{u}, lookupFn(units), sched)

	if sched.Len(queue.Cleanup) != 0 {
		t.Error("expected failed unit retained under collect_mode=inactive")
	}
}

func TestSweepCollectModeInactiveOrFailedCollectsFailed(t *testing.T) {
	g := depgraph.New()
	c := New(g, nil)
	sched := queue.New()

	u := unit.New("a.service", unit.TypeService)
	u.Active = unit.Failed
	u.CollectMode = unit.CollectInactiveOrFailed
	units := map[string]*unit.Unit{"a.service": u}

	c.Sweep([]*unit.Unit{u}, lookupFn(units), sched)

	if sched.Len(queue.Cleanup) != 1 {
		t.Error("expected failed unit collected under collect_mode=inactive_or_failed")
	}
}

func TestSweepRetainsUnitReachableViaStrongEdgeFromRetainedRoot(t *testing.T) {
	g := depgraph.New()
	c := New(g, nil)
	sched := queue.New()

	active := unit.New("a.service", unit.TypeService)
	active.Active = unit.Active
	dep := unit.New("b.service", unit.TypeService)

	g.AddDependency(depgraph.UnitID("a.service"), depgraph.Requires, depgraph.UnitID("b.service"), depgraph.ReasonFile)

	units := map[string]*unit.Unit{"a.service": active, "b.service": dep}
	c.Sweep([]*unit.Unit{active, dep}, lookupFn(units), sched)

	if sched.Len(queue.Cleanup) != 0 {
		t.Error("expected Requires-held dependency retained, not swept")
	}
}

func TestSweepRetainsPinnedUnit(t *testing.T) {
	g := depgraph.New()
	c := New(g, nil)
	sched := queue.New()
	reg := unit.NewRegistry()

	u, _ := reg.NewForName("a.service", unit.TypeService)
	reg.AddRef(u, "other.service")
	units := map[string]*unit.Unit{"a.service": u}

	c.Sweep([]*unit.Unit{u}, lookupFn(units), sched)

	if sched.Len(queue.Cleanup) != 0 {
		t.Error("expected pinned unit retained")
	}
}
