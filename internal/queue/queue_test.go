package queue

import (
	"testing"

	"unitengine/internal/unit"
)

func newTestUnit(id string) *unit.Unit {
	return unit.New(id, unit.TypeService)
}

func lookupFn(units map[string]*unit.Unit) func(string) (*unit.Unit, bool) {
	return func(id string) (*unit.Unit, bool) {
		u, ok := units[id]
		return u, ok
	}
}

func TestEnqueueDedups(t *testing.T) {
	s := New()
	u := newTestUnit("a.service")

	s.Enqueue(u, Load)
	s.Enqueue(u, Load)

	if s.Len(Load) != 1 {
		t.Errorf("expected len 1 after duplicate enqueue, got %d", s.Len(Load))
	}
	if !u.Queues.Has(Bit(Load)) {
		t.Error("expected Load bit set on unit")
	}
}

func TestDrainOrderFixedAndQuiescent(t *testing.T) {
	s := New()
	units := map[string]*unit.Unit{
		"a.service": newTestUnit("a.service"),
	}

	var order []Name
	s.SetHandler(Load, func(id string) []Name {
		order = append(order, Load)
		return []Name{TargetDeps}
	})
	s.SetHandler(TargetDeps, func(id string) []Name {
		order = append(order, TargetDeps)
		return nil
	})

	s.Enqueue(units["a.service"], Load)
	s.Drain(lookupFn(units))

	if len(order) != 2 || order[0] != Load || order[1] != TargetDeps {
		t.Errorf("expected [Load TargetDeps], got %v", order)
	}
	if s.AnyPending() {
		t.Error("expected scheduler to reach quiescence")
	}
}

func TestDequeueClearsBitBeforeHandler(t *testing.T) {
	s := New()
	units := map[string]*unit.Unit{
		"a.service": newTestUnit("a.service"),
	}
	u := units["a.service"]

	var sawBitSet bool
	s.SetHandler(GC, func(id string) []Name {
		sawBitSet = u.Queues.Has(Bit(GC))
		return nil
	})

	s.Enqueue(u, GC)
	s.Drain(lookupFn(units))

	if sawBitSet {
		t.Error("expected GC bit cleared before handler runs")
	}
	if u.Queues.Has(Bit(GC)) {
		t.Error("expected GC bit cleared after drain")
	}
}

func TestLevelTriggeredReenqueueDuringDrain(t *testing.T) {
	s := New()
	units := map[string]*unit.Unit{
		"a.service": newTestUnit("a.service"),
	}
	u := units["a.service"]

	calls := 0
	s.SetHandler(StopWhenUnneeded, func(id string) []Name {
		calls++
		if calls < 3 {
			s.Enqueue(u, StopWhenUnneeded)
		}
		return nil
	})

	s.Enqueue(u, StopWhenUnneeded)
	s.Drain(lookupFn(units))

	if calls != 3 {
		t.Errorf("expected handler invoked 3 times across passes, got %d", calls)
	}
}
