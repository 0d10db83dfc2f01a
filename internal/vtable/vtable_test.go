package vtable

import (
	"testing"

	"unitengine/internal/unit"
)

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if got := r.Lookup(unit.TypeService); got != nil {
		t.Fatalf("expected nil for an unregistered type, got %v", got)
	}

	tbl := &Table{Type: unit.TypeService, Flags: CanTransient | OnceOnly}
	r.Register(tbl)

	if got := r.Lookup(unit.TypeService); got != tbl {
		t.Errorf("expected Lookup to return the registered table, got %v", got)
	}
	if got := r.Lookup(unit.TypeSocket); got != nil {
		t.Errorf("expected other types to remain unregistered, got %v", got)
	}
}

func TestRegisterReplacesPriorEntry(t *testing.T) {
	r := NewRegistry()
	first := &Table{Type: unit.TypeTimer}
	second := &Table{Type: unit.TypeTimer, Flags: GCJobs}
	r.Register(first)
	r.Register(second)

	if got := r.Lookup(unit.TypeTimer); got != second {
		t.Error("expected re-registering a type to replace the prior entry")
	}
}

func TestFlagsHas(t *testing.T) {
	tbl := &Table{Flags: CanTransient | GCJobs}
	if !tbl.Has(CanTransient) {
		t.Error("expected CanTransient set")
	}
	if !tbl.Has(GCJobs) {
		t.Error("expected GCJobs set")
	}
	if tbl.Has(CanDelegate) {
		t.Error("expected CanDelegate unset")
	}
}

func TestSupportedFallsBackToTrueWithoutHook(t *testing.T) {
	r := NewRegistry()
	r.Register(&Table{Type: unit.TypeSlice})
	if !r.Supported(unit.TypeSlice) {
		t.Error("expected a registered table with no Supported hook to report supported")
	}
	if r.Supported(unit.TypeScope) {
		t.Error("expected an unregistered type to report unsupported")
	}
}

func TestSupportedDefersToHook(t *testing.T) {
	r := NewRegistry()
	r.Register(&Table{Type: unit.TypeDevice, Supported: func() bool { return false }})
	if r.Supported(unit.TypeDevice) {
		t.Error("expected Supported hook returning false to be honored")
	}
}
