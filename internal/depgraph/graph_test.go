package depgraph

import "testing"

func TestAddDependencySymmetric(t *testing.T) {
	g := New()
	g.AddDependency("A", Wants, "B", ReasonFile)

	if deps := g.Dependencies("A", Wants); len(deps) != 1 || deps[0] != "B" {
		t.Fatalf("expected A -Wants-> B, got %v", deps)
	}
	if deps := g.Dependencies("B", WantedBy); len(deps) != 1 || deps[0] != "A" {
		t.Fatalf("expected B -WantedBy-> A, got %v", deps)
	}

	mA, ok := g.Mask("A", Wants, "B")
	if !ok || combined(mA)&ReasonFile == 0 {
		t.Fatalf("expected A's edge to carry ReasonFile, got %+v", mA)
	}
	mB, ok := g.Mask("B", WantedBy, "A")
	if !ok || combined(mB)&ReasonFile == 0 {
		t.Fatalf("expected B's edge to carry ReasonFile, got %+v", mB)
	}
}

func TestRemoveDependenciesFlushesByProvenance(t *testing.T) {
	g := New()
	g.AddDependency("A", Wants, "B", ReasonFile)
	g.AddDependency("A", Wants, "B", ReasonDefault)

	g.RemoveDependencies("A", ReasonFile)

	// ReasonDefault bit survives, so the edge must still exist.
	if deps := g.Dependencies("A", Wants); len(deps) != 1 {
		t.Fatalf("expected edge to survive removal of one reason, got %v", deps)
	}

	g.RemoveDependencies("A", ReasonDefault)
	if deps := g.Dependencies("A", Wants); len(deps) != 0 {
		t.Fatalf("expected edge gone once all reasons flushed, got %v", deps)
	}
	if deps := g.Dependencies("B", WantedBy); len(deps) != 0 {
		t.Fatalf("expected symmetric edge gone too, got %v", deps)
	}
}

func TestIdempotentAdd(t *testing.T) {
	g := New()
	g.AddDependency("A", Requires, "B", ReasonFile)
	g.AddDependency("A", Requires, "B", ReasonFile)

	if deps := g.Dependencies("A", Requires); len(deps) != 1 {
		t.Fatalf("expected idempotent add, got %v", deps)
	}
}

func TestRemoveUnitDropsSymmetricEdges(t *testing.T) {
	g := New()
	g.AddDependency("A", Requires, "B", ReasonFile)
	g.AddDependency("C", Requires, "B", ReasonFile)

	g.RemoveUnit("B")

	if deps := g.Dependencies("A", Requires); len(deps) != 0 {
		t.Fatalf("expected A's edge to B removed, got %v", deps)
	}
	if deps := g.Dependencies("C", Requires); len(deps) != 0 {
		t.Fatalf("expected C's edge to B removed, got %v", deps)
	}
}

func TestAbsorbUnionsProvenance(t *testing.T) {
	g := New()
	g.AddDependency("X", Requires, "other", ReasonFile)
	g.AddDependency("survivor", Requires, "other", ReasonDefault)

	g.Absorb("survivor", "X")

	deps := g.Dependencies("survivor", Requires)
	if len(deps) != 1 || deps[0] != "other" {
		t.Fatalf("expected survivor -Requires-> other, got %v", deps)
	}
	m, ok := g.Mask("survivor", Requires, "other")
	if !ok || combined(m)&ReasonFile == 0 || combined(m)&ReasonDefault == 0 {
		t.Fatalf("expected unioned provenance, got %+v", m)
	}

	if deps := g.Dependencies("X", Requires); len(deps) != 0 {
		t.Fatalf("expected X removed from graph, got %v", deps)
	}
}

func TestStrongPeers(t *testing.T) {
	g := New()
	g.AddDependency("A", Requires, "B", ReasonFile)
	g.AddDependency("A", Wants, "C", ReasonFile)

	strong := g.StrongPeers("A")
	if len(strong) != 1 || strong[0] != "B" {
		t.Fatalf("expected only B via Requires to be a strong peer, got %v", strong)
	}
}
