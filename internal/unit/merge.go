package unit

import "unitengine/internal/depgraph"

// survivorOf picks the merge survivor between a and b: higher load-state
// priority wins; ties break on lexicographic id order. This resolves Open
// Question (a) of spec.md §9 ("exact tie-break order... is not fully
// specified... lexicographic id is the suggested rule").
func survivorOf(a, b *Unit) (survivor, loser *Unit) {
	pa, pb := a.LoadState.priority(), b.LoadState.priority()
	switch {
	case pa > pb:
		return a, b
	case pb > pa:
		return b, a
	case a.id <= b.id:
		return a, b
	default:
		return b, a
	}
}

// Merge unifies a and b into a single surviving unit, per spec.md §4.1.
// The caller-supplied graph has a and b's dependency edges unioned into the
// survivor; the caller is responsible for enqueuing the loser onto the GC
// queue afterwards (this package does not know about queues, spec.md §4.5
// keeps that a separate concern).
//
// Merge is unidirectional from the survivor's point of view but the public
// entry point is symmetric in its arguments: callers pass two units that
// name the same resource (e.g. two fragments resolving to one alias) and
// get back whichever one actually survives.
func (r *Registry) Merge(a, b *Unit, g *depgraph.Graph) (survivor *Unit, err error) {
	if a == b {
		return a, nil // merge(u, u) is a no-op, spec.md §8 idempotence property
	}
	survivor, loser := survivorOf(a, b)

	r.mu.Lock()
	// Union names: every one of loser's names now maps to survivor.
	loser.mu.Lock()
	loserNames := make([]string, 0, len(loser.names))
	for n := range loser.names {
		loserNames = append(loserNames, n)
	}
	loser.mu.Unlock()

	survivor.mu.Lock()
	for _, n := range loserNames {
		survivor.names[n] = struct{}{}
		r.byName[n] = survivor
	}
	survivor.mu.Unlock()

	// Rewrite every UnitRef pointing at loser to point at survivor,
	// spec.md §4.1 ("rewrites every UnitRef in other.refs_by_target to
	// point at the survivor") -- O(degree) via the intrusive arena list.
	loser.mu.Lock()
	refs := loser.RefsByTarget
	loser.RefsByTarget = nil
	loser.mu.Unlock()
	for i := range refs {
		refs[i].Target = survivor.id
	}

	survivor.mu.Lock()
	survivor.RefsByTarget = append(survivor.RefsByTarget, refs...)
	survivor.mu.Unlock()

	loser.mu.Lock()
	loser.LoadState = LoadMerged
	loser.MergedInto = survivor.id
	loser.mu.Unlock()

	delete(r.units, loser.id) // loser is no longer a distinct iterable unit; byName still resolves its old names via FollowMerge
	r.mu.Unlock()

	if g != nil {
		g.Absorb(depgraph.UnitID(survivor.id), depgraph.UnitID(loser.id))
		g.RenameUnit(depgraph.UnitID(loser.id), depgraph.UnitID(survivor.id))
	}

	return survivor, nil
}
