package depgraph

// UnitID identifies a node in the graph. The graph itself is
// unit-object-agnostic -- internal/unit.Registry owns the mapping from
// UnitID to the actual *unit.Unit and wires AddDependency/RemoveDependencies
// calls through to it, the same separation of concerns
// giantswarm-muster/internal/dependency.Graph keeps between NodeID and the
// caller-owned Node payload.
type UnitID string

type edgeEntry struct {
	peer UnitID
	mask EdgeMask
}

// Graph is the typed, provenance-tagged adjacency structure of spec.md
// §4.2. It is not safe for concurrent use; the Manager's single event-loop
// goroutine is the only mutator, per spec.md §5.
type Graph struct {
	// edges[u][kind] is an ordered-by-insertion slice of (peer, mask)
	// pairs. A slice (not a map) keeps Dependencies() deterministic for
	// callers that print or serialize dependency lists, matching the
	// ordered Documentation/conditions sequences elsewhere in the unit
	// model.
	edges map[UnitID]map[Kind][]edgeEntry
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{edges: make(map[UnitID]map[Kind][]edgeEntry)}
}

func (g *Graph) entries(u UnitID, k Kind) []edgeEntry {
	if g.edges[u] == nil {
		return nil
	}
	return g.edges[u][k]
}

func (g *Graph) find(u UnitID, k Kind, peer UnitID) (int, EdgeMask, bool) {
	for i, e := range g.entries(u, k) {
		if e.peer == peer {
			return i, e.mask, true
		}
	}
	return -1, EdgeMask{}, false
}

func (g *Graph) setOrigin(u UnitID, k Kind, peer UnitID, origin Reason) {
	if g.edges[u] == nil {
		g.edges[u] = make(map[Kind][]edgeEntry)
	}
	if i, m, ok := g.find(u, k, peer); ok {
		m.Origin |= origin
		g.edges[u][k][i].mask = m
		return
	}
	g.edges[u][k] = append(g.edges[u][k], edgeEntry{peer: peer, mask: EdgeMask{Origin: origin}})
}

func (g *Graph) setDestination(u UnitID, k Kind, peer UnitID, dest Reason) {
	if g.edges[u] == nil {
		g.edges[u] = make(map[Kind][]edgeEntry)
	}
	if i, m, ok := g.find(u, k, peer); ok {
		m.Destination |= dest
		g.edges[u][k][i].mask = m
		return
	}
	g.edges[u][k] = append(g.edges[u][k], edgeEntry{peer: peer, mask: EdgeMask{Destination: dest}})
}

// AddDependency adds (or idempotently strengthens) an edge u -kind-> other,
// OR-merging mask into both sides of the edge and installing the symmetric
// inverse edge automatically, spec.md §4.2.
func (g *Graph) AddDependency(u UnitID, k Kind, other UnitID, mask Reason) {
	if u == other {
		return
	}
	inv := Inverse(k)
	g.setOrigin(u, k, other, mask)
	g.setDestination(other, inv, u, mask)
	g.setOrigin(other, inv, u, mask)
	g.setDestination(u, k, other, mask)
}

// removeEntry deletes the (k, peer) entry from u's adjacency, if present.
func (g *Graph) removeEntry(u UnitID, k Kind, peer UnitID) {
	list := g.entries(u, k)
	for i, e := range list {
		if e.peer == peer {
			g.edges[u][k] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func combined(m EdgeMask) Reason { return m.Origin | m.Destination }

// RemoveDependencies clears mask from every edge touching u: both the
// forward entry stored on u and the mirrored entry stored on each peer are
// updated; when an edge's combined provenance (origin|destination) reaches
// zero on both mirrored entries, the edge and its symmetric partner are
// removed entirely. This lets reloading a single configuration source flush
// only the edges it owns, spec.md §4.2.
func (g *Graph) RemoveDependencies(u UnitID, mask Reason) {
	for k, list := range g.edges[u] {
		// Copy peer ids up front: the loop body may mutate g.edges[u][k].
		peers := make([]UnitID, len(list))
		for i, e := range list {
			peers[i] = e.peer
		}
		inv := Inverse(k)
		for _, peer := range peers {
			i, m, ok := g.find(u, k, peer)
			if !ok {
				continue
			}
			m.Origin &^= mask
			m.Destination &^= mask
			g.edges[u][k][i].mask = m

			pi, pm, pok := g.find(peer, inv, u)
			if pok {
				pm.Origin &^= mask
				pm.Destination &^= mask
				g.edges[peer][inv][pi].mask = pm
			}

			if combined(m) == 0 && (!pok || combined(pm) == 0) {
				g.removeEntry(u, k, peer)
				g.removeEntry(peer, inv, u)
			}
		}
	}
}

// Dependencies returns the peers reachable from u via kind k, in the order
// they were added.
func (g *Graph) Dependencies(u UnitID, k Kind) []UnitID {
	list := g.entries(u, k)
	out := make([]UnitID, len(list))
	for i, e := range list {
		out[i] = e.peer
	}
	return out
}

// Mask returns the current edge mask for u -k-> peer, and whether the edge
// exists at all.
func (g *Graph) Mask(u UnitID, k Kind, peer UnitID) (EdgeMask, bool) {
	_, m, ok := g.find(u, k, peer)
	return m, ok
}

// AllKinds returns every kind for which u has at least one outgoing edge.
func (g *Graph) AllKinds(u UnitID) []Kind {
	out := make([]Kind, 0, len(g.edges[u]))
	for k, list := range g.edges[u] {
		if len(list) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// StrongPeers returns every peer reachable from u via a strong dependency
// kind (spec.md §4.6, Strong()), used by the garbage collector's
// reachability trace.
func (g *Graph) StrongPeers(u UnitID) []UnitID {
	var out []UnitID
	for k, list := range g.edges[u] {
		if !Strong(k) {
			continue
		}
		for _, e := range list {
			out = append(out, e.peer)
		}
	}
	return out
}

// RemoveUnit drops every edge touching u, in both directions. Used when a
// unit is destroyed (spec.md §3 lifecycle: "destruction... drops all edges,
// which triggers symmetric removals on peers").
func (g *Graph) RemoveUnit(u UnitID) {
	for k := range g.edges[u] {
		inv := Inverse(k)
		for _, e := range append([]edgeEntry(nil), g.edges[u][k]...) {
			g.removeEntry(e.peer, inv, u)
		}
	}
	delete(g.edges, u)
}

// RenameUnit rewrites every edge referencing oldID (as a peer, on either
// side) to reference newID instead. Used by merge (spec.md §4.1) once the
// survivor has absorbed the loser's own edges via Absorb.
func (g *Graph) RenameUnit(oldID, newID UnitID) {
	for u, byKind := range g.edges {
		if u == oldID {
			continue
		}
		for k, list := range byKind {
			for i, e := range list {
				if e.peer == oldID {
					list[i].peer = newID
				}
			}
			g.edges[u][k] = list
		}
	}
}

// Absorb merges other's outgoing edges into u's, OR-combining masks per
// peer the way AddDependency does, then removes other from the graph
// entirely. Used by unit merge (spec.md §4.1: "unions each
// dependencies[kind] (edge-provenance values are OR-combined per peer)").
func (g *Graph) Absorb(u, other UnitID) {
	for k, list := range g.edges[other] {
		for _, e := range list {
			if e.peer == u {
				continue // would become a self-edge
			}
			g.AddDependency(u, k, e.peer, e.mask.Origin)
			if e.mask.Destination != 0 {
				g.setDestination(u, k, e.peer, e.mask.Destination)
				g.setOrigin(e.peer, Inverse(k), u, e.mask.Destination)
			}
		}
	}
	g.RemoveUnit(other)
}
