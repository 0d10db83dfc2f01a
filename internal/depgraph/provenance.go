// Package depgraph implements the Unit Engine's typed dependency graph:
// multi-kind, reason-tagged edges between units that must survive merges
// and reloads (spec.md §3, §4.2). It generalizes
// giantswarm-muster/internal/dependency.Graph -- a single-kind adjacency map
// used there to order MCP-server/port-forward startup -- into a
// multi-kind, provenance-bitmasked graph with symmetric inverse kinds.
package depgraph

// Reason is one bit of edge provenance: which configuration source
// asserted the edge, spec.md §3.
type Reason uint16

const (
	ReasonFile Reason = 1 << iota
	ReasonImplicit
	ReasonDefault
	ReasonUdev
	ReasonPath
	ReasonMountinfoImplicit
	ReasonMountinfoDefault
	ReasonProcSwap
)

// EdgeMask packs the origin-side and destination-side provenance masks of
// a single directed edge into one machine word, as spec.md §3/§9 require
// ("two such masks... packed into a single machine word-sized value").
type EdgeMask struct {
	Origin      Reason
	Destination Reason
}

// IsZero reports whether neither side carries any provenance bit, meaning
// the edge should be removed.
func (m EdgeMask) IsZero() bool { return m.Origin == 0 && m.Destination == 0 }

// Pack returns the two masks combined into one uint32, origin in the high
// 16 bits, as the dense inline representation spec.md §9 describes.
func (m EdgeMask) Pack() uint32 {
	return uint32(m.Origin)<<16 | uint32(m.Destination)
}

// Unpack reverses Pack.
func Unpack(v uint32) EdgeMask {
	return EdgeMask{Origin: Reason(v >> 16), Destination: Reason(v)}
}
