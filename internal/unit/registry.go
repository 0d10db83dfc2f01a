package unit

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry is the Identity & Names Table (spec.md §4.1): it owns the
// name->unit index, alias/merge chains, and the back-reference arena.
// Modeled on giantswarm-muster/internal/services.Registry (a name->Service
// map with Register/Unregister/Get), generalized with a full alias set per
// unit and merge support the teacher's single-name registry never needed.
type Registry struct {
	mu sync.RWMutex

	// byName indexes every one of a unit's names (including aliases) to
	// its *Unit, spec.md §3 invariant ("every name in names maps to
	// exactly one unit").
	byName map[string]*Unit

	// units is keyed by canonical id, for iteration (GC sweeps, dump,
	// serialize).
	units map[string]*Unit

	nextRefID uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Unit),
		units:  make(map[string]*Unit),
	}
}

func validName(n string) bool {
	if n == "" || len(n) > 255 {
		return false
	}
	for _, r := range n {
		if r == '/' || r == 0 {
			return false
		}
	}
	return true
}

// NewForName creates and registers a stub unit named n. Fails with
// KindInvalidName or KindNameConflict.
func (r *Registry) NewForName(n string, typ UnitType) (*Unit, error) {
	if !validName(n) {
		return nil, NewError(n, KindInvalidName, "malformed unit name", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[n]; exists {
		return nil, NewError(n, KindNameConflict, "name already owned", nil)
	}
	u := New(n, typ)
	r.byName[n] = u
	r.units[n] = u
	return u, nil
}

// AddName adds alias n to u. Fails with KindInvalidName on malformed input,
// KindNameConflict if another unit already owns n, spec.md §4.1.
func (r *Registry) AddName(u *Unit, n string) error {
	if !validName(n) {
		return NewError(n, KindInvalidName, "malformed unit name", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, exists := r.byName[n]; exists && owner != u {
		return NewError(n, KindNameConflict, "name already owned", nil)
	}
	u.mu.Lock()
	u.names[n] = struct{}{}
	u.mu.Unlock()
	r.byName[n] = u
	return nil
}

// ChooseID makes n (which must already be in u.names) the canonical id.
// spec.md §4.1.
func (r *Registry) ChooseID(u *Unit, n string) error {
	if !u.HasName(n) {
		return NewError(n, KindInvalidName, "name not owned by unit", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u.mu.Lock()
	old := u.id
	u.id = n
	u.mu.Unlock()
	delete(r.units, old)
	r.units[n] = u
	return nil
}

// Get looks up a unit by any of its names and follows merge chains to the
// terminal survivor, spec.md §4.1 ("follow_merge").
func (r *Registry) Get(name string) (*Unit, bool) {
	r.mu.RLock()
	u, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.FollowMerge(u), true
}

// FollowMerge chases MergedInto to the terminal survivor. Cycle-free by
// construction: a merged unit is never itself a merge target (spec.md
// §4.1).
func (r *Registry) FollowMerge(u *Unit) *Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	for u.LoadState == LoadMerged && u.MergedInto != "" && !seen[u.id] {
		seen[u.id] = true
		next, ok := r.units[u.MergedInto]
		if !ok {
			break
		}
		u = next
	}
	return u
}

// All returns every live (non-merged, non-destroyed) unit, canonical-id
// sorted for deterministic iteration (used by GC sweeps and dump/serialize
// output).
func (r *Registry) All() []*Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Unit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Destroy removes u from every index. Per spec.md §3, this is only called
// once u's edges have been dropped by the caller (internal/manager's
// cleanup-queue handler).
func (r *Registry) Destroy(u *Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range u.Names() {
		if owner, ok := r.byName[n]; ok && owner == u {
			delete(r.byName, n)
		}
	}
	delete(r.units, u.ID())
}

// AddRef installs a named weak back-edge target <- source, returning its
// arena id. spec.md §3.1.
func (r *Registry) AddRef(target *Unit, source string) Ref {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextRefID++
	ref := Ref{ID: r.nextRefID, Source: source, Target: target.ID()}
	target.mu.Lock()
	target.RefsByTarget = append(target.RefsByTarget, ref)
	target.mu.Unlock()
	return ref
}

// RemoveRef drops the back-edge with the given arena id from target.
func (r *Registry) RemoveRef(target *Unit, id uint64) {
	target.mu.Lock()
	defer target.mu.Unlock()
	for i, ref := range target.RefsByTarget {
		if ref.ID == id {
			target.RefsByTarget = append(target.RefsByTarget[:i], target.RefsByTarget[i+1:]...)
			return
		}
	}
}

// Pinned reports whether any UnitRef still targets u -- the "not
// referenced by any UnitRef" clause of may_gc, spec.md §4.6.
func Pinned(u *Unit) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.RefsByTarget) > 0
}

// newInvocationID mints a fresh 128-bit identifier, spec.md §3/§4.4.8.
func newInvocationID() string {
	return uuid.New().String()
}

// NewInvocationID mints a fresh 128-bit identifier. Exported for
// internal/statemachine, which mints one every time a unit enters Active.
func NewInvocationID() string {
	return newInvocationID()
}
