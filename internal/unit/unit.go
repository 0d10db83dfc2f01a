package unit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// QueueMask is a bitmask of queue memberships; each bit mirrors exactly one
// "in_Q" boolean of spec.md §3 ("queue memberships: one boolean per queue,
// mirroring linkage"). The bit layout (which bit means which queue) is
// owned by internal/queue, not by this package, so Unit stays unaware of
// queue ordering -- it only stores the bits.
type QueueMask uint16

func (m *QueueMask) Set(bit QueueMask)   { *m |= bit }
func (m *QueueMask) Clear(bit QueueMask) { *m &^= bit }
func (m QueueMask) Has(bit QueueMask) bool { return m&bit != 0 }

// Condition is one entry of the ordered conditions/asserts sequence,
// spec.md §3.
type Condition struct {
	Parameter string
	Negate    bool
	Satisfied bool
	Trigger   bool
}

// Ref is a named weak back-edge, spec.md §3.1 ("UnitRef"): (Source,
// Target) with intrusive membership in Target's RefsByTarget list. Modeled
// as an arena id per spec.md §9 ("model UnitRef as an arena id with
// intrusive membership in the target's back-edge list") so merges can
// rewrite every reference into the survivor in O(degree) instead of chasing
// raw pointers.
type Ref struct {
	ID     uint64
	Source string
	Target string
}

// Timestamps bundles the dual monotonic/wall timestamp pairs spec.md §3
// lists.
type Timestamps struct {
	StateChange DualTimestamp
	InactiveExit DualTimestamp
	ActiveEnter  DualTimestamp
	ActiveExit   DualTimestamp
	InactiveEnter DualTimestamp
	Condition    DualTimestamp
	Assert       DualTimestamp
}

// RateLimiter is a token bucket with monotonic-clock refill, spec.md §3/§9,
// backing StartLimit and AutoStopRateLimit. It wraps golang.org/x/time/rate
// (a teacher dependency promoted from indirect to direct use) rather than
// hand-rolling bucket arithmetic.
type RateLimiter struct {
	limiter *rate.Limiter
	burst   int
}

// NewRateLimiter builds a limiter that permits burst events per interval,
// refilling continuously at burst/interval.
func NewRateLimiter(interval time.Duration, burst int) *RateLimiter {
	if burst <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0), burst: 0}
	}
	r := rate.Every(interval / time.Duration(burst))
	return &RateLimiter{limiter: rate.NewLimiter(r, burst), burst: burst}
}

// Allow consumes one token, reporting whether the bucket had one available.
// A disabled limiter (burst == 0, i.e. no start_limit configured) always
// allows.
func (rl *RateLimiter) Allow() bool {
	if rl == nil || rl.burst == 0 {
		return true
	}
	return rl.limiter.Allow()
}

// Tokens reports the current (possibly fractional) token count, for
// serialization.
func (rl *RateLimiter) Tokens() float64 {
	if rl == nil || rl.limiter == nil {
		return 0
	}
	return rl.limiter.Tokens()
}

// RestoreAt reconstructs the bucket's token count from a serialized value,
// spec.md §4.7/§8's round-trip property ("preserves rate-limiter state").
// x/time/rate exposes no direct token setter, so this replaces the
// limiter with a freshly full one at the same rate and then immediately
// drains it down to the requested level via AllowN -- the same accounting
// Allow itself performs, just run once at restore time instead of once
// per start attempt. A disabled limiter (burst == 0) ignores the call.
func (rl *RateLimiter) RestoreAt(now time.Time, tokens float64) {
	if rl == nil || rl.burst == 0 {
		return
	}
	rl.limiter = rate.NewLimiter(rl.limiter.Limit(), rl.burst)
	consume := rl.burst - int(tokens+0.5)
	if consume <= 0 {
		return
	}
	if consume > rl.burst {
		consume = rl.burst
	}
	rl.limiter.AllowN(now, consume)
}

// Unit is the central entity of the Unit Engine, spec.md §3.
type Unit struct {
	mu sync.RWMutex

	Type  UnitType
	typePayload any // opaque per-type context, set by vtable.Table.Init

	LoadState LoadState
	LoadError error

	id    string
	names map[string]struct{}

	MergedInto string // set iff LoadState == LoadMerged

	Description   string
	Documentation []string

	FragmentPath      string
	SourcePath        string
	DropinPaths       []string
	FragmentModified  time.Time

	// RequiresMountsFor maps a path to the provenance reasons that
	// asserted the implicit mount dependency, spec.md §3.
	RequiresMountsFor map[string]uint16

	Conditions []Condition
	Asserts    []Condition
	ConditionResult bool
	AssertResult    bool

	// JobID/NopJobID reference job-layer handles by opaque id; nil/""
	// means "no job installed", spec.md §3 invariant ("job == null
	// implies the unit is not in the job runqueue").
	JobID    string
	NopJobID string

	Slice string // weak back-reference via Ref, spec.md §3

	Queues QueueMask

	InvocationID string

	StartLimit         *RateLimiter
	AutoStopRateLimit   *RateLimiter

	CollectMode CollectMode

	StopWhenUnneeded      bool
	DefaultDependencies    bool
	RefuseManualStart      bool
	RefuseManualStop       bool
	AllowIsolate           bool
	IgnoreOnIsolate        bool
	Transient              bool
	Perpetual              bool

	SuccessAction    EmergencyAction
	FailureAction    EmergencyAction
	StartLimitAction EmergencyAction
	ExitStatusOverride map[int]bool
	RebootArgument     string

	CGroup CGroupState

	// RefsByTarget is the intrusive back-edge list: every Ref whose
	// Target is this unit, spec.md §3/§9.
	RefsByTarget []Ref

	// Active is the high-level state most recently notified, cached so
	// ActiveState() is a pure function of it plus job state (spec.md §3
	// invariant).
	Active ActiveState
	SubState string

	WillRestart bool

	Timestamps Timestamps

	gcMarker uint64 // GC tri-color stamp, spec.md §4.6
}

// New constructs a stub unit for id, not yet loaded. Mirrors
// giantswarm-muster/internal/services.NewGenericServiceInstance's
// constructor shape but without any ServiceClass/API coupling -- this
// package owns the full object, not a facade over one.
func New(id string, typ UnitType) *Unit {
	return &Unit{
		Type:               typ,
		LoadState:          LoadStub,
		id:                 id,
		names:              map[string]struct{}{id: {}},
		DefaultDependencies: true,
		CollectMode:        CollectInactive,
		ExitStatusOverride: make(map[int]bool),
		Active:             Inactive,
	}
}

// ID returns the canonical name.
func (u *Unit) ID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.id
}

// Names returns a snapshot of the alias set.
func (u *Unit) Names() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, 0, len(u.names))
	for n := range u.names {
		out = append(out, n)
	}
	return out
}

// HasName reports whether n is one of u's names.
func (u *Unit) HasName(n string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.names[n]
	return ok
}

// TypePayload returns the opaque per-type context installed by the vtable
// Init callback.
func (u *Unit) TypePayload() any {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.typePayload
}

// SetTypePayload installs the opaque per-type context. Only the owning
// vtable entry's Init callback should call this.
func (u *Unit) SetTypePayload(v any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.typePayload = v
}

// GCMarker returns the tri-color mark stamp the garbage collector's sweep
// last set, spec.md §4.6.
func (u *Unit) GCMarker() uint64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.gcMarker
}

// SetGCMarker stamps the tri-color mark. Only internal/gc should call this.
func (u *Unit) SetGCMarker(v uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.gcMarker = v
}
