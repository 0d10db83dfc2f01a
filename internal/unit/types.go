// Package unit implements the Unit Engine's central entity: the Unit object
// model, its identity/name table, merge semantics, error taxonomy, and rate
// limiter; the lifecycle notifier lives in internal/statemachine. It is
// grounded on
// giantswarm-muster's internal/services package (GenericServiceInstance,
// ServiceState, registry) generalized from muster's single ServiceClass
// instance type to the eleven-way tagged UnitType variant spec.md calls
// for.
package unit

import "time"

// UnitType is the tagged variant discriminator. Per-type behavior never
// lives on Unit itself -- it is reached only through the vtable registry
// (see internal/vtable), matching spec.md §9's "no inheritance" rule.
type UnitType int

const (
	TypeService UnitType = iota
	TypeSocket
	TypeTarget
	TypeMount
	TypeSwap
	TypeDevice
	TypeTimer
	TypePath
	TypeSlice
	TypeScope
	TypeAutomount
)

func (t UnitType) String() string {
	switch t {
	case TypeService:
		return "service"
	case TypeSocket:
		return "socket"
	case TypeTarget:
		return "target"
	case TypeMount:
		return "mount"
	case TypeSwap:
		return "swap"
	case TypeDevice:
		return "device"
	case TypeTimer:
		return "timer"
	case TypePath:
		return "path"
	case TypeSlice:
		return "slice"
	case TypeScope:
		return "scope"
	case TypeAutomount:
		return "automount"
	default:
		return "unknown"
	}
}

// LoadState is the unit's load pipeline state, spec.md §3.
type LoadState int

const (
	LoadStub LoadState = iota
	LoadLoaded
	LoadMerged
	LoadNotFound
	LoadBadSetting
	LoadError
	LoadMasked
)

func (s LoadState) String() string {
	switch s {
	case LoadStub:
		return "stub"
	case LoadLoaded:
		return "loaded"
	case LoadMerged:
		return "merged"
	case LoadNotFound:
		return "not-found"
	case LoadBadSetting:
		return "bad-setting"
	case LoadError:
		return "error"
	case LoadMasked:
		return "masked"
	default:
		return "unknown"
	}
}

// priority orders load states for merge survivor selection: loaded > merged
// > stub > everything else, per spec.md §4.1.
func (s LoadState) priority() int {
	switch s {
	case LoadLoaded:
		return 3
	case LoadMerged:
		return 2
	case LoadStub:
		return 1
	default:
		return 0
	}
}

// ActiveState is the high-level state spec.md §4.4 derives from substate
// and job state.
type ActiveState int

const (
	Inactive ActiveState = iota
	Activating
	Active
	Reloading
	Deactivating
	Failed
	Maintenance
)

func (a ActiveState) String() string {
	switch a {
	case Inactive:
		return "inactive"
	case Activating:
		return "activating"
	case Active:
		return "active"
	case Reloading:
		return "reloading"
	case Deactivating:
		return "deactivating"
	case Failed:
		return "failed"
	case Maintenance:
		return "maintenance"
	default:
		return "unknown"
	}
}

// CollectMode refines GC eligibility, spec.md §3/§4.6.
type CollectMode int

const (
	CollectInactive CollectMode = iota
	CollectInactiveOrFailed
)

// EmergencyAction enumerates the success/failure action spec.md §3/§4.4.3.
type EmergencyAction int

const (
	ActionNone EmergencyAction = iota
	ActionReboot
	ActionRebootForce
	ActionPoweroff
	ActionExitGroup
)

// NotifyFlags modify how the notifier (spec.md §4.4) processes a
// transition.
type NotifyFlags uint8

const (
	FlagNone NotifyFlags = 0
	// ReloadFailure downgrades the reload outcome.
	FlagReloadFailure NotifyFlags = 1 << iota
	// WillAutoRestart suppresses failure actions and marks willRestart.
	FlagWillAutoRestart
	// SkipCondition suppresses logging the condition failure as an error.
	FlagSkipCondition
)

// DualTimestamp pairs a monotonic and a wall-clock reading, spec.md §3.
type DualTimestamp struct {
	Monotonic time.Duration
	Realtime  time.Time
}

// CGroupState is the opaque cgroup/BPF attachment surface spec.md §6
// describes: the engine only tracks realization bookkeeping, never touches
// cgroupfs or BPF itself.
type CGroupState struct {
	Path        string
	Realized    bool
	Enabled     bool
	Invalidated bool
	Members     int
}
