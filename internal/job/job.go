// Package job models the Unit Engine's boundary with the external job
// engine (spec.md §1 "Out of scope", §6 "To the job engine"). The Unit
// Engine only installs/observes jobs; it never schedules dependency-ordered
// execution itself. This package is the thin interface the notifier
// (internal/statemachine) and manager façade (internal/manager) use to
// reach across that boundary, plus an in-memory fake for tests and
// embedding without a real job engine.
//
// Grounded on giantswarm-muster/internal/reconciler's ReconcileQueue
// interface/workQueue split (internal/reconciler/types.go,
// internal/reconciler/queue.go): a narrow interface at the package boundary
// backed by a simple in-memory implementation.
package job

import "context"

// Type enumerates the job kinds the engine can install, spec.md §6.
type Type int

const (
	Start Type = iota
	Stop
	Reload
	Restart
)

func (t Type) String() string {
	switch t {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Reload:
		return "reload"
	case Restart:
		return "restart"
	default:
		return "unknown"
	}
}

// Mode controls how a new job interacts with any job already queued for the
// same unit (replace, fail, merge...); the exact enumeration is the job
// engine's concern -- the Unit Engine only passes it through.
type Mode string

const (
	ModeReplace Mode = "replace"
	ModeFail    Mode = "fail"
)

// Result is the outcome reported back through Complete/Fail.
type Result int

const (
	ResultDone Result = iota
	ResultFailed
	ResultCancelled
	ResultTimeout
)

// Handle is an opaque reference to an installed job.
type Handle string

// Event is delivered from the job engine to the notifier when a job is
// installed or removed, spec.md §6.
type Event struct {
	Job    Handle
	UnitID string
	Type   Type
	Result Result
	Done   bool
}

// Engine is the Unit Engine's view of the external job engine: install,
// complete, fail, and an event stream. Nothing about dependency ordering or
// job scheduling internals crosses this boundary.
type Engine interface {
	Install(ctx context.Context, unitID string, jobType Type, mode Mode) (Handle, error)
	Complete(ctx context.Context, h Handle) error
	Fail(ctx context.Context, h Handle, result Result) error
	Cancel(ctx context.Context, h Handle) error
	Events() <-chan Event
}
