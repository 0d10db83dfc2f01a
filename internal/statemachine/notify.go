// Package statemachine implements the Unit State Machine & Notifier,
// spec.md §4.4: the nine-step side-effect pipeline every per-type start/
// stop/reload implementation drives by calling Notify on its observed
// ActiveState transition. Grounded on giantswarm-muster's
// internal/reconciler/state_change_bridge.go, which plays the same
// role -- translating a low-level observed change into the side effects
// (status sync, logging, requeue) a transition implies -- generalized from
// muster's single CRD-status-sync side effect to the nine ordered steps
// spec.md §4.4 enumerates.
package statemachine

import (
	"context"
	"time"

	"unitengine/internal/depgraph"
	"unitengine/internal/job"
	"unitengine/internal/metrics"
	"unitengine/internal/queue"
	"unitengine/internal/unit"
	"unitengine/pkg/logging"
)

// ActionFunc is invoked when a success/failure/start-limit action fires.
// Executing the action (reboot, poweroff, exit-group) is an external
// collaborator's job; the notifier only signals that one was triggered.
type ActionFunc func(u *unit.Unit, action unit.EmergencyAction)

// TriggerFunc is invoked once per triggerer when u's state changes, spec.md
// §4.4 step 5 ("Emits trigger_notify to every triggerer").
type TriggerFunc func(triggererID string, u *unit.Unit, old, new unit.ActiveState)

// Notifier drives spec.md §4.4's nine-step process. All fields besides
// Graph, Jobs, and Scheduler are optional hooks; a nil hook is simply
// skipped.
type Notifier struct {
	Graph     *depgraph.Graph
	Jobs      job.Engine
	Scheduler *queue.Scheduler

	OnAction  ActionFunc
	OnTrigger TriggerFunc

	// Lookup resolves a unit id to its object, needed by step 7 to reach
	// the peers a departing-active unit depended on. Set by the Manager at
	// construction time; nil disables step 7's re-check entirely.
	Lookup func(id string) (*unit.Unit, bool)

	// Clock returns the current time; overridable in tests. Defaults to
	// time.Now.
	Clock func() time.Time
}

// New returns a Notifier wired to the given collaborators.
func New(g *depgraph.Graph, jobs job.Engine, sched *queue.Scheduler) *Notifier {
	return &Notifier{Graph: g, Jobs: jobs, Scheduler: sched, Clock: time.Now}
}

func (n *Notifier) now() time.Time {
	if n.Clock != nil {
		return n.Clock()
	}
	return time.Now()
}

func dual(t time.Time) unit.DualTimestamp {
	return unit.DualTimestamp{Monotonic: time.Duration(t.UnixNano()), Realtime: t}
}

// Notify runs the nine-step process of spec.md §4.4 for u's transition from
// old to new.
func (n *Notifier) Notify(ctx context.Context, u *unit.Unit, old, new unit.ActiveState, flags unit.NotifyFlags) {
	now := n.now()
	log := logging.ForUnit(u.ID(), u.InvocationID)

	// Step 1: stamp timestamps.
	u.Timestamps.StateChange = dual(now)
	if old == unit.Inactive && new != unit.Inactive {
		u.Timestamps.InactiveExit = dual(now)
	}
	if new == unit.Active {
		u.Timestamps.ActiveEnter = dual(now)
	}
	if old == unit.Active && new != unit.Active {
		u.Timestamps.ActiveExit = dual(now)
	}
	if new == unit.Inactive {
		u.Timestamps.InactiveEnter = dual(now)
	}

	// Step 2: condition/assert timestamps on a condition-skip transition.
	if flags&unit.FlagSkipCondition != 0 {
		u.Timestamps.Condition = dual(now)
		u.Timestamps.Assert = dual(now)
	}

	// Step 3: success/failure actions. WillAutoRestart is recorded on the
	// unit and suppresses the failure action.
	u.WillRestart = flags&unit.FlagWillAutoRestart != 0
	if new == unit.Failed && u.FailureAction != unit.ActionNone && flags&unit.FlagWillAutoRestart == 0 {
		log.Warn("Notifier", "entering failed, firing failure_action")
		n.fireAction(u, u.FailureAction)
	}
	if new == unit.Inactive && old == unit.Deactivating && u.SuccessAction != unit.ActionNone {
		n.fireAction(u, u.SuccessAction)
	}

	// Step 4: complete/fail the installed job per the transition matrix.
	n.settleJob(ctx, u, old, new, flags, log)

	// Step 5: trigger_notify to every triggerer.
	if n.Graph != nil && n.OnTrigger != nil {
		for _, peer := range n.Graph.Dependencies(depgraph.UnitID(u.ID()), depgraph.TriggeredBy) {
			n.OnTrigger(string(peer), u, old, new)
		}
	}

	// Step 6: enqueue on the D-Bus queue.
	if n.Scheduler != nil {
		n.Scheduler.Enqueue(u, queue.DBus)
	}

	// Step 7: enqueue on the stop-when-unneeded queue when leaving active.
	// u's own dependencies are the candidates -- they may have been kept
	// alive only by u requiring/wanting them, so each is re-checked by the
	// stop-when-unneeded queue handler now that u no longer needs it.
	if n.Scheduler != nil && n.Graph != nil && n.Lookup != nil && old == unit.Active && new != unit.Active {
		for _, k := range []depgraph.Kind{depgraph.Requires, depgraph.Wants, depgraph.BindsTo, depgraph.Upholds} {
			for _, peerID := range n.Graph.Dependencies(depgraph.UnitID(u.ID()), k) {
				if peer, ok := n.Lookup(string(peerID)); ok {
					n.Scheduler.Enqueue(peer, queue.StopWhenUnneeded)
				}
			}
		}
	}

	// Step 8: mint a fresh invocation id on entering active.
	if new == unit.Active {
		u.InvocationID = unit.NewInvocationID()
	}

	// Step 9: honor start_limit on every activating transition. Exhaustion
	// forces the unit straight to failed, per the trip scenario (6 rapid
	// inactive->activating transitions past burst puts the unit in failed,
	// not activating).
	final := new
	if new == unit.Activating {
		if u.StartLimit != nil && !u.StartLimit.Allow() {
			log.Warn("Notifier", "start_limit exhausted")
			metrics.RecordStartLimitTrip(u.ID())
			final = unit.Failed
			if u.StartLimitAction != unit.ActionNone {
				n.fireAction(u, u.StartLimitAction)
			}
		}
	}

	u.Active = final
}

func (n *Notifier) fireAction(u *unit.Unit, action unit.EmergencyAction) {
	if n.OnAction != nil {
		n.OnAction(u, action)
	}
}

// settleJob implements step 4's transition matrix: which observed
// ActiveState transitions complete or fail the currently installed job.
func (n *Notifier) settleJob(ctx context.Context, u *unit.Unit, old, new unit.ActiveState, flags unit.NotifyFlags, log logging.UnitLogger) {
	if n.Jobs == nil || u.JobID == "" {
		return
	}
	h := job.Handle(u.JobID)

	switch {
	case new == unit.Failed:
		if err := n.Jobs.Fail(ctx, h, job.ResultFailed); err != nil {
			log.Warn("Notifier", "failed to fail job %s: %v", h, err)
		}
	case old == unit.Activating && new == unit.Active:
		if err := n.Jobs.Complete(ctx, h); err != nil {
			log.Warn("Notifier", "failed to complete start job %s: %v", h, err)
		}
	case old == unit.Deactivating && new == unit.Inactive:
		if err := n.Jobs.Complete(ctx, h); err != nil {
			log.Warn("Notifier", "failed to complete stop job %s: %v", h, err)
		}
	case old == unit.Reloading && new == unit.Active:
		if flags&unit.FlagReloadFailure != 0 {
			if err := n.Jobs.Fail(ctx, h, job.ResultFailed); err != nil {
				log.Warn("Notifier", "failed to fail reload job %s: %v", h, err)
			}
		} else if err := n.Jobs.Complete(ctx, h); err != nil {
			log.Warn("Notifier", "failed to complete reload job %s: %v", h, err)
		}
	default:
		return
	}
	u.JobID = ""
}
