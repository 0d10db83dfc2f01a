package statemachine

import (
	"context"
	"testing"
	"time"

	"unitengine/internal/depgraph"
	"unitengine/internal/job"
	"unitengine/internal/queue"
	"unitengine/internal/unit"
)

func newTestNotifier() (*Notifier, *job.Fake, *queue.Scheduler) {
	g := depgraph.New()
	jobs := job.NewFake()
	sched := queue.New()
	n := New(g, jobs, sched)
	n.Clock = func() time.Time { return time.Unix(1700000000, 0) }
	return n, jobs, sched
}

func TestActivatingToActiveCompletesStartJobAndMintsInvocationID(t *testing.T) {
	n, jobs, _ := newTestNotifier()
	u := unit.New("a.service", unit.TypeService)
	h, _ := jobs.Install(context.Background(), u.ID(), job.Start, job.ModeReplace)
	u.JobID = string(h)

	n.Notify(context.Background(), u, unit.Activating, unit.Active, unit.FlagNone)

	if u.JobID != "" {
		t.Error("expected JobID cleared after completion")
	}
	if u.InvocationID == "" {
		t.Error("expected a fresh invocation id minted on entering active")
	}
	if u.Active != unit.Active {
		t.Errorf("expected Active cached, got %v", u.Active)
	}
}

func TestEnteringFailedFiresFailureAction(t *testing.T) {
	n, _, _ := newTestNotifier()
	u := unit.New("a.service", unit.TypeService)
	u.FailureAction = unit.ActionReboot

	var fired unit.EmergencyAction
	n.OnAction = func(u *unit.Unit, action unit.EmergencyAction) { fired = action }

	n.Notify(context.Background(), u, unit.Active, unit.Failed, unit.FlagNone)

	if fired != unit.ActionReboot {
		t.Errorf("expected failure action to fire, got %v", fired)
	}
}

func TestWillAutoRestartSuppressesFailureAction(t *testing.T) {
	n, _, _ := newTestNotifier()
	u := unit.New("a.service", unit.TypeService)
	u.FailureAction = unit.ActionReboot

	fired := false
	n.OnAction = func(u *unit.Unit, action unit.EmergencyAction) { fired = true }

	n.Notify(context.Background(), u, unit.Active, unit.Failed, unit.FlagWillAutoRestart)

	if fired {
		t.Error("expected failure action suppressed by WillAutoRestart")
	}
}

func TestLeavingActiveEnqueuesStopWhenUnneeded(t *testing.T) {
	n, _, sched := newTestNotifier()
	a := unit.New("a.service", unit.TypeService)
	a.Active = unit.Active
	b := unit.New("b.service", unit.TypeService)
	n.Graph.AddDependency(depgraph.UnitID("a.service"), depgraph.Requires, depgraph.UnitID("b.service"), depgraph.ReasonFile)
	n.Lookup = func(id string) (*unit.Unit, bool) {
		if id == "b.service" {
			return b, true
		}
		return nil, false
	}

	n.Notify(context.Background(), a, unit.Active, unit.Deactivating, unit.FlagNone)

	if sched.Len(queue.StopWhenUnneeded) != 1 {
		t.Errorf("expected a's dependency b enqueued on stop-when-unneeded, got len %d", sched.Len(queue.StopWhenUnneeded))
	}
	if sched.Len(queue.DBus) != 1 {
		t.Errorf("expected unit enqueued on dbus queue, got len %d", sched.Len(queue.DBus))
	}
}

func TestTriggerNotifyFansOutToTriggerers(t *testing.T) {
	n, _, _ := newTestNotifier()
	u := unit.New("b.path", unit.TypePath)
	n.Graph.AddDependency(depgraph.UnitID("a.service"), depgraph.Triggers, depgraph.UnitID("b.path"), depgraph.Reason(1))

	var triggerers []string
	n.OnTrigger = func(triggererID string, u *unit.Unit, old, new unit.ActiveState) {
		triggerers = append(triggerers, triggererID)
	}

	n.Notify(context.Background(), u, unit.Inactive, unit.Active, unit.FlagNone)

	if len(triggerers) != 1 || triggerers[0] != "a.service" {
		t.Errorf("expected trigger_notify to a.service, got %v", triggerers)
	}
}

func TestStartLimitExhaustionFiresStartLimitAction(t *testing.T) {
	n, _, _ := newTestNotifier()
	u := unit.New("a.service", unit.TypeService)
	u.StartLimit = unit.NewRateLimiter(time.Minute, 1)
	u.StartLimitAction = unit.ActionPoweroff

	var fired unit.EmergencyAction
	n.OnAction = func(u *unit.Unit, action unit.EmergencyAction) { fired = action }

	n.Notify(context.Background(), u, unit.Inactive, unit.Activating, unit.FlagNone)
	n.Notify(context.Background(), u, unit.Activating, unit.Inactive, unit.FlagNone)
	n.Notify(context.Background(), u, unit.Inactive, unit.Activating, unit.FlagNone)

	if fired != unit.ActionPoweroff {
		t.Errorf("expected start_limit_action to fire on exhaustion, got %v", fired)
	}
}
