// Command unitengine runs the Unit Engine as a standalone daemon: it wires
// the Manager façade to its collaborators and drives the event loop until
// signaled to stop. CLI frontends and concrete per-type execution are out
// of scope (spec.md §1) -- this binary is the thinnest possible host for
// the engine, not a replacement for systemd's own PID 1.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"unitengine/internal/bus"
	"unitengine/internal/engineconfig"
	"unitengine/internal/job"
	"unitengine/internal/manager"
	"unitengine/internal/serialize"
	"unitengine/internal/unit"
	"unitengine/internal/vtable"
	"unitengine/pkg/logging"
)

func main() {
	configPath := flag.String("config", "/etc/unitengine/config.yaml", "path to engine configuration")
	useBus := flag.Bool("bus", false, "emit real D-Bus signals instead of logging them")
	flag.Parse()

	logging.InitForCLI(logging.LevelInfo, os.Stderr)

	cfg, err := engineconfig.Load(*configPath)
	if err != nil {
		logging.Error("main", err, "failed to load engine configuration")
		os.Exit(1)
	}

	var notifier bus.Notifier = bus.LogNotifier{}
	if *useBus {
		sd, err := bus.NewSystemdNotifier()
		if err != nil {
			logging.Error("main", err, "failed to connect to D-Bus, falling back to log notifier")
		} else {
			notifier = sd
			defer sd.Close()
		}
	}

	m := manager.New(cfg, job.NewFake(), notifier)
	registerBuiltinTypes(m)

	if fds := serialize.FromActivation(true); fds.Len() > 0 {
		logging.Info("main", "inherited %d descriptor(s) from a reexec or socket activation", fds.Len())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("main", "unit engine starting, config=%s", *configPath)
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Error("main", err, "failed to notify systemd of readiness")
	} else if sent {
		logging.Info("main", "sent READY=1 to systemd")
	}

	runErr := m.Run(ctx)

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		logging.Error("main", err, "failed to notify systemd of stopping")
	} else if sent {
		logging.Info("main", "sent STOPPING=1 to systemd")
	}

	if runErr != nil && ctx.Err() == nil {
		logging.Error("main", runErr, "event loop exited unexpectedly")
		os.Exit(1)
	}
	logging.Info("main", "unit engine stopped")
}

// registerBuiltinTypes installs a bare-minimum vtable for every UnitType so
// the load queue doesn't immediately fail every unit with "not found". Real
// per-type execution (process spawning, cgroup realization, mount
// scanning...) is an external collaborator's job, spec.md §1; these tables
// only make the types loadable and dumpable.
func registerBuiltinTypes(m *manager.Manager) {
	for _, t := range []unit.UnitType{
		unit.TypeService, unit.TypeSocket, unit.TypeTarget, unit.TypeMount,
		unit.TypeSwap, unit.TypeDevice, unit.TypeTimer, unit.TypePath,
		unit.TypeSlice, unit.TypeScope, unit.TypeAutomount,
	} {
		typ := t
		m.VTables.Register(&vtable.Table{
			Type: typ,
			Load: func(u *unit.Unit) error { return nil },
			Dump: func(u *unit.Unit) string { return u.ID() + " (" + typ.String() + ")" },
		})
	}
}
