// Package bus implements the Unit Engine's D-Bus-facing boundary (spec.md
// §6 "To the bus layer"): emitting PropertiesChanged/UnitNew/UnitRemoved.
// Routing SetProperty into the vtable's BusSetProperty/BusCommitProperties
// pair is done by manager.Manager.SetProperty, not here. The concrete
// sd-bus transport is an external
// collaborator (spec.md §1 excludes it); this package only defines the
// Notifier boundary and two implementations: a logging default, and one
// that emits real signals over github.com/godbus/dbus/v5 -- the wire
// library coreos/go-systemd/v22 itself is built on, already an indirect
// teacher dependency now exercised directly.
package bus

import "unitengine/pkg/logging"

// Notifier is the bus-facing boundary every Unit Engine component talks
// to. A Manager is constructed with exactly one Notifier; tests and
// embedders that don't need a real bus use LogNotifier.
type Notifier interface {
	UnitNew(id string, invocationID string)
	UnitRemoved(id string)
	PropertiesChanged(id string, properties []string)
	Close() error
}

// LogNotifier logs bus traffic instead of emitting it, for tests and
// embedding without a system bus connection.
type LogNotifier struct{}

func (LogNotifier) UnitNew(id, invocationID string) {
	logging.Info("Bus", "UnitNew id=%s invocation_id=%s", id, invocationID)
}

func (LogNotifier) UnitRemoved(id string) {
	logging.Info("Bus", "UnitRemoved id=%s", id)
}

func (LogNotifier) PropertiesChanged(id string, properties []string) {
	logging.Debug("Bus", "PropertiesChanged id=%s properties=%v", id, properties)
}

func (LogNotifier) Close() error { return nil }

var _ Notifier = LogNotifier{}
