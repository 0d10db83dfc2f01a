package bus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"unitengine/pkg/logging"
)

const (
	objectPathPrefix = "/unitengine/unit/"
	ifaceUnit        = "org.freedesktop.unitengine1.Unit"
	ifaceManager     = "org.freedesktop.unitengine1.Manager"
)

// SystemdNotifier emits real D-Bus signals shaped after systemd's own
// org.freedesktop.systemd1 interface, over a private bus connection. It
// never accepts inbound method calls -- registering an object tree and
// servicing SetProperty calls is sd-bus transport territory, explicitly out
// of scope per spec.md §1; this type only emits.
type SystemdNotifier struct {
	conn *dbus.Conn
}

// NewSystemdNotifier dials the session bus (the non-privileged default;
// callers embedding this as a real systemd replacement would use
// dbus.SystemBus() instead) and returns a Notifier backed by it.
func NewSystemdNotifier() (*SystemdNotifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("bus: connect: %w", err)
	}
	return &SystemdNotifier{conn: conn}, nil
}

func unitPath(id string) dbus.ObjectPath {
	return dbus.ObjectPath(objectPathPrefix + dbus.PathEscape(id))
}

func (n *SystemdNotifier) UnitNew(id, invocationID string) {
	if err := n.conn.Emit(dbus.ObjectPath("/unitengine/manager"), ifaceManager+".UnitNew", id, unitPath(id)); err != nil {
		logging.Warn("Bus", "failed to emit UnitNew for %s: %v", id, err)
	}
}

func (n *SystemdNotifier) UnitRemoved(id string) {
	if err := n.conn.Emit(dbus.ObjectPath("/unitengine/manager"), ifaceManager+".UnitRemoved", id, unitPath(id)); err != nil {
		logging.Warn("Bus", "failed to emit UnitRemoved for %s: %v", id, err)
	}
}

func (n *SystemdNotifier) PropertiesChanged(id string, properties []string) {
	invalidated := make([]string, len(properties))
	copy(invalidated, properties)
	if err := n.conn.Emit(unitPath(id), "org.freedesktop.DBus.Properties.PropertiesChanged",
		ifaceUnit, map[string]dbus.Variant{}, invalidated); err != nil {
		logging.Warn("Bus", "failed to emit PropertiesChanged for %s: %v", id, err)
	}
}

func (n *SystemdNotifier) Close() error {
	return n.conn.Close()
}

var _ Notifier = (*SystemdNotifier)(nil)
