package bus

import "testing"

func TestLogNotifierSatisfiesInterfaceAndDoesNotPanic(t *testing.T) {
	var n Notifier = LogNotifier{}
	n.UnitNew("a.service", "11111111-1111-1111-1111-111111111111")
	n.PropertiesChanged("a.service", []string{"ActiveState", "SubState"})
	n.UnitRemoved("a.service")
	if err := n.Close(); err != nil {
		t.Errorf("expected LogNotifier.Close to be a no-op, got %v", err)
	}
}
