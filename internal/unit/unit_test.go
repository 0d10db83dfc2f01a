package unit

import (
	"testing"
	"time"
)

func TestQueueMaskSetClearHas(t *testing.T) {
	var m QueueMask
	const bit QueueMask = 1 << 3
	if m.Has(bit) {
		t.Fatal("expected bit unset initially")
	}
	m.Set(bit)
	if !m.Has(bit) {
		t.Error("expected bit set after Set")
	}
	m.Clear(bit)
	if m.Has(bit) {
		t.Error("expected bit cleared after Clear")
	}
}

func TestRateLimiterAllowsUpToBurstThenDenies(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 2)
	if !rl.Allow() {
		t.Error("expected first token allowed")
	}
	if !rl.Allow() {
		t.Error("expected second token allowed (burst=2)")
	}
	if rl.Allow() {
		t.Error("expected third token denied, bucket exhausted")
	}
}

func TestRateLimiterDisabledWhenBurstZero(t *testing.T) {
	rl := NewRateLimiter(time.Second, 0)
	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Fatal("expected a disabled (burst=0) limiter to always allow")
		}
	}
}

func TestNewUnitDefaults(t *testing.T) {
	u := New("a.service", TypeService)
	if u.ID() != "a.service" {
		t.Errorf("expected id a.service, got %s", u.ID())
	}
	if !u.HasName("a.service") {
		t.Error("expected the constructor name to be registered as a name")
	}
	if u.LoadState != LoadStub {
		t.Errorf("expected fresh unit to be LoadStub, got %v", u.LoadState)
	}
	if u.Active != Inactive {
		t.Errorf("expected fresh unit to be Inactive, got %v", u.Active)
	}
	if !u.DefaultDependencies {
		t.Error("expected DefaultDependencies to default true")
	}
}

func TestTypePayloadRoundTrip(t *testing.T) {
	u := New("a.service", TypeService)
	if u.TypePayload() != nil {
		t.Error("expected nil payload on a fresh unit")
	}
	u.SetTypePayload(42)
	if got := u.TypePayload(); got != 42 {
		t.Errorf("expected payload 42, got %v", got)
	}
}

func TestGCMarkerRoundTrip(t *testing.T) {
	u := New("a.service", TypeService)
	if u.GCMarker() != 0 {
		t.Error("expected zero marker initially")
	}
	u.SetGCMarker(7)
	if u.GCMarker() != 7 {
		t.Errorf("expected marker 7, got %d", u.GCMarker())
	}
}
