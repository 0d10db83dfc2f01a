package unit

import (
	"errors"
	"testing"
)

func TestErrorFormatsWithAndWithoutCause(t *testing.T) {
	plain := NewError("a.service", KindNotFound, "no such unit", nil)
	if plain.Error() != "a.service: not-found: no such unit" {
		t.Errorf("unexpected message: %s", plain.Error())
	}

	wrapped := NewError("a.service", KindIO, "load failed", errors.New("disk error"))
	if wrapped.Unwrap().Error() != "disk error" {
		t.Errorf("expected Unwrap to return the cause, got %v", wrapped.Unwrap())
	}
}

func TestHasKindFindsKindThroughWrapChain(t *testing.T) {
	inner := NewError("b.service", KindMasked, "unit is masked", nil)
	outer := NewError("a.service", KindJobConflicts, "cannot start dependency", inner)

	if !HasKind(outer, KindJobConflicts) {
		t.Error("expected HasKind to find the outer kind")
	}
	if !HasKind(outer, KindMasked) {
		t.Error("expected HasKind to walk into the wrapped cause")
	}
	if HasKind(outer, KindNotFound) {
		t.Error("expected HasKind to report false for an absent kind")
	}
	if HasKind(nil, KindNotFound) {
		t.Error("expected HasKind(nil, ...) to be false")
	}
}
