package unit

import "fmt"

// Kind is the error taxonomy from the Unit Engine's design: syntactic and
// applicability errors are surfaced to the caller unchanged, while runtime
// failures during start/stop drive the state machine instead of returning
// through this path. Modeled on giantswarm-muster's
// internal/config.ConfigurationError category field, but as a comparable
// sentinel kind rather than a free-form string so callers can test it with
// HasKind (or errors.As to *Error and compare the Kind field).
type Kind string

const (
	KindInvalidName          Kind = "invalid-name"
	KindNameConflict         Kind = "name-conflict"
	KindNotFound             Kind = "not-found"
	KindMasked               Kind = "masked"
	KindBadSetting           Kind = "bad-setting"
	KindLoadError            Kind = "load-error"
	KindJobConflicts         Kind = "job-conflicts"
	KindJobNotApplicable     Kind = "job-not-applicable"
	KindManualStartRefused   Kind = "manual-start-refused"
	KindIsolateRefused       Kind = "isolate-refused"
	KindRateLimited          Kind = "rate-limited"
	KindTransientNotAllowed  Kind = "transient-not-allowed"
	KindIO                   Kind = "io"
	KindOOM                  Kind = "oom"
	KindTimeout              Kind = "timeout"
	KindCancelled            Kind = "cancelled"
)

// Error is the concrete error type returned across the Unit Engine's public
// operations. It always carries the unit id it relates to so log lines and
// caller-facing messages stay attributable, per spec §7.
type Error struct {
	UnitID string
	Kind   Kind
	Msg    string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.UnitID, e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.UnitID, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs a Kind-tagged error attributed to unitID.
func NewError(unitID string, kind Kind, msg string, cause error) *Error {
	return &Error{UnitID: unitID, Kind: kind, Msg: msg, Cause: cause}
}

// HasKind reports whether err is a *Error of the given Kind, unwrapping as
// needed.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if ue, ok := err.(*Error); ok {
			if ue.Kind == kind {
				return true
			}
			err = ue.Cause
			continue
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
