package serialize

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"unitengine/internal/unit"
	"unitengine/internal/vtable"
)

// Writer emits the ASCII key=value stream of spec.md §6, one unit record
// per call to WriteUnit, records separated by a blank line.
type Writer struct {
	w   io.Writer
	fds *FDSet
}

// NewWriter returns a Writer that serializes file-descriptor-valued fields
// through fds. fds may be nil if the caller knows no unit it writes carries
// one (e.g. no socket units).
func NewWriter(w io.Writer, fds *FDSet) *Writer {
	return &Writer{w: w, fds: fds}
}

func (w *Writer) field(key, value string) error {
	_, err := fmt.Fprintf(w.w, "%s=%s\n", key, value)
	return err
}

// WriteUnit serializes u's core fields plus, if tables carries a Serialize
// callback for u's type, the per-type items it returns, spec.md §4.7
// ("per-type items via serialize callback").
func (w *Writer) WriteUnit(u *unit.Unit, tables *vtable.Registry) error {
	if err := w.field("id", u.ID()); err != nil {
		return err
	}
	if err := w.field("invocation-id", u.InvocationID); err != nil {
		return err
	}
	if err := w.field("load-state", u.LoadState.String()); err != nil {
		return err
	}
	if err := w.field("active-state", u.Active.String()); err != nil {
		return err
	}
	if err := w.field("sub-state", u.SubState); err != nil {
		return err
	}
	if err := w.field("state-change-realtime", strconv.FormatInt(u.Timestamps.StateChange.Realtime.UnixNano(), 10)); err != nil {
		return err
	}
	if err := w.field("active-enter-realtime", strconv.FormatInt(u.Timestamps.ActiveEnter.Realtime.UnixNano(), 10)); err != nil {
		return err
	}
	if err := w.field("condition-result", strconv.FormatBool(u.ConditionResult)); err != nil {
		return err
	}
	if err := w.field("assert-result", strconv.FormatBool(u.AssertResult)); err != nil {
		return err
	}
	if err := w.field("start-limit-tokens", strconv.FormatFloat(u.StartLimit.Tokens(), 'f', -1, 64)); err != nil {
		return err
	}
	if u.CGroup.Path != "" {
		if err := w.field("cgroup-path", u.CGroup.Path); err != nil {
			return err
		}
	}

	if tables != nil {
		t := tables.Lookup(u.Type)
		if t != nil && t.Serialize != nil {
			items, err := t.Serialize(u)
			if err != nil {
				return fmt.Errorf("serialize: unit %s: per-type serialize: %w", u.ID(), err)
			}
			for k, v := range items {
				if err := w.field("x-"+k, v); err != nil {
					return err
				}
			}
		}
		if t != nil && t.GetFDs != nil && w.fds != nil {
			var indices []string
			for _, f := range t.GetFDs(u) {
				indices = append(indices, fdValue(w.fds.Add(f)))
			}
			if len(indices) > 0 {
				if err := w.field("fd", strings.Join(indices, ",")); err != nil {
					return err
				}
			}
		}
	}

	_, err := fmt.Fprintln(w.w)
	return err
}

// Reader parses the stream WriteUnit produces, one record per ReadUnit
// call.
type Reader struct {
	scanner *bufio.Scanner
	fds     *FDSet
}

// NewReader wraps r. fds must be the same FDSet the writer used, so fd:N
// values resolve to the descriptor the writing process handed off.
func NewReader(r io.Reader, fds *FDSet) *Reader {
	return &Reader{scanner: bufio.NewScanner(r), fds: fds}
}

// ReadUnit reads key=value lines up to the next blank line (or EOF) and
// returns them as a map. ok is false once the stream is exhausted.
func (r *Reader) ReadUnit() (fields map[string]string, ok bool, err error) {
	fields = make(map[string]string)
	sawLine := false
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if sawLine {
				return fields, true, nil
			}
			continue
		}
		sawLine = true
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		fields[key] = value
	}
	if err := r.scanner.Err(); err != nil {
		return nil, false, err
	}
	if !sawLine {
		return nil, false, nil
	}
	return fields, true, nil
}

// ApplyFields applies the core fields it understands to u; anything else is
// either an x-prefixed per-type item routed to DeserializeItem, or an
// unrecognized key skipped outright -- spec.md §6's deserialize_skip
// forward-compatibility rule.
func ApplyFields(u *unit.Unit, fields map[string]string, tables *vtable.Registry) error {
	for key, value := range fields {
		switch key {
		case "fd":
			if tables == nil {
				continue
			}
			t := tables.Lookup(u.Type)
			if t == nil || t.DistributeFDs == nil {
				continue
			}
			var indices []int
			for _, part := range strings.Split(value, ",") {
				if i, ok := parseFDValue(part); ok {
					indices = append(indices, i)
				}
			}
			if err := t.DistributeFDs(u, indices); err != nil {
				return fmt.Errorf("deserialize: unit %s: distribute fds: %w", u.ID(), err)
			}
		case "invocation-id":
			u.InvocationID = value
		case "condition-result":
			u.ConditionResult = value == "true"
		case "assert-result":
			u.AssertResult = value == "true"
		case "cgroup-path":
			u.CGroup.Path = value
		case "sub-state":
			u.SubState = value
		case "start-limit-tokens":
			if u.StartLimit != nil {
				if tokens, err := strconv.ParseFloat(value, 64); err == nil {
					u.StartLimit.RestoreAt(time.Now(), tokens)
				}
			}
		case "id", "load-state", "active-state", "state-change-realtime",
			"active-enter-realtime":
			// Informational on reload; ApplyFields leaves the live Unit's
			// own id, load state, active state and timestamps unchanged.
		default:
			rest, isTyped := strings.CutPrefix(key, "x-")
			if !isTyped {
				continue // deserialize_skip: unknown key, forward compatibility
			}
			if tables == nil {
				continue
			}
			t := tables.Lookup(u.Type)
			if t == nil || t.DeserializeItem == nil {
				continue
			}
			if err := t.DeserializeItem(u, rest, value); err != nil {
				return fmt.Errorf("deserialize: unit %s: item %s: %w", u.ID(), rest, err)
			}
		}
	}
	return nil
}
