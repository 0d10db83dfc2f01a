// Package serialize implements the reload/reexec text stream of spec.md
// §4.7/§6: one key=value pair per line, a blank line between unit records,
// with file descriptors referenced by index into a sidecar FDSet rather
// than inlined. FDSet hands descriptors to a reexeced process the same way
// systemd's own socket-activation protocol does, on both ends:
// FDSet.Env/ExportEnv set LISTEN_FDS/LISTEN_FDNAMES the way systemd sets
// them for an activated unit, and FromActivation reads them back on the
// other side of the reexec via
// github.com/coreos/go-systemd/v22/activation.Files.
package serialize

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/activation"
)

// FDSet collects file descriptors handed off across a reexec, indexed in
// the order they were added.
type FDSet struct {
	files []*os.File
}

// NewFDSet returns an empty set.
func NewFDSet() *FDSet {
	return &FDSet{}
}

// Add appends f and returns its index, the value the serializer writes for
// any key whose payload is this descriptor.
func (s *FDSet) Add(f *os.File) int {
	s.files = append(s.files, f)
	return len(s.files) - 1
}

// At looks up a previously added descriptor by index.
func (s *FDSet) At(i int) (*os.File, bool) {
	if i < 0 || i >= len(s.files) {
		return nil, false
	}
	return s.files[i], true
}

// Len reports how many descriptors are in the set.
func (s *FDSet) Len() int { return len(s.files) }

// Env returns the LISTEN_FDS/LISTEN_FDNAMES-style environment pair a
// reexecing process would export so the child's activation.Files call
// picks up exactly this set, starting at fd 3 per systemd's own
// socket-activation convention (fds 0-2 are stdio).
func (s *FDSet) Env(names []string) (listenFDs, listenFDNames string) {
	return strconv.Itoa(len(s.files)), strings.Join(names, ":")
}

// ExportEnv sets LISTEN_FDS/LISTEN_FDNAMES/LISTEN_PID on the current
// process so a reexeced child calling FromActivation (or systemd's own
// activation.Files) picks up exactly this set. Descriptors must already be
// positioned at fd 3 and up, per systemd's own socket-activation
// convention, before the reexec syscall runs.
func (s *FDSet) ExportEnv(names []string) error {
	listenFDs, listenFDNames := s.Env(names)
	if err := os.Setenv("LISTEN_FDS", listenFDs); err != nil {
		return err
	}
	if err := os.Setenv("LISTEN_FDNAMES", listenFDNames); err != nil {
		return err
	}
	return os.Setenv("LISTEN_PID", strconv.Itoa(os.Getpid()))
}

// FromActivation builds an FDSet from the descriptors systemd's own
// socket-activation protocol (or a reexecing parent following the same
// LISTEN_FDS/LISTEN_FDNAMES/LISTEN_PID convention via ExportEnv) handed to
// this process, using activation.Files to parse and validate the env vars
// and dup the descriptors starting at fd 3. unsetEnv mirrors activation's
// own parameter: true clears the env vars after reading so a further child
// process doesn't re-inherit a stale set.
func FromActivation(unsetEnv bool) *FDSet {
	return &FDSet{files: activation.Files(unsetEnv)}
}

// fdValue formats the serialized value for a key whose payload is
// descriptor index i.
func fdValue(i int) string {
	return fmt.Sprintf("fd:%d", i)
}

// parseFDValue extracts the descriptor index from a value written by
// fdValue, or reports ok=false if v isn't an fd reference.
func parseFDValue(v string) (int, bool) {
	rest, ok := strings.CutPrefix(v, "fd:")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return i, true
}
