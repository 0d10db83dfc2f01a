// Package logging provides the Unit Engine's structured logging, adapted
// from giantswarm-muster's pkg/logging: the same subsystem-tagged
// Debug/Info/Warn/Error API over a slog.TextHandler, with the TUI channel
// mode and the controller-runtime/logr bridge dropped -- this module has no
// TUI and no Kubernetes controller-runtime to bridge into.
//
// Every call site is expected to pass the owning unit's id and, where one
// is minted, its invocation id, so every log line stays attributable per
// spec.md §7 ("Logging is keyed on id and invocation_id_string so every log
// line is attributable").
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("Manager", "starting unit engine")
//	logging.ForUnit("nginx.service", invocationID).Info("Notifier", "entering active")
package logging
