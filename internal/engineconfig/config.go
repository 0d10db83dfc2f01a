// Package engineconfig loads the Manager-level bootstrap settings: default
// start_limit, queue drain budgets, and the serialize-stream path used
// across reload/reexec. This is not unit-fragment parsing -- the engine
// consumes already-parsed fragments, spec.md §1 -- it only configures the
// engine itself.
//
// Grounded on giantswarm-muster/internal/config's
// GetDefaultConfigWithRoles/LoadConfig pair (defaults.go, loader.go): start
// from a defaulted struct, then overlay whatever a YAML file on disk
// provides, via gopkg.in/yaml.v3 (a direct teacher dependency).
package engineconfig

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"unitengine/pkg/logging"
)

// Config is the Manager's own bootstrap configuration.
type Config struct {
	// StartLimitInterval/StartLimitBurst size the default token bucket
	// new units are given for start_limit, spec.md §3/§4.4.9, unless a
	// unit overrides it explicitly.
	StartLimitInterval time.Duration `yaml:"startLimitInterval"`
	StartLimitBurst    int           `yaml:"startLimitBurst"`

	// AutoStopInterval/AutoStopBurst size auto_stop_ratelimit the same
	// way, spec.md §4.5 step 8.
	AutoStopInterval time.Duration `yaml:"autoStopInterval"`
	AutoStopBurst    int           `yaml:"autoStopBurst"`

	// MaxDrainPasses bounds how many times Drain's level-triggered loop
	// may repeat before the Manager logs a warning and proceeds anyway,
	// guarding against a queue handler that never reaches quiescence.
	MaxDrainPasses int `yaml:"maxDrainPasses"`

	// SerializeStreamPath is where the Manager writes/reads the
	// reload/reexec text stream, spec.md §4.7.
	SerializeStreamPath string `yaml:"serializeStreamPath"`
}

// Default returns the engine's built-in defaults, mirroring systemd's own
// out-of-the-box start_limit of 5 starts per 10 seconds.
func Default() Config {
	return Config{
		StartLimitInterval:  10 * time.Second,
		StartLimitBurst:     5,
		AutoStopInterval:    10 * time.Second,
		AutoStopBurst:       1,
		MaxDrainPasses:      64,
		SerializeStreamPath: "/run/unitengine/state",
	}
}

// Load overlays a YAML file at path on top of Default. A missing file is
// not an error -- the engine runs fine on defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("EngineConfig", "no config file at %s, using defaults", path)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("engineconfig: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("engineconfig: parse %s: %w", path, err)
	}
	logging.Info("EngineConfig", "loaded configuration from %s", path)
	return cfg, nil
}
