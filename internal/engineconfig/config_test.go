package engineconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.StartLimitBurst != Default().StartLimitBurst {
		t.Errorf("expected default start limit burst, got %d", cfg.StartLimitBurst)
	}
}

func TestLoadOverlaysYAMLOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "startLimitBurst: 10\nmaxDrainPasses: 128\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StartLimitBurst != 10 {
		t.Errorf("expected overridden start limit burst 10, got %d", cfg.StartLimitBurst)
	}
	if cfg.MaxDrainPasses != 128 {
		t.Errorf("expected overridden max drain passes 128, got %d", cfg.MaxDrainPasses)
	}
	if cfg.AutoStopInterval != Default().AutoStopInterval {
		t.Errorf("expected unset field to keep default, got %v", cfg.AutoStopInterval)
	}
	if cfg.StartLimitInterval != 10*time.Second {
		t.Errorf("expected unset StartLimitInterval to keep default, got %v", cfg.StartLimitInterval)
	}
}
