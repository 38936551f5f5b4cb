package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadModelConfigOverlay(t *testing.T) {
	path := writeTempConfig(t, `{"version":"v2","skip_threshold":0.75}`)

	cfg, err := LoadModelConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != "v2" {
		t.Fatalf("expected version v2 got %s", cfg.Version)
	}
	if cfg.SkipThreshold != 0.75 {
		t.Fatalf("expected skip threshold 0.75 got %.2f", cfg.SkipThreshold)
	}
	// Fields absent from the file keep their defaults.
	if cfg.HoldThreshold != 0.4 {
		t.Fatalf("expected default hold threshold got %.2f", cfg.HoldThreshold)
	}
	if len(cfg.Fallback.ImpulseCategories) == 0 {
		t.Fatal("expected default impulse categories to survive the overlay")
	}
}

func TestLoadModelConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"malformed json", `{"version":`},
		{"thresholds inverted", `{"hold_threshold":0.8}`},
		{"anchors not monotonic", `{"calibration_anchors":[0,0,0,0,0.2,0.15,0.35,0.45,0.6,0.8,1.0]}`},
		{"anchors wrong length", `{"calibration_anchors":[0,1]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempConfig(t, tc.contents)
			if _, err := LoadModelConfig(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadModelConfigMissingFile(t *testing.T) {
	if _, err := LoadModelConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultModelConfigValid(t *testing.T) {
	if err := DefaultModelConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
