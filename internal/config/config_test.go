package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Feed.URL == "" {
		t.Error("feed url should have a default")
	}
	if cfg.Heatmap.Intensity <= 0 || cfg.Heatmap.Intensity > 1 {
		t.Errorf("default intensity out of range: %f", cfg.Heatmap.Intensity)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Heatmap.Mode = "occupancy"
	cfg.Widget.Theme = "minimal"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Heatmap.Mode != "occupancy" {
		t.Errorf("mode = %s, want occupancy", loaded.Heatmap.Mode)
	}
	if loaded.Widget.Theme != "minimal" {
		t.Errorf("theme = %s, want minimal", loaded.Widget.Theme)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("heatmap:\n  mode: power\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Heatmap.Mode != "power" {
		t.Errorf("mode = %s, want power", cfg.Heatmap.Mode)
	}
	if cfg.Feed.URL != DefaultFeedURL {
		t.Error("unset feed url should keep default")
	}
}

func TestValidateRejectsBadIntensity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Heatmap.Intensity = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for intensity > 1")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("ops")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Heatmap.Intensity != 0.8 {
		t.Errorf("expected intensity 0.8, got %f", cfg.Heatmap.Intensity)
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	if len(ListPresets()) == 0 {
		t.Error("expected presets")
	}
}
