package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SNAP_THRESHOLD", "0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.SnapThreshold != 0.1 {
		t.Errorf("SnapThreshold = %v", cfg.SnapThreshold)
	}
	if cfg.PickThreshold != 0.002 || cfg.RotateSensitivity != 0.005 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestOriginsAndLevel(t *testing.T) {
	cfg := &Config{AllowedOrigins: " a.example , ,b.example", LogLevel: "debug"}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "a.example" || got[1] != "b.example" {
		t.Errorf("Origins() = %v", got)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v", cfg.Level())
	}
	cfg.LogLevel = "loud"
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level() fallback = %v", cfg.Level())
	}
}
