package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arena.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Sim.SpawnRadius != 1024 || cfg.Sim.Pacing != PacingFixedDelay {
		t.Errorf("unexpected sim defaults: %+v", cfg.Sim)
	}
	if !cfg.Sim.SelfDamage {
		t.Error("self damage should default on")
	}
	if cfg.Agents.Command != "docker" || len(cfg.Agents.Args) != 3 {
		t.Errorf("agents = %+v", cfg.Agents)
	}
	if cfg.Sim.TickDuration() != 20*time.Millisecond {
		t.Errorf("tick = %v, want 20ms", cfg.Sim.TickDuration())
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := writeConfig(t, "sim:\n  dt: 0.05\n  pacing: fixed_rate\nlog:\n  level: debug\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sim.DT != 0.05 || cfg.Sim.Pacing != PacingFixedRate {
		t.Errorf("overrides not applied: %+v", cfg.Sim)
	}
	if cfg.Sim.MaxPlayers != 64 || cfg.Server.Addr != ":8080" {
		t.Error("unset fields should keep their defaults")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	cases := map[string]string{
		"zero dt":        "sim:\n  dt: 0\n",
		"bad pacing":     "sim:\n  pacing: asap\n",
		"auth no secret": "auth:\n  enabled: true\n",
		"not yaml":       "sim: [",
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}
