package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Pacing modes for the tick loop
const (
	PacingFixedDelay = "fixed_delay" // sleep dt after each tick
	PacingFixedRate  = "fixed_rate"  // tick every dt regardless of work time
)

// Config holds all server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sim       SimConfig       `yaml:"sim"`
	Agents    AgentsConfig    `yaml:"agents"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds the network surfaces.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	AgentListen   string `yaml:"agent_listen"`
	PublicURL     string `yaml:"public_url"`
	MaxConnsPerIP int    `yaml:"max_conns_per_ip"`
	MaxTotalConns int    `yaml:"max_total_conns"`
}

// SimConfig holds tick engine parameters.
type SimConfig struct {
	DT             float64 `yaml:"dt"`
	Pacing         string  `yaml:"pacing"`
	SpawnRadius    float64 `yaml:"spawn_radius"`
	ArenaExtent    float64 `yaml:"arena_extent"`
	MaxPlayers     int     `yaml:"max_players"`
	MaxProjectiles int     `yaml:"max_projectiles"`
	ProjectileTTL  float64 `yaml:"projectile_ttl"`
	SelfDamage     bool    `yaml:"self_damage"`
}

// TickDuration returns dt as wall-clock time.
func (s SimConfig) TickDuration() time.Duration {
	return time.Duration(s.DT * float64(time.Second))
}

// AgentsConfig describes how agent processes are started. The agent
// identifier is appended to Args.
type AgentsConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// AuthConfig guards the control plane.
type AuthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	PasswordHash  string `yaml:"password_hash"`
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// LogConfig selects level and destination.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TelemetryConfig controls the per-tick CSV output.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Every   int    `yaml:"every"`
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic("invalid embedded defaults: " + err.Error())
	}
	return cfg
}

// LoadConfig reads the embedded defaults and overlays the file at path, if any.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Sim.DT <= 0 {
		errs = append(errs, fmt.Errorf("sim.dt must be positive, got %v", c.Sim.DT))
	}
	if c.Sim.Pacing != PacingFixedDelay && c.Sim.Pacing != PacingFixedRate {
		errs = append(errs, fmt.Errorf("sim.pacing must be %q or %q, got %q", PacingFixedDelay, PacingFixedRate, c.Sim.Pacing))
	}
	if c.Sim.ArenaExtent <= 0 {
		errs = append(errs, fmt.Errorf("sim.arena_extent must be positive"))
	}
	if c.Sim.MaxPlayers <= 0 {
		errs = append(errs, fmt.Errorf("sim.max_players must be positive"))
	}
	if c.Auth.Enabled && (c.Auth.PasswordHash == "" || c.Auth.JWTSecret == "") {
		errs = append(errs, fmt.Errorf("auth.enabled requires password_hash and jwt_secret"))
	}
	if c.Telemetry.Enabled && c.Telemetry.Every <= 0 {
		errs = append(errs, fmt.Errorf("telemetry.every must be positive"))
	}
	return errors.Join(errs...)
}
