package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abelbrown/cycleglobe/internal/fetch"
)

// Config is the application configuration. Loaded from
// ~/.cycleglobe/config.json, then overridden from CYCLEGLOBE_* variables.
type Config struct {
	// Sources in priority order
	Sources []fetch.SourceConfig `json:"sources"`

	// Custom source prepended to Sources, from the environment only
	SourceURL  string `json:"-" env:"CYCLEGLOBE_SOURCE_URL"`
	SourceKind string `json:"-" env:"CYCLEGLOBE_SOURCE_KIND"`

	// Offline skips every remote source and uses the local calculation
	Offline bool `json:"offline" env:"CYCLEGLOBE_OFFLINE"`

	Poll  PollConfig  `json:"poll"`
	Scene SceneConfig `json:"scene"`
	Serve ServeConfig `json:"serve"`

	LogLevel string `json:"log_level" env:"CYCLEGLOBE_LOG_LEVEL"`
}

// PollConfig controls the resolver cadence.
type PollConfig struct {
	IntervalMs      int `json:"interval_ms" env:"CYCLEGLOBE_POLL_INTERVAL_MS"`
	SourceTimeoutMs int `json:"source_timeout_ms" env:"CYCLEGLOBE_SOURCE_TIMEOUT_MS"`
	MinGapMs        int `json:"min_gap_ms" env:"CYCLEGLOBE_MIN_GAP_MS"` // per-source request spacing
	LedgerRows      int `json:"ledger_rows"`
}

// SceneConfig controls the globe.
type SceneConfig struct {
	DayMapURL    string `json:"day_map_url" env:"CYCLEGLOBE_DAY_MAP_URL"`
	LightsMapURL string `json:"lights_map_url" env:"CYCLEGLOBE_LIGHTS_MAP_URL"`
	FPS          int    `json:"fps" env:"CYCLEGLOBE_FPS"`
}

// ServeConfig controls headless mode.
type ServeConfig struct {
	Addr       string `json:"addr" env:"CYCLEGLOBE_ADDR"`
	MaxClients int    `json:"max_clients" env:"CYCLEGLOBE_MAX_CLIENTS"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Sources: fetch.DefaultSources(),
		Poll: PollConfig{
			IntervalMs:      1000,
			SourceTimeoutMs: 3000,
			MinGapMs:        1000,
			LedgerRows:      5000,
		},
		Scene: SceneConfig{
			DayMapURL:    "https://raw.githubusercontent.com/visualizedata/threear/examples/images/earthmap1k.jpg",
			LightsMapURL: "https://raw.githubusercontent.com/visualizedata/threear/examples/images/earthlights1k.jpg",
			FPS:          30,
		},
		Serve: ServeConfig{
			Addr:       ":8844",
			MaxClients: 64,
		},
		LogLevel: "info",
	}
}

// DataDir returns the data directory, honouring CYCLEGLOBE_HOME.
func DataDir() string {
	if dir := os.Getenv("CYCLEGLOBE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cycleglobe")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load reads the config file (defaults when absent) and applies the
// environment on top.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	cfg.fillZeroes()
	return cfg, nil
}

// fillZeroes restores defaults for values a partial file left empty.
func (c *Config) fillZeroes() {
	d := DefaultConfig()
	if c.Poll.IntervalMs <= 0 {
		c.Poll.IntervalMs = d.Poll.IntervalMs
	}
	if c.Poll.SourceTimeoutMs <= 0 {
		c.Poll.SourceTimeoutMs = d.Poll.SourceTimeoutMs
	}
	if c.Poll.MinGapMs < 0 {
		c.Poll.MinGapMs = 0
	}
	if c.Poll.LedgerRows <= 0 {
		c.Poll.LedgerRows = d.Poll.LedgerRows
	}
	if c.Scene.FPS <= 0 {
		c.Scene.FPS = d.Scene.FPS
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = d.Serve.Addr
	}
	if c.Serve.MaxClients <= 0 {
		c.Serve.MaxClients = d.Serve.MaxClients
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SourceConfigs returns the effective source list: empty when offline,
// otherwise the custom environment source (if any) followed by Sources.
func (c *Config) SourceConfigs() []fetch.SourceConfig {
	if c.Offline {
		return nil
	}
	var out []fetch.SourceConfig
	if c.SourceURL != "" {
		out = append(out, fetch.SourceConfig{Name: "Custom Source", URL: c.SourceURL, Kind: c.SourceKind})
	}
	return append(out, c.Sources...)
}

// PollInterval is the time between polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}

// SourceTimeout bounds a single source request.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Poll.SourceTimeoutMs) * time.Millisecond
}

// MinGap is the shortest spacing between two requests to one source.
func (c *Config) MinGap() time.Duration {
	return time.Duration(c.Poll.MinGapMs) * time.Millisecond
}

// FrameInterval is the render loop period.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Scene.FPS)
}
