package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	LibrarySources []string `koanf:"library_sources"` // paths to scan for music
	DatabasePath   string   `koanf:"database_path"`   // empty means XDG data dir
	Icons          string   `koanf:"icons"`           // "nerd", "unicode" or "none"

	Playback PlaybackConfig `koanf:"playback"`
	Log      LogConfig      `koanf:"log"`
}

// PlaybackConfig holds session tuning knobs.
type PlaybackConfig struct {
	Speed          float64 `koanf:"speed"`            // initial playback speed (default: 1.0)
	TickIntervalMs int     `koanf:"tick_interval_ms"` // position sampling period (default: 200)
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error"
	Format string `koanf:"format"` // "text" or "json"
	File   string `koanf:"file"`   // log file path; empty logs to stderr
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(src)
	}
	cfg.DatabasePath = expandPath(cfg.DatabasePath)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

// TickInterval returns the position sampling period with the default
// applied.
func (c *Config) TickInterval() time.Duration {
	if c.Playback.TickIntervalMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.Playback.TickIntervalMs) * time.Millisecond
}

// Speed returns the initial playback speed with the default applied.
func (c *Config) Speed() float64 {
	if c.Playback.Speed <= 0 {
		return 1.0
	}
	return c.Playback.Speed
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/localwave/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "localwave", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
