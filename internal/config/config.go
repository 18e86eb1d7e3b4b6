// Package config loads ripple settings from the environment and an
// optional TOML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/roach88/ripple/internal/model"
)

// Config holds manager and CLI settings.
type Config struct {
	Mode        string `env:"RIPPLE_MODE" envDefault:"development"`
	Strict      bool   `env:"RIPPLE_STRICT" envDefault:"false"`
	MaxDepth    int    `env:"RIPPLE_MAX_DEPTH" envDefault:"100"`
	LogLevel    string `env:"RIPPLE_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"RIPPLE_LOG_FORMAT" envDefault:"text"`
	JournalPath string `env:"RIPPLE_JOURNAL"`
}

// fileConfig is the ripple.toml key mapping.
type fileConfig struct {
	Mode        string `toml:"mode"`
	Strict      bool   `toml:"strict"`
	MaxDepth    int    `toml:"max_depth"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	JournalPath string `toml:"journal"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads RIPPLE_* variables, then overlays the keys set in the TOML
// file at path (skipped when path is empty), then validates.
func Load(path string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("mode") {
		c.Mode = strings.TrimSpace(raw.Mode)
	}
	if meta.IsDefined("strict") {
		c.Strict = raw.Strict
	}
	if meta.IsDefined("max_depth") {
		c.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		c.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("journal") {
		c.JournalPath = strings.TrimSpace(raw.JournalPath)
	}
	return nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	if _, err := model.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("config: max depth must be positive, got %d", c.MaxDepth)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q (want text or json)", c.LogFormat)
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds a text or JSON slog logger writing to w.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// ManagerOptions maps the settings onto model manager options.
func (c Config) ManagerOptions(logger *slog.Logger) ([]model.Option, error) {
	mode, err := model.ParseMode(c.Mode)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return []model.Option{
		model.WithLogger(logger),
		model.WithMode(mode),
		model.WithStrict(c.Strict),
		model.WithMaxDepth(c.MaxDepth),
	}, nil
}
