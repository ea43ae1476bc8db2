package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/a11yscan/internal/archive"
	"github.com/raysh454/a11yscan/internal/axe"
	"github.com/raysh454/a11yscan/internal/browser"
	"github.com/raysh454/a11yscan/internal/history"
	"github.com/raysh454/a11yscan/internal/jobs"
	"github.com/raysh454/a11yscan/internal/ratelimit"
	"github.com/raysh454/a11yscan/internal/scanner"
	"github.com/raysh454/a11yscan/internal/server"
)

// Environment variables read by LoadConfig.
const (
	EnvConfigPath       = "CONFIG_PATH"
	EnvBrowserlessToken = "BROWSERLESS_TOKEN"
	EnvListenAddr       = "A11YSCAN_LISTEN_ADDR"
)

type LogConfig struct {
	// Level is one of debug|info|warn|error.
	Level string `yaml:"level"`
}

// Config aggregates the per-package configuration. Durations are written
// as strings in YAML ("15s").
type Config struct {
	Server    server.Config    `yaml:"server"`
	Browser   browser.Config   `yaml:"browser"`
	Axe       axe.Config       `yaml:"axe"`
	Scanner   scanner.Config   `yaml:"scanner"`
	RateLimit ratelimit.Config `yaml:"rate_limit"`
	Jobs      jobs.Config      `yaml:"jobs"`
	History   history.Config   `yaml:"history"`
	Archive   archive.Config   `yaml:"archive"`
	Log       LogConfig        `yaml:"log"`
}

// DefaultConfig returns a Config populated with production defaults.
// History is kept in a local SQLite file; archiving is off.
func DefaultConfig() *Config {
	return &Config{
		Server:    server.DefaultConfig(),
		Browser:   browser.DefaultConfig(),
		Axe:       axe.DefaultConfig(),
		Scanner:   scanner.DefaultConfig(),
		RateLimit: ratelimit.DefaultConfig(),
		Jobs:      jobs.DefaultConfig(),
		History:   history.DefaultConfig(),
		Archive:   archive.DefaultConfig(),
		Log:       LogConfig{Level: "info"},
	}
}

// ConfigPath picks the config file: the explicit flag value, then
// $CONFIG_PATH. Empty means defaults only.
func ConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(EnvConfigPath))
}

// LoadConfig overlays the YAML file at path (if any) on DefaultConfig and
// then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvBrowserlessToken)); v != "" {
		c.Browser.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvListenAddr)); v != "" {
		c.Server.ListenAddr = v
	}
}
