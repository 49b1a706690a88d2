// Package config loads the tool configuration (showrunner.toml): which image
// provider generates assets and how providers are parameterized.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigError reports a missing or invalid showrunner.toml.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// StoryboardProviderConfig parameterizes the storyboard provider: a PDF whose
// pages are rendered into asset plates.
type StoryboardProviderConfig struct {
	PDFPath string `toml:"pdf_path"`
	DPI     int    `toml:"dpi"`
}

// PlaceholderProviderConfig has no knobs today; its presence enables the provider.
type PlaceholderProviderConfig struct{}

// Providers holds per-provider configuration sections.
type Providers struct {
	Placeholder *PlaceholderProviderConfig `toml:"placeholder"`
	Storyboard  *StoryboardProviderConfig  `toml:"storyboard"`
}

// Config is the parsed showrunner.toml.
type Config struct {
	DefaultProvider string    `toml:"default_provider"`
	Providers       Providers `toml:"providers"`
}

// Default returns the configuration used when no showrunner.toml exists:
// placeholder provider only.
func Default() *Config {
	return &Config{
		DefaultProvider: "placeholder",
		Providers:       Providers{Placeholder: &PlaceholderProviderConfig{}},
	}
}

// Load parses and validates a showrunner.toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: fmt.Sprintf("config file not found: %v", err)}
	}

	cfg := &Config{DefaultProvider: "placeholder"}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Path: path, Message: fmt.Sprintf("failed to parse TOML: %v", err)}
	}

	if cfg.DefaultProvider == "" {
		return nil, &ConfigError{Path: path, Message: "default_provider cannot be empty"}
	}
	if !cfg.HasProvider(cfg.DefaultProvider) {
		return nil, &ConfigError{
			Path:    path,
			Message: fmt.Sprintf("default_provider %q is not configured. Available providers: %v", cfg.DefaultProvider, cfg.AvailableProviders()),
		}
	}
	return cfg, nil
}

// Find walks up from startDir looking for showrunner.toml.
// Returns "" when none exists.
func Find(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}
	for {
		candidate := filepath.Join(dir, "showrunner.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// FindAndLoad locates showrunner.toml upward from startDir, falling back to
// the default placeholder-only configuration.
func FindAndLoad(startDir string) (*Config, error) {
	path := Find(startDir)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// HasProvider reports whether name is configured. The placeholder provider is
// always available: it has no required settings.
func (c *Config) HasProvider(name string) bool {
	switch name {
	case "placeholder":
		return true
	case "storyboard":
		return c.Providers.Storyboard != nil
	}
	return false
}

// AvailableProviders lists configured provider names.
func (c *Config) AvailableProviders() []string {
	out := []string{"placeholder"}
	if c.Providers.Storyboard != nil {
		out = append(out, "storyboard")
	}
	return out
}
