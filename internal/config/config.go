// Package config loads .timecfg project configuration. The file is found by
// walking up from the working directory, so any subdirectory of a configured
// project resolves to the same settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project configuration file.
const FileName = ".timecfg"

// Config is the parsed .timecfg with defaults applied.
type Config struct {
	Project  Project           `yaml:"project"`
	Server   Server            `yaml:"server"`
	Tracking Tracking          `yaml:"tracking"`
	Aliases  map[string]string `yaml:"aliases"`
	User     string            `yaml:"user"`
}

// Project identifies the tracked project.
type Project struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Language  string `yaml:"language"`
	Framework string `yaml:"framework"`
}

// Server points CLI commands at a ttrack server.
type Server struct {
	URL        string `yaml:"url"`
	APIVersion string `yaml:"api_version"`
}

// Tracking holds category configuration.
type Tracking struct {
	Categories      []string `yaml:"categories"`
	DefaultCategory string   `yaml:"default_category"`
}

// Default returns the configuration used when no .timecfg exists; the
// project name falls back to the directory name.
func Default(dir string) *Config {
	cfg := &Config{}
	cfg.Project.Name = filepath.Base(dir)
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Project.Type == "" {
		c.Project.Type = "development"
	}
	if c.Server.URL == "" {
		c.Server.URL = "http://localhost:9000"
	}
	if c.Server.APIVersion == "" {
		c.Server.APIVersion = "v1"
	}
	if len(c.Tracking.Categories) == 0 {
		c.Tracking.Categories = []string{
			"development", "research", "documentation", "meetings", "testing",
		}
	}
	if c.Tracking.DefaultCategory == "" {
		c.Tracking.DefaultCategory = "development"
	}
	if c.User == "" {
		c.User = "local"
	}
	if c.Aliases == nil {
		c.Aliases = map[string]string{}
	}
}

// Discover walks up from dir looking for a .timecfg file. It returns the
// file path, or "" when no configuration exists anywhere above dir.
func Discover(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(current, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

// Load parses the .timecfg at path and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(filepath.Dir(path))
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// FromDir discovers and loads the config governing dir, falling back to
// defaults when none exists.
func FromDir(dir string) (*Config, error) {
	path, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(dir), nil
	}
	return Load(path)
}

// ResolveCategory maps an alias to its category, or falls back to the
// default when the input is empty.
func (c *Config) ResolveCategory(category string) string {
	if category == "" {
		return c.Tracking.DefaultCategory
	}
	if resolved, ok := c.Aliases[category]; ok {
		return resolved
	}
	return category
}

// KnownCategory reports whether the category is in the configured set.
func (c *Config) KnownCategory(category string) bool {
	for _, known := range c.Tracking.Categories {
		if known == category {
			return true
		}
	}
	return false
}

// Starter renders a commented starter .timecfg for `ttrack init`.
func Starter(name, projType, language, framework string) ([]byte, error) {
	cfg := Default(".")
	cfg.Project.Name = name
	if projType != "" {
		cfg.Project.Type = projType
	}
	cfg.Project.Language = language
	cfg.Project.Framework = framework
	cfg.Aliases = map[string]string{
		"work": "development",
		"code": "development",
		"docs": "documentation",
		"meet": "meetings",
		"test": "testing",
	}
	return yaml.Marshal(cfg)
}
