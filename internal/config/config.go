// Package config holds the persistent settings of the svd tool.
//
// Config file locations (priority order):
//  1. the --config flag
//  2. ./svd.yaml
//  3. <user config dir>/svd/config.yaml
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/osuushi/segvoronoi/internal/kernel"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DumpNone = "none"
	DumpText = "text"
	DumpYAML = "yaml"

	// The demo kept five recent files.
	DefaultMaxRecent = 5
)

type Config struct {
	// Dump selects how edges are printed after loading: none, text or yaml.
	Dump string `yaml:"dump"`
	// Scale of debug snapshots, in pixels per unit.
	Scale float64 `yaml:"scale"`
	// Seeds are "x,y" points whose regions are left out of the edge list.
	Seeds []string `yaml:"seeds,omitempty"`
	// RecentFiles lists opened files, most recent first.
	RecentFiles []string `yaml:"recent_files,omitempty"`
	MaxRecent   int      `yaml:"max_recent"`
	NoColor     bool     `yaml:"no_color"`
}

// Load finds and loads the config file, or returns defaults if none found.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// FindConfigPath returns the first config file that exists, or "".
func FindConfigPath() string {
	candidates := []string{"svd.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "svd", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, errors.Wrap(err, "parse config")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes config to the specified path.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create config dir")
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write config")
}

func DefaultConfig() *Config {
	return &Config{
		Dump:      DumpNone,
		Scale:     20,
		MaxRecent: DefaultMaxRecent,
	}
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	if c.Dump == "" {
		c.Dump = DumpNone
	}
	if c.Scale <= 0 {
		c.Scale = 20
	}
	if c.MaxRecent <= 0 {
		c.MaxRecent = DefaultMaxRecent
	}
	if len(c.RecentFiles) > c.MaxRecent {
		c.RecentFiles = c.RecentFiles[:c.MaxRecent]
	}
}

func (c *Config) Validate() error {
	switch c.Dump {
	case DumpNone, DumpText, DumpYAML:
	default:
		return errors.Errorf("unknown dump format %q", c.Dump)
	}
	_, err := c.SeedPoints()
	return err
}

// SeedPoints parses Seeds.
func (c *Config) SeedPoints() ([]kernel.Point, error) {
	points := make([]kernel.Point, 0, len(c.Seeds))
	for _, seed := range c.Seeds {
		p, err := ParsePoint(seed)
		if err != nil {
			return nil, errors.Wrapf(err, "seed %q", seed)
		}
		points = append(points, p)
	}
	return points, nil
}

// ParsePoint reads "x,y" or "x y".
func ParsePoint(s string) (kernel.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 2 {
		return kernel.Point{}, errors.Errorf("expected two coordinates in %q", s)
	}
	return kernel.ParsePoint(fields[0], fields[1])
}

// AddRecent moves path to the front of the recent files, dropping the oldest
// entries past MaxRecent.
func (c *Config) AddRecent(path string) {
	recent := []string{path}
	for _, old := range c.RecentFiles {
		if old != path {
			recent = append(recent, old)
		}
	}
	limit := c.MaxRecent
	if limit <= 0 {
		limit = DefaultMaxRecent
	}
	if len(recent) > limit {
		recent = recent[:limit]
	}
	c.RecentFiles = recent
}
