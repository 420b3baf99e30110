package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"progress-server-go/scorer"
)

// Environment overrides, applied after the config file.
const (
	EnvAddr          = "PROGRESS_ADDR"
	EnvLogLevel      = "PROGRESS_LOG_LEVEL"
	EnvPolicy        = "PROGRESS_POLICY"
	EnvRedisAddr     = "PROGRESS_REDIS_ADDR"
	EnvRedisPassword = "PROGRESS_REDIS_PASSWORD"
	EnvArchive       = "PROGRESS_ARCHIVE_ENABLED"
)

type Server struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"` // gin mode: debug|release|test
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Scoring picks a built-in policy by name, or carries a full table.
type Scoring struct {
	Policy string         `yaml:"policy"`
	Table  *scorer.Policy `yaml:"table,omitempty"`
}

type Chart struct {
	Width   float64 `yaml:"width"`  // points
	Height  float64 `yaml:"height"` // points
	Samples int     `yaml:"samples"`
}

// Archive is the optional redis store of generated reports. Disabled, no
// report outlives its request.
type Archive struct {
	Enabled    bool          `yaml:"enabled"`
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int64         `yaml:"max_entries"`
}

type Config struct {
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
	Scoring Scoring `yaml:"scoring"`
	Chart   Chart   `yaml:"chart"`
	Archive Archive `yaml:"archive"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			Mode:            "release",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxUploadBytes:  8 << 20,
		},
		Log:     Log{Level: "info"},
		Scoring: Scoring{Policy: scorer.PolicySlope},
		Chart:   Chart{Width: 432, Height: 288, Samples: scorer.DefaultSamples},
		Archive: Archive{
			Addr:       "127.0.0.1:6379",
			TTL:        24 * time.Hour,
			MaxEntries: 500,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvPolicy); ok && v != "" {
		c.Scoring.Policy = v
		c.Scoring.Table = nil
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Archive.Addr = v
	}
	if v, ok := lookup(EnvRedisPassword); ok {
		c.Archive.Password = v
	}
	if v, ok := lookup(EnvArchive); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvArchive, v, err)
		}
		c.Archive.Enabled = enabled
	}
	return nil
}

// Policy resolves the scoring table: an inline table wins over the name.
func (c *Config) Policy() (scorer.Policy, error) {
	if c.Scoring.Table != nil {
		return *c.Scoring.Table, nil
	}
	return scorer.PolicyByName(c.Scoring.Policy)
}

// Validate checks ranges and the resolved policy.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return errors.New("chart width and height must be positive")
	}
	if c.Chart.Samples < 2 {
		return fmt.Errorf("chart.samples must be at least 2, got %d", c.Chart.Samples)
	}
	if c.Archive.Enabled {
		if c.Archive.Addr == "" {
			return errors.New("archive.addr is required when the archive is enabled")
		}
		if c.Archive.TTL < 0 || c.Archive.MaxEntries <= 0 {
			return errors.New("archive.ttl must not be negative and archive.max_entries must be positive")
		}
	}
	p, err := c.Policy()
	if err != nil {
		return err
	}
	return p.Validate()
}
