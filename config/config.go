// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rbmk-project/dpiprobe/fleet"
	"github.com/rbmk-project/dpiprobe/probe"
	"github.com/rbmk-project/dpiprobe/wire"
	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates that the configuration is not valid.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the plan file.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is either text or json.
	Format string `yaml:"format"`
}

// ServerConfig configures the listener fleet.
type ServerConfig struct {
	Address       string           `yaml:"address"`
	ReadTimeout   time.Duration    `yaml:"read_timeout"`
	MaxChunk      int              `yaml:"max_chunk"`
	StatsInterval time.Duration    `yaml:"stats_interval"`
	AnswerAddr    string           `yaml:"answer_addr"`
	ExportPath    string           `yaml:"export_path"`
	Listeners     []ListenerConfig `yaml:"listeners"`
}

// ListenerConfig configures a single listener.
type ListenerConfig struct {
	Port      uint16 `yaml:"port"`
	Transport string `yaml:"transport"`
	Label     string `yaml:"label"`
	Mode      string `yaml:"mode"`
}

// ClientConfig configures the probe runner.
type ClientConfig struct {
	Target      string        `yaml:"target"`
	Domain      string        `yaml:"domain"`
	Timeout     time.Duration `yaml:"timeout"`
	Delay       time.Duration `yaml:"delay"`
	MaxChunk    int           `yaml:"max_chunk"`
	ResultsPath string        `yaml:"results_path"`

	// Probes contains the probes to run. If empty, we use [probe.DefaultPlan].
	Probes []ProbeConfig `yaml:"probes"`
}

// ProbeConfig configures a single probe.
type ProbeConfig struct {
	Label     string `yaml:"label"`
	Port      uint16 `yaml:"port"`
	Transport string `yaml:"transport"`

	// Payload is one of dns, dns-fake, ssh, tls, random, entropy.
	Payload string `yaml:"payload"`

	// Family and Kind override the ones implied by Payload.
	Family string `yaml:"family"`
	Kind   string `yaml:"kind"`

	// Size is the size of random and entropy payloads.
	Size int `yaml:"size"`
}

// Default returns the default configuration.
func Default() *Config {
	var listeners []ListenerConfig
	for _, cfg := range fleet.DefaultListeners() {
		listeners = append(listeners, ListenerConfig{
			Port:      cfg.Port,
			Transport: cfg.Transport.Network(),
			Label:     cfg.Label,
			Mode:      string(cfg.Mode),
		})
	}
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Address:       "0.0.0.0",
			ReadTimeout:   fleet.DefaultReadTimeout,
			MaxChunk:      fleet.DefaultMaxChunk,
			StatsInterval: fleet.DefaultStatsInterval,
			AnswerAddr:    wire.DefaultAnswerAddr.String(),
			Listeners:     listeners,
		},
		Client: ClientConfig{
			Domain:   probe.DefaultDomain,
			Timeout:  probe.DefaultTimeout,
			Delay:    probe.DefaultDelay,
			MaxChunk: probe.DefaultMaxChunk,
		},
	}
}

// Load reads the YAML file at path on top of [Default] and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of [Default] and validates the result.
// Unknown fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the whole configuration and returns the join of
// all the problems found, each wrapping [ErrInvalid].
func (c *Config) Validate() error {
	var errv []error
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errv = append(errv, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errv = append(errv, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if _, err := c.Server.FleetListeners(); err != nil {
		errv = append(errv, err)
	}
	if _, err := c.Server.answerAddr(); err != nil {
		errv = append(errv, err)
	}
	if _, err := c.Client.Specs(); err != nil {
		errv = append(errv, err)
	}
	if len(errv) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errv...))
	}
	return nil
}
