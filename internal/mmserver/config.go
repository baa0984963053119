// Package mmserver implements the server-side attachment controller (spec
// §4.F): Attach validation, single-operator-attachment policy, session
// lifecycle roundtrips, and encode-restart signalling.
package mmserver

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmstream/mm/internal/transport"
)

// AppConfig describes one launchable application entry, keyed by ID in
// Config.Apps (SPEC_FULL.md §3 application catalog, recovered from
// original_source's config.rs application table).
type AppConfig struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	Path            string `yaml:"path"`
	HeaderImagePath string `yaml:"header_image"`
}

// Config is the optional server config file (spec §8's ambient config
// layer): application catalog, FEC ratios per hierarchical video layer, and
// transport tunables.
type Config struct {
	ListenAddr string               `yaml:"listen_addr"`
	Apps       map[string]AppConfig `yaml:"apps"`
	FECRatios  []float32            `yaml:"fec_ratios"`
	IdleTimeout time.Duration       `yaml:"idle_timeout"`
}

// DefaultConfig matches the teacher's pattern of a zero-config-file
// fallback suitable for local development.
func DefaultConfig() Config {
	return Config{
		ListenAddr: fmt.Sprintf(":%d", transport.DefaultPort),
		Apps:       map[string]AppConfig{},
		FECRatios:  []float32{0.0},
	}
}

// LoadConfig reads and parses a YAML config file, falling back to
// DefaultConfig's zero values for anything left unset.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.FECRatios) == 0 {
		cfg.FECRatios = []float32{0.0}
	}
	return cfg, nil
}

func (c Config) transportConfig() transport.Config {
	return transport.Config{IdleTimeout: c.IdleTimeout}
}
