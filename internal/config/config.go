// Package config loads the runtime knobs that recast the original
// interpreter's compile-time `#define DEBUG_*` toggles (spec.md §8 "GC
// soundness", §6 diagnostic natives) as ordinary runtime configuration:
// an optional YAML file supplies defaults, and environment variables
// override them (SPEC_FULL.md §2.4).
package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config holds the environment-tunable runtime knobs. The CLI passes
// StressGC and LogGC to the heap and DiagTools to the VM; GCHeapGrowth and
// FramesMax are parsed but not passed on, since the heap always doubles
// nextGC and the VM's frame limit is the fixed framesMax constant (64).
type Config struct {
	StressGC     bool `env:"LOX_STRESS_GC" yaml:"stress_gc"`
	LogGC        bool `env:"LOX_LOG_GC" yaml:"log_gc"`
	DiagTools    bool `env:"LOX_DIAG_TOOLS" yaml:"diag_tools"`
	GCHeapGrowth int  `env:"LOX_GC_HEAP_GROWTH" envDefault:"2" yaml:"gc_heap_growth"`
	FramesMax    int  `env:"LOX_FRAMES_MAX" envDefault:"64" yaml:"frames_max"`
}

// Load builds a Config by first applying configPath's YAML contents (if it
// exists; a missing file is not an error) as defaults, then overlaying
// process environment variables on top (SPEC_FULL.md §2.4 "file defaults,
// env overrides").
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configPath = filepath.Join(home, ".loxrc.yaml")
		}
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case os.IsNotExist(err):
			// no file: defaults come entirely from env tags below
		default:
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
