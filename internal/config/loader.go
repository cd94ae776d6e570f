package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ucid/internal/common/fsutil"
	"ucid/internal/engine"
)

// Engine is one configured engine slot.
type Engine struct {
	Path          string `json:"path" yaml:"path" toml:"path"`
	TablebasePath string `json:"tablebase_path" yaml:"tablebase_path" toml:"tablebase_path"`
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults.
type Config struct {
	Addr           string   `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel       string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat      string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	AutoPlay       int      `json:"auto_play" yaml:"auto_play" toml:"auto_play"`
	Command        string   `json:"command" yaml:"command" toml:"command"`
	MaxOutputBytes int      `json:"max_output_bytes" yaml:"max_output_bytes" toml:"max_output_bytes"`
	ThinkRate      float64  `json:"think_rate" yaml:"think_rate" toml:"think_rate"`
	ThinkBurst     int      `json:"think_burst" yaml:"think_burst" toml:"think_burst"`
	Engines        []Engine `json:"engines" yaml:"engines" toml:"engines"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
// Engine paths have a leading '~' expanded.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	for i, e := range cfg.Engines {
		if cfg.Engines[i].Path, err = fsutil.ExpandHome(e.Path); err != nil {
			return cfg, err
		}
		if cfg.Engines[i].TablebasePath, err = fsutil.ExpandHome(e.TablebasePath); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if len(c.Engines) > int(engine.MaxSelector) {
		return fmt.Errorf("at most %d engines supported, got %d", engine.MaxSelector, len(c.Engines))
	}
	if c.AutoPlay < 0 || c.AutoPlay > int(engine.MaxSelector) {
		return fmt.Errorf("auto_play must be 0..%d, got %d", engine.MaxSelector, c.AutoPlay)
	}
	if c.ThinkRate < 0 || c.ThinkBurst < 0 {
		return fmt.Errorf("think_rate and think_burst must not be negative")
	}
	return nil
}

// Pool converts the file configuration into the engine pool configuration.
func (c Config) Pool() engine.Config {
	ec := engine.Config{
		Slots:          int(engine.MaxSelector),
		Active:         engine.Selector(c.AutoPlay),
		Command:        c.Command,
		MaxOutputBytes: c.MaxOutputBytes,
	}
	for _, e := range c.Engines {
		ec.Engines = append(ec.Engines, engine.EngineConfig{Path: e.Path, TablebasePath: e.TablebasePath})
	}
	return ec
}
