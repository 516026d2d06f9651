package theaterconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix environment variables must carry to be
	// picked up by Load.
	EnvPrefix = "THEATER_"
	// Delimiter is the key delimiter koanf uses for nested config.
	Delimiter = "."
)

// Loader reads configuration from files, environment variables, and
// in-process overrides, in ascending priority.
type Loader struct {
	k *koanf.Koanf
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{k: koanf.New(Delimiter)}
}

// Load builds a Config from defaults, an optional file at configPath,
// THEATER_-prefixed environment variables, and overrides, in that
// ascending priority, then validates the result.
func (l *Loader) Load(configPath string, overrides map[string]any) (*Config, error) {
	defaults := DefaultConfig()
	if err := l.k.Load(confmap.Provider(map[string]any{
		"scheduler": defaults.Scheduler,
		"log":       defaults.Log,
		"metrics":   defaults.Metrics,
		"tracing":   defaults.Tracing,
		"api":       defaults.API,
	}, Delimiter), nil); err != nil {
		return nil, fmt.Errorf("theaterconfig: load defaults: %w", err)
	}

	if configPath != "" {
		if err := l.loadFile(configPath); err != nil {
			return nil, fmt.Errorf("theaterconfig: load file: %w", err)
		}
	} else {
		l.loadDefaultFiles()
	}

	if err := l.k.Load(env.Provider(EnvPrefix, Delimiter, func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("theaterconfig: load env: %w", err)
	}

	if len(overrides) > 0 {
		if err := l.k.Load(confmap.Provider(overrides, Delimiter), nil); err != nil {
			return nil, fmt.Errorf("theaterconfig: apply overrides: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := l.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return nil, fmt.Errorf("theaterconfig: unmarshal: %w", err)
	}
	if err := ValidateWithDetails(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) loadFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", path)
	}
	return l.k.Load(file.Provider(path), parser)
}

func (l *Loader) loadDefaultFiles() {
	candidates := []string{
		"theater.yaml",
		"theater.yml",
		"theater.json",
		"configs/theater.yaml",
		"/etc/theater/theater.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = l.loadFile(path)
			return
		}
	}
}

// Load is a convenience wrapper around a fresh Loader.
func Load(configPath string, overrides map[string]any) (*Config, error) {
	return NewLoader().Load(configPath, overrides)
}
