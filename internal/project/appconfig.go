package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/CrateStack/internal/model"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore, e.g. CRATESTACK_CONTAINER__WIDTH=120.
const EnvPrefix = "CRATESTACK_"

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.cratestack/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cratestack")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	case ".json":
		return kjson.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
}

// LoadAppConfig reads an AppConfig from path and applies environment overrides.
// Fields the file leaves out keep their defaults. A missing file is not an
// error; an empty path skips the file entirely.
func LoadAppConfig(path string) (model.AppConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return model.AppConfig{}, err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return model.AppConfig{}, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return model.AppConfig{}, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	cfg := model.DefaultAppConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return model.AppConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return model.AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveAppConfig writes cfg as YAML for .yaml/.yml paths and as indented JSON
// otherwise. It creates any missing parent directories.
func SaveAppConfig(path string, cfg model.AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = toYAML(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// toYAML goes through JSON so the YAML keys match the json tags koanf reads.
func toYAML(cfg model.AppConfig) ([]byte, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}
