package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration file encoding.
type Format int

const (
	FormatAuto Format = iota
	FormatTOML
	FormatJSON
	FormatYAML
)

// FormatFor picks the decoder from the file extension.
func FormatFor(path string) Format {
	switch filepath.Ext(path) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// loadConfigFromFile reads and parses a config file based on its extension.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, FormatFor(path))
}

// Parse decodes data on top of the defaults after checking it against the
// configuration schema.
func Parse(data []byte, f Format) (*Config, error) {
	if f == FormatAuto {
		detected, err := detectFormat(data)
		if err != nil {
			return nil, err
		}
		f = detected
	}

	doc, err := decodeDocument(data, f)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	switch f {
	case FormatTOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	}
	return cfg, nil
}

// detectFormat tries TOML, then JSON, then YAML.
func detectFormat(data []byte) (Format, error) {
	var probe map[string]any
	if _, err := toml.Decode(string(data), &probe); err == nil {
		return FormatTOML, nil
	}
	if err := json.Unmarshal(data, &probe); err == nil {
		return FormatJSON, nil
	}
	if err := yaml.Unmarshal(data, &probe); err == nil {
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("unable to parse config file (tried TOML, JSON, YAML)")
}

// decodeDocument decodes data into plain JSON values so that the schema
// validator sees the same types regardless of the source encoding.
func decodeDocument(data []byte, f Format) (any, error) {
	raw := map[string]any{}
	switch f {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("normalize config: %w", err)
	}
	return doc, nil
}

// SaveConfig writes cfg as TOML, creating the parent directory.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode TOML: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadOrCreate loads the configuration at path, writing the defaults there
// first when the file does not exist. created reports whether it did.
func LoadOrCreate(path string) (cfg *Config, created bool, err error) {
	if path == "" {
		path = ConfigPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, path); err != nil {
			return nil, false, fmt.Errorf("create default config: %w", err)
		}
		cfg.ApplyEnvOverrides()
		return cfg, true, nil
	}

	cfg, err = Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}
