package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"
)

type Format string

const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
	TextFormat Format = "text"
)

type Config struct {
	Listen       string `json:"listen" mapstructure:"listen"`
	Format       Format `json:"format" mapstructure:"format"`
	Concurrency  int    `json:"concurrency" mapstructure:"concurrency"`
	Debug        bool   `json:"debug" mapstructure:"debug"`
	HistoryLimit int    `json:"history_limit" mapstructure:"history_limit"`
}

func Default() *Config {
	return &Config{
		Format:       JSONFormat,
		Concurrency:  8,
		HistoryLimit: 1000,
	}
}

func (c *Config) Validate() error {
	switch c.Format {
	case JSONFormat, YAMLFormat, TextFormat:
	default:
		return fmt.Errorf("unsupported format: %q", c.Format)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive: %d", c.Concurrency)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative: %d", c.HistoryLimit)
	}
	return nil
}

// Load reads a .json, .yaml or .yml file over the defaults.
func Load(filePath string) (*Config, error) {
	var parse func(io.Reader) (map[string]any, error)
	switch filepath.Ext(filePath) {
	case ".json":
		parse = parseJSON
	case ".yaml", ".yml":
		parse = parseYAML
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%q): %w", filePath, err)
	}
	defer f.Close()

	m, err := parse(f)
	if err != nil {
		return nil, err
	}
	return Decode(m)
}

// Decode applies the keys of m over the defaults.
func Decode(m map[string]any) (*Config, error) {
	c := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		ErrorUnused:      true,
		WeaklyTypedInput: true, // numbers arrive as json.Number
	})
	if err != nil {
		return nil, fmt.Errorf("mapstructure.NewDecoder: %w", err)
	}
	if err = decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("mapstructure.Decode: %w", err)
	}

	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseYAML(r io.Reader) (map[string]any, error) {
	yamlBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}

	return parseJSON(bytes.NewReader(jsonBytes))
}

func parseJSON(r io.Reader) (map[string]any, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var m map[string]any
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}
	return m, nil
}
