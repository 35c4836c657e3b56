// Package config loads the service configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"positionsmap/positionsmap"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Listen  string      `yaml:"listen"`
	DataDir string      `yaml:"data_dir"`
	Workers int         `yaml:"workers"`
	Store   StoreConfig `yaml:"store"`
	Codec   CodecConfig `yaml:"codec"`
	Log     LogConfig   `yaml:"log"`
}

type StoreConfig struct {
	// Backend is "json" or "sqlite".
	Backend string `yaml:"backend"`
	// Path defaults to a file named after the backend inside DataDir.
	Path string `yaml:"path"`
}

type CodecConfig struct {
	Numeric    string `yaml:"numeric"`
	Compressor string `yaml:"compressor"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:  ":8080",
		DataDir: "data",
		Workers: 4,
		Store: StoreConfig{
			Backend: "json",
		},
		Codec: CodecConfig{
			Numeric:    "varint",
			Compressor: "zlib",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return cfg, fmt.Errorf("read error: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse error: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values Load cannot default.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen is empty", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	switch c.Store.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if _, err := c.NewCodec(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// NewCodec builds the configured positions codec.
func (c Config) NewCodec() (*positionsmap.Codec, error) {
	return positionsmap.NewNamed(c.Codec.Numeric, c.Codec.Compressor)
}

// StorePath resolves the store location.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Backend {
	case "sqlite":
		return filepath.Join(c.DataDir, "positions.db")
	default:
		return filepath.Join(c.DataDir, "metastore.json")
	}
}
