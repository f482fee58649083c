// Package config loads vizpipe settings from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/chazu/vizpipe/pkg/filter"
)

// Config is the file-backed configuration. Zero fields in a file keep
// their defaults.
type Config struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Workers bounds concurrent imports. 0 means one per CPU.
	Workers int `toml:"workers"`

	Pipeline   Pipeline   `toml:"pipeline"`
	IsoSurface IsoSurface `toml:"isosurface"`
}

// Pipeline holds stage settings shared by every command.
type Pipeline struct {
	// Script is a path to a pipeline script applied after import.
	Script string `toml:"script"`
}

// IsoSurface holds the defaults for the isosurface mapper.
type IsoSurface struct {
	Cells int     `toml:"cells"`
	Level float64 `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:   "info",
		LogFormat:  "text",
		Workers:    runtime.NumCPU(),
		IsoSurface: IsoSurface{Cells: filter.DefaultCells},
	}
}

// Load reads path over the defaults. A missing file is not an error.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.New(strict.String())
		}
		return err
	}
	return nil
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	if c.IsoSurface.Cells < 0 {
		return fmt.Errorf("config: isosurface.cells must not be negative, got %d", c.IsoSurface.Cells)
	}
	return nil
}

// Limit returns the worker bound for concurrent imports.
func (c Config) Limit() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// Save writes c to path as TOML.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
