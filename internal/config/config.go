// Package config loads atemlogger settings from TOML, merging a global file
// with an optional project-local override.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ProjectFile is the per-directory override, looked up in the working
// directory.
const ProjectFile = ".atemlogger.toml"

// Config holds all configurable settings. Flag values override both files.
type Config struct {
	SwitcherAddress    string `toml:"switcher_address"`
	DeckAddress        string `toml:"deck_address"`
	OutputPath         string `toml:"output_path"`
	CompensationFrames int    `toml:"compensation_frames"`
	FrameRate          int    `toml:"frame_rate"`
	PollBackoffMS      int    `toml:"poll_backoff_ms"`
	LogLevel           string `toml:"log_level"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		FrameRate:     25,
		PollBackoffMS: 10,
		LogLevel:      "info",
	}
}

// GlobalPath returns the global config file location:
// $XDG_CONFIG_HOME/atemlogger/config.toml or ~/.config/atemlogger/config.toml.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "atemlogger", "config.toml"), nil
}

// LoadGlobal reads the global config file. Returns nil (no error) if it is
// absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadProject reads the project-local override in the working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return LoadFile(ProjectFile)
}

// LoadFile reads and parses one TOML config file. A missing file is not an
// error; it simply contributes nothing to the merge.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge builds the effective configuration: defaults, overlaid by global,
// overlaid by project. Zero values never override.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if layer.SwitcherAddress != "" {
			result.SwitcherAddress = layer.SwitcherAddress
		}
		if layer.DeckAddress != "" {
			result.DeckAddress = layer.DeckAddress
		}
		if layer.OutputPath != "" {
			result.OutputPath = layer.OutputPath
		}
		if layer.CompensationFrames != 0 {
			result.CompensationFrames = layer.CompensationFrames
		}
		if layer.FrameRate != 0 {
			result.FrameRate = layer.FrameRate
		}
		if layer.PollBackoffMS != 0 {
			result.PollBackoffMS = layer.PollBackoffMS
		}
		if layer.LogLevel != "" {
			result.LogLevel = layer.LogLevel
		}
	}
	return result
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
