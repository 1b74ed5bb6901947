package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go-cccv/debug"
)

const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 256

	minSampleRate = 1000
	maxSampleRate = 768000
	maxBlockSize  = 8192
)

// View names the grid shown by the TUI
type View string

const (
	ViewCCToCV View = "cctocv"
	ViewCVToCC View = "cvtocc"
)

// UIConfig stores UI preferences
type UIConfig struct {
	LastView View `json:"lastView,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	InputPort     string   `json:"inputPort,omitempty"`
	OutputPort    string   `json:"outputPort,omitempty"`
	InputChannel  int      `json:"inputChannel"`  // -1 = all
	OutputChannel int      `json:"outputChannel"` // -1 = keep the message's
	SampleRate    int      `json:"sampleRate,omitempty"`
	BlockSize     int      `json:"blockSize,omitempty"`
	Patch         string   `json:"patch,omitempty"` // loaded at startup
	Debug         bool     `json:"debug,omitempty"`
	UI            UIConfig `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		InputChannel:  -1,
		OutputChannel: 0,
		SampleRate:    DefaultSampleRate,
		BlockSize:     DefaultBlockSize,
		UI: UIConfig{
			LastView: ViewCCToCV,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-cccv"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Start from defaults so missing keys keep them
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Validate()
	return cfg, nil
}

// Validate clamps out-of-range values back to defaults
func (c *Config) Validate() {
	if c.SampleRate < minSampleRate || c.SampleRate > maxSampleRate {
		debug.Log("config", "sampleRate %d out of range, using %d", c.SampleRate, DefaultSampleRate)
		c.SampleRate = DefaultSampleRate
	}
	if c.BlockSize <= 0 || c.BlockSize > maxBlockSize {
		debug.Log("config", "blockSize %d out of range, using %d", c.BlockSize, DefaultBlockSize)
		c.BlockSize = DefaultBlockSize
	}
	if c.InputChannel < -1 || c.InputChannel > 15 {
		c.InputChannel = -1
	}
	if c.OutputChannel < -1 || c.OutputChannel > 15 {
		c.OutputChannel = 0
	}
	switch c.UI.LastView {
	case ViewCCToCV, ViewCVToCC:
	default:
		c.UI.LastView = ViewCCToCV
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
