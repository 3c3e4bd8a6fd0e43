// Package config provides configuration loading and management for corect.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Import parameters
	Import struct {
		// Force skips unreadable files instead of aborting the import
		Force bool `yaml:"force"`

		// IncludeHiddenFiles disables the default skipping of dot-files
		IncludeHiddenFiles bool `yaml:"includeHiddenFiles"`
	} `yaml:"import"`

	// Trace parameters
	Trace struct {
		// Axis is the axis collapsed when extracting the cross-section
		Axis int `yaml:"axis"`

		// Loc is the location of the cross-section along the axis;
		// -1 selects the center
		Loc int `yaml:"loc"`
	} `yaml:"trace"`

	// Trim parameters applied before analysis
	Trim struct {
		// Start and End are the amounts cut from either end of the
		// cross-section rows
		Start int `yaml:"start"`
		End   int `yaml:"end"`

		// Radius enables radial trimming of the core when positive,
		// in mm from the plane center
		Radius float64 `yaml:"radius"`
	} `yaml:"trim"`

	// Filter parameters
	Filter struct {
		// Enabled turns brightness thresholding on
		Enabled bool `yaml:"enabled"`

		// Min and Max bound the brightness values kept by the filter;
		// a zero Max leaves the filter unbounded above
		Min float64 `yaml:"min"`
		Max float64 `yaml:"max"`
	} `yaml:"filter"`

	// Output parameters
	Output struct {
		// Colormap names the colormap for slice rasters (gray, heat)
		Colormap string `yaml:"colormap"`

		// Verbose controls the level of progress output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default import parameters
	cfg.Import.Force = false
	cfg.Import.IncludeHiddenFiles = false

	// Set default trace parameters: collapse the z axis at its center
	cfg.Trace.Axis = 2
	cfg.Trace.Loc = -1

	// Set default trim and filter parameters (disabled)
	cfg.Trim.Start = 0
	cfg.Trim.End = 0
	cfg.Trim.Radius = 0
	cfg.Filter.Enabled = false
	cfg.Filter.Min = 0
	cfg.Filter.Max = 0

	// Set default output parameters
	cfg.Output.Colormap = "gray"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
