// Package config provides configuration loading and management for blinkstack.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Display parameters sent to the external viewer at session setup.
	// These are fixed for the lifetime of a session.
	Display struct {
		// Target is the name of the viewer instance to connect to
		Target string `yaml:"target"`

		// Scale is the intensity scale mode, e.g. "zscale"
		Scale string `yaml:"scale"`

		// InvertColormap flips the colormap so objects appear dark
		InvertColormap bool `yaml:"invertColormap"`

		// BlinkInterval is the frame cycling period in seconds
		BlinkInterval float64 `yaml:"blinkInterval"`

		// HidePanels lists the viewer UI panels to hide at setup
		HidePanels []string `yaml:"hidePanels"`
	} `yaml:"display"`

	// Tile parameters
	Tiles struct {
		// Edge is the tile edge length in pixels
		Edge int `yaml:"edge"`
	} `yaml:"tiles"`

	// File parameters
	Files struct {
		// Pattern is the glob matched against the image directory
		Pattern string `yaml:"pattern"`

		// RegionExtension is the sidecar file extension, including the dot
		RegionExtension string `yaml:"regionExtension"`
	} `yaml:"files"`

	// Mark parameters
	Marks struct {
		// Radius is the marker circle radius in pixels
		Radius float64 `yaml:"radius"`

		// Color is the marker circle color name
		Color string `yaml:"color"`

		// DeleteRadius is the Euclidean distance within which a delete
		// removes stored points, in full-mosaic pixels
		DeleteRadius float64 `yaml:"deleteRadius"`
	} `yaml:"marks"`

	// Event parameters
	Events struct {
		// MaxRetries caps how many transient viewer read failures the
		// event poll tolerates before giving up; 0 retries forever
		MaxRetries int `yaml:"maxRetries"`
	} `yaml:"events"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default display parameters
	cfg.Display.Target = "blinkbo"
	cfg.Display.Scale = "zscale"
	cfg.Display.InvertColormap = true
	cfg.Display.BlinkInterval = 0.25
	cfg.Display.HidePanels = []string{"info", "magnifier", "panner", "buttons"}

	// Set default tile parameters
	cfg.Tiles.Edge = 128

	// Set default file parameters
	cfg.Files.Pattern = "s*.fits"
	cfg.Files.RegionExtension = ".coo"

	// Set default mark parameters
	cfg.Marks.Radius = 10
	cfg.Marks.Color = "red"
	cfg.Marks.DeleteRadius = 1.0

	// Set default event parameters
	cfg.Events.MaxRetries = 0

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
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

// SaveConfig saves the configuration to a YAML file
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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
