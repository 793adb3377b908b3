package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "VoxelWorld")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "VoxelWorld")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "voxelworld")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "voxelworld")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.World.Storage {
	case "files", "leveldb":
	default:
		return fmt.Errorf("world.storage must be files or leveldb, got %q", c.World.Storage)
	}
	if c.World.SaveDir == "" {
		return fmt.Errorf("world.save_dir must not be empty")
	}
	if c.Streaming.RenderDistance < 1 {
		return fmt.Errorf("streaming.render_distance must be at least 1, got %d", c.Streaming.RenderDistance)
	}
	if c.Streaming.VerticalBelow < 0 || c.Streaming.VerticalAbove < 0 {
		return fmt.Errorf("streaming vertical band must not be negative")
	}
	if c.Streaming.LoadsPerTick < 1 || c.Streaming.UnloadsPerTick < 1 {
		return fmt.Errorf("streaming load and unload caps must be at least 1")
	}
	if c.Light.LowPriorityBudget < 0 || c.Light.HighPriorityCap < 1 {
		return fmt.Errorf("light budgets out of range")
	}
	if c.Game.TickRate < 1 {
		return fmt.Errorf("game.tick_rate must be at least 1, got %d", c.Game.TickRate)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio.volume must be between 0 and 1, got %g", c.Audio.Volume)
	}
	return nil
}
