// Package config handles engine configuration loading and management.
package config

import "time"

// Config holds all engine settings.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Streaming StreamingConfig `yaml:"streaming"`
	Light     LightConfig     `yaml:"light"`
	Water     WaterConfig     `yaml:"water"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Game      GameConfig      `yaml:"game"`
	Audio     AudioConfig     `yaml:"audio"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WorldConfig holds save location settings.
type WorldConfig struct {
	SaveDir string `yaml:"save_dir"`
	Storage string `yaml:"storage"` // "files" or "leveldb"
	Seed    int64  `yaml:"seed"`    // used only when the save has no seed yet; 0 = random
}

// StreamingConfig holds chunk streaming budgets.
type StreamingConfig struct {
	RenderDistance int           `yaml:"render_distance"`
	VerticalBelow  int           `yaml:"vertical_below"`
	VerticalAbove  int           `yaml:"vertical_above"`
	LoadsPerTick   int           `yaml:"loads_per_tick"`
	UnloadsPerTick int           `yaml:"unloads_per_tick"`
	MeshBudget     time.Duration `yaml:"mesh_budget"`
}

// LightConfig holds light propagation budgets.
type LightConfig struct {
	LowPriorityBudget int `yaml:"low_priority_budget"`
	HighPriorityCap   int `yaml:"high_priority_cap"`
}

// WaterConfig holds water flow budgets.
type WaterConfig struct {
	FlowBudget int `yaml:"flow_budget"`
}

// TerrainConfig holds world generation tuning.
type TerrainConfig struct {
	SeaLevel      int     `yaml:"sea_level"`
	CaveThreshold float64 `yaml:"cave_threshold"`
	TreeChance    float64 `yaml:"tree_chance"`
}

// GameConfig holds host loop settings.
type GameConfig struct {
	TickRate            int           `yaml:"tick_rate"`
	AutosaveInterval    time.Duration `yaml:"autosave_interval"`
	WalkSpeed           float64       `yaml:"walk_speed"` // blocks per second for the headless player
	RandomTicksPerChunk int           `yaml:"random_ticks_per_chunk"`
	MaxTicks            int           `yaml:"max_ticks"` // 0 = run until interrupted
}

// AudioConfig holds sound effect settings.
type AudioConfig struct {
	Enabled  bool    `yaml:"enabled"` // open an output device; sounds are still mixed when false
	SoundDir string  `yaml:"sound_dir"`
	Volume   float64 `yaml:"volume"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			SaveDir: "save",
			Storage: "files",
		},
		Streaming: StreamingConfig{
			RenderDistance: 4,
			VerticalBelow:  2,
			VerticalAbove:  2,
			LoadsPerTick:   1,
			UnloadsPerTick: 2,
			MeshBudget:     3 * time.Millisecond,
		},
		Light: LightConfig{
			LowPriorityBudget: 1500,
			HighPriorityCap:   10000,
		},
		Water: WaterConfig{
			FlowBudget: 500,
		},
		Terrain: TerrainConfig{
			SeaLevel:      65,
			CaveThreshold: 0.3,
			TreeChance:    0.01,
		},
		Game: GameConfig{
			TickRate:            20,
			AutosaveInterval:    60 * time.Second,
			WalkSpeed:           4.3,
			RandomTicksPerChunk: 3,
		},
		Audio: AudioConfig{
			SoundDir: "sound",
			Volume:   1.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
