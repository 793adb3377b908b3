package config

import "flag"

var (
	flagConfig         = flag.String("config", "", "Path to config file")
	flagDebug          = flag.Bool("debug", false, "Enable debug logging")
	flagSaveDir        = flag.String("save-dir", "", "World save directory")
	flagStorage        = flag.String("storage", "", "Save backend: files or leveldb")
	flagSeed           = flag.Int64("seed", 0, "Seed for a new world")
	flagRenderDistance = flag.Int("render-distance", 0, "Horizontal chunk radius to keep loaded")
	flagTicks          = flag.Int("ticks", 0, "Stop after N ticks (0 = until interrupted)")
	flagAudio          = flag.Bool("audio", false, "Play sound effects on the default output device")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSaveDir != "" {
		cfg.World.SaveDir = *flagSaveDir
	}
	if *flagStorage != "" {
		cfg.World.Storage = *flagStorage
	}
	if *flagSeed != 0 {
		cfg.World.Seed = *flagSeed
	}
	if *flagRenderDistance > 0 {
		cfg.Streaming.RenderDistance = *flagRenderDistance
	}
	if *flagTicks > 0 {
		cfg.Game.MaxTicks = *flagTicks
	}
	if *flagAudio {
		cfg.Audio.Enabled = true
	}
}
