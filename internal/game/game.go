// Package game hosts the world simulation: it owns every subsystem and
// drives them from a fixed-rate tick loop.
package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/config"
	"github.com/kivi-man/voxelworld/internal/engine/audio"
	"github.com/kivi-man/voxelworld/internal/engine/lighting"
	"github.com/kivi-man/voxelworld/internal/engine/mesh"
	"github.com/kivi-man/voxelworld/internal/engine/terrain"
	"github.com/kivi-man/voxelworld/internal/engine/water"
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/stream"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/internal/logger"
	"github.com/kivi-man/voxelworld/internal/save"
	"github.com/kivi-man/voxelworld/pkg/formats"
)

// spawnClearance is how far above the terrain a new player appears.
const spawnClearance = 2

// Player is the headless player driving chunk streaming.
type Player struct {
	Position   mgl64.Vec3
	Yaw, Pitch float64
}

func (p Player) record() formats.Player {
	return formats.Player{X: p.Position.X(), Y: p.Position.Y(), Z: p.Position.Z(), Yaw: p.Yaw, Pitch: p.Pitch}
}

func playerFromRecord(r formats.Player) Player {
	return Player{Position: mgl64.Vec3{r.X, r.Y, r.Z}, Yaw: r.Yaw, Pitch: r.Pitch}
}

// Game is the main game instance.
type Game struct {
	cfg *config.Config

	world  *world.World
	light  *lighting.Engine
	water  *water.Simulator
	mesher *mesh.Builder
	save   *save.Save
	stream *stream.Manager
	audio  *audio.Manager

	player Player
	mobs   formats.MobRegistry

	rng       *rand.Rand
	ticks     int
	sinceSave time.Duration

	log *zap.Logger
}

// New opens the save in cfg and builds every subsystem around it.
func New(cfg *config.Config) (*Game, error) {
	log := logger.Named("game")
	log.Info("initializing game",
		zap.String("save_dir", cfg.World.SaveDir),
		zap.String("storage", cfg.World.Storage),
		zap.Int("render_distance", cfg.Streaming.RenderDistance))

	store, err := save.Open(cfg.World.SaveDir, cfg.World.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open save: %w", err)
	}

	w := world.New(block.Default())
	sv, err := save.New(store, w, save.Options{
		Seed: cfg.World.Seed,
		Terrain: terrain.Params{
			SeaLevel:      cfg.Terrain.SeaLevel,
			CaveThreshold: cfg.Terrain.CaveThreshold,
			TreeChance:    cfg.Terrain.TreeChance,
		},
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open world: %w", err)
	}

	g := &Game{
		cfg:    cfg,
		world:  w,
		light:  lighting.New(w, lighting.Options{HighPriorityCap: cfg.Light.HighPriorityCap}),
		water:  water.New(w, water.Options{FlowBudget: cfg.Water.FlowBudget}),
		mesher: mesh.New(w),
		save:   sv,
		audio:  newAudio(cfg.Audio, log),
		rng:    rand.New(rand.NewPCG(uint64(sv.Seed()), uint64(time.Now().UnixNano()))),
		log:    log,
	}
	g.stream = stream.New(w, sv, g.light, g.mesher, stream.Options{
		RenderDistance: cfg.Streaming.RenderDistance,
		VerticalBelow:  cfg.Streaming.VerticalBelow,
		VerticalAbove:  cfg.Streaming.VerticalAbove,
		LoadsPerTick:   cfg.Streaming.LoadsPerTick,
		UnloadsPerTick: cfg.Streaming.UnloadsPerTick,
		MeshBudget:     cfg.Streaming.MeshBudget,
		LightBudget:    cfg.Light.LowPriorityBudget,
	})

	if rec, ok := sv.LoadPlayer(); ok {
		g.player = playerFromRecord(rec)
		log.Info("player restored", zap.Float64s("position", g.player.Position[:]))
	} else {
		h := sv.Generator().Height(0, 0)
		g.player = Player{Position: mgl64.Vec3{0.5, float64(h + spawnClearance), 0.5}}
		log.Info("player spawned", zap.Int("terrain_height", h))
	}

	g.mobs = sv.LoadMobs()
	log.Info("game initialized",
		zap.Int64("seed", sv.Seed()),
		zap.Int("mobs", g.mobs.Count()))
	return g, nil
}

// newAudio loads the sound banks. Audio problems never stop the game: without
// a device sounds are still mixed, just not heard.
func newAudio(cfg config.AudioConfig, log *zap.Logger) *audio.Manager {
	a := audio.New()
	a.SetMasterVolume(cfg.Volume)
	if _, err := a.LoadDir(cfg.SoundDir); err != nil {
		log.Warn("failed to load sounds", zap.String("dir", cfg.SoundDir), zap.Error(err))
	}
	if cfg.Enabled {
		if err := a.Init(); err != nil {
			log.Warn("audio device unavailable", zap.Error(err))
		}
	}
	return a
}

// World returns the voxel world.
func (g *Game) World() *world.World {
	return g.world
}

// Player returns the current player state.
func (g *Game) Player() Player {
	return g.player
}

// SetPlayer moves the player.
func (g *Game) SetPlayer(p Player) {
	g.player = p
}

// Mobs returns the mob registry that is saved with the world.
func (g *Game) Mobs() formats.MobRegistry {
	return g.mobs
}

// SetMobs replaces the mob registry.
func (g *Game) SetMobs(r formats.MobRegistry) {
	g.mobs = r
}

// Audio returns the sound manager.
func (g *Game) Audio() *audio.Manager {
	return g.audio
}

// Seed returns the world seed.
func (g *Game) Seed() int64 {
	return g.save.Seed()
}

// Ticks returns the number of ticks run so far.
func (g *Game) Ticks() int {
	return g.ticks
}

// Tick advances the simulation by dt.
func (g *Game) Tick(dt time.Duration) stream.Stats {
	g.ticks++

	// The headless player walks along +X.
	g.player.Position[0] += g.cfg.Game.WalkSpeed * dt.Seconds()

	g.audio.SetListener(g.player.Position.Add(mgl64.Vec3{0, eyeHeight, 0}))

	g.water.Step()
	st := g.stream.Update(g.player.Position)
	if g.cfg.Game.RandomTicksPerChunk > 0 {
		g.world.RandomTick(g.rng, g.cfg.Game.RandomTicksPerChunk)
	}

	if g.cfg.Game.AutosaveInterval > 0 {
		g.sinceSave += dt
		if g.sinceSave >= g.cfg.Game.AutosaveInterval {
			g.sinceSave = 0
			if err := g.saveAll(); err != nil {
				g.log.Error("autosave failed", zap.Error(err))
			}
		}
	}
	return st
}

// Run ticks at the configured rate until ctx is done or maxTicks ticks have
// run. A maxTicks of zero runs until ctx is done.
func (g *Game) Run(ctx context.Context, maxTicks int) error {
	interval := time.Second / time.Duration(g.cfg.Game.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.log.Info("starting game loop", zap.Duration("interval", interval), zap.Int("max_ticks", maxTicks))

	last := time.Now()
	reportEvery := g.cfg.Game.TickRate * 10
	for run := 0; maxTicks == 0 || run < maxTicks; run++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			st := g.Tick(dt)
			if g.ticks%reportEvery == 0 {
				g.log.Debug("tick",
					zap.Int("tick", g.ticks),
					zap.Duration("dt", dt),
					zap.Int("chunks", st.Chunks),
					zap.Int("light_pending", st.LightPending),
					zap.Int("rebuilds_pending", st.RebuildsPending))
			}
		}
	}
	g.log.Info("game loop stopped", zap.Int("ticks", g.ticks))
	return nil
}

func (g *Game) saveAll() error {
	return multierr.Combine(
		g.save.Save(),
		g.save.SavePlayer(g.player.record()),
		g.save.SaveMobs(g.mobs),
	)
}

// Close saves everything and releases the store.
func (g *Game) Close() error {
	g.log.Info("closing game")
	err := g.saveAll()
	g.audio.Close()
	return multierr.Append(err, g.save.Close())
}
