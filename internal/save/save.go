package save

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/engine/terrain"
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/internal/logger"
	"github.com/kivi-man/voxelworld/pkg/formats"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// maxRandomSeed bounds freshly rolled seeds.
const maxRandomSeed = 1_000_000

// Source tells where LoadChunk got a chunk from.
type Source int

// Chunk sources.
const (
	Loaded Source = iota
	Generated
)

// String returns the source name.
func (s Source) String() string {
	if s == Generated {
		return "generated"
	}
	return "loaded"
}

// Options configures a Save.
type Options struct {
	// Seed is used when the store has no seed yet. Zero picks one at random.
	Seed    int64
	Terrain terrain.Params
}

// Save reads and writes one world through a Store. Decode and read failures
// never reach the caller; chunks fall back to generation.
type Save struct {
	store Store
	w     *world.World
	reg   *block.Registry
	seed  int64
	gen   *terrain.Generator
	log   *zap.Logger
}

// New loads or creates the world seed and builds the terrain generator.
func New(store Store, w *world.World, opts Options) (*Save, error) {
	s := &Save{
		store: store,
		w:     w,
		reg:   w.Registry(),
		log:   logger.Named("save"),
	}

	seed, err := s.loadSeed(opts.Seed)
	if err != nil {
		return nil, err
	}
	s.seed = seed
	s.gen = terrain.New(seed, opts.Terrain)
	return s, nil
}

func (s *Save) loadSeed(fallback int64) (int64, error) {
	data, err := s.store.Get(SeedKey)
	switch {
	case err == nil:
		seed, perr := formats.ParseSeed(data)
		if perr == nil {
			s.log.Info("loaded world seed", zap.Int64("seed", seed))
			return seed, nil
		}
		s.log.Warn("seed record is corrupt, starting a new seed", zap.Error(perr))
	case !errors.Is(err, ErrNotFound):
		return 0, fmt.Errorf("reading seed: %w", err)
	}

	seed := fallback
	if seed == 0 {
		seed = rand.Int64N(maxRandomSeed)
	}
	if err := s.store.Put(SeedKey, formats.EncodeSeed(seed)); err != nil {
		return 0, fmt.Errorf("writing seed: %w", err)
	}
	s.log.Info("created world seed", zap.Int64("seed", seed))
	return seed, nil
}

// Seed returns the world seed.
func (s *Save) Seed() int64 {
	return s.seed
}

// Generator returns the terrain generator built from the seed.
func (s *Save) Generator() *terrain.Generator {
	return s.gen
}

// Store returns the underlying store.
func (s *Save) Store() Store {
	return s.store
}

// LoadChunk returns the chunk at cp from the store. A missing or unreadable
// record is replaced by a generated chunk, which is written back at once.
// The chunk is not installed.
func (s *Save) LoadChunk(cp math.Vec3i) (*world.Chunk, Source) {
	key := ChunkKey(cp)
	data, err := s.store.Get(key)
	if err == nil {
		cd, perr := formats.ParseChunk(data)
		if perr == nil {
			return s.fromData(cp, cd), Loaded
		}
		s.log.Warn("corrupt chunk, regenerating", zap.String("key", key), zap.Error(perr))
	} else if !errors.Is(err, ErrNotFound) {
		s.log.Warn("chunk read failed, regenerating", zap.String("key", key), zap.Error(err))
	}

	c := s.gen.Generate(cp)
	c.SetModified()
	if err := s.SaveChunk(c); err != nil {
		s.log.Warn("saving generated chunk failed", zap.String("key", key), zap.Error(err))
	}
	return c, Generated
}

// SaveChunk writes c and clears its modified flag on success. A provisional
// chunk is written as its edits over the stored or generated chunk.
func (s *Save) SaveChunk(c *world.Chunk) error {
	out := c
	if c.Provisional() {
		base, _ := s.LoadChunk(c.Pos)
		c.Overlay(base)
		out = base
	}
	if err := s.store.Put(ChunkKey(c.Pos), formats.EncodeChunk(s.toData(out))); err != nil {
		return fmt.Errorf("saving chunk %v: %w", c.Pos, err)
	}
	c.ClearModified()
	return nil
}

// Save writes every modified loaded chunk. Failed chunks stay modified and
// their errors are combined.
func (s *Save) Save() error {
	var errs error
	saved, failed := 0, 0
	for _, c := range s.w.Chunks() {
		if !c.Modified() {
			continue
		}
		if err := s.SaveChunk(c); err != nil {
			errs = multierr.Append(errs, err)
			failed++
			continue
		}
		saved++
	}
	if failed > 0 {
		s.log.Error("world save incomplete", zap.Int("saved", saved), zap.Int("failed", failed), zap.Error(errs))
	} else {
		s.log.Info("world saved", zap.Int("chunks", saved))
	}
	return errs
}

func (s *Save) toData(c *world.Chunk) *formats.ChunkData {
	cd := &formats.ChunkData{}
	for i, id := range c.Blocks {
		cd.Blocks[i] = uint8(id)
	}
	c.EachWater(s.reg.IsWater, func(i int, level uint8) {
		lp := world.LocalAt(i)
		cd.Water = append(cd.Water, formats.WaterEntry{
			X: uint8(lp.X), Y: uint8(lp.Y), Z: uint8(lp.Z), Level: level,
		})
	})
	return cd
}

func (s *Save) fromData(cp math.Vec3i, cd *formats.ChunkData) *world.Chunk {
	c := world.NewChunk(cp)
	for i, id := range cd.Blocks {
		c.Blocks[i] = block.ID(id)
	}
	for _, e := range cd.Water {
		c.SetWaterLevel(world.Index(int(e.X), int(e.Y), int(e.Z)), e.Level)
	}
	return c
}

// SavePlayer writes the player record.
func (s *Save) SavePlayer(p formats.Player) error {
	if err := s.store.Put(PlayerKey, formats.EncodePlayer(p)); err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	return nil
}

// LoadPlayer reads the player record. It reports false when there is no
// usable record.
func (s *Save) LoadPlayer() (formats.Player, bool) {
	data, err := s.store.Get(PlayerKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("reading player failed", zap.Error(err))
		}
		return formats.Player{}, false
	}
	p, err := formats.ParsePlayer(data)
	if err != nil {
		s.log.Warn("corrupt player record", zap.Error(err))
		return formats.Player{}, false
	}
	return p, true
}

// SaveMobs writes the mob registry.
func (s *Save) SaveMobs(r formats.MobRegistry) error {
	data, err := formats.EncodeMobs(r)
	if err != nil {
		return fmt.Errorf("encoding mobs: %w", err)
	}
	if err := s.store.Put(MobsKey, data); err != nil {
		return fmt.Errorf("saving mobs: %w", err)
	}
	return nil
}

// LoadMobs reads the mob registry. Missing or corrupt data gives an empty registry.
func (s *Save) LoadMobs() formats.MobRegistry {
	data, err := s.store.Get(MobsKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("reading mobs failed", zap.Error(err))
		}
		return formats.MobRegistry{}
	}
	r, err := formats.ParseMobs(data)
	if err != nil {
		s.log.Warn("corrupt mob record", zap.Error(err))
		return formats.MobRegistry{}
	}
	return r
}

// Close closes the store.
func (s *Save) Close() error {
	return s.store.Close()
}
