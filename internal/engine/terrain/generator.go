// Package terrain generates chunk contents from a world seed.
package terrain

import (
	gomath "math"
	"math/rand/v2"

	"github.com/ojrac/opensimplex-go"
	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/internal/logger"
	"github.com/kivi-man/voxelworld/pkg/math"
)

const (
	minHeight = 60
	// Solid ground reaches this far below the surface, with bedrock one deeper.
	groundDepth = 80

	biomeScale  = 300.0
	detailScale = 40.0
	caveScale   = 20.0

	// Caves stay this far below the surface and above this height.
	caveRoof  = 4
	caveFloor = 5

	trunkMin, trunkMax = 4, 7
	leafRadius         = 2
	leafDensity        = 0.7
)

// Params tunes generation.
type Params struct {
	SeaLevel      int
	CaveThreshold float64
	TreeChance    float64
}

// DefaultParams returns the standard world shape.
func DefaultParams() Params {
	return Params{
		SeaLevel:      65,
		CaveThreshold: 0.3,
		TreeChance:    0.01,
	}
}

type ore struct {
	id       block.ID
	clusters int
	size     int
	maxY     int
}

var ores = []ore{
	{block.CoalOre, 15, 6, 128},
	{block.IronOre, 12, 4, 64},
	{block.RedstoneOre, 6, 4, 32},
	{block.GoldOre, 4, 3, 28},
	{block.DiamondOre, 2, 3, 16},
}

// Generator produces chunks as a pure function of seed and chunk coordinate.
type Generator struct {
	seed   int64
	params Params

	biome  opensimplex.Noise
	detail opensimplex.Noise
	cave   opensimplex.Noise

	log *zap.Logger
}

// New creates a generator for seed.
func New(seed int64, params Params) *Generator {
	g := &Generator{
		seed:   seed,
		params: params,
		biome:  opensimplex.New(seed),
		detail: opensimplex.New(seed + 1),
		cave:   opensimplex.New(seed + 2),
		log:    logger.Named("terrain"),
	}
	g.log.Debug("generator ready", zap.Int64("seed", seed), zap.Int("sea_level", params.SeaLevel))
	return g
}

// Seed returns the world seed.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Params returns the generation parameters.
func (g *Generator) Params() Params {
	return g.params
}

// Height returns the surface height of column (x, z): the first air voxel
// above ground before caves and trees.
func (g *Generator) Height(x, z int) int {
	fx, fz := float64(x), float64(z)
	b := (fbm2(g.biome, fx/biomeScale, fz/biomeScale, 2, 0.5, 2) + 0.7) * 0.7
	b = max(0, min(1, b))
	n := fbm2(g.detail, fx/detailScale, fz/detailScale, 4, 0.5, 2)

	h := float64(minHeight)
	switch {
	case b < 0.4: // plains
		h += 5 + n*2.5
	case b < 0.7: // hills
		h += 10 + n*18
	default: // mountains
		s := n
		if s > 0 {
			s = gomath.Pow(s, 1.2)
		}
		h += 15 + s*35
	}
	return int(h)
}

// chunkRand returns the deterministic random source for one chunk.
func (g *Generator) chunkRand(cp math.Vec3i) *rand.Rand {
	mix := int64(cp.X)*341873128712 + int64(cp.Y)*982451653 + int64(cp.Z)*132897987541
	return rand.New(rand.NewPCG(uint64(g.seed^mix), uint64(mix)))
}

// Generate builds the chunk at cp. The chunk is not installed and not marked modified.
func (g *Generator) Generate(cp math.Vec3i) *world.Chunk {
	c := world.NewChunk(cp)
	origin := c.Origin()
	rng := g.chunkRand(cp)
	sea := g.params.SeaLevel

	var heights [world.Size][world.Size]int
	var trees []math.Vec3i
	filled := false

	for lx := range world.Size {
		for lz := range world.Size {
			h := g.Height(origin.X+lx, origin.Z+lz)
			heights[lx][lz] = h

			surface := block.Grass
			if h < sea+2 {
				surface = block.Sand
			}

			for ly := range world.Size {
				wy := origin.Y + ly
				var id block.ID
				switch {
				case wy >= h-groundDepth && wy < h:
					switch {
					case wy < h-3:
						id = block.Stone
					case wy < h-1:
						id = block.Dirt
					default:
						id = surface
					}
				case wy == h-groundDepth-1:
					id = block.Bedrock
				case wy >= h && wy <= sea:
					id = block.Water
				}
				if id != block.Air {
					c.Blocks[world.Index(lx, ly, lz)] = id
					filled = true
				}
			}

			if surface == block.Grass && h > sea && h >= origin.Y && h < origin.Y+world.Size {
				if rng.Float64() < g.params.TreeChance {
					trees = append(trees, math.Vec3i{X: lx, Y: h - origin.Y, Z: lz})
				}
			}
		}
	}

	if !filled && len(trees) == 0 {
		return c
	}

	g.carveCaves(c, &heights)
	g.placeOres(c, rng)
	for _, t := range trees {
		g.growTree(c, t, rng)
	}
	return c
}

func (g *Generator) carveCaves(c *world.Chunk, heights *[world.Size][world.Size]int) {
	origin := c.Origin()
	for lx := range world.Size {
		for lz := range world.Size {
			h := heights[lx][lz]
			for ly := range world.Size {
				wy := origin.Y + ly
				if wy < caveFloor || wy > h-caveRoof {
					continue
				}
				i := world.Index(lx, ly, lz)
				switch c.Blocks[i] {
				case block.Stone, block.Dirt, block.Grass:
				default:
					continue
				}
				v := fbm3(g.cave,
					float64(origin.X+lx)/caveScale, float64(wy)/caveScale, float64(origin.Z+lz)/caveScale,
					4, 0.5, 2)
				if v > g.params.CaveThreshold {
					c.Blocks[i] = block.Air
				}
			}
		}
	}
}

func (g *Generator) placeOres(c *world.Chunk, rng *rand.Rand) {
	originY := c.Origin().Y
	clamp := func(v int) int { return max(0, min(world.Size-1, v)) }

	for _, o := range ores {
		for range o.clusters {
			x, y, z := rng.IntN(world.Size), rng.IntN(world.Size), rng.IntN(world.Size)
			if originY+y > o.maxY {
				continue
			}
			if c.Blocks[world.Index(x, y, z)] != block.Stone {
				continue
			}
			for range 1 + rng.IntN(o.size) {
				x = clamp(x + rng.IntN(3) - 1)
				y = clamp(y + rng.IntN(3) - 1)
				z = clamp(z + rng.IntN(3) - 1)
				if i := world.Index(x, y, z); c.Blocks[i] == block.Stone {
					c.Blocks[i] = o.id
				}
			}
		}
	}
}

// growTree places a trunk starting at local base and a leaf ball on top.
// Nothing but air is ever replaced, and nothing leaves the chunk.
func (g *Generator) growTree(c *world.Chunk, base math.Vec3i, rng *rand.Rand) {
	height := trunkMin + rng.IntN(trunkMax-trunkMin+1)

	for dy := range height {
		y := base.Y + dy
		if y >= world.Size {
			break
		}
		if i := world.Index(base.X, y, base.Z); c.Blocks[i] == block.Air {
			c.Blocks[i] = block.OakLog
		}
	}

	top := base.Y + height
	for dy := -leafRadius; dy <= leafRadius; dy++ {
		for dx := -leafRadius; dx <= leafRadius; dx++ {
			for dz := -leafRadius; dz <= leafRadius; dz++ {
				if dx*dx+dy*dy+dz*dz > leafRadius*leafRadius+1 {
					continue
				}
				if rng.Float64() >= leafDensity {
					continue
				}
				x, y, z := base.X+dx, top+dy, base.Z+dz
				if x < 0 || x >= world.Size || y < 0 || y >= world.Size || z < 0 || z >= world.Size {
					continue
				}
				if i := world.Index(x, y, z); c.Blocks[i] == block.Air {
					c.Blocks[i] = block.OakLeaves
				}
			}
		}
	}
}
