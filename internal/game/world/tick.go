package world

import (
	"math/rand/v2"

	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// RandomTick samples perChunk random voxels in every loaded chunk and applies
// slow block updates. Dirt under a non-opaque block turns to grass when a
// horizontal neighbor is grass. Chunks are visited in map order.
func (w *World) RandomTick(rng *rand.Rand, perChunk int) int {
	changed := 0
	for _, c := range w.chunks {
		origin := c.Origin()
		for range perChunk {
			i := rng.IntN(Volume)
			if c.Blocks[i] != block.Dirt {
				continue
			}
			pos := origin.Add(LocalAt(i))
			if w.IsOpaque(pos.Up()) {
				continue
			}
			f := math.HorizontalFaces[rng.IntN(len(math.HorizontalFaces))]
			if w.GetBlock(pos.Neighbor(f)) == block.Grass {
				w.SetBlock(pos, block.Grass)
				changed++
			}
		}
	}
	return changed
}
