// Package world holds the voxel grid: chunks keyed by chunk coordinate,
// block and light access by world position, and the mesh rebuild queue.
package world

import (
	"slices"

	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/fifo"
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/logger"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// LightListener is told about every block change so it can schedule relighting.
type LightListener interface {
	BlockChanged(pos math.Vec3i, old, new block.ID)
}

// WaterListener is told when water appears or when a voxel next to water changes.
type WaterListener interface {
	WaterPlaced(pos math.Vec3i)
	NeighborChanged(pos math.Vec3i)
}

// World is the authoritative block store. It is not safe for concurrent use.
type World struct {
	reg    *block.Registry
	chunks map[math.Vec3i]*Chunk
	dirty  *fifo.Set[math.Vec3i]

	light LightListener
	water WaterListener

	log *zap.Logger
}

// New creates an empty world using reg for block properties.
func New(reg *block.Registry) *World {
	return &World{
		reg:    reg,
		chunks: make(map[math.Vec3i]*Chunk),
		dirty:  fifo.NewSet[math.Vec3i](),
		log:    logger.Named("world"),
	}
}

// Registry returns the block table the world was built with.
func (w *World) Registry() *block.Registry {
	return w.reg
}

// SetLightListener installs the relighting hook.
func (w *World) SetLightListener(l LightListener) {
	w.light = l
}

// SetWaterListener installs the water flow hook.
func (w *World) SetWaterListener(l WaterListener) {
	w.water = l
}

// Chunk returns the loaded chunk at chunk coordinate cp, or nil.
func (w *World) Chunk(cp math.Vec3i) *Chunk {
	return w.chunks[cp]
}

// Install adds a chunk to the world, replacing any chunk at the same coordinate.
// Water levels recorded on non-water voxels are discarded.
func (w *World) Install(c *Chunk) {
	c.dropStrayWater(w.reg.IsWater)
	c.provisional = false
	w.chunks[c.Pos] = c
}

// Remove drops the chunk at cp along with any pending rebuild for it.
func (w *World) Remove(cp math.Vec3i) {
	w.dirty.Remove(cp)
	delete(w.chunks, cp)
}

// Len returns the number of loaded chunks.
func (w *World) Len() int {
	return len(w.chunks)
}

// Chunks returns every loaded chunk ordered by coordinate.
func (w *World) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		out = append(out, c)
	}
	sortChunks(out)
	return out
}

func sortChunks(chunks []*Chunk) {
	slices.SortFunc(chunks, func(a, b *Chunk) int {
		switch {
		case a.Pos.Less(b.Pos):
			return -1
		case b.Pos.Less(a.Pos):
			return 1
		}
		return 0
	})
}

// ChunksWhere returns the loaded chunks matching keep, ordered by coordinate.
// Only the matches are sorted.
func (w *World) ChunksWhere(keep func(*Chunk) bool) []*Chunk {
	var out []*Chunk
	for _, c := range w.chunks {
		if keep(c) {
			out = append(out, c)
		}
	}
	sortChunks(out)
	return out
}

// IsChunkLoaded reports whether chunk coordinate cp is loaded.
func (w *World) IsChunkLoaded(cp math.Vec3i) bool {
	_, ok := w.chunks[cp]
	return ok
}

// IsPositionLoaded reports whether the chunk holding world position pos is loaded.
func (w *World) IsPositionLoaded(pos math.Vec3i) bool {
	_, ok := w.chunks[math.ChunkOf(pos)]
	return ok
}

// lookup resolves a world position to its chunk and local index.
func (w *World) lookup(pos math.Vec3i) (*Chunk, int) {
	c := w.chunks[math.ChunkOf(pos)]
	if c == nil {
		return nil, 0
	}
	return c, IndexOf(math.LocalOf(pos))
}

// GetBlock returns the block at pos, or air if its chunk is not loaded.
func (w *World) GetBlock(pos math.Vec3i) block.ID {
	c, i := w.lookup(pos)
	if c == nil {
		return block.Air
	}
	return c.Blocks[i]
}

// IsOpaque reports whether pos holds a light-blocking block.
// Unloaded positions and air are never opaque.
func (w *World) IsOpaque(pos math.Vec3i) bool {
	c, i := w.lookup(pos)
	if c == nil {
		return false
	}
	return w.reg.IsOpaque(c.Blocks[i])
}

// SetBlock is the single mutation entry point for the grid.
//
// It creates the chunk when placing a non-air block into unloaded space, marks
// the chunk and any chunk sharing the voxel's boundary for rebuild, and notifies
// the light and water listeners before returning. Setting the id already
// present does nothing.
func (w *World) SetBlock(pos math.Vec3i, id block.ID) {
	cp := math.ChunkOf(pos)
	c := w.chunks[cp]
	if c == nil {
		if id == block.Air {
			return
		}
		c = NewChunk(cp)
		c.provisional = true
		w.chunks[cp] = c
		w.log.Debug("created provisional chunk for edit", zap.Stringer("chunk", cp))
	}

	lp := math.LocalOf(pos)
	i := IndexOf(lp)
	old := c.Blocks[i]
	if old == id {
		return
	}

	c.Blocks[i] = id
	c.modified = true

	wasWater := w.reg.IsWater(old)
	isWater := w.reg.IsWater(id)
	if !isWater || !wasWater {
		// Fresh water starts as a source; non-water keeps no level.
		delete(c.water, uint16(i))
	}

	w.markDirtyAround(cp, lp)

	if w.light != nil {
		w.light.BlockChanged(pos, old, id)
	}
	if w.water != nil {
		if isWater {
			w.water.WaterPlaced(pos)
		} else {
			w.water.NeighborChanged(pos)
		}
	}
}

// GetLight returns the block and sky light at pos.
// Unloaded positions read as open sky: (0, 15).
func (w *World) GetLight(pos math.Vec3i) (blockLight, skyLight uint8) {
	c, _ := w.lookup(pos)
	if c == nil {
		return 0, MaxLight
	}
	lp := math.LocalOf(pos)
	s := c.SubchunkAt(lp.X, lp.Y, lp.Z)
	return s.Light.Get(s.LightIndex(lp.X, lp.Y, lp.Z))
}

// SetLight stores both light channels at pos. Unloaded positions are ignored.
func (w *World) SetLight(pos math.Vec3i, blockLight, skyLight uint8) {
	c, _ := w.lookup(pos)
	if c == nil {
		return
	}
	lp := math.LocalOf(pos)
	s := c.SubchunkAt(lp.X, lp.Y, lp.Z)
	s.Light.Set(s.LightIndex(lp.X, lp.Y, lp.Z), blockLight, skyLight)
}

// WaterLevel returns the flow level of the water at pos. Non-water and unloaded
// positions read as 0.
func (w *World) WaterLevel(pos math.Vec3i) uint8 {
	c, i := w.lookup(pos)
	if c == nil {
		return 0
	}
	return c.water[uint16(i)]
}

// SetWater places water at pos with the given level.
func (w *World) SetWater(pos math.Vec3i, level uint8) {
	if !w.reg.IsWater(w.GetBlock(pos)) {
		w.SetBlock(pos, block.Water)
	}
	w.SetWaterLevel(pos, level)
}

// SetWaterLevel changes the level of existing water at pos. It reports false when
// pos does not hold water.
func (w *World) SetWaterLevel(pos math.Vec3i, level uint8) bool {
	c, i := w.lookup(pos)
	if c == nil || !w.reg.IsWater(c.Blocks[i]) {
		return false
	}
	level = min(level, MaxWaterLevel)
	if c.water[uint16(i)] == level {
		return true
	}
	c.SetWaterLevel(i, level)
	c.modified = true
	w.markDirtyAround(c.Pos, math.LocalOf(pos))
	return true
}

// markDirtyAround queues cp for rebuild, plus each neighbor chunk whose
// faces touch the voxel at local position lp.
func (w *World) markDirtyAround(cp, lp math.Vec3i) {
	w.MarkDirty(cp)
	if lp.X == 0 {
		w.MarkDirty(cp.Neighbor(math.Left))
	} else if lp.X == Size-1 {
		w.MarkDirty(cp.Neighbor(math.Right))
	}
	if lp.Y == 0 {
		w.MarkDirty(cp.Neighbor(math.Bottom))
	} else if lp.Y == Size-1 {
		w.MarkDirty(cp.Neighbor(math.Top))
	}
	if lp.Z == 0 {
		w.MarkDirty(cp.Neighbor(math.Back))
	} else if lp.Z == Size-1 {
		w.MarkDirty(cp.Neighbor(math.Front))
	}
}

// MarkDirty queues the chunk at cp for a mesh rebuild. Unloaded chunks and
// chunks already queued are ignored.
func (w *World) MarkDirty(cp math.Vec3i) {
	if _, ok := w.chunks[cp]; !ok {
		return
	}
	w.dirty.Push(cp)
}

// NextDirty pops the oldest chunk waiting for a rebuild.
func (w *World) NextDirty() (math.Vec3i, bool) {
	for {
		cp, ok := w.dirty.Pop()
		if !ok {
			return cp, false
		}
		if _, loaded := w.chunks[cp]; loaded {
			return cp, true
		}
	}
}

// CancelDirty drops a pending rebuild for cp.
func (w *World) CancelDirty(cp math.Vec3i) {
	w.dirty.Remove(cp)
}

// IsDirty reports whether cp is waiting for a rebuild.
func (w *World) IsDirty(cp math.Vec3i) bool {
	return w.dirty.Contains(cp)
}

// PendingRebuilds returns the number of chunks waiting for a rebuild.
func (w *World) PendingRebuilds() int {
	return w.dirty.Len()
}
