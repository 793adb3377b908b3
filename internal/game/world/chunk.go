package world

import (
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// Chunk dimensions.
const (
	Size   = 16
	Volume = Size * Size * Size

	// SubSize is the edge length of a subchunk. One subchunk spans the whole chunk.
	SubSize      = 16
	subPerAxis   = Size / SubSize
	subVolume    = SubSize * SubSize * SubSize
	subchunksPer = subPerAxis * subPerAxis * subPerAxis
)

// MaxWaterLevel is the thinnest flowing water stage. Level 0 is a source block.
const MaxWaterLevel = 7

// Index returns the array index of a chunk-local position.
// Order is x-major, then y, then z, matching the on-disk run order.
func Index(x, y, z int) int {
	return x<<8 | y<<4 | z
}

// IndexOf is Index for a local position vector.
func IndexOf(lp math.Vec3i) int {
	return Index(lp.X, lp.Y, lp.Z)
}

// LocalAt is the inverse of Index.
func LocalAt(i int) math.Vec3i {
	return math.Vec3i{X: i >> 8 & 15, Y: i >> 4 & 15, Z: i & 15}
}

// Blocks is the dense block array of one chunk.
type Blocks [Volume]block.ID

// Chunk is a 16x16x16 cube of voxels plus its derived light and mesh data.
type Chunk struct {
	Pos    math.Vec3i
	Blocks Blocks

	Subchunks []*Subchunk

	// Combined render buffers, rebuilt from the subchunks.
	Solid MeshBuffers
	Water MeshBuffers

	water    map[uint16]uint8
	modified bool
	// provisional is set on chunks created by an edit in unloaded space.
	// They hold only the edits and must be merged before use or save.
	provisional bool
}

// NewChunk creates an all-air chunk at chunk coordinate pos.
func NewChunk(pos math.Vec3i) *Chunk {
	c := &Chunk{
		Pos:       pos,
		Subchunks: make([]*Subchunk, 0, subchunksPer),
		water:     make(map[uint16]uint8),
	}
	for sx := 0; sx < subPerAxis; sx++ {
		for sy := 0; sy < subPerAxis; sy++ {
			for sz := 0; sz < subPerAxis; sz++ {
				c.Subchunks = append(c.Subchunks, newSubchunk(math.Vec3i{X: sx * SubSize, Y: sy * SubSize, Z: sz * SubSize}))
			}
		}
	}
	return c
}

// NewChunkFromBlocks creates a chunk holding a copy of blocks.
func NewChunkFromBlocks(pos math.Vec3i, blocks *Blocks) *Chunk {
	c := NewChunk(pos)
	c.Blocks = *blocks
	return c
}

// Origin returns the world position of the chunk's (0, 0, 0) voxel.
func (c *Chunk) Origin() math.Vec3i {
	return math.ChunkOrigin(c.Pos)
}

// Block returns the block at a local position.
func (c *Chunk) Block(x, y, z int) block.ID {
	return c.Blocks[Index(x, y, z)]
}

// SubchunkAt returns the subchunk containing a local position.
func (c *Chunk) SubchunkAt(x, y, z int) *Subchunk {
	return c.Subchunks[((x/SubSize)*subPerAxis+y/SubSize)*subPerAxis+z/SubSize]
}

// Modified reports whether the chunk has unsaved edits.
func (c *Chunk) Modified() bool {
	return c.modified
}

// SetModified flags the chunk as needing a save.
func (c *Chunk) SetModified() {
	c.modified = true
}

// ClearModified marks the chunk as saved.
func (c *Chunk) ClearModified() {
	c.modified = false
}

// Provisional reports whether the chunk was created by an edit in unloaded
// space and still lacks its stored or generated contents.
func (c *Chunk) Provisional() bool {
	return c.provisional
}

// Overlay writes the non-air voxels of c, with their water levels, over base
// and marks base modified.
func (c *Chunk) Overlay(base *Chunk) {
	for i, id := range c.Blocks {
		if id == block.Air {
			continue
		}
		base.Blocks[i] = id
		if level, ok := c.water[uint16(i)]; ok {
			base.water[uint16(i)] = level
		} else {
			delete(base.water, uint16(i))
		}
	}
	base.modified = true
}

// WaterLevel returns the stored level of the water block at local index i.
func (c *Chunk) WaterLevel(i int) uint8 {
	return c.water[uint16(i)]
}

// SetWaterLevel stores a level for the water block at local index i.
// Level 0 is the default and is not stored. Used when decoding saved chunks.
func (c *Chunk) SetWaterLevel(i int, level uint8) {
	if level == 0 {
		delete(c.water, uint16(i))
		return
	}
	c.water[uint16(i)] = min(level, MaxWaterLevel)
}

// EachWater calls fn with the index and level of every water voxel, in index order.
func (c *Chunk) EachWater(isWater func(block.ID) bool, fn func(i int, level uint8)) {
	for i, id := range c.Blocks {
		if isWater(id) {
			fn(i, c.water[uint16(i)])
		}
	}
}

// WaterEntryCount returns the number of stored non-zero water levels.
func (c *Chunk) WaterEntryCount() int {
	return len(c.water)
}

// dropStrayWater removes levels recorded on voxels that no longer hold water.
func (c *Chunk) dropStrayWater(isWater func(block.ID) bool) {
	for i := range c.water {
		if !isWater(c.Blocks[i]) {
			delete(c.water, i)
		}
	}
}

// CombineMeshes concatenates the subchunk buffers into the chunk buffers.
func (c *Chunk) CombineMeshes() {
	c.Solid = MeshBuffers{}
	c.Water = MeshBuffers{}
	for _, s := range c.Subchunks {
		c.Solid.Append(&s.Solid)
		c.Water.Append(&s.Water)
	}
}

// NeedsDraw reports whether either render pass has any triangles.
func (c *Chunk) NeedsDraw() bool {
	return c.Solid.IndexCount() > 0 || c.Water.IndexCount() > 0
}

// MeshBuffers holds one render pass worth of geometry.
type MeshBuffers struct {
	Positions []float32 // x, y, z per vertex
	TexCoords []float32 // u, v, texture layer per vertex
	Shading   []float32 // one brightness per vertex
	Indices   []uint32
}

// VertexCount returns the number of vertices.
func (m *MeshBuffers) VertexCount() int {
	return len(m.Positions) / 3
}

// IndexCount returns the number of triangle indices.
func (m *MeshBuffers) IndexCount() int {
	return len(m.Indices)
}

// Append adds o's geometry after m's, offsetting o's indices.
func (m *MeshBuffers) Append(o *MeshBuffers) {
	base := uint32(m.VertexCount())
	m.Positions = append(m.Positions, o.Positions...)
	m.TexCoords = append(m.TexCoords, o.TexCoords...)
	m.Shading = append(m.Shading, o.Shading...)
	for _, idx := range o.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

// SolidIndexCount returns the index count of the combined solid pass.
func (c *Chunk) SolidIndexCount() int {
	return c.Solid.IndexCount()
}

// WaterIndexCount returns the index count of the combined water pass.
func (c *Chunk) WaterIndexCount() int {
	return c.Water.IndexCount()
}
