package world

import "github.com/kivi-man/voxelworld/pkg/math"

// MaxLight is the brightest value either light channel can hold.
const MaxLight = 15

// LightMap packs both light channels of a subchunk, one byte per voxel:
// sky light in the high nibble, block light in the low nibble.
type LightMap [subVolume]uint8

// Block returns the block light at index i.
func (m *LightMap) Block(i int) uint8 {
	return m[i] & 0x0F
}

// Sky returns the sky light at index i.
func (m *LightMap) Sky(i int) uint8 {
	return m[i] >> 4
}

// Get returns both channels at index i.
func (m *LightMap) Get(i int) (blockLight, skyLight uint8) {
	v := m[i]
	return v & 0x0F, v >> 4
}

// Set stores both channels at index i. Values above 15 saturate.
func (m *LightMap) Set(i int, blockLight, skyLight uint8) {
	m[i] = min(skyLight, MaxLight)<<4 | min(blockLight, MaxLight)
}

// SetBlock stores the block channel at index i.
func (m *LightMap) SetBlock(i int, v uint8) {
	m[i] = m[i]&0xF0 | min(v, MaxLight)
}

// SetSky stores the sky channel at index i.
func (m *LightMap) SetSky(i int, v uint8) {
	m[i] = min(v, MaxLight)<<4 | m[i]&0x0F
}

// Subchunk is the unit of light storage and mesh regeneration.
type Subchunk struct {
	// Origin is the subchunk's offset inside its chunk.
	Origin math.Vec3i
	Light  LightMap

	Solid MeshBuffers
	Water MeshBuffers
}

func newSubchunk(origin math.Vec3i) *Subchunk {
	return &Subchunk{Origin: origin}
}

// LightIndex converts a chunk-local position to an index into Light.
func (s *Subchunk) LightIndex(x, y, z int) int {
	x -= s.Origin.X
	y -= s.Origin.Y
	z -= s.Origin.Z
	return (x*SubSize+y)*SubSize + z
}

// Contains reports whether a chunk-local position falls inside the subchunk.
func (s *Subchunk) Contains(x, y, z int) bool {
	return x >= s.Origin.X && x < s.Origin.X+SubSize &&
		y >= s.Origin.Y && y < s.Origin.Y+SubSize &&
		z >= s.Origin.Z && z < s.Origin.Z+SubSize
}
