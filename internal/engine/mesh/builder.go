// Package mesh turns chunk block data and light into render buffers.
package mesh

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/engine/model"
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/internal/logger"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// Builder regenerates subchunk geometry. It keeps no per-chunk state.
type Builder struct {
	w   *world.World
	reg *block.Registry
	log *zap.Logger
}

// New creates a builder reading from w.
func New(w *world.World) *Builder {
	return &Builder{
		w:   w,
		reg: w.Registry(),
		log: logger.Named("mesh"),
	}
}

// RebuildChunk regenerates every subchunk of the chunk at cp and recombines
// the chunk buffers. It returns false when the chunk is not loaded.
func (b *Builder) RebuildChunk(cp math.Vec3i) bool {
	c := b.w.Chunk(cp)
	if c == nil {
		return false
	}
	for _, s := range c.Subchunks {
		b.BuildSubchunk(c, s)
	}
	c.CombineMeshes()
	b.log.Debug("rebuilt chunk",
		zap.Stringer("chunk", cp),
		zap.Int("solid", c.SolidIndexCount()),
		zap.Int("water", c.WaterIndexCount()))
	return true
}

// BuildSubchunk replaces both buffers of s with fresh geometry.
func (b *Builder) BuildSubchunk(c *world.Chunk, s *world.Subchunk) {
	s.Solid = world.MeshBuffers{}
	s.Water = world.MeshBuffers{}
	origin := c.Origin()

	for lx := s.Origin.X; lx < s.Origin.X+world.SubSize; lx++ {
		for ly := s.Origin.Y; ly < s.Origin.Y+world.SubSize; ly++ {
			for lz := s.Origin.Z; lz < s.Origin.Z+world.SubSize; lz++ {
				id := c.Block(lx, ly, lz)
				if id == block.Air {
					continue
				}
				lp := math.Vec3i{X: lx, Y: ly, Z: lz}
				v := voxel{
					c: c, s: s, t: b.reg.Get(id),
					local: lp, pos: origin.Add(lp),
				}
				switch {
				case b.reg.IsWater(id):
					b.emitWater(&s.Water, &v)
				case v.t.Model.IsCube():
					b.emitCube(&s.Solid, &v)
				default:
					b.emitTemplate(&s.Solid, &v)
				}
			}
		}
	}
}

type voxel struct {
	c     *world.Chunk
	s     *world.Subchunk
	t     *block.Type
	local math.Vec3i
	pos   math.Vec3i
}

func (v *voxel) translation() mgl32.Mat4 {
	return mgl32.Translate3D(float32(v.pos.X)+0.5, float32(v.pos.Y)+0.5, float32(v.pos.Z)+0.5)
}

func inChunk(p math.Vec3i) bool {
	return p.X >= 0 && p.X < world.Size && p.Y >= 0 && p.Y < world.Size && p.Z >= 0 && p.Z < world.Size
}

// neighbor returns the block across face f, reading the dense array when it
// is inside the chunk.
func (b *Builder) neighbor(v *voxel, f math.Face) block.ID {
	if lp := v.local.Neighbor(f); inChunk(lp) {
		return v.c.Block(lp.X, lp.Y, lp.Z)
	}
	return b.w.GetBlock(v.pos.Neighbor(f))
}

// brightness returns max(block, sky)/15 at the voxel one step along f, or at
// the voxel itself when self is set.
func (b *Builder) brightness(v *voxel, f math.Face, self bool) float32 {
	lp, pos := v.local, v.pos
	if !self {
		lp, pos = lp.Neighbor(f), pos.Neighbor(f)
	}
	var bl, sl uint8
	if v.s.Contains(lp.X, lp.Y, lp.Z) {
		bl, sl = v.s.Light.Get(v.s.LightIndex(lp.X, lp.Y, lp.Z))
	} else {
		bl, sl = b.w.GetLight(pos)
	}
	return float32(max(bl, sl)) / world.MaxLight
}

func (b *Builder) visible(v *voxel, f math.Face) bool {
	n := b.neighbor(v, f)
	if n == block.Air {
		return true
	}
	if v.t.Glass && n == v.t.ID {
		return false
	}
	return !b.reg.IsOpaque(n)
}

func (b *Builder) emitCube(out *world.MeshBuffers, v *voxel) {
	m := v.translation()
	for _, f := range model.Faces(v.t.Model) {
		if !b.visible(v, f.Dir) {
			continue
		}
		appendQuad(out, m, &f, f.Verts, float32(v.t.Textures[f.Dir]), f.Shade*b.brightness(v, f.Dir, false))
	}
}

// emitTemplate draws non-cube models. They never cull and take the voxel's own light.
func (b *Builder) emitTemplate(out *world.MeshBuffers, v *voxel) {
	m := v.translation()
	light := b.brightness(v, 0, true)
	for _, f := range model.Faces(v.t.Model) {
		appendQuad(out, m, &f, f.Verts, float32(v.t.Textures[f.Dir]), f.Shade*light)
	}
}

// emitWater draws a liquid cube with its top lowered by the flow level.
func (b *Builder) emitWater(out *world.MeshBuffers, v *voxel) {
	m := v.translation()
	own := ColumnHeight(b.w.WaterLevel(v.pos))

	var corners [4]float32
	for i, d := range cornerDirs {
		sum, n := own, float32(1)
		for _, off := range [3]math.Vec3i{{X: d[0]}, {Z: d[1]}, {X: d[0], Z: d[1]}} {
			p := v.pos.Add(off)
			if b.reg.IsWater(b.w.GetBlock(p)) {
				sum += ColumnHeight(b.w.WaterLevel(p))
				n++
			}
		}
		corners[i] = sum / n
	}

	for _, f := range model.Faces(v.t.Model) {
		if !b.visible(v, f.Dir) {
			continue
		}
		verts := f.Verts
		for i := range verts {
			h := own
			if f.Dir == math.Top {
				h = corners[i]
			}
			verts[i][1] = (verts[i][1]+0.5)*h - 0.5
		}
		appendQuad(out, m, &f, verts, float32(v.t.Textures[f.Dir]), f.Shade*b.brightness(v, f.Dir, false))
	}
}

// cornerDirs are the (x, z) signs of the top face corners in vertex order.
var cornerDirs = [4][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}

// ColumnHeight is the visual height of a water voxel at the given level.
func ColumnHeight(level uint8) float32 {
	if level == 0 {
		return 1
	}
	h := 1 - gomath.Pow(float64(level)/5, 1.5)
	return float32(max(0.1, h))
}

func appendQuad(out *world.MeshBuffers, m mgl32.Mat4, f *model.Face, verts [4]mgl32.Vec3, layer, shade float32) {
	base := uint32(out.VertexCount())
	for i, v := range verts {
		p := m.Mul4x1(v.Vec4(1)).Vec3()
		out.Positions = append(out.Positions, p[0], p[1], p[2])
		out.TexCoords = append(out.TexCoords, f.UV[i][0], f.UV[i][1], layer)
		out.Shading = append(out.Shading, shade)
	}
	out.Indices = append(out.Indices, base, base+1, base+2, base, base+2, base+3)
}
