package camera

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/kivi-man/voxelworld/internal/game/world"
)

// nearRadius is the horizontal distance within which chunks are always drawn.
const nearRadius = world.Size

// Frustum holds the six clip planes of a view volume, each pointing inwards.
type Frustum struct {
	eye    mgl64.Vec3
	planes [6]mgl32.Vec4
}

// ContainsBox reports whether any part of the box may be inside the frustum.
func (f Frustum) ContainsBox(lo, hi mgl32.Vec3) bool {
	for _, p := range f.planes {
		// The corner furthest along the plane normal.
		v := lo
		if p[0] > 0 {
			v[0] = hi[0]
		}
		if p[1] > 0 {
			v[1] = hi[1]
		}
		if p[2] > 0 {
			v[2] = hi[2]
		}
		if p[0]*v[0]+p[1]*v[1]+p[2]*v[2]+p[3] < 0 {
			return false
		}
	}
	return true
}

// ChunkVisible reports whether c should be drawn. Chunks whose
// center is horizontally close to the eye are always drawn.
func (f Frustum) ChunkVisible(c *world.Chunk) bool {
	o := c.Origin()
	lo := mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
	hi := lo.Add(mgl32.Vec3{world.Size, world.Size, world.Size})

	dx := float64(o.X) + world.Size/2 - f.eye.X()
	dz := float64(o.Z) + world.Size/2 - f.eye.Z()
	if dx*dx+dz*dz < nearRadius*nearRadius {
		return true
	}
	return f.ContainsBox(lo, hi)
}

// VisibleChunks returns the loaded chunks with geometry that the frustum can
// see, in coordinate order.
func VisibleChunks(w *world.World, f Frustum) []*world.Chunk {
	return w.ChunksWhere(func(c *world.Chunk) bool {
		return c.NeedsDraw() && f.ChunkVisible(c)
	})
}
