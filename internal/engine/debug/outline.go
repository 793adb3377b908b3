// Package debug builds line geometry for selection and chunk-border overlays.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// WireframeVertexCount is the number of vertices in a box wireframe (12 edges x 2).
const WireframeVertexCount = 24

// SelectionPadding lifts the selection outline off the block faces.
const SelectionPadding = 0.002

// Wireframe returns the 12 edges of the box [lo, hi] as line vertices, xyz each.
func Wireframe(lo, hi mgl32.Vec3) []float32 {
	x0, y0, z0 := lo.Elem()
	x1, y1, z1 := hi.Elem()
	return []float32{
		// bottom
		x0, y0, z0, x1, y0, z0,
		x1, y0, z0, x1, y0, z1,
		x1, y0, z1, x0, y0, z1,
		x0, y0, z1, x0, y0, z0,
		// top
		x0, y1, z0, x1, y1, z0,
		x1, y1, z0, x1, y1, z1,
		x1, y1, z1, x0, y1, z1,
		x0, y1, z1, x0, y1, z0,
		// sides
		x0, y0, z0, x0, y1, z0,
		x1, y0, z0, x1, y1, z0,
		x1, y0, z1, x1, y1, z1,
		x0, y0, z1, x0, y1, z1,
	}
}

// BlockOutline returns the wireframe around the block at pos, grown by padding
// on every side.
func BlockOutline(pos math.Vec3i, padding float32) []float32 {
	lo := mgl32.Vec3{float32(pos.X), float32(pos.Y), float32(pos.Z)}
	pad := mgl32.Vec3{padding, padding, padding}
	return Wireframe(lo.Sub(pad), lo.Add(mgl32.Vec3{1, 1, 1}).Add(pad))
}

// ChunkOutline returns the wireframe of chunk cp's bounds.
func ChunkOutline(cp math.Vec3i) []float32 {
	o := math.ChunkOrigin(cp)
	lo := mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
	return Wireframe(lo, lo.Add(mgl32.Vec3{world.Size, world.Size, world.Size}))
}
