// Package model provides the face templates blocks are drawn with.
//
// Every template is centered on the voxel, spanning -0.5..0.5 on each axis.
// Quads are wound counter-clockwise when seen from outside.
package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// Face is one textured quad of a template.
type Face struct {
	Dir   math.Face
	Verts [4]mgl32.Vec3
	UV    [4][2]float32
	Shade float32
}

// Base brightness per face direction, in math.Face order.
var cubeShade = [6]float32{0.6, 0.6, 1.0, 0.4, 0.8, 0.8}

// uvBasis maps a vertex to (u, v) for each face direction: u = basis[0]·p + 0.5.
var uvBasis = [6][2]mgl32.Vec3{
	math.Right:  {{0, 0, -1}, {0, 1, 0}},
	math.Left:   {{0, 0, 1}, {0, 1, 0}},
	math.Top:    {{0, 0, -1}, {-1, 0, 0}},
	math.Bottom: {{0, 0, -1}, {1, 0, 0}},
	math.Front:  {{1, 0, 0}, {0, 1, 0}},
	math.Back:   {{-1, 0, 0}, {0, 1, 0}},
}

var templates [256][]Face

func init() {
	full := Box(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5})
	slab := Box(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0, 0.5})

	templates[block.ModelCube] = full
	templates[block.ModelLiquid] = full
	templates[block.ModelPlant] = cross()
	templates[block.ModelTorch] = Box(mgl32.Vec3{-1.0 / 16, -0.5, -1.0 / 16}, mgl32.Vec3{1.0 / 16, 2.0 / 16, 1.0 / 16})
	templates[block.ModelSlab] = slab
	templates[block.ModelStairs] = append(append([]Face{}, slab...),
		Box(mgl32.Vec3{-0.5, 0, 0}, mgl32.Vec3{0.5, 0.5, 0.5})...)
	templates[block.ModelDoor] = Box(mgl32.Vec3{-0.5, -0.5, 5.0 / 16}, mgl32.Vec3{0.5, 0.5, 0.5})
	templates[block.ModelSign] = append(
		Box(mgl32.Vec3{-1.0 / 16, -0.5, -1.0 / 16}, mgl32.Vec3{1.0 / 16, 0.1, 1.0 / 16}),
		Box(mgl32.Vec3{-0.5, 0.1, -1.0 / 16}, mgl32.Vec3{0.5, 0.5, 1.0 / 16})...)
	templates[block.ModelLadder] = Box(mgl32.Vec3{-0.5, -0.5, 7.0 / 16}, mgl32.Vec3{0.5, 0.5, 0.5})
}

// Faces returns the template for a model kind. The slice is shared and must
// not be modified. ModelNone has no faces.
func Faces(kind block.Model) []Face {
	return templates[kind]
}

// Box returns the six faces of the axis-aligned box lo..hi, in math.Face order.
func Box(lo, hi mgl32.Vec3) []Face {
	lx, ly, lz := lo[0], lo[1], lo[2]
	hx, hy, hz := hi[0], hi[1], hi[2]

	verts := [6][4]mgl32.Vec3{
		math.Right:  {{hx, ly, hz}, {hx, ly, lz}, {hx, hy, lz}, {hx, hy, hz}},
		math.Left:   {{lx, ly, lz}, {lx, ly, hz}, {lx, hy, hz}, {lx, hy, lz}},
		math.Top:    {{hx, hy, hz}, {hx, hy, lz}, {lx, hy, lz}, {lx, hy, hz}},
		math.Bottom: {{lx, ly, hz}, {lx, ly, lz}, {hx, ly, lz}, {hx, ly, hz}},
		math.Front:  {{lx, ly, hz}, {hx, ly, hz}, {hx, hy, hz}, {lx, hy, hz}},
		math.Back:   {{hx, ly, lz}, {lx, ly, lz}, {lx, hy, lz}, {hx, hy, lz}},
	}

	faces := make([]Face, 0, 6)
	for _, dir := range math.Faces {
		f := Face{Dir: dir, Verts: verts[dir], Shade: cubeShade[dir]}
		for i, v := range f.Verts {
			f.UV[i] = [2]float32{uvBasis[dir][0].Dot(v) + 0.5, uvBasis[dir][1].Dot(v) + 0.5}
		}
		faces = append(faces, f)
	}
	return faces
}

// cross builds the two diagonal quads of a plant, each with a back side.
func cross() []Face {
	const lo, hi = -0.5, 0.5
	quads := [][4]mgl32.Vec3{
		{{lo, lo, lo}, {hi, lo, hi}, {hi, hi, hi}, {lo, hi, lo}},
		{{hi, lo, hi}, {lo, lo, lo}, {lo, hi, lo}, {hi, hi, hi}},
		{{lo, lo, hi}, {hi, lo, lo}, {hi, hi, lo}, {lo, hi, hi}},
		{{hi, lo, lo}, {lo, lo, hi}, {lo, hi, hi}, {hi, hi, lo}},
	}
	faces := make([]Face, 0, len(quads))
	for _, q := range quads {
		faces = append(faces, Face{
			Dir:   math.Front,
			Verts: q,
			UV:    [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			Shade: cubeShade[math.Front],
		})
	}
	return faces
}

// Normal returns the unnormalized outward normal of the face's first triangle.
func (f *Face) Normal() mgl32.Vec3 {
	return f.Verts[1].Sub(f.Verts[0]).Cross(f.Verts[2].Sub(f.Verts[0]))
}
