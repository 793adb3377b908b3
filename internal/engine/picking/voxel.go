package picking

import (
	gomath "math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/pkg/formats"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// DefaultReach is how far the player can target blocks and mobs.
const DefaultReach = 3.0

// Mob collision box, centered on the mob's feet position.
const (
	mobHalfWidth = 0.45
	mobHeight    = 0.9
)

// BlockHit is the first targetable block along a ray.
type BlockHit struct {
	Pos math.Vec3i
	ID  block.ID
	// Face is the face of Pos the ray entered through.
	Face math.Face
	// Previous is the empty cell in front of Face, where a placed block goes.
	Previous math.Vec3i
	Distance float64
}

// axisFaces maps an axis and step sign to the face the ray enters through.
var axisFaces = [3][2]math.Face{
	{math.Left, math.Right},
	{math.Bottom, math.Top},
	{math.Back, math.Front},
}

// CastBlocks walks the voxels along r and returns the first one that is not
// air or liquid within maxDist. The voxel holding the origin is skipped.
func CastBlocks(w *world.World, r Ray, maxDist float64) (BlockHit, bool) {
	reg := w.Registry()
	start := math.Floor(r.Origin.X(), r.Origin.Y(), r.Origin.Z())
	cell := [3]int{start.X, start.Y, start.Z}

	var step [3]int
	var tMax, tDelta [3]float64
	for i := range 3 {
		d := r.Direction[i]
		switch {
		case d > 0:
			step[i] = 1
			tMax[i] = (float64(cell[i]+1) - r.Origin[i]) / d
			tDelta[i] = 1 / d
		case d < 0:
			step[i] = -1
			tMax[i] = (float64(cell[i]) - r.Origin[i]) / d
			tDelta[i] = -1 / d
		default:
			tMax[i] = gomath.Inf(1)
			tDelta[i] = gomath.Inf(1)
		}
	}

	for {
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		dist := tMax[axis]
		if dist > maxDist {
			return BlockHit{}, false
		}

		prev := math.Vec3i{X: cell[0], Y: cell[1], Z: cell[2]}
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]

		pos := math.Vec3i{X: cell[0], Y: cell[1], Z: cell[2]}
		id := w.GetBlock(pos)
		if id == block.Air || reg.Get(id).Liquid {
			continue
		}

		entered := axisFaces[axis][0]
		if step[axis] < 0 {
			entered = axisFaces[axis][1]
		}
		return BlockHit{Pos: pos, ID: id, Face: entered, Previous: prev, Distance: dist}, true
	}
}

// MobHit identifies the mob a ray hit.
type MobHit struct {
	Chunk    formats.ChunkKey
	Index    int
	Distance float64
}

// MobBox returns the collision box of a mob standing at pos.
func MobBox(pos [3]float64) AABB {
	return NewAABB(
		mgl64.Vec3{pos[0] - mobHalfWidth, pos[1], pos[2] - mobHalfWidth},
		mgl64.Vec3{pos[0] + mobHalfWidth, pos[1] + mobHeight, pos[2] + mobHalfWidth},
	)
}

// CastMobs returns the nearest mob whose box r hits within maxDist.
func CastMobs(r Ray, mobs formats.MobRegistry, maxDist float64) (MobHit, bool) {
	keys := make([]formats.ChunkKey, 0, len(mobs))
	for k := range mobs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	best := MobHit{Distance: gomath.Inf(1)}
	found := false
	for _, k := range keys {
		for i, m := range mobs[k] {
			t, ok := r.IntersectAABB(MobBox(m.Position))
			if ok && t <= maxDist && t < best.Distance {
				best = MobHit{Chunk: k, Index: i, Distance: t}
				found = true
			}
		}
	}
	return best, found
}
