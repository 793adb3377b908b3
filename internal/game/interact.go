package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/engine/camera"
	"github.com/kivi-man/voxelworld/internal/engine/debug"
	"github.com/kivi-man/voxelworld/internal/engine/picking"
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// eyeHeight is the camera height above the player's feet.
const eyeHeight = 1.6

// Camera returns a camera at the player's eyes.
func (g *Game) Camera() *camera.Camera {
	eye := g.player.Position.Add(mgl64.Vec3{0, eyeHeight, 0})
	return camera.New(eye, g.player.Yaw, g.player.Pitch)
}

// VisibleChunks returns the meshed chunks inside the player's view.
func (g *Game) VisibleChunks() []*world.Chunk {
	return camera.VisibleChunks(g.world, g.Camera().Frustum())
}

func (g *Game) viewRay() picking.Ray {
	cam := g.Camera()
	return picking.NewRay(cam.Position, cam.Forward())
}

// Target returns the block the player is looking at. A mob standing in
// front of the block hides it.
func (g *Game) Target() (picking.BlockHit, bool) {
	r := g.viewRay()
	hit, ok := picking.CastBlocks(g.world, r, picking.DefaultReach)
	if !ok {
		return hit, false
	}
	if mob, found := picking.CastMobs(r, g.mobs, hit.Distance); found && mob.Distance < hit.Distance {
		return picking.BlockHit{}, false
	}
	return hit, true
}

// TargetOutline returns the selection wireframe around the targeted block, or
// nil when nothing is targeted.
func (g *Game) TargetOutline() []float32 {
	hit, ok := g.Target()
	if !ok {
		return nil
	}
	return debug.BlockOutline(hit.Pos, debug.SelectionPadding)
}

// ChunkBorders returns the wireframes of every loaded chunk.
func (g *Game) ChunkBorders() []float32 {
	chunks := g.world.Chunks()
	lines := make([]float32, 0, len(chunks)*debug.WireframeVertexCount*3)
	for _, c := range chunks {
		lines = append(lines, debug.ChunkOutline(c.Pos)...)
	}
	return lines
}

// TargetMob returns the mob the player is looking at, if no block is closer.
func (g *Game) TargetMob() (picking.MobHit, bool) {
	r := g.viewRay()
	reach := picking.DefaultReach
	if hit, ok := picking.CastBlocks(g.world, r, reach); ok {
		reach = hit.Distance
	}
	return picking.CastMobs(r, g.mobs, reach)
}

// BreakTarget removes the targeted block.
func (g *Game) BreakTarget() bool {
	hit, ok := g.Target()
	if !ok {
		return false
	}
	g.world.SetBlock(hit.Pos, block.Air)
	g.playBlockSound(hit.ID, hit.Pos)
	g.log.Debug("block broken", zap.Stringer("pos", hit.Pos), zap.Uint8("id", uint8(hit.ID)))
	return true
}

// PlaceBlock puts id against the targeted face. It fails when that cell is
// not loaded or already holds a block other than air or liquid.
func (g *Game) PlaceBlock(id block.ID) bool {
	hit, ok := g.Target()
	if !ok || !g.world.IsPositionLoaded(hit.Previous) {
		return false
	}
	cur := g.world.GetBlock(hit.Previous)
	if cur != block.Air && !g.world.Registry().Get(cur).Liquid {
		return false
	}
	g.world.SetBlock(hit.Previous, id)
	g.playBlockSound(id, hit.Previous)
	g.log.Debug("block placed", zap.Stringer("pos", hit.Previous), zap.Uint8("id", uint8(id)))
	return true
}

// playBlockSound plays the dig sound of id at the center of the block at pos.
func (g *Game) playBlockSound(id block.ID, pos math.Vec3i) {
	center := mgl64.Vec3{float64(pos.X) + 0.5, float64(pos.Y) + 0.5, float64(pos.Z) + 0.5}
	g.audio.Play(g.world.Registry().Get(id).Sound.String(), center)
}
