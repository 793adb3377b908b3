package world

import (
	"math/rand/v2"
	"testing"

	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/pkg/math"
)

type recordingLight struct {
	calls []math.Vec3i
}

func (r *recordingLight) BlockChanged(pos math.Vec3i, old, new block.ID) {
	r.calls = append(r.calls, pos)
}

type recordingWater struct {
	placed, changed []math.Vec3i
}

func (r *recordingWater) WaterPlaced(pos math.Vec3i)     { r.placed = append(r.placed, pos) }
func (r *recordingWater) NeighborChanged(pos math.Vec3i) { r.changed = append(r.changed, pos) }

// newTestWorld returns a world with every chunk in [-r, r]^3 installed as air.
func newTestWorld(r int) *World {
	w := New(block.Default())
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				w.Install(NewChunk(math.Vec3i{X: x, Y: y, Z: z}))
			}
		}
	}
	return w
}

func drainDirty(w *World) {
	for {
		if _, ok := w.NextDirty(); !ok {
			return
		}
	}
}

func TestGetBlockMatchesChunkArray(t *testing.T) {
	w := newTestWorld(1)
	rng := rand.New(rand.NewPCG(1, 2))

	for range 500 {
		pos := math.Vec3i{X: rng.IntN(48) - 16, Y: rng.IntN(48) - 16, Z: rng.IntN(48) - 16}
		id := block.ID(rng.IntN(5))
		w.SetBlock(pos, id)

		c := w.Chunk(math.ChunkOf(pos))
		lp := math.LocalOf(pos)
		if got := c.Block(lp.X, lp.Y, lp.Z); got != id {
			t.Fatalf("chunk array at %v = %d, want %d", pos, got, id)
		}
		if got := w.GetBlock(pos); got != id {
			t.Fatalf("GetBlock(%v) = %d, want %d", pos, got, id)
		}
	}
}

func TestUnloadedDefaults(t *testing.T) {
	w := New(block.Default())
	pos := math.Vec3i{X: 100, Y: 5, Z: -3}

	if w.GetBlock(pos) != block.Air {
		t.Error("unloaded block should read as air")
	}
	if w.IsOpaque(pos) {
		t.Error("unloaded position should not be opaque")
	}
	if w.IsPositionLoaded(pos) {
		t.Error("position should not be loaded")
	}
	bl, sl := w.GetLight(pos)
	if bl != 0 || sl != 15 {
		t.Errorf("unloaded light = (%d, %d), want (0, 15)", bl, sl)
	}

	w.SetLight(pos, 3, 3)
	if w.Len() != 0 {
		t.Error("SetLight must not create chunks")
	}

	w.SetBlock(pos, block.Air)
	if w.Len() != 0 {
		t.Error("setting air in unloaded space must not create a chunk")
	}

	w.SetBlock(pos, block.Stone)
	if !w.IsPositionLoaded(pos) || w.GetBlock(pos) != block.Stone {
		t.Error("setting a block should create the chunk lazily")
	}
	if !w.Chunk(math.ChunkOf(pos)).Modified() {
		t.Error("lazily created chunk should be modified")
	}
}

func TestSetBlockSameIDIsNoOp(t *testing.T) {
	w := newTestWorld(0)
	light := &recordingLight{}
	water := &recordingWater{}
	w.SetLightListener(light)
	w.SetWaterListener(water)

	pos := math.Vec3i{X: 5, Y: 5, Z: 5}
	w.SetBlock(pos, block.Stone)
	drainDirty(w)
	w.Chunk(math.Vec3i{}).ClearModified()
	lightCalls, waterCalls := len(light.calls), len(water.changed)

	w.SetBlock(pos, block.Stone)

	if w.PendingRebuilds() != 0 {
		t.Errorf("no-op set queued %d rebuilds", w.PendingRebuilds())
	}
	if len(light.calls) != lightCalls || len(water.changed) != waterCalls {
		t.Error("no-op set notified listeners")
	}
	if w.Chunk(math.Vec3i{}).Modified() {
		t.Error("no-op set marked the chunk modified")
	}
}

func TestSetBlockMarksBoundaryNeighbors(t *testing.T) {
	tests := []struct {
		name string
		pos  math.Vec3i
		want []math.Vec3i
	}{
		{"interior", math.Vec3i{X: 5, Y: 5, Z: 5}, []math.Vec3i{{}}},
		{"min x", math.Vec3i{X: 0, Y: 5, Z: 5}, []math.Vec3i{{}, {X: -1}}},
		{"max y", math.Vec3i{X: 5, Y: 15, Z: 5}, []math.Vec3i{{}, {Y: 1}}},
		{"corner", math.Vec3i{X: 15, Y: 0, Z: 15}, []math.Vec3i{{}, {X: 1}, {Y: -1}, {Z: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(1)
			w.SetBlock(tt.pos, block.Stone)

			if w.PendingRebuilds() != len(tt.want) {
				t.Errorf("queued %d rebuilds, want %d", w.PendingRebuilds(), len(tt.want))
			}
			for _, cp := range tt.want {
				if !w.IsDirty(cp) {
					t.Errorf("chunk %v not queued", cp)
				}
			}
		})
	}
}

func TestListenersNotified(t *testing.T) {
	w := newTestWorld(0)
	light := &recordingLight{}
	water := &recordingWater{}
	w.SetLightListener(light)
	w.SetWaterListener(water)

	pos := math.Vec3i{X: 3, Y: 3, Z: 3}
	w.SetBlock(pos, block.Stone)
	w.SetBlock(pos, block.Water)
	w.SetBlock(pos, block.Air)

	if len(light.calls) != 3 {
		t.Errorf("light listener saw %d changes, want 3", len(light.calls))
	}
	if len(water.placed) != 1 {
		t.Errorf("water placed %d times, want 1", len(water.placed))
	}
	if len(water.changed) != 2 {
		t.Errorf("water neighbor changes = %d, want 2", len(water.changed))
	}
}

func TestWaterLevels(t *testing.T) {
	w := newTestWorld(0)
	pos := math.Vec3i{X: 1, Y: 1, Z: 1}

	if w.SetWaterLevel(pos, 3) {
		t.Error("SetWaterLevel on air should fail")
	}

	w.SetWater(pos, 4)
	if w.GetBlock(pos) != block.Water || w.WaterLevel(pos) != 4 {
		t.Errorf("got block %d level %d, want water at 4", w.GetBlock(pos), w.WaterLevel(pos))
	}

	w.SetWater(pos, 12)
	if w.WaterLevel(pos) != MaxWaterLevel {
		t.Errorf("level = %d, want clamp to %d", w.WaterLevel(pos), MaxWaterLevel)
	}

	w.SetBlock(pos, block.Stone)
	if w.WaterLevel(pos) != 0 || w.Chunk(math.Vec3i{}).WaterEntryCount() != 0 {
		t.Error("replacing water must drop its level")
	}

	w.SetBlock(pos, block.Water)
	if w.WaterLevel(pos) != 0 {
		t.Error("placed water should be a source")
	}
}

func TestInstallDropsStrayWater(t *testing.T) {
	w := New(block.Default())
	c := NewChunk(math.Vec3i{})
	c.Blocks[Index(1, 1, 1)] = block.Water
	c.SetWaterLevel(Index(1, 1, 1), 2)
	c.SetWaterLevel(Index(2, 2, 2), 5) // stone/air, not water

	w.Install(c)
	if c.WaterEntryCount() != 1 {
		t.Errorf("water entries = %d, want 1", c.WaterEntryCount())
	}
	if w.WaterLevel(math.Vec3i{X: 1, Y: 1, Z: 1}) != 2 {
		t.Error("valid water level lost on install")
	}
}

func TestLightRoundTrip(t *testing.T) {
	w := newTestWorld(0)
	pos := math.Vec3i{X: 7, Y: 8, Z: 9}

	w.SetLight(pos, 12, 5)
	bl, sl := w.GetLight(pos)
	if bl != 12 || sl != 5 {
		t.Errorf("GetLight = (%d, %d), want (12, 5)", bl, sl)
	}

	w.SetLight(pos, 40, 200)
	bl, sl = w.GetLight(pos)
	if bl != 15 || sl != 15 {
		t.Errorf("light should saturate at 15, got (%d, %d)", bl, sl)
	}
}

func TestRebuildQueueFIFO(t *testing.T) {
	w := newTestWorld(1)
	order := []math.Vec3i{{X: 1}, {Y: -1}, {}, {Z: 1}}
	for _, cp := range order {
		w.MarkDirty(cp)
	}
	w.MarkDirty(math.Vec3i{X: 1})          // duplicate
	w.MarkDirty(math.Vec3i{X: 5, Y: 5, Z: 5}) // not loaded

	w.CancelDirty(math.Vec3i{})

	want := []math.Vec3i{{X: 1}, {Y: -1}, {Z: 1}}
	for _, exp := range want {
		got, ok := w.NextDirty()
		if !ok || got != exp {
			t.Fatalf("NextDirty() = %v, %v; want %v", got, ok, exp)
		}
	}
	if _, ok := w.NextDirty(); ok {
		t.Error("expected empty queue")
	}
}

func TestRemovePurgesRebuild(t *testing.T) {
	w := newTestWorld(0)
	w.MarkDirty(math.Vec3i{})
	w.Remove(math.Vec3i{})

	if w.PendingRebuilds() != 0 {
		t.Error("removed chunk still queued")
	}
	if w.IsChunkLoaded(math.Vec3i{}) {
		t.Error("chunk still loaded")
	}
}

func TestCombineMeshesOffsetsIndices(t *testing.T) {
	c := NewChunk(math.Vec3i{})
	s := c.Subchunks[0]
	s.Solid = MeshBuffers{
		Positions: make([]float32, 12),
		TexCoords: make([]float32, 12),
		Shading:   make([]float32, 4),
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
	c.CombineMeshes()
	c.Solid.Append(&s.Solid)

	if c.Solid.VertexCount() != 8 {
		t.Errorf("vertex count = %d, want 8", c.Solid.VertexCount())
	}
	if c.Solid.Indices[6] != 4 || c.Solid.Indices[11] != 7 {
		t.Errorf("second quad indices not offset: %v", c.Solid.Indices)
	}
	if !c.NeedsDraw() {
		t.Error("chunk with triangles should need a draw")
	}
	if c.Water.IndexCount() != 0 {
		t.Error("water pass should be empty")
	}
}

func TestRandomTickSpreadsGrass(t *testing.T) {
	w := newTestWorld(0)
	// A dirt floor at y=4 with grass all around, so any sampled neighbor is grass.
	for x := 0; x < Size; x++ {
		for z := 0; z < Size; z++ {
			id := block.Grass
			if (x+z)%2 == 0 {
				id = block.Dirt
			}
			w.SetBlock(math.Vec3i{X: x, Y: 4, Z: z}, id)
		}
	}

	rng := rand.New(rand.NewPCG(7, 7))
	total := 0
	for range 200 {
		total += w.RandomTick(rng, 64)
	}
	if total == 0 {
		t.Error("expected some dirt to turn into grass")
	}

	// Covered dirt never converts.
	w2 := newTestWorld(0)
	w2.SetBlock(math.Vec3i{X: 5, Y: 4, Z: 5}, block.Dirt)
	w2.SetBlock(math.Vec3i{X: 5, Y: 5, Z: 5}, block.Stone)
	for _, f := range math.HorizontalFaces {
		w2.SetBlock(math.Vec3i{X: 5, Y: 4, Z: 5}.Neighbor(f), block.Grass)
	}
	for range 2000 {
		w2.RandomTick(rng, 64)
	}
	if w2.GetBlock(math.Vec3i{X: 5, Y: 4, Z: 5}) != block.Dirt {
		t.Error("dirt under stone turned to grass")
	}
}

func TestEditInUnloadedSpaceIsProvisional(t *testing.T) {
	w := New(block.Default())
	w.SetBlock(math.Vec3i{X: 40, Y: 1, Z: 1}, block.Stone)
	cp := math.Vec3i{X: 2}
	c := w.Chunk(cp)
	if c == nil || !c.Provisional() {
		t.Fatal("lazily created chunk should be provisional")
	}

	base := NewChunk(cp)
	base.Blocks[Index(0, 0, 0)] = block.Dirt
	base.Blocks[Index(8, 1, 1)] = block.Glass
	c.Overlay(base)
	if base.Block(8, 1, 1) != block.Stone || base.Block(0, 0, 0) != block.Dirt {
		t.Errorf("overlay = (%d, %d), want edit over stored block and the rest kept",
			base.Block(8, 1, 1), base.Block(0, 0, 0))
	}
	if !base.Modified() {
		t.Error("overlay should mark the base modified")
	}

	w.Install(base)
	if w.Chunk(cp).Provisional() {
		t.Error("installed chunk should not be provisional")
	}
}

func TestChunksWhere(t *testing.T) {
	w := newTestWorld(1)
	got := w.ChunksWhere(func(c *Chunk) bool { return c.Pos.Y == 1 && c.Pos.Z == 0 })
	want := []math.Vec3i{{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.Pos != want[i] {
			t.Errorf("chunk %d = %v, want %v", i, c.Pos, want[i])
		}
	}
	if none := w.ChunksWhere(func(*Chunk) bool { return false }); len(none) != 0 {
		t.Errorf("expected no chunks, got %d", len(none))
	}
}
