package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/kivi-man/voxelworld/internal/engine/lighting"
	"github.com/kivi-man/voxelworld/internal/engine/mesh"
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/internal/save"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// memSource hands out air chunks and keeps saved chunks in memory.
type memSource struct {
	saved   map[math.Vec3i]world.Blocks
	loads   []math.Vec3i
	failing bool
}

func newMemSource() *memSource {
	return &memSource{saved: make(map[math.Vec3i]world.Blocks)}
}

func (s *memSource) LoadChunk(cp math.Vec3i) (*world.Chunk, save.Source) {
	s.loads = append(s.loads, cp)
	if b, ok := s.saved[cp]; ok {
		return world.NewChunkFromBlocks(cp, &b), save.Loaded
	}
	return world.NewChunk(cp), save.Generated
}

func (s *memSource) SaveChunk(c *world.Chunk) error {
	if s.failing {
		return errors.New("disk full")
	}
	s.saved[c.Pos] = c.Blocks
	c.ClearModified()
	return nil
}

func newManager(opts Options) (*Manager, *world.World, *memSource) {
	w := world.New(block.Default())
	src := newMemSource()
	m := New(w, src, lighting.New(w, lighting.DefaultOptions()), mesh.New(w), opts)
	return m, w, src
}

func smallOptions() Options {
	return Options{
		RenderDistance: 1,
		VerticalBelow:  1,
		VerticalAbove:  1,
		LoadsPerTick:   1,
		UnloadsPerTick: 2,
		MeshBudget:     time.Second,
		LightBudget:    100000,
	}
}

// chunkCenter returns a player position in the middle of chunk cp.
func chunkCenter(cp math.Vec3i) mgl64.Vec3 {
	o := math.ChunkOrigin(cp)
	return mgl64.Vec3{float64(o.X) + 8, float64(o.Y) + 8, float64(o.Z) + 8}
}

func TestTargetSet(t *testing.T) {
	m, _, _ := newManager(smallOptions())
	m.Update(chunkCenter(math.Vec3i{X: 2, Y: 4, Z: -1}))

	if m.TargetSize() != 3*3*3 {
		t.Errorf("target size = %d, want 27", m.TargetSize())
	}
	tests := []struct {
		cp   math.Vec3i
		want bool
	}{
		{math.Vec3i{X: 2, Y: 4, Z: -1}, true},
		{math.Vec3i{X: 3, Y: 5, Z: 0}, true},
		{math.Vec3i{X: 1, Y: 3, Z: -2}, true},
		{math.Vec3i{X: 4, Y: 4, Z: -1}, false},
		{math.Vec3i{X: 2, Y: 6, Z: -1}, false},
	}
	for _, tc := range tests {
		if got := m.InTarget(tc.cp); got != tc.want {
			t.Errorf("InTarget(%v) = %v, want %v", tc.cp, got, tc.want)
		}
	}
}

func TestLoadOrder(t *testing.T) {
	m, _, src := newManager(smallOptions())
	center := math.Vec3i{Y: 4}

	for range 5 {
		m.Update(chunkCenter(center))
	}

	want := []math.Vec3i{
		{Y: 5}, {Y: 4}, {Y: 3},
		{X: -1, Y: 5}, {X: 0, Y: 5, Z: -1},
	}
	if len(src.loads) != len(want) {
		t.Fatalf("loaded %d chunks, want %d", len(src.loads), len(want))
	}
	for i, cp := range want {
		if src.loads[i] != cp {
			t.Errorf("load %d = %v, want %v", i, src.loads[i], cp)
		}
	}
}

func TestLoadsRespectBudget(t *testing.T) {
	opts := smallOptions()
	opts.LoadsPerTick = 4
	m, w, _ := newManager(opts)

	st := m.Update(chunkCenter(math.Vec3i{}))
	if st.Loaded != 4 || st.Generated != 4 || w.Len() != 4 {
		t.Fatalf("first tick: %+v, world has %d chunks", st, w.Len())
	}

	for range 10 {
		st = m.Update(chunkCenter(math.Vec3i{}))
	}
	if w.Len() != 27 || st.Loaded != 0 {
		t.Errorf("after settling: %d chunks, last tick loaded %d", w.Len(), st.Loaded)
	}
	if st.Chunks != 27 {
		t.Errorf("stats chunk count = %d", st.Chunks)
	}
}

func TestLoadedChunksGetMeshed(t *testing.T) {
	m, w, _ := newManager(smallOptions())

	var rebuilt int
	for range 30 {
		rebuilt += m.Update(chunkCenter(math.Vec3i{Y: 4})).Rebuilt
	}
	if rebuilt == 0 {
		t.Fatal("nothing was rebuilt")
	}
	if w.PendingRebuilds() != 0 {
		t.Errorf("rebuild queue not drained: %d", w.PendingRebuilds())
	}
}

func TestZeroMeshBudgetDefersRebuilds(t *testing.T) {
	opts := smallOptions()
	opts.MeshBudget = 0
	m, w, _ := newManager(opts)

	st := m.Update(chunkCenter(math.Vec3i{}))
	if st.Rebuilt != 0 {
		t.Errorf("rebuilt %d chunks with no budget", st.Rebuilt)
	}
	if w.PendingRebuilds() == 0 || st.RebuildsPending != w.PendingRebuilds() {
		t.Errorf("pending rebuilds = %d, stats say %d", w.PendingRebuilds(), st.RebuildsPending)
	}
}

func TestEvictionSavesModifiedChunks(t *testing.T) {
	opts := smallOptions()
	opts.LoadsPerTick = 27
	m, w, src := newManager(opts)

	m.Update(chunkCenter(math.Vec3i{}))
	edit := math.Vec3i{X: -10, Y: 3, Z: 2}
	w.SetBlock(edit, block.Stone)

	// Far enough that nothing overlaps the old window.
	far := chunkCenter(math.Vec3i{X: 100})
	st := m.Update(far)
	if st.Evicted != opts.UnloadsPerTick {
		t.Errorf("evicted %d, want %d", st.Evicted, opts.UnloadsPerTick)
	}
	for range 30 {
		m.Update(far)
	}

	for _, c := range w.Chunks() {
		if !m.InTarget(c.Pos) {
			t.Errorf("chunk %v still loaded outside the target", c.Pos)
		}
	}
	blocks, ok := src.saved[math.ChunkOf(edit)]
	if !ok {
		t.Fatal("modified chunk was not saved before eviction")
	}
	if blocks[world.IndexOf(math.LocalOf(edit))] != block.Stone {
		t.Error("saved chunk lost the edit")
	}
	if _, ok := src.saved[math.Vec3i{X: 1, Y: 1, Z: 1}]; ok {
		t.Error("unmodified chunk was saved")
	}
}

func TestFailedSaveKeepsChunk(t *testing.T) {
	opts := smallOptions()
	opts.RenderDistance = 0
	opts.VerticalBelow = 0
	opts.VerticalAbove = 0
	m, w, src := newManager(opts)

	m.Update(chunkCenter(math.Vec3i{}))
	w.SetBlock(math.Vec3i{X: 1, Y: 1, Z: 1}, block.Stone)
	src.failing = true

	far := chunkCenter(math.Vec3i{X: 50})
	for range 3 {
		m.Update(far)
	}
	if !w.IsChunkLoaded(math.Vec3i{}) {
		t.Fatal("chunk dropped after a failed save")
	}

	src.failing = false
	m.Update(far)
	if w.IsChunkLoaded(math.Vec3i{}) {
		t.Error("chunk not evicted once saving works")
	}
	if _, ok := src.saved[math.Vec3i{}]; !ok {
		t.Error("chunk not saved")
	}
}

func TestReloadUsesSavedChunk(t *testing.T) {
	opts := smallOptions()
	opts.RenderDistance = 0
	opts.VerticalBelow = 0
	opts.VerticalAbove = 0
	m, w, _ := newManager(opts)

	home := chunkCenter(math.Vec3i{})
	m.Update(home)
	w.SetBlock(math.Vec3i{X: 3, Y: 3, Z: 3}, block.Glass)

	m.Update(chunkCenter(math.Vec3i{X: 10}))
	if w.IsChunkLoaded(math.Vec3i{}) {
		t.Fatal("home chunk not evicted")
	}

	st := m.Update(home)
	if st.Loaded != 1 || st.Generated != 0 {
		t.Errorf("reload stats %+v, want one loaded from save", st)
	}
	if w.GetBlock(math.Vec3i{X: 3, Y: 3, Z: 3}) != block.Glass {
		t.Error("reloaded chunk lost the edit")
	}
}

// stoneChunk stores an all-stone chunk at cp in src.
func stoneChunk(src *memSource, cp math.Vec3i) {
	var b world.Blocks
	for i := range b {
		b[i] = block.Stone
	}
	src.saved[cp] = b
}

func countID(b world.Blocks, id block.ID) int {
	n := 0
	for _, v := range b {
		if v == id {
			n++
		}
	}
	return n
}

func TestEditInUnloadedChunkMergesOnLoad(t *testing.T) {
	opts := smallOptions()
	opts.RenderDistance = 0
	opts.VerticalBelow = 0
	opts.VerticalAbove = 0
	m, w, src := newManager(opts)

	cp := math.Vec3i{X: 1}
	stoneChunk(src, cp)
	m.Update(chunkCenter(math.Vec3i{}))

	torch := math.Vec3i{X: 20, Y: 5, Z: 5}
	w.SetBlock(torch, block.Torch)
	if c := w.Chunk(cp); c == nil || !c.Provisional() {
		t.Fatal("edit in unloaded space should leave a provisional chunk")
	}

	st := m.Update(chunkCenter(cp))
	if st.Loaded != 1 {
		t.Fatalf("loaded %d chunks, want 1", st.Loaded)
	}
	if src.loads[len(src.loads)-1] != cp {
		t.Errorf("last load = %v, want %v", src.loads[len(src.loads)-1], cp)
	}
	c := w.Chunk(cp)
	if c.Provisional() || !c.Modified() {
		t.Errorf("merged chunk: provisional %v, modified %v", c.Provisional(), c.Modified())
	}
	if w.GetBlock(torch) != block.Torch {
		t.Error("edit lost in the merge")
	}
	if w.GetBlock(math.Vec3i{X: 17, Y: 5, Z: 5}) != block.Stone {
		t.Error("stored blocks missing after the merge")
	}
	if got := countID(c.Blocks, block.Stone); got != world.Volume-1 {
		t.Errorf("stone voxels = %d, want %d", got, world.Volume-1)
	}
}

func TestEvictingProvisionalChunkKeepsStoredBlocks(t *testing.T) {
	opts := smallOptions()
	opts.RenderDistance = 0
	opts.VerticalBelow = 0
	opts.VerticalAbove = 0
	m, w, src := newManager(opts)

	cp := math.Vec3i{X: 1}
	stoneChunk(src, cp)
	torch := math.Vec3i{X: 20, Y: 5, Z: 5}
	w.SetBlock(torch, block.Torch)

	for range 5 {
		m.Update(chunkCenter(math.Vec3i{X: 40}))
	}
	if w.IsChunkLoaded(cp) {
		t.Fatal("provisional chunk outside the target should be evicted")
	}

	saved := src.saved[cp]
	if got := countID(saved, block.Stone); got != world.Volume-1 {
		t.Errorf("stone voxels in saved chunk = %d, want %d", got, world.Volume-1)
	}
	if saved[world.IndexOf(math.LocalOf(torch))] != block.Torch {
		t.Error("saved chunk lost the edit")
	}
}
