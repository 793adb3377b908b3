package mesh

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// newMeshWorld installs chunks in [-r, r]^3 filled by fill.
func newMeshWorld(r int, fill func(p math.Vec3i) block.ID) *world.World {
	w := world.New(block.Default())
	for cx := -r; cx <= r; cx++ {
		for cy := -r; cy <= r; cy++ {
			for cz := -r; cz <= r; cz++ {
				c := world.NewChunk(math.Vec3i{X: cx, Y: cy, Z: cz})
				for i := range c.Blocks {
					c.Blocks[i] = fill(c.Origin().Add(world.LocalAt(i)))
				}
				w.Install(c)
			}
		}
	}
	return w
}

func air(math.Vec3i) block.ID { return block.Air }

func quads(m *world.MeshBuffers) int {
	return m.IndexCount() / 6
}

func vertex(m *world.MeshBuffers, i int) mgl32.Vec3 {
	return mgl32.Vec3{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
}

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func TestCullingAgainstOpaque(t *testing.T) {
	hole := math.Vec3i{X: 8, Y: 8, Z: 8}
	w := newMeshWorld(1, func(p math.Vec3i) block.ID {
		if p == hole {
			return block.Air
		}
		return block.Stone
	})
	b := New(w)
	if !b.RebuildChunk(math.Vec3i{}) {
		t.Fatal("chunk not loaded")
	}
	c := w.Chunk(math.Vec3i{})

	if got := quads(&c.Solid); got != 6 {
		t.Fatalf("solid quads = %d, want one per face of the hole", got)
	}
	center := mgl32.Vec3{8.5, 8.5, 8.5}
	for q := range 6 {
		v0, v1, v2 := vertex(&c.Solid, 4*q), vertex(&c.Solid, 4*q+1), vertex(&c.Solid, 4*q+2)
		normal := v1.Sub(v0).Cross(v2.Sub(v0))
		mid := v0.Add(v2).Mul(0.5)
		if !near(mid.Sub(center).Len(), 0.5) {
			t.Errorf("quad %d at %v does not touch the hole", q, mid)
		}
		if normal.Dot(center.Sub(mid)) <= 0 {
			t.Errorf("quad %d faces away from the air", q)
		}
	}
	if c.WaterIndexCount() != 0 {
		t.Error("no water expected")
	}
}

func TestAdjacentCubes(t *testing.T) {
	tests := []struct {
		name string
		a, b block.ID
		want int
	}{
		{"stone pair", block.Stone, block.Stone, 10},
		{"glass pair merges", block.Glass, block.Glass, 10},
		{"glass beside stone", block.Glass, block.Stone, 11},
		{"leaves pair", block.OakLeaves, block.OakLeaves, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newMeshWorld(0, air)
			w.SetBlock(math.Vec3i{X: 4, Y: 4, Z: 4}, tt.a)
			w.SetBlock(math.Vec3i{X: 5, Y: 4, Z: 4}, tt.b)
			New(w).RebuildChunk(math.Vec3i{})

			if got := quads(&w.Chunk(math.Vec3i{}).Solid); got != tt.want {
				t.Errorf("quads = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQuadIndexPattern(t *testing.T) {
	w := newMeshWorld(0, air)
	w.SetBlock(math.Vec3i{X: 1, Y: 1, Z: 1}, block.Stone)
	New(w).RebuildChunk(math.Vec3i{})

	c := w.Chunk(math.Vec3i{})
	want := []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}
	for i, idx := range want {
		if c.Solid.Indices[i] != idx {
			t.Fatalf("indices = %v, want prefix %v", c.Solid.Indices[:12], want)
		}
	}
	if c.Solid.VertexCount() != 24 || len(c.Solid.TexCoords) != 72 || len(c.Solid.Shading) != 24 {
		t.Errorf("attribute lengths = %d/%d/%d", c.Solid.VertexCount(), len(c.Solid.TexCoords), len(c.Solid.Shading))
	}
	if !c.NeedsDraw() {
		t.Error("chunk with one block should need a draw")
	}
}

func TestShadeFromOutwardNeighbor(t *testing.T) {
	w := newMeshWorld(0, air)
	pos := math.Vec3i{X: 8, Y: 8, Z: 8}
	w.SetBlock(pos, block.Stone)
	w.SetLight(pos.Neighbor(math.Top), 0, 15)
	w.SetLight(pos.Neighbor(math.Right), 6, 3)
	New(w).RebuildChunk(math.Vec3i{})

	s := w.Chunk(math.Vec3i{}).Solid.Shading
	// Quads come out in face order: right, left, top.
	if !near(s[0], 0.6*6/15) {
		t.Errorf("right shade = %v, want %v", s[0], 0.6*6/15)
	}
	if s[4] != 0 {
		t.Errorf("left shade = %v, want 0", s[4])
	}
	if !near(s[8], 1) {
		t.Errorf("top shade = %v, want 1", s[8])
	}

	// The grass top layer is used on its top face.
	w.SetBlock(pos, block.Grass)
	New(w).RebuildChunk(math.Vec3i{})
	tc := w.Chunk(math.Vec3i{}).Solid.TexCoords
	if tc[2] != 4 || tc[8*3+2] != 3 {
		t.Errorf("grass layers right=%v top=%v, want 4 and 3", tc[2], tc[8*3+2])
	}
}

func TestColumnHeight(t *testing.T) {
	tests := []struct {
		level uint8
		want  float32
	}{
		{0, 1},
		{1, float32(1 - gomath.Pow(0.2, 1.5))},
		{4, float32(1 - gomath.Pow(0.8, 1.5))},
		{5, 0.1},
		{7, 0.1},
	}
	for _, tt := range tests {
		if got := ColumnHeight(tt.level); !near(got, tt.want) {
			t.Errorf("ColumnHeight(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestWaterSurface(t *testing.T) {
	w := newMeshWorld(0, air)
	w.SetWater(math.Vec3i{X: 8, Y: 8, Z: 8}, 5)
	New(w).RebuildChunk(math.Vec3i{})

	c := w.Chunk(math.Vec3i{})
	if c.SolidIndexCount() != 0 {
		t.Error("water must not go to the solid pass")
	}
	if quads(&c.Water) != 6 {
		t.Fatalf("water quads = %d, want 6", quads(&c.Water))
	}
	for i := 8; i < 12; i++ {
		if y := vertex(&c.Water, i)[1]; !near(y, 8.05) {
			t.Errorf("thin water top vertex %d at y=%v, want 8.05", i, y)
		}
	}
}

func TestWaterMeniscusAveragesNeighbors(t *testing.T) {
	w := newMeshWorld(0, air)
	w.SetWater(math.Vec3i{X: 8, Y: 8, Z: 8}, 0)
	w.SetWater(math.Vec3i{X: 9, Y: 8, Z: 8}, 5)
	New(w).RebuildChunk(math.Vec3i{})

	// The source loses its right face to the neighbor, so quads are
	// left, top, bottom, front, back.
	c := w.Chunk(math.Vec3i{})
	want := []float32{8.55, 8.55, 9, 9}
	for i, y := range want {
		v := vertex(&c.Water, 4+i)
		if !near(v[1], y) {
			t.Errorf("source top corner %d at y=%v, want %v", i, v[1], y)
		}
	}
}

func TestPlantTemplate(t *testing.T) {
	w := newMeshWorld(0, air)
	w.SetBlock(math.Vec3i{X: 3, Y: 3, Z: 3}, block.TallGrass)
	w.SetBlock(math.Vec3i{X: 3, Y: 2, Z: 3}, block.Stone)
	New(w).RebuildChunk(math.Vec3i{})

	// Four plant quads are never culled, the stone below keeps all six.
	if got := quads(&w.Chunk(math.Vec3i{}).Solid); got != 4+6 {
		t.Errorf("quads = %d, want %d", got, 10)
	}
}

func TestRebuildUnloaded(t *testing.T) {
	w := world.New(block.Default())
	if New(w).RebuildChunk(math.Vec3i{X: 3}) {
		t.Error("rebuilding an unloaded chunk should report false")
	}
}
