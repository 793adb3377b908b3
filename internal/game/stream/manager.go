// Package stream keeps the chunks around the player loaded, lit and meshed,
// spreading the work over ticks with fixed budgets.
package stream

import (
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/internal/logger"
	"github.com/kivi-man/voxelworld/internal/save"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// ChunkSource loads and persists chunks.
type ChunkSource interface {
	LoadChunk(cp math.Vec3i) (*world.Chunk, save.Source)
	SaveChunk(c *world.Chunk) error
}

// Lighter seeds and advances light propagation.
type Lighter interface {
	SeedChunk(cp math.Vec3i)
	Process(lowBudget int) bool
	Pending() (high, low int)
}

// Mesher rebuilds chunk geometry.
type Mesher interface {
	RebuildChunk(cp math.Vec3i) bool
}

// Options holds the streaming window and per-tick budgets.
type Options struct {
	RenderDistance int
	VerticalBelow  int
	VerticalAbove  int
	LoadsPerTick   int
	UnloadsPerTick int
	MeshBudget     time.Duration
	LightBudget    int
}

// DefaultOptions returns the standard budgets.
func DefaultOptions() Options {
	return Options{
		RenderDistance: 4,
		VerticalBelow:  2,
		VerticalAbove:  2,
		LoadsPerTick:   1,
		UnloadsPerTick: 2,
		MeshBudget:     3 * time.Millisecond,
		LightBudget:    1500,
	}
}

// Stats reports the work done by one Update.
type Stats struct {
	Loaded          int
	Generated       int
	Rebuilt         int
	Evicted         int
	LightPending    int
	RebuildsPending int
	Chunks          int
}

// Manager streams chunks in and out around a moving center.
type Manager struct {
	w      *world.World
	source ChunkSource
	light  Lighter
	mesher Mesher
	opts   Options

	center    math.Vec3i
	hasCenter bool
	// wanted is the target set in load order.
	wanted []math.Vec3i
	target map[math.Vec3i]struct{}

	now func() time.Time
	log *zap.Logger
}

// New creates a manager. Nothing is loaded until the first Update.
func New(w *world.World, source ChunkSource, light Lighter, mesher Mesher, opts Options) *Manager {
	return &Manager{
		w:      w,
		source: source,
		light:  light,
		mesher: mesher,
		opts:   opts,
		target: make(map[math.Vec3i]struct{}),
		now:    time.Now,
		log:    logger.Named("stream"),
	}
}

// Center returns the chunk the target set is built around.
func (m *Manager) Center() math.Vec3i {
	return m.center
}

// InTarget reports whether cp is inside the current target set.
func (m *Manager) InTarget(cp math.Vec3i) bool {
	_, ok := m.target[cp]
	return ok
}

// TargetSize returns the number of chunks in the target set.
func (m *Manager) TargetSize() int {
	return len(m.wanted)
}

// Update runs one tick of streaming for a player at pos: load, light,
// mesh and evict, each within its budget.
func (m *Manager) Update(pos mgl64.Vec3) Stats {
	cp := math.ChunkOf(math.Floor(pos.X(), pos.Y(), pos.Z()))
	if !m.hasCenter || cp != m.center {
		m.retarget(cp)
	}

	var st Stats
	st.Loaded, st.Generated = m.load()
	m.light.Process(m.opts.LightBudget)
	st.Rebuilt = m.rebuild()
	st.Evicted = m.evict()

	high, low := m.light.Pending()
	st.LightPending = high + low
	st.RebuildsPending = m.w.PendingRebuilds()
	st.Chunks = m.w.Len()
	return st
}

func (m *Manager) retarget(center math.Vec3i) {
	m.center = center
	m.hasCenter = true
	m.wanted = m.wanted[:0]
	clear(m.target)

	r := m.opts.RenderDistance
	for x := center.X - r; x <= center.X+r; x++ {
		for z := center.Z - r; z <= center.Z+r; z++ {
			for y := center.Y - m.opts.VerticalBelow; y <= center.Y+m.opts.VerticalAbove; y++ {
				cp := math.Vec3i{X: x, Y: y, Z: z}
				m.wanted = append(m.wanted, cp)
				m.target[cp] = struct{}{}
			}
		}
	}

	// Nearest columns first; within a column the top loads first so sky
	// light can be seeded from above.
	slices.SortFunc(m.wanted, func(a, b math.Vec3i) int {
		if da, db := a.HorizontalDistSq(center), b.HorizontalDistSq(center); da != db {
			return da - db
		}
		if a.Y != b.Y {
			return b.Y - a.Y
		}
		if a.X != b.X {
			return a.X - b.X
		}
		return a.Z - b.Z
	})

	m.log.Debug("target set changed", zap.Stringer("center", center), zap.Int("chunks", len(m.wanted)))
}

func (m *Manager) load() (loaded, generated int) {
	for _, cp := range m.wanted {
		if loaded >= m.opts.LoadsPerTick {
			break
		}
		edits := m.w.Chunk(cp)
		if edits != nil && !edits.Provisional() {
			continue
		}

		c, src := m.source.LoadChunk(cp)
		if edits != nil {
			edits.Overlay(c)
			m.log.Debug("merged edits into loaded chunk", zap.Stringer("chunk", cp))
		}
		m.w.Install(c)
		m.light.SeedChunk(cp)
		m.w.MarkDirty(cp)
		for _, f := range math.HorizontalFaces {
			m.w.MarkDirty(cp.Neighbor(f))
		}

		loaded++
		if src == save.Generated {
			generated++
		}
		m.log.Debug("chunk loaded", zap.Stringer("chunk", cp), zap.Stringer("source", src))
	}
	return loaded, generated
}

// rebuild meshes dirty chunks in queue order until the wall-time budget,
// measured from the start of this phase, runs out.
func (m *Manager) rebuild() int {
	start := m.now()
	n := 0
	for m.now().Sub(start) < m.opts.MeshBudget {
		cp, ok := m.w.NextDirty()
		if !ok {
			break
		}
		if m.mesher.RebuildChunk(cp) {
			n++
		}
	}
	return n
}

func (m *Manager) evict() int {
	evicted, attempts := 0, 0
	outside := m.w.ChunksWhere(func(c *world.Chunk) bool { return !m.InTarget(c.Pos) })
	for _, c := range outside {
		if attempts >= m.opts.UnloadsPerTick {
			break
		}
		attempts++

		if c.Provisional() {
			// Save the edits on top of the stored chunk, never in place of it.
			base, _ := m.source.LoadChunk(c.Pos)
			c.Overlay(base)
			c = base
		}
		if c.Modified() {
			if err := m.source.SaveChunk(c); err != nil {
				m.log.Warn("keeping chunk after failed save", zap.Stringer("chunk", c.Pos), zap.Error(err))
				continue
			}
		}
		// Remove also drops any pending rebuild.
		m.w.Remove(c.Pos)
		evicted++
	}
	return evicted
}
