// Package lighting propagates block light and sky light through the voxel world.
//
// Each voxel holds two values in [0, 15]. A voxel's value is one less than its
// brightest face neighbor, or its own emission if higher; opaque voxels hold only
// their emission. Sky light arriving straight down at full strength does not
// dim. Changes are propagated incrementally from queued positions instead of
// relighting whole chunks.
package lighting

import (
	"slices"

	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/fifo"
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/internal/logger"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// Channel selects one of the two light values of a voxel.
type Channel uint8

// Light channels.
const (
	BlockLight Channel = iota
	SkyLight
)

// String returns the channel name.
func (c Channel) String() string {
	if c == SkyLight {
		return "sky"
	}
	return "block"
}

type node struct {
	pos math.Vec3i
	ch  Channel
}

// Options tunes the engine.
type Options struct {
	// HighPriorityCap bounds the high-priority work done in one Process call.
	HighPriorityCap int
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{HighPriorityCap: 10000}
}

// Engine is the incremental light solver for one world.
type Engine struct {
	w    *world.World
	reg  *block.Registry
	opts Options

	// high holds work caused by edits, low holds chunk-load seeding.
	high, low fifo.Queue[node]
	queued    map[node]struct{}
	dirty     map[math.Vec3i]struct{}

	log *zap.Logger
}

// New creates an engine over w and registers it as w's light listener.
func New(w *world.World, opts Options) *Engine {
	if opts.HighPriorityCap <= 0 {
		opts.HighPriorityCap = DefaultOptions().HighPriorityCap
	}
	e := &Engine{
		w:      w,
		reg:    w.Registry(),
		opts:   opts,
		queued: make(map[node]struct{}),
		dirty:  make(map[math.Vec3i]struct{}),
		log:    logger.Named("light"),
	}
	w.SetLightListener(e)
	return e
}

// Pending returns the queued work per priority.
func (e *Engine) Pending() (high, low int) {
	return e.high.Len(), e.low.Len()
}

func (e *Engine) enqueue(pos math.Vec3i, ch Channel, high bool) {
	n := node{pos, ch}
	if _, ok := e.queued[n]; ok {
		return
	}
	e.queued[n] = struct{}{}
	if high {
		e.high.Push(n)
	} else {
		e.low.Push(n)
	}
}

// enqueueAround queues pos and its six face neighbors.
func (e *Engine) enqueueAround(pos math.Vec3i, ch Channel, high bool) {
	e.enqueue(pos, ch, high)
	for _, f := range math.Faces {
		e.enqueue(pos.Neighbor(f), ch, high)
	}
}

func (e *Engine) get(pos math.Vec3i, ch Channel) uint8 {
	bl, sl := e.w.GetLight(pos)
	if ch == SkyLight {
		return sl
	}
	return bl
}

func (e *Engine) set(pos math.Vec3i, ch Channel, v uint8) {
	if !e.w.IsPositionLoaded(pos) {
		return
	}
	bl, sl := e.w.GetLight(pos)
	if ch == SkyLight {
		sl = v
	} else {
		bl = v
	}
	e.w.SetLight(pos, bl, sl)
	e.dirty[math.ChunkOf(pos)] = struct{}{}
}

// BlockChanged schedules relighting after the block at pos went from old to new.
func (e *Engine) BlockChanged(pos math.Vec3i, old, new block.ID) {
	ot, nt := e.reg.Get(old), e.reg.Get(new)
	transparencyChanged := ot.Transparent != nt.Transparent

	if ot.Light != nt.Light || transparencyChanged {
		e.enqueueAround(pos, BlockLight, true)
	}
	if transparencyChanged {
		e.updateSkyColumn(pos, nt.Transparent)
	}
}

// updateSkyColumn handles a voxel that opened or closed a vertical shaft.
// The column walk writes the values propagation would reach anyway, so large
// shafts settle in one tick.
func (e *Engine) updateSkyColumn(pos math.Vec3i, opened bool) {
	if opened {
		if e.get(pos.Up(), SkyLight) == world.MaxLight {
			for p := pos; e.w.IsPositionLoaded(p) && !e.w.IsOpaque(p); p = p.Down() {
				e.set(p, SkyLight, world.MaxLight)
				e.enqueue(p, SkyLight, true)
				for _, f := range math.HorizontalFaces {
					e.enqueue(p.Neighbor(f), SkyLight, true)
				}
			}
		}
	} else {
		for p := pos.Down(); e.w.IsPositionLoaded(p) && !e.w.IsOpaque(p); p = p.Down() {
			if e.get(p, SkyLight) == world.MaxLight {
				e.set(p, SkyLight, 0)
				e.enqueueAround(p, SkyLight, true)
			} else {
				e.enqueue(p, SkyLight, true)
			}
		}
	}
	e.enqueueAround(pos, SkyLight, true)
}

// SeedChunk starts sky light for a freshly loaded chunk. It only writes the
// straight-down columns and queues low-priority work; lateral spread happens
// in later Process calls.
func (e *Engine) SeedChunk(cp math.Vec3i) {
	c := e.w.Chunk(cp)
	if c == nil {
		return
	}
	origin := c.Origin()
	top := origin.Y + world.Size - 1
	aboveLoaded := e.w.IsChunkLoaded(cp.Neighbor(math.Top))

	var lit []math.Vec3i
	for lx := 0; lx < world.Size; lx++ {
		for lz := 0; lz < world.Size; lz++ {
			x, z := origin.X+lx, origin.Z+lz

			incoming := uint8(world.MaxLight)
			if aboveLoaded {
				incoming = e.get(math.Vec3i{X: x, Y: top + 1, Z: z}, SkyLight)
			}

			switch {
			case incoming == world.MaxLight:
				for y := top; y >= origin.Y; y-- {
					p := math.Vec3i{X: x, Y: y, Z: z}
					if e.w.IsOpaque(p) {
						break
					}
					e.set(p, SkyLight, world.MaxLight)
					e.enqueue(p, SkyLight, false)
					lit = append(lit, p)
				}
			case incoming > 1:
				p := math.Vec3i{X: x, Y: top, Z: z}
				if !e.w.IsOpaque(p) {
					e.set(p, SkyLight, incoming-1)
					e.enqueue(p, SkyLight, false)
				}
			}
		}
	}

	// Columns written above never change when solved, so they would not wake
	// the shaded voxels beside them. Queue those directly.
	for _, p := range lit {
		for _, f := range math.HorizontalFaces {
			n := p.Neighbor(f)
			if e.w.IsPositionLoaded(n) && !e.w.IsOpaque(n) && e.get(n, SkyLight) < world.MaxLight-1 {
				e.enqueue(n, SkyLight, false)
			}
		}
	}

	// Both sides of every seam with a loaded neighbor get rechecked.
	for i := 0; i < world.Size; i++ {
		for j := 0; j < world.Size; j++ {
			e.enqueueSeam(origin.Add(math.Vec3i{X: 0, Y: j, Z: i}), math.Left)
			e.enqueueSeam(origin.Add(math.Vec3i{X: world.Size - 1, Y: j, Z: i}), math.Right)
			e.enqueueSeam(origin.Add(math.Vec3i{X: i, Y: j, Z: 0}), math.Back)
			e.enqueueSeam(origin.Add(math.Vec3i{X: i, Y: j, Z: world.Size - 1}), math.Front)
			e.enqueueSeam(origin.Add(math.Vec3i{X: i, Y: 0, Z: j}), math.Bottom)
			e.enqueueSeam(origin.Add(math.Vec3i{X: i, Y: world.Size - 1, Z: j}), math.Top)
		}
	}

	// Light is not saved, so emitters in the chunk start from scratch.
	for i, id := range c.Blocks {
		if e.reg.Emission(id) > 0 {
			e.enqueue(origin.Add(world.LocalAt(i)), BlockLight, false)
		}
	}
}

// enqueueSeam queues a boundary voxel's sky light, and the voxel across the
// boundary when that chunk is loaded. The four vertical faces are always
// queued; top and bottom only when a neighbor exists.
func (e *Engine) enqueueSeam(p math.Vec3i, f math.Face) {
	across := p.Neighbor(f)
	acrossLoaded := e.w.IsPositionLoaded(across)
	if f == math.Top || f == math.Bottom {
		if !acrossLoaded {
			return
		}
	}
	e.enqueue(p, SkyLight, false)
	if acrossLoaded {
		e.enqueue(across, SkyLight, false)
		e.enqueue(across, BlockLight, false)
	}
}

// solve recomputes one voxel and wakes its neighbors if the value changed.
func (e *Engine) solve(n node, high bool) {
	if !e.w.IsPositionLoaded(n.pos) {
		return
	}
	id := e.w.GetBlock(n.pos)

	var emission int
	if n.ch == BlockLight {
		emission = int(e.reg.Emission(id))
	}

	v := emission
	if !e.reg.IsOpaque(id) {
		brightest := 0
		for _, f := range math.Faces {
			p := n.pos.Neighbor(f)
			skyAbove := n.ch == SkyLight && f == math.Top
			if !skyAbove && !e.w.IsPositionLoaded(p) {
				// Unloaded space only lights from above, as open sky.
				continue
			}
			l := int(e.get(p, n.ch))
			if skyAbove && l == world.MaxLight {
				l++
			}
			brightest = max(brightest, l)
		}
		v = max(brightest-1, emission)
	}
	v = min(max(v, 0), world.MaxLight)

	if uint8(v) == e.get(n.pos, n.ch) {
		return
	}
	e.set(n.pos, n.ch, uint8(v))
	for _, f := range math.Faces {
		p := n.pos.Neighbor(f)
		if e.w.IsPositionLoaded(p) {
			e.enqueue(p, n.ch, high)
		}
	}
}

// Process drains all high-priority work (up to the safety cap) and then up to
// lowBudget low-priority entries. Chunks whose light changed are queued for
// rebuild once at the end. It reports whether work remains.
func (e *Engine) Process(lowBudget int) bool {
	solved := 0
	for range e.opts.HighPriorityCap {
		n, ok := e.high.Pop()
		if !ok {
			break
		}
		delete(e.queued, n)
		e.solve(n, true)
		solved++
	}
	if e.high.Len() > 0 {
		e.log.Warn("high priority light cap reached",
			zap.Int("cap", e.opts.HighPriorityCap),
			zap.Int("remaining", e.high.Len()))
	}

	for range lowBudget {
		n, ok := e.low.Pop()
		if !ok {
			break
		}
		delete(e.queued, n)
		e.solve(n, false)
		solved++
	}

	if solved > 0 {
		e.flushDirty()
	}
	if e.low.Len() > 0 {
		e.log.Debug("light backlog", zap.Int("low", e.low.Len()))
	}
	return e.high.Len() > 0 || e.low.Len() > 0
}

// Settle runs Process until both queues are empty.
func (e *Engine) Settle() {
	for e.Process(1 << 20) {
	}
}

// flushDirty queues every chunk whose light changed, and its face neighbors,
// for a mesh rebuild.
func (e *Engine) flushDirty() {
	if len(e.dirty) == 0 {
		return
	}
	chunks := make([]math.Vec3i, 0, len(e.dirty))
	for cp := range e.dirty {
		chunks = append(chunks, cp)
	}
	slices.SortFunc(chunks, func(a, b math.Vec3i) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})

	for _, cp := range chunks {
		e.w.MarkDirty(cp)
		for _, f := range math.Faces {
			e.w.MarkDirty(cp.Neighbor(f))
		}
	}
	clear(e.dirty)
}
