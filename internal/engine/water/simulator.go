// Package water spreads flowing water through the world a few hundred
// voxels per tick.
package water

import (
	"go.uber.org/zap"

	"github.com/kivi-man/voxelworld/internal/fifo"
	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/game/world"
	"github.com/kivi-man/voxelworld/internal/logger"
	"github.com/kivi-man/voxelworld/pkg/math"
)

// Water levels. A source is full; each horizontal step adds one level until MaxLevel.
const (
	Source   uint8 = 0
	MaxLevel uint8 = world.MaxWaterLevel
)

// Options tunes the simulator.
type Options struct {
	// FlowBudget bounds the positions processed per Step.
	FlowBudget int
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{FlowBudget: 500}
}

// Simulator owns the flow queue for one world.
type Simulator struct {
	w     *world.World
	reg   *block.Registry
	opts  Options
	queue *fifo.Set[math.Vec3i]
	log   *zap.Logger
}

// New creates a simulator and registers it as w's water listener.
func New(w *world.World, opts Options) *Simulator {
	if opts.FlowBudget <= 0 {
		opts.FlowBudget = DefaultOptions().FlowBudget
	}
	s := &Simulator{
		w:     w,
		reg:   w.Registry(),
		opts:  opts,
		queue: fifo.NewSet[math.Vec3i](),
		log:   logger.Named("water"),
	}
	w.SetWaterListener(s)
	return s
}

// WaterPlaced queues newly placed water.
func (s *Simulator) WaterPlaced(pos math.Vec3i) {
	s.queue.Push(pos)
}

// NeighborChanged queues the water next to a changed voxel so it can flow in.
func (s *Simulator) NeighborChanged(pos math.Vec3i) {
	for _, f := range math.Faces {
		if n := pos.Neighbor(f); s.isWater(n) {
			s.queue.Push(n)
		}
	}
}

// Pending returns the number of queued positions.
func (s *Simulator) Pending() int {
	return s.queue.Len()
}

func (s *Simulator) isWater(pos math.Vec3i) bool {
	return s.reg.IsWater(s.w.GetBlock(pos))
}

// Step processes up to FlowBudget queued positions. Positions queued while
// stepping wait for the next call. It reports whether work remains.
func (s *Simulator) Step() bool {
	n := min(s.queue.Len(), s.opts.FlowBudget)
	for range n {
		pos, ok := s.queue.Pop()
		if !ok {
			break
		}
		s.flow(pos)
	}
	if s.queue.Len() > 0 {
		s.log.Debug("water backlog", zap.Int("pending", s.queue.Len()))
	}
	return s.queue.Len() > 0
}

func (s *Simulator) flow(pos math.Vec3i) {
	if !s.w.IsPositionLoaded(pos) || !s.isWater(pos) {
		return
	}
	level := s.w.WaterLevel(pos)

	below := pos.Down()
	if s.w.IsPositionLoaded(below) {
		switch id := s.w.GetBlock(below); {
		case id == block.Air:
			s.w.SetWater(below, Source)
			return
		case s.reg.IsWater(id):
			if s.w.WaterLevel(below) > Source {
				s.w.SetWaterLevel(below, Source)
				s.queue.Push(below)
			}
			return
		}
	}

	if level >= MaxLevel {
		return
	}
	for _, f := range math.HorizontalFaces {
		n := pos.Neighbor(f)
		if !s.w.IsPositionLoaded(n) {
			continue
		}
		switch id := s.w.GetBlock(n); {
		case id == block.Air:
			s.w.SetWater(n, level+1)
		case s.reg.IsWater(id):
			if s.w.WaterLevel(n) > level+1 {
				s.w.SetWaterLevel(n, level+1)
				s.queue.Push(n)
			}
		}
	}
}
