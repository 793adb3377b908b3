// Package math provides integer voxel coordinate math.
package math

import (
	"fmt"
	"math"
)

// ChunkShift is log2 of the chunk edge length.
const ChunkShift = 4

// ChunkMask masks a world coordinate down to its chunk-local part.
const ChunkMask = 1<<ChunkShift - 1

// Vec3i is an integer 3D position, used for both world voxels and chunk coordinates.
type Vec3i struct {
	X, Y, Z int
}

// Add returns v + other.
func (v Vec3i) Add(other Vec3i) Vec3i {
	return Vec3i{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3i) Sub(other Vec3i) Vec3i {
	return Vec3i{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * s.
func (v Vec3i) Scale(s int) Vec3i {
	return Vec3i{v.X * s, v.Y * s, v.Z * s}
}

// Up returns the position directly above v.
func (v Vec3i) Up() Vec3i {
	return Vec3i{v.X, v.Y + 1, v.Z}
}

// Down returns the position directly below v.
func (v Vec3i) Down() Vec3i {
	return Vec3i{v.X, v.Y - 1, v.Z}
}

// Neighbor returns the position adjacent to v across face f.
func (v Vec3i) Neighbor(f Face) Vec3i {
	return v.Add(f.Offset())
}

// HorizontalDistSq returns the squared distance between v and other on the XZ plane.
func (v Vec3i) HorizontalDistSq(other Vec3i) int {
	dx := v.X - other.X
	dz := v.Z - other.Z
	return dx*dx + dz*dz
}

// String returns the position as "(x, y, z)".
func (v Vec3i) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}

// Less orders positions by X, then Y, then Z.
func (v Vec3i) Less(other Vec3i) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

// ChunkOf returns the chunk coordinate holding world position p (floor division by 16).
func ChunkOf(p Vec3i) Vec3i {
	return Vec3i{p.X >> ChunkShift, p.Y >> ChunkShift, p.Z >> ChunkShift}
}

// LocalOf returns p's position inside its chunk, each component in [0, 15].
func LocalOf(p Vec3i) Vec3i {
	return Vec3i{p.X & ChunkMask, p.Y & ChunkMask, p.Z & ChunkMask}
}

// ChunkOrigin returns the world position of a chunk's (0, 0, 0) voxel.
func ChunkOrigin(cp Vec3i) Vec3i {
	return Vec3i{cp.X << ChunkShift, cp.Y << ChunkShift, cp.Z << ChunkShift}
}

// Floor converts a float world position to the voxel containing it.
func Floor(x, y, z float64) Vec3i {
	return Vec3i{int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(z))}
}
