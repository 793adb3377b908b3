package math

// Face identifies one of the six axis-aligned faces of a voxel.
type Face uint8

// Face order is fixed; mesh shading tables and texture layers are indexed by it.
const (
	Right  Face = iota // +X
	Left               // -X
	Top                // +Y
	Bottom             // -Y
	Front              // +Z
	Back               // -Z
)

// Faces lists every face in canonical order.
var Faces = [6]Face{Right, Left, Top, Bottom, Front, Back}

// HorizontalFaces lists the four faces perpendicular to the XZ plane.
var HorizontalFaces = [4]Face{Right, Left, Front, Back}

var faceOffsets = [6]Vec3i{
	{1, 0, 0},
	{-1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
}

// Offset returns the unit step across the face.
func (f Face) Offset() Vec3i {
	return faceOffsets[f]
}

// Opposite returns the face pointing the other way.
func (f Face) Opposite() Face {
	return f ^ 1
}

// String returns a human-readable face name.
func (f Face) String() string {
	switch f {
	case Right:
		return "Right"
	case Left:
		return "Left"
	case Top:
		return "Top"
	case Bottom:
		return "Bottom"
	case Front:
		return "Front"
	case Back:
		return "Back"
	default:
		return "Unknown"
	}
}
