// Package camera provides the first-person view used to pick which chunks
// are drawn.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// maxPitch keeps the view direction off the vertical, where the up vector degenerates.
const maxPitch = gomath.Pi/2 - 0.01

// Camera is a first-person camera.
type Camera struct {
	Position mgl64.Vec3
	Yaw      float64 // radians, 0 looks along +X, increasing towards +Z
	Pitch    float64 // radians, positive looks up

	FOV    float32 // vertical field of view in degrees
	Aspect float32
	Near   float32
	Far    float32
}

// New creates a camera at pos with default projection settings.
func New(pos mgl64.Vec3, yaw, pitch float64) *Camera {
	return &Camera{
		Position: pos,
		Yaw:      yaw,
		Pitch:    pitch,
		FOV:      70,
		Aspect:   16.0 / 9.0,
		Near:     0.1,
		Far:      1000,
	}
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl64.Vec3 {
	pitch := mgl64.Clamp(c.Pitch, -maxPitch, maxPitch)
	cp := gomath.Cos(pitch)
	return mgl64.Vec3{
		gomath.Cos(c.Yaw) * cp,
		gomath.Sin(pitch),
		gomath.Sin(c.Yaw) * cp,
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	eye := vec32(c.Position)
	center := eye.Add(vec32(c.Forward()))
	return mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Frustum returns the view volume of the camera.
func (c *Camera) Frustum() Frustum {
	m := c.ProjectionMatrix().Mul4(c.ViewMatrix())
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	return Frustum{
		eye: c.Position,
		planes: [6]mgl32.Vec4{
			r3.Add(r0), r3.Sub(r0),
			r3.Add(r1), r3.Sub(r1),
			r3.Add(r2), r3.Sub(r2),
		},
	}
}

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
