package lumen

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera carries the view/projection state the lighting pass needs. Near and
// Far bound the cluster grid's depth slicing; they must match the projection
// matrix the host renderer uses for the main pass.
type Camera struct {
	View mgl32.Mat4
	Proj mgl32.Mat4
	Near float32
	Far  float32
}

// NewPerspectiveCamera is a convenience for tests and demos.
func NewPerspectiveCamera(eye, target, up mgl32.Vec3, fovy, aspect, near, far float32) Camera {
	return Camera{
		View: mgl32.LookAtV(eye, target, up),
		Proj: mgl32.Perspective(fovy, aspect, near, far),
		Near: near,
		Far:  far,
	}
}
