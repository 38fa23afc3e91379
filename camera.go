package vista

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	defaultFieldOfView = 31.0
	defaultNear        = 0.01
	defaultFar         = 100.0
)

// PerspectiveCamera is the active camera: a position, a point it looks at,
// a vertical field of view, and the viewport it renders into.
type PerspectiveCamera struct {
	// Position is the world-space eye position.
	Position mgl64.Vec3
	// LookAt is the world-space point the camera faces.
	LookAt mgl64.Vec3
	// Up is the world up vector used to build the view matrix.
	Up mgl64.Vec3
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView float64
	Near, Far   float64

	width, height int
	aspect        float64

	viewProj mgl64.Mat4
	dirty    bool
}

// newCamera creates a camera with default values and the given viewport size.
func newCamera(width, height int) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Up:          mgl64.Vec3{0, 1, 0},
		FieldOfView: defaultFieldOfView,
		Near:        defaultNear,
		Far:         defaultFar,
		aspect:      1,
		dirty:       true,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport recomputes the aspect ratio from the viewport size.
// Non-positive sizes are ignored.
func (c *PerspectiveCamera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width, c.height = width, height
	c.aspect = float64(width) / float64(height)
	c.dirty = true
}

// Aspect returns the current width/height ratio.
func (c *PerspectiveCamera) Aspect() float64 {
	return c.aspect
}

// Viewport returns the viewport size in pixels.
func (c *PerspectiveCamera) Viewport() (width, height int) {
	return c.width, c.height
}

// MarkDirty forces a recomputation of the view-projection matrix.
func (c *PerspectiveCamera) MarkDirty() {
	c.dirty = true
}

// Pose returns the camera state as a CameraPose.
func (c *PerspectiveCamera) Pose() CameraPose {
	return CameraPose{
		Position:    c.Position,
		LookAt:      c.LookAt,
		FieldOfView: c.FieldOfView,
		Aspect:      c.aspect,
	}
}

// ViewProjection returns the combined projection * view matrix, recomputed
// only when the camera changed since the last call.
func (c *PerspectiveCamera) ViewProjection() mgl64.Mat4 {
	if !c.dirty {
		return c.viewProj
	}
	c.dirty = false

	up := c.Up
	forward := c.LookAt.Sub(c.Position)
	// Looking straight along Up degenerates the basis; pick another up.
	if forward.Len() > 0 && math.Abs(forward.Normalize().Dot(up.Normalize())) > 0.999 {
		up = mgl64.Vec3{0, 0, 1}
	}
	view := mgl64.LookAtV(c.Position, c.LookAt, up)
	proj := mgl64.Perspective(mgl64.DegToRad(c.FieldOfView), c.aspect, c.Near, c.Far)
	c.viewProj = proj.Mul4(view)
	return c.viewProj
}

// WorldToScreen projects a world-space point into viewport pixels.
// ok is false when the point lies behind the camera.
func (c *PerspectiveCamera) WorldToScreen(p mgl64.Vec3) (sx, sy float64, ok bool) {
	clip := c.ViewProjection().Mul4x1(p.Vec4(1))
	if clip.W() <= 1e-9 {
		return 0, 0, false
	}
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	sx = (ndcX + 1) * 0.5 * float64(c.width)
	sy = (1 - ndcY) * 0.5 * float64(c.height)
	return sx, sy, true
}
