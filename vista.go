package vista

import (
	"fmt"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// Viewpoint is one named camera pose the controller can transition to.
// Viewpoints are created once when a scene finishes loading (or from
// hand-authored configuration) and are never mutated afterwards.
type Viewpoint struct {
	Name     string
	Position mgl64.Vec3
	LookAt   mgl64.Vec3
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView float64
}

// String returns a short human-readable description of the viewpoint.
func (v Viewpoint) String() string {
	return fmt.Sprintf("%s pos=(%.3f, %.3f, %.3f) fov=%.1f",
		v.Name, v.Position.X(), v.Position.Y(), v.Position.Z(), v.FieldOfView)
}

// CameraPose is the per-frame camera state handed to the render loop.
type CameraPose struct {
	Position    mgl64.Vec3
	LookAt      mgl64.Vec3
	FieldOfView float64 // degrees
	Aspect      float64
}

// Direction is the direction of a transition through the viewpoint sequence.
type Direction uint8

const (
	Forward  Direction = iota // toward increasing viewpoint index (scroll down)
	Backward                  // toward decreasing viewpoint index (scroll up)
)

// String returns "forward" or "backward".
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// TransitionEvent describes a completed transition. It is delivered to the
// optional EventSink after the controller has returned to idle.
type TransitionEvent struct {
	From      int
	To        int
	Direction Direction
	// Elapsed is the simulated time in seconds the transition took.
	Elapsed float64
}

// EventSink is the interface for optional ECS integration.
// When set on a Controller, completed transitions are forwarded to it.
type EventSink interface {
	EmitTransition(event TransitionEvent)
}

// Color is an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default wireframe color.
var ColorWhite = Color{1, 1, 1, 1}

// toRGBA converts to a premultiplied color.RGBA for ebiten drawing.
func (c Color) toRGBA() color.RGBA {
	clamp := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{R: clamp(c.R * c.A), G: clamp(c.G * c.A), B: clamp(c.B * c.A), A: clamp(c.A)}
}
